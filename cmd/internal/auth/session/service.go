package session

import (
	"context"
	"errors"
	"log/slog"

	"tunebox/cmd/identity"
)

// Service runs the session state machine on top of the identity resolver.
//
// Every identity transition fully replaces the caller's slot; Logout clears it.
// Only GetProfile, UpdateProfile and UpdatePassword read or write the store
// outside a login flow.
type Service struct {
	resolver *identity.Resolver
	store    identity.Store
	log      *slog.Logger
}

// NewService constructs a Service over resolver.
func NewService(resolver *identity.Resolver, log *slog.Logger) (*Service, error) {
	if resolver == nil {
		return nil, errors.New("session: service requires a resolver")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{resolver: resolver, store: resolver.Store(), log: log}, nil
}

// Signup creates a local account and authenticates the caller as it.
func (s *Service) Signup(ctx context.Context, slot Slot, username, email, password string) (UserView, error) {
	u, err := s.resolver.SignupLocal(ctx, username, email, password)
	if err != nil {
		return UserView{}, err
	}
	return s.authenticate(slot, "session.signup", u)
}

// Login authenticates the caller by email or username.
func (s *Service) Login(ctx context.Context, slot Slot, identifier, password string) (UserView, error) {
	u, err := s.resolver.LoginLocal(ctx, identifier, password)
	if err != nil {
		return UserView{}, err
	}
	return s.authenticate(slot, "session.login", u)
}

// FederatedLogin finds or creates the account for a provider identity and
// authenticates the caller as it.
func (s *Service) FederatedLogin(ctx context.Context, slot Slot, in identity.FederatedInput) (UserView, error) {
	u, err := s.resolver.ResolveFederated(ctx, in)
	if err != nil {
		return UserView{}, err
	}
	return s.authenticate(slot, "session.federated_login", u)
}

// SetGuest discards any prior state and makes the caller a guest.
func (s *Service) SetGuest(ctx context.Context, slot Slot) (UserView, error) {
	const op = "session.set_guest"

	if err := slot.Clear(); err != nil {
		return UserView{}, slotError(op, err)
	}
	st := guestState()
	if err := slot.Replace(st); err != nil {
		return UserView{}, slotError(op, err)
	}
	return st.View(), nil
}

// Logout returns the caller to Anonymous.
func (s *Service) Logout(ctx context.Context, slot Slot) error {
	if err := slot.Clear(); err != nil {
		return slotError("session.logout", err)
	}
	return nil
}

// CurrentUser reports the caller from slot alone.
func (s *Service) CurrentUser(slot Slot) (UserView, bool) {
	st, ok := slot.Load()
	if !ok {
		return UserView{}, false
	}
	return st.View(), true
}

// Authenticated returns the slot state when the caller is a logged-in user.
func (s *Service) Authenticated(slot Slot) (State, error) {
	st, ok := slot.Load()
	if !ok || st.Guest || st.UserID == "" {
		return State{}, ErrNotAuthenticated
	}
	return st, nil
}

// GetProfile returns the stored profile for id.
func (s *Service) GetProfile(ctx context.Context, id string) (identity.Profile, bool, error) {
	u, ok, err := s.store.FindByID(ctx, id)
	if err != nil || !ok {
		return identity.Profile{}, ok, err
	}
	return u.Profile(), true, nil
}

// UpdateProfile changes the username and email of the authenticated caller
// and re-syncs the slot to the stored values.
func (s *Service) UpdateProfile(ctx context.Context, slot Slot, id, username, email string) (UserView, error) {
	const op = "session.update_profile"

	st, err := s.Authenticated(slot)
	if err != nil {
		return UserView{}, err
	}
	if st.UserID != id {
		return UserView{}, ErrNotAuthenticated
	}

	if err := identity.ValidateEmail(op, email); err != nil {
		return UserView{}, err
	}
	if err := identity.ValidateUsername(op, username); err != nil {
		return UserView{}, err
	}

	u, err := s.store.UpdateProfile(ctx, id, username, email)
	if err != nil {
		return UserView{}, err
	}

	next := stateFor(u)
	if err := slot.Replace(next); err != nil {
		return UserView{}, slotError(op, err)
	}
	return next.View(), nil
}

// UpdatePassword sets a new password for id.
func (s *Service) UpdatePassword(ctx context.Context, id, password string) error {
	const op = "session.update_password"

	if err := s.resolver.ValidatePassword(op, password); err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, id, password)
}

func (s *Service) authenticate(slot Slot, op string, u identity.User) (UserView, error) {
	st := stateFor(u)
	if err := slot.Replace(st); err != nil {
		s.log.Error(op+".fail", "user_id", u.ID, "err", err)
		return UserView{}, slotError(op, err)
	}
	s.log.Debug(op, "user_id", u.ID)
	return st.View(), nil
}

func stateFor(u identity.User) State {
	return State{UserID: u.ID, Username: u.Username, Email: u.Email}
}
