package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Resolver turns credentials or a federated identity into a stored user.
type Resolver struct {
	store Store
	codec *PasswordCodec
	log   *slog.Logger
}

// NewResolver wires a resolver over store.
func NewResolver(store Store, codec *PasswordCodec, log *slog.Logger) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("identity: resolver requires a store")
	}
	if codec == nil {
		return nil, errors.New("identity: resolver requires a password codec")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{store: store, codec: codec, log: log}, nil
}

// Store returns the underlying user store.
func (r *Resolver) Store() Store { return r.store }

// LoginLocal authenticates identifier (email or username) with password.
//
// Unknown identifiers and wrong passwords fail identically. The one
// distinguishable failure is an account that has no local password.
func (r *Resolver) LoginLocal(ctx context.Context, identifier, password string) (User, error) {
	const op = "identity.login_local"

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return User{}, ValidationError{Op: op, Field: FieldCredentials, Msg: "identifier and password are required"}
	}

	u, ok, err := r.store.FindByEmail(ctx, identifier)
	if err != nil {
		return User{}, err
	}
	if !ok {
		u, ok, err = r.store.FindByUsername(ctx, identifier)
		if err != nil {
			return User{}, err
		}
	}

	if !ok {
		r.codec.burn(password)
		return User{}, invalidCredentials(op)
	}
	if !u.HasPassword() {
		return User{}, AuthError{Op: op, Reason: ReasonFederatedOnly}
	}
	if !r.codec.Verify(password, u.PasswordHash) {
		return User{}, invalidCredentials(op)
	}
	return u, nil
}

// SignupLocal validates email, username and password in that order and
// creates the account.
func (r *Resolver) SignupLocal(ctx context.Context, username, email, password string) (User, error) {
	const op = "identity.signup_local"

	if err := ValidateEmail(op, email); err != nil {
		return User{}, err
	}
	if err := ValidateUsername(op, username); err != nil {
		return User{}, err
	}
	if err := r.codec.Validate(op, password); err != nil {
		return User{}, err
	}

	return r.store.CreateLocal(ctx, username, email, password)
}

// ResolveFederated finds or creates the account for a provider-asserted identity.
func (r *Resolver) ResolveFederated(ctx context.Context, in FederatedInput) (User, error) {
	return r.store.UpsertFederated(ctx, in)
}

// ValidatePassword applies the password policy for op.
func (r *Resolver) ValidatePassword(op, password string) error {
	return r.codec.Validate(op, password)
}
