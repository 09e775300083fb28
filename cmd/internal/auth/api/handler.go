package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"

	"tunebox/cmd/identity"
	"tunebox/cmd/internal/audit"
	"tunebox/cmd/internal/auth/oauth"
	"tunebox/cmd/internal/auth/session"
)

// OAuthProvider is the federated login capability (see oauth.Google).
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (oauth.Identity, error)
}

// Handler wires HTTP auth endpoints to the session service.
type Handler struct {
	log *slog.Logger
	cfg Config

	sessions *session.Service
	store    sessions.Store

	oauth    OAuthProvider
	audit    audit.Sink
	failures audit.FailureSource

	validate *validator.Validate
	now      func() time.Time
}

// HandlerOption configures optional auth handler dependencies.
type HandlerOption func(*Handler)

// WithOAuth enables the Google login routes.
func WithOAuth(p OAuthProvider) HandlerOption {
	return func(h *Handler) {
		if p != nil {
			h.oauth = p
		}
	}
}

// WithAudit overrides the default no-op audit sink.
func WithAudit(sink audit.Sink) HandlerOption {
	return func(h *Handler) {
		if sink != nil {
			h.audit = sink
		}
	}
}

// WithLoginThrottle enables login throttling based on recorded failures.
func WithLoginThrottle(src audit.FailureSource) HandlerOption {
	return func(h *Handler) {
		if src != nil {
			h.failures = src
		}
	}
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, svc *session.Service, store sessions.Store, opts ...HandlerOption) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("auth: nil session service")
	}
	if store == nil {
		return nil, errors.New("auth: nil session store")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &Handler{
		log:      log,
		cfg:      cfg.withDefaults(),
		sessions: svc,
		store:    store,
		audit:    audit.Discard{},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Register mounts the auth routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/", h.handleStatus)
		r.Post("/signup", h.handleSignup)
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.Post("/guest", h.handleGuest)
		r.Get("/check-auth", h.handleCheckAuth)
		r.Get("/me", h.handleMe)

		r.Get("/auth/google/login", h.handleGoogleLogin)
		r.Get("/auth/google/callback", h.handleGoogleCallback)

		r.Route("/user", func(r chi.Router) {
			r.Get("/profile", h.handleProfile)
			r.Post("/update-profile", h.handleUpdateProfile)
			r.Post("/change-password", h.handleChangePassword)
		})
	})
}

// ---- handlers ----

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Message: "Backend is running"})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !h.decode(w, r, &req, msgSignupRequired) {
		return
	}
	slot, ok := h.openSlot(w, r)
	if !ok {
		return
	}

	view, err := h.sessions.Signup(r.Context(), slot, req.Username, req.Email, req.Password)
	if err != nil {
		h.record(r, audit.Event{Action: audit.ActionSignupFailed, Identifier: req.Email, Reason: failureReason(err)})
		h.fail(w, "auth.signup.fail", err)
		return
	}

	h.record(r, audit.Event{Action: audit.ActionSignupSuccess, UserID: view.ID, Identifier: req.Email})
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Account created successfully", User: view})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req, msgLoginRequired) {
		return
	}

	ctx := r.Context()
	ip := ipString(clientIP(r, h.cfg.TrustProxy))
	identifier := strings.TrimSpace(req.identifier())

	if blocked, retry, err := h.checkLoginThrottle(ctx, ip, identifier, h.now()); err != nil {
		h.log.Error("auth.login.throttle.fail", "err", err)
		writeError(w, http.StatusServiceUnavailable, "Please retry later")
		return
	} else if blocked {
		h.log.Warn("auth.login.throttled", "ip", ip, "retry_after", retry)
		writeRateLimited(w, retry)
		return
	}

	slot, ok := h.openSlot(w, r)
	if !ok {
		return
	}

	view, err := h.sessions.Login(ctx, slot, identifier, req.Password)
	if err != nil {
		h.record(r, audit.Event{Action: audit.ActionLoginFailed, Identifier: identifier, Reason: failureReason(err)})
		h.fail(w, "auth.login.fail", err)
		return
	}

	h.record(r, audit.Event{Action: audit.ActionLoginSuccess, UserID: view.ID, Identifier: identifier})
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Login successful", User: view})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	slot, ok := h.openSlot(w, r)
	if !ok {
		return
	}
	prev, _ := slot.Load()

	if err := h.sessions.Logout(r.Context(), slot); err != nil {
		h.fail(w, "auth.logout.fail", err)
		return
	}

	h.record(r, audit.Event{Action: audit.ActionLogout, UserID: prev.UserID})
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Logged out successfully"})
}

func (h *Handler) handleGuest(w http.ResponseWriter, r *http.Request) {
	slot, ok := h.openSlot(w, r)
	if !ok {
		return
	}

	view, err := h.sessions.SetGuest(r.Context(), slot)
	if err != nil {
		h.fail(w, "auth.guest.fail", err)
		return
	}

	h.record(r, audit.Event{Action: audit.ActionGuest})
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Guest session", User: view})
}

func (h *Handler) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	slot, ok := h.openSlot(w, r)
	if !ok {
		return
	}

	view, ok := h.sessions.CurrentUser(slot)
	if !ok || view.Guest {
		writeJSON(w, http.StatusOK, checkAuthResponse{Authenticated: false})
		return
	}
	writeJSON(w, http.StatusOK, checkAuthResponse{Authenticated: true, User: &view})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	slot, ok := h.openSlot(w, r)
	if !ok {
		return
	}

	resp := meResponse{Success: true}
	if view, ok := h.sessions.CurrentUser(slot); ok {
		resp.User = &view
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	slot, ok := h.openSlot(w, r)
	if !ok {
		return
	}
	st, err := h.sessions.Authenticated(slot)
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgNotAuthed)
		return
	}

	ctx := r.Context()
	profile, found, err := h.sessions.GetProfile(ctx, st.UserID)
	if err != nil {
		h.fail(w, "auth.profile.fail", err)
		return
	}
	if !found {
		h.dropStaleSession(ctx, slot, st.UserID)
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	slot, ok := h.openSlot(w, r)
	if !ok {
		return
	}
	st, err := h.sessions.Authenticated(slot)
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgNotAuthed)
		return
	}

	var req updateProfileRequest
	if !h.decode(w, r, &req, msgProfileRequired) {
		return
	}

	ctx := r.Context()
	view, err := h.sessions.UpdateProfile(ctx, slot, st.UserID, req.Username, req.Email)
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			writeError(w, http.StatusUnauthorized, msgNotAuthed)
			return
		}
		if identity.IsNotFound(err) {
			h.dropStaleSession(ctx, slot, st.UserID)
		}
		h.fail(w, "auth.profile.update.fail", err)
		return
	}

	h.record(r, audit.Event{Action: audit.ActionProfileUpdated, UserID: st.UserID})
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Profile updated successfully", User: view})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	slot, ok := h.openSlot(w, r)
	if !ok {
		return
	}
	st, err := h.sessions.Authenticated(slot)
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgNotAuthed)
		return
	}

	var req changePasswordRequest
	if !h.decode(w, r, &req, msgNewPassRequired) {
		return
	}

	ctx := r.Context()
	if err := h.sessions.UpdatePassword(ctx, st.UserID, req.NewPassword); err != nil {
		if identity.IsNotFound(err) {
			h.dropStaleSession(ctx, slot, st.UserID)
		}
		h.fail(w, "auth.password.change.fail", err)
		return
	}

	h.record(r, audit.Event{Action: audit.ActionPasswordChanged, UserID: st.UserID})
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Password changed successfully"})
}

// ---- helpers ----

// decode reads a JSON body into dst and checks its validate tags.
// It writes the error response itself and reports whether to continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any, missingMsg string) bool {
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, dst); err != nil {
		if errors.Is(err, errEmptyBody) {
			writeError(w, http.StatusBadRequest, msgBodyRequired)
			return false
		}
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, missingMsg)
		return false
	}
	return true
}

func (h *Handler) openSlot(w http.ResponseWriter, r *http.Request) (*session.GorillaSlot, bool) {
	slot, err := session.OpenSlot(h.store, h.cfg.SessionCookie, w, r)
	if err != nil {
		h.log.Error("auth.session.open.fail", "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return nil, false
	}
	return slot, true
}

// fail writes the user-facing error for err, logging anything unexpected.
func (h *Handler) fail(w http.ResponseWriter, event string, err error) {
	status, msg := userMessage(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(event, "err", err)
	} else {
		h.log.Debug(event, "err", err)
	}
	writeError(w, status, msg)
}

func (h *Handler) dropStaleSession(ctx context.Context, slot session.Slot, userID string) {
	h.log.Warn("auth.session.stale", "user_id", userID)
	if err := h.sessions.Logout(ctx, slot); err != nil {
		h.log.Error("auth.session.stale.clear.fail", "err", err)
	}
}
