package api

import (
	"net/http"

	"tunebox/cmd/identity"
	"tunebox/cmd/internal/audit"
	"tunebox/cmd/internal/auth/oauth"
)

const oauthStateKey = "state"

func (h *Handler) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		writeError(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}

	state, err := oauth.NewState()
	if err != nil {
		h.fail(w, "auth.google.state.fail", err)
		return
	}

	sess, err := h.store.Get(r, h.cfg.OAuthStateCookie)
	if sess == nil {
		h.fail(w, "auth.google.state.fail", err)
		return
	}
	opts := *sess.Options
	opts.MaxAge = int(h.cfg.OAuthStateTTL.Seconds())
	sess.Options = &opts
	sess.Values = map[interface{}]interface{}{oauthStateKey: state}
	if err := sess.Save(r, w); err != nil {
		h.fail(w, "auth.google.state.save.fail", err)
		return
	}

	writeJSON(w, http.StatusOK, googleLoginResponse{
		Success:          true,
		AuthorizationURL: h.oauth.AuthCodeURL(state),
	})
}

func (h *Handler) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		writeError(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}

	expected := h.takeOAuthState(w, r)
	q := r.URL.Query()
	if !secureStringEqual(expected, q.Get("state")) {
		h.record(r, audit.Event{Action: audit.ActionFederatedFailed, Reason: "invalid_state"})
		writeError(w, http.StatusUnauthorized, "Invalid state")
		return
	}
	if e := q.Get("error"); e != "" {
		h.record(r, audit.Event{Action: audit.ActionFederatedFailed, Reason: "provider_" + e})
		writeError(w, http.StatusUnauthorized, "Google sign-in was cancelled")
		return
	}

	ctx := r.Context()
	id, err := h.oauth.Exchange(ctx, q.Get("code"))
	if err != nil {
		h.log.Error("auth.google.exchange.fail", "err", err)
		h.record(r, audit.Event{Action: audit.ActionFederatedFailed, Reason: "exchange"})
		writeError(w, http.StatusBadGateway, "Google Auth Failed")
		return
	}

	slot, ok := h.openSlot(w, r)
	if !ok {
		return
	}
	if err := slot.Clear(); err != nil {
		h.fail(w, "auth.google.session.fail", err)
		return
	}

	view, err := h.sessions.FederatedLogin(ctx, slot, identity.FederatedInput{
		Email:       id.Email,
		DisplayName: id.Name,
		ExternalID:  id.Subject,
		AvatarURL:   id.AvatarURL,
	})
	if err != nil {
		h.record(r, audit.Event{Action: audit.ActionFederatedFailed, Identifier: id.Email, Reason: failureReason(err)})
		h.fail(w, "auth.google.login.fail", err)
		return
	}

	h.record(r, audit.Event{Action: audit.ActionFederatedSuccess, UserID: view.ID, Identifier: id.Email})
	http.Redirect(w, r, h.cfg.FrontendURL, http.StatusFound)
}

// takeOAuthState returns the stored state and deletes it, so a state is usable once.
func (h *Handler) takeOAuthState(w http.ResponseWriter, r *http.Request) string {
	sess, _ := h.store.Get(r, h.cfg.OAuthStateCookie)
	if sess == nil {
		return ""
	}
	state, _ := sess.Values[oauthStateKey].(string)

	opts := *sess.Options
	opts.MaxAge = -1
	sess.Options = &opts
	sess.Values = map[interface{}]interface{}{}
	if err := sess.Save(r, w); err != nil {
		h.log.Warn("auth.google.state.clear.fail", "err", err)
	}
	return state
}
