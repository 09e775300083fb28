package session

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	keyUserID   = "user_id"
	keyUsername = "username"
	keyEmail    = "email"
	keyGuest    = "guest"
)

// GorillaSlot is a Slot over one gorilla session for the current request.
type GorillaSlot struct {
	sess *sessions.Session
	opts sessions.Options
	r    *http.Request
	w    http.ResponseWriter
}

var _ Slot = (*GorillaSlot)(nil)

// OpenSlot loads the named session from store for r.
// A cookie that fails to decode opens as an anonymous session.
func OpenSlot(store sessions.Store, name string, w http.ResponseWriter, r *http.Request) (*GorillaSlot, error) {
	sess, err := store.Get(r, name)
	if sess == nil {
		return nil, err
	}
	if err != nil {
		sess.Values = map[interface{}]interface{}{}
		sess.IsNew = true
	}

	slot := &GorillaSlot{sess: sess, r: r, w: w}
	if sess.Options != nil {
		slot.opts = *sess.Options
	}
	return slot, nil
}

func (g *GorillaSlot) Load() (State, bool) {
	v := g.sess.Values
	st := State{}
	st.UserID, _ = v[keyUserID].(string)
	st.Username, _ = v[keyUsername].(string)
	st.Email, _ = v[keyEmail].(string)
	st.Guest, _ = v[keyGuest].(bool)
	if !st.valid() {
		return State{}, false
	}
	return st, true
}

// Replace writes st under a fresh session id.
func (g *GorillaSlot) Replace(st State) error {
	if !g.sess.IsNew && g.sess.ID != "" {
		if err := g.Clear(); err != nil {
			return err
		}
	}

	opts := g.opts
	g.sess.Options = &opts
	g.sess.ID = ""
	g.sess.Values = map[interface{}]interface{}{
		keyUserID:   st.UserID,
		keyUsername: st.Username,
		keyEmail:    st.Email,
		keyGuest:    st.Guest,
	}
	if err := g.sess.Save(g.r, g.w); err != nil {
		return err
	}
	g.sess.IsNew = false
	return nil
}

// Clear drops all values and expires the cookie.
func (g *GorillaSlot) Clear() error {
	opts := g.opts
	opts.MaxAge = -1
	g.sess.Options = &opts
	g.sess.Values = map[interface{}]interface{}{}
	if err := g.sess.Save(g.r, g.w); err != nil {
		return err
	}
	g.sess.IsNew = true
	return nil
}
