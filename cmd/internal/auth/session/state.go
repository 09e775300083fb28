package session

import "sync"

// GuestUsername is the display name of every guest session.
const GuestUsername = "Guest"

// State is what a slot holds for a non-anonymous caller.
// UserID is empty for guests; an empty Email means none.
type State struct {
	UserID   string
	Username string
	Email    string
	Guest    bool
}

// guestState is the state written by SetGuest.
func guestState() State {
	return State{Username: GuestUsername, Guest: true}
}

// valid reports whether st describes a guest or an authenticated user.
func (st State) valid() bool {
	return st.Guest || st.UserID != ""
}

// View is the caller-facing form of st.
func (st State) View() UserView {
	if st.Guest {
		return UserView{Username: GuestUsername, Guest: true}
	}
	v := UserView{ID: st.UserID, Username: st.Username}
	if st.Email != "" {
		email := st.Email
		v.Email = &email
	}
	return v
}

// UserView is the current user as reported to the caller.
// ID is omitted for guests and Email is null for guests.
type UserView struct {
	ID       string  `json:"id,omitempty"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Guest    bool    `json:"guest"`
}

// Slot is one caller's session storage for the duration of a request.
type Slot interface {
	// Load returns the stored state, or ok=false when the caller is anonymous.
	Load() (State, bool)
	// Replace overwrites the whole state.
	Replace(State) error
	// Clear removes all state.
	Clear() error
}

// MemorySlot is a Slot held in memory. The zero value is an anonymous slot.
type MemorySlot struct {
	mu    sync.Mutex
	state State
	set   bool
}

func (m *MemorySlot) Load() (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.set
}

func (m *MemorySlot) Replace(st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state, m.set = st, true
	return nil
}

func (m *MemorySlot) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state, m.set = State{}, false
	return nil
}
