package entity

type SessionState string

const (
	SessionUninitialized SessionState = "uninitialized"
	SessionLoading       SessionState = "loading"
	SessionResolved      SessionState = "resolved"
)

// Session is the per-request view of who is calling. A resolved session with a nil
// Identity is anonymous.
type Session struct {
	State    SessionState
	Identity *Identity
}

func (s *Session) IsResolved() bool {
	return s != nil && s.State == SessionResolved
}

func (s *Session) IsAnonymous() bool {
	return s.IsResolved() && s.Identity == nil
}

// UserID returns the signed-in user's id, or "" for anonymous and unresolved sessions.
func (s *Session) UserID() string {
	if !s.IsResolved() || s.Identity == nil {
		return ""
	}
	return s.Identity.UID
}
