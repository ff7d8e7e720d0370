// Package auth tracks which user, if any, the service is acting for.
package auth

import "sync"

// ChangeFunc is called after the signed-in user changes.
type ChangeFunc func(userID string, signedIn bool)

// State holds the current user. The zero value is signed out.
type State struct {
	mu        sync.RWMutex
	user      string
	listeners []ChangeFunc
}

func New() *State {
	return &State{}
}

// CurrentUser returns the signed-in user id.
func (s *State) CurrentUser() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.user != ""
}

// SignIn makes userID current. Listeners run only when the user changes.
func (s *State) SignIn(userID string) {
	s.set(userID)
}

// SignOut clears the current user.
func (s *State) SignOut() {
	s.set("")
}

// OnChange registers fn for later sign-in changes.
func (s *State) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *State) set(userID string) {
	s.mu.Lock()
	if s.user == userID {
		s.mu.Unlock()
		return
	}
	s.user = userID
	listeners := append([]ChangeFunc(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(userID, userID != "")
	}
}
