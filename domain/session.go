package domain

import "strings"

type SessionState int

const (
	Anonymous SessionState = iota
	Entered
)

// Session is the ephemeral identity of the current visit.
// The transition Anonymous -> Entered is one-way.
type Session struct {
	state SessionState
	name  string
}

func NewSession() *Session {
	return &Session{state: Anonymous}
}

// Enter moves the session to Entered when the trimmed input is not empty.
// It returns true only for the call that performed the transition.
func (s *Session) Enter(input string) bool {
	if s.state == Entered {
		return false
	}
	name := strings.TrimSpace(input)
	if name == "" {
		return false
	}
	s.name = name
	s.state = Entered
	return true
}

func (s *Session) State() SessionState { return s.state }

func (s *Session) Name() string { return s.name }
