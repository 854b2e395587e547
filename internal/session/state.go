package session

import (
	"fmt"

	"github.com/desertthunder/filmx/internal/models"
)

// Status is the authentication status of a [State].
type Status int

const (
	// StatusUnknown means bootstrap has not resolved yet. It is not the same as anonymous.
	StatusUnknown Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// State is a snapshot of the session. The profile is only present when authenticated.
type State struct {
	status  Status
	profile models.UserProfile
}

// Unknown is the state before bootstrap resolves.
func Unknown() State { return State{status: StatusUnknown} }

// Anonymous is the logged-out state.
func Anonymous() State { return State{status: StatusAnonymous} }

// Authenticated is the logged-in state for profile.
func Authenticated(profile models.UserProfile) State {
	return State{status: StatusAuthenticated, profile: profile.Clone()}
}

func (s State) Status() Status { return s.status }

// Known reports whether the state is final for the current bootstrap cycle.
func (s State) Known() bool { return s.status != StatusUnknown }

func (s State) Authenticated() bool { return s.status == StatusAuthenticated }

// Profile returns a copy of the authenticated profile.
func (s State) Profile() (models.UserProfile, bool) {
	if s.status != StatusAuthenticated {
		return models.UserProfile{}, false
	}
	return s.profile.Clone(), true
}

func (s State) String() string {
	if s.status == StatusAuthenticated {
		return fmt.Sprintf("authenticated as %s", s.profile.Email)
	}
	return s.status.String()
}
