// Package session owns the signed-in session, the cached profile and the
// single top-level view the client shows.
package session

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
)

// ViewState is the top-level screen the router renders.
type ViewState int

const (
	Splash ViewState = iota
	SignUp
	Login
	EmailVerification
	ForgotPassword
	AccountSetup
	Main
)

var viewNames = map[ViewState]string{
	Splash:            "splash",
	SignUp:            "signup",
	Login:             "login",
	EmailVerification: "verify",
	ForgotPassword:    "forgot",
	AccountSetup:      "setup",
	Main:              "main",
}

func (v ViewState) String() string {
	if s, ok := viewNames[v]; ok {
		return s
	}
	return fmt.Sprintf("ViewState(%d)", int(v))
}

// PreAuth reports whether v can be shown without a session.
func (v ViewState) PreAuth() bool {
	switch v {
	case Splash, SignUp, Login, ForgotPassword, EmailVerification:
		return true
	default:
		return false
	}
}

// ParseView returns the view named s.
func ParseView(s string) (ViewState, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for v, name := range viewNames {
		if name == s {
			return v, nil
		}
	}
	return Splash, fmt.Errorf("unknown view %q", s)
}

// Session is replaced wholesale on every identity notification.
type Session struct {
	Identity      *models.Identity
	EmailVerified bool
}

// SignedIn reports whether the session carries an identity.
func (s Session) SignedIn() bool {
	return s.Identity != nil
}

// UID returns the identity id, or "" when signed out.
func (s Session) UID() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.UID
}

func (s Session) clone() Session {
	return Session{Identity: s.Identity.Clone(), EmailVerified: s.EmailVerified}
}
