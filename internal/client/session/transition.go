package session

import "github.com/dmitrijs2005/gophmeet/internal/client/models"

// EventKind identifies what happened to the session.
type EventKind int

const (
	// EventSignedOut is the gateway reporting no user.
	EventSignedOut EventKind = iota
	// EventSignedIn is a gateway sign-in whose profile fetch has resolved.
	EventSignedIn
	// EventVerified follows an explicit verification reload and profile fetch.
	EventVerified
	// EventSetupCompleted is the user finishing account setup.
	EventSetupCompleted
	// EventLogin is the direct sign-in path.
	EventLogin
	// EventLogout is a completed sign-out requested by the user.
	EventLogout
	// EventNavigate moves between pre-auth views.
	EventNavigate
)

// Event is the input of Next. Target is only used by EventNavigate.
type Event struct {
	Kind   EventKind
	Target ViewState
}

// Navigate returns an EventNavigate towards v.
func Navigate(v ViewState) Event {
	return Event{Kind: EventNavigate, Target: v}
}

// Next computes the view that follows ev. It has no side effects.
//
// EventLogin goes to Main without checking the profile; the gateway
// notification that follows the sign-in routes by profile again.
func Next(view ViewState, s Session, p *models.Profile, ev Event) ViewState {
	switch ev.Kind {
	case EventSignedOut:
		return Splash

	case EventSignedIn, EventVerified:
		if !s.SignedIn() || !s.EmailVerified {
			return EmailVerification
		}
		return routeByProfile(p)

	case EventSetupCompleted:
		if view == AccountSetup && p.Complete() {
			return Main
		}
		return view

	case EventLogin:
		if view.PreAuth() {
			return Main
		}
		return view

	case EventLogout:
		return Login

	case EventNavigate:
		if view.PreAuth() && ev.Target.PreAuth() {
			return ev.Target
		}
		return view
	}
	return view
}

func routeByProfile(p *models.Profile) ViewState {
	if p.Complete() {
		return Main
	}
	return AccountSetup
}
