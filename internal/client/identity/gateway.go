// Package identity defines the contract the client needs from the external
// identity provider, maps provider error codes to readable messages, and
// ships an in-process gateway used for development and tests.
package identity

import (
	"context"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
)

// Listener receives the signed-in identity, or nil after sign-out.
// Listeners are called from a delivery goroutine, never concurrently for the
// same subscription, in the order the events happened.
type Listener func(id *models.Identity)

// Gateway is the identity provider as seen by the client.
//
// The verification flag returned by IsEmailVerified is cached locally: it only
// changes after Reload, never by push.
type Gateway interface {
	SignIn(ctx context.Context, creds models.Credentials) (*models.Identity, error)
	// SignUp creates the account, signs it in and sends the verification email.
	SignUp(ctx context.Context, creds models.Credentials) (*models.Identity, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error

	// Subscribe registers l and immediately delivers the current user.
	Subscribe(l Listener) (unsubscribe func())

	Reload(ctx context.Context) error
	IsEmailVerified() bool
	SendVerificationEmail(ctx context.Context) error
	CurrentUser() *models.Identity
}
