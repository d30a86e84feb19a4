// Package services contains the form-level application services of the
// GophMeet client. They validate user input, drive the session controller
// and keep the small amount of local state the screens need.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophmeet/internal/client/identity"
	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophmeet/internal/client/session"
	"github.com/dmitrijs2005/gophmeet/internal/common"
	"github.com/dmitrijs2005/gophmeet/internal/dbx"
	"github.com/dmitrijs2005/gophmeet/internal/logging"
)

const msgEmailNotVerified = "Email not yet verified. Please check your email and click the verification link."

// Session is the part of the session controller the auth screens drive.
type Session interface {
	Login(ctx context.Context, creds models.Credentials) error
	SignUp(ctx context.Context, creds models.Credentials) (*models.Identity, error)
	VerifyEmail(ctx context.Context) error
	Logout(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	ResendVerification(ctx context.Context) error
}

// AuthService defines the operations behind the pre-auth screens.
//
// Contract:
//   - SignUp: validate the form, create the account and stash the signup data.
//   - Login: validate and sign in; remembers the email locally.
//   - ForgotPassword: validate the email and request a reset link.
//   - Verify: re-check the verification flag.
//   - Logout: sign out; on failure nothing changes.
//
// Validation failures are returned as FormErrors.
type AuthService interface {
	SignUp(ctx context.Context, form SignupForm) error
	Login(ctx context.Context, email string, password []byte) error
	ForgotPassword(ctx context.Context, email string) error
	Verify(ctx context.Context) error
	ResendVerification(ctx context.Context) error
	Logout(ctx context.Context) error
	LastEmail(ctx context.Context) string
}

type authService struct {
	session Session
	db      *sql.DB
	log     logging.Logger
}

// NewAuthService binds the auth screens to the session and the local DB.
func NewAuthService(s Session, db *sql.DB, log logging.Logger) AuthService {
	if log == nil {
		log = logging.Nop()
	}
	return &authService{session: s, db: db, log: log}
}

func (a *authService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(a.db)
}

// SignUp creates the account. The signup data is stashed for the account
// setup screen; failing to stash it is logged and does not fail the signup.
func (a *authService) SignUp(ctx context.Context, form SignupForm) error {
	if err := form.Validate(); err != nil {
		return err
	}

	email := strings.TrimSpace(form.Email)
	id, err := a.session.SignUp(ctx, models.Credentials{
		Email:       email,
		Password:    form.Password,
		DisplayName: strings.TrimSpace(form.FullName),
	})
	if err != nil {
		return fmt.Errorf("sign up: %w", err)
	}

	pending := models.PendingSignup{
		FullName:    form.FullName,
		Email:       form.Email,
		BirthDate:   form.BirthDate,
		PhoneNumber: form.PhoneNumber,
	}
	if id != nil {
		pending.UID = id.UID
	}
	if err := a.saveSignupData(ctx, pending, email); err != nil {
		a.log.Warn(ctx, "signup data saving error", "error", err)
	}
	return nil
}

// saveSignupData stores the pending signup and the last email in a single
// transaction.
func (a *authService) saveSignupData(ctx context.Context, p models.PendingSignup, email string) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := saveSignup(ctx, repo, p); err != nil {
			return err
		}
		return repo.Set(ctx, common.LastEmailKey, []byte(email))
	})
}

func (a *authService) Login(ctx context.Context, email string, password []byte) error {
	errs := FormErrors{}
	if msg := validateEmail(email); msg != "" {
		errs[FormEmail] = msg
	}
	if len(password) == 0 {
		errs[FormPassword] = "Password is required"
	}
	if err := errs.orNil(); err != nil {
		return err
	}

	email = strings.TrimSpace(email)
	if err := a.session.Login(ctx, models.Credentials{Email: email, Password: password}); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if err := a.getMetadataRepo().Set(ctx, common.LastEmailKey, []byte(email)); err != nil {
		a.log.Warn(ctx, "last email saving error", "error", err)
	}
	return nil
}

func (a *authService) ForgotPassword(ctx context.Context, email string) error {
	if msg := validateEmail(email); msg != "" {
		return FormErrors{FormEmail: msg}
	}
	if err := a.session.SendPasswordReset(ctx, strings.TrimSpace(email)); err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	return nil
}

func (a *authService) Verify(ctx context.Context) error {
	return a.session.VerifyEmail(ctx)
}

func (a *authService) ResendVerification(ctx context.Context) error {
	return a.session.ResendVerification(ctx)
}

func (a *authService) Logout(ctx context.Context) error {
	return a.session.Logout(ctx)
}

// LastEmail returns the email of the last sign-in or sign-up, or "".
func (a *authService) LastEmail(ctx context.Context) string {
	b, err := a.getMetadataRepo().Get(ctx, common.LastEmailKey)
	if err != nil {
		a.log.Warn(ctx, "last email read failed", "error", err)
		return ""
	}
	return string(b)
}

// Message returns the text a screen shows for err.
func Message(err error) string {
	var fe FormErrors
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fe):
		return fe.Error()
	case errors.Is(err, session.ErrEmailNotVerified):
		return msgEmailNotVerified
	case errors.Is(err, session.ErrProfileIncomplete):
		return "Please complete your profile before continuing"
	case errors.Is(err, session.ErrNotSignedIn):
		return "You must be logged in to continue"
	default:
		return identity.Message(err)
	}
}
