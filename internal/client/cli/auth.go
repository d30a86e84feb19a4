package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophmeet/internal/client/services"
	"github.com/dmitrijs2005/gophmeet/internal/client/session"
	"github.com/dmitrijs2005/gophmeet/internal/common"
)

// getSimpleText, getTextWithDefault and getPassword are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText      = GetSimpleText
	getTextWithDefault = GetTextWithDefault
	getPassword        = GetPassword
)

var (
	errUsage           = errors.New("wrong arguments")
	errNotAvailable    = errors.New("command is not available on this screen")
	errNoConfirmations = errors.New("email confirmation is only available with the local identity provider")
)

func usage(u string) error {
	return fmt.Errorf("%w, usage: %s", errUsage, u)
}

// requireView fails unless the current view is one of views.
func (a *App) requireView(views ...session.ViewState) error {
	cur := a.ctrl.View()
	for _, v := range views {
		if v == cur {
			return nil
		}
	}
	return fmt.Errorf("%w (%s)", errNotAvailable, cur)
}

func (a *App) requirePreAuth() error {
	if v := a.ctrl.View(); !v.PreAuth() {
		return fmt.Errorf("%w (%s)", errNotAvailable, v)
	}
	return nil
}

// SignUp prompts for the signup form and creates the account.
//
// The password byte slice is securely wiped before returning.
func (a *App) SignUp(ctx context.Context) error {
	if err := a.requirePreAuth(); err != nil {
		return err
	}

	var (
		form services.SignupForm
		err  error
	)
	if form.FullName, err = getSimpleText(a.reader, "Full name", a.out); err != nil {
		return err
	}
	if form.Email, err = getSimpleText(a.reader, "Email", a.out); err != nil {
		return err
	}
	if form.BirthDate, err = getSimpleText(a.reader, "Birth date (DD/MM/YYYY)", a.out); err != nil {
		return err
	}
	if form.PhoneNumber, err = getSimpleText(a.reader, "Phone number", a.out); err != nil {
		return err
	}
	if form.Password, err = getPassword(a.out); err != nil {
		return err
	}
	defer common.WipeByteArray(form.Password)

	if err := a.auth.SignUp(ctx, form); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Account created. Check your inbox and type 'verify' once the email is confirmed.")
	return nil
}

// Login prompts for credentials and signs in. The last used email is offered
// as the default.
func (a *App) Login(ctx context.Context) error {
	if err := a.requirePreAuth(); err != nil {
		return err
	}

	email, err := getTextWithDefault(a.reader, "Enter email", a.auth.LastEmail(ctx), a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Login(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Forgot(ctx context.Context) error {
	if err := a.requirePreAuth(); err != nil {
		return err
	}

	email, err := getTextWithDefault(a.reader, "Enter email", a.auth.LastEmail(ctx), a.out)
	if err != nil {
		return err
	}
	if err := a.auth.ForgotPassword(ctx, email); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password reset email sent to", email)
	return nil
}

func (a *App) Verify(ctx context.Context) error {
	if err := a.requireView(session.EmailVerification); err != nil {
		return err
	}
	if err := a.auth.Verify(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Email verified")
	return nil
}

func (a *App) Resend(ctx context.Context) error {
	if err := a.requireView(session.EmailVerification); err != nil {
		return err
	}
	if err := a.auth.ResendVerification(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Verification email sent")
	return nil
}

// Confirm plays the part of the user clicking the verification link.
func (a *App) Confirm(ctx context.Context, args []string) error {
	if a.confirmer == nil {
		return errNoConfirmations
	}
	if len(args) != 1 {
		return usage("confirm <email>")
	}
	if err := a.confirmer.ConfirmEmail(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Confirmed", args[0])
	return nil
}

func (a *App) Goto(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("goto <signup|login|forgot|verify>")
	}
	v, err := session.ParseView(args[0])
	if err != nil {
		return err
	}
	return a.ctrl.SetAuthView(v)
}

// Logout closes the open screen and signs out. On a sign-out failure the
// session is kept.
func (a *App) Logout(ctx context.Context) error {
	if a.ctrl.View().PreAuth() {
		return fmt.Errorf("%w (%s)", errNotAvailable, a.ctrl.View())
	}
	a.closeScreen(ctx)
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
