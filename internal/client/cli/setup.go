package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophmeet/internal/client/services"
	"github.com/dmitrijs2005/gophmeet/internal/client/session"
)

// Setup prompts for the basic info form, prefilled from the profile and the
// stashed signup data, and saves it.
func (a *App) Setup(ctx context.Context) error {
	if err := a.requireView(session.AccountSetup, session.Main); err != nil {
		return err
	}

	info, err := a.promptBasicInfo(ctx)
	if err != nil {
		return err
	}
	if err := a.setup.Save(ctx, info); err != nil {
		return err
	}

	if a.ctrl.View() == session.AccountSetup {
		fmt.Fprintln(a.out, "Profile saved. Type 'done' to continue.")
	} else {
		fmt.Fprintln(a.out, "Profile saved.")
	}
	return nil
}

func (a *App) promptBasicInfo(ctx context.Context) (services.BasicInfo, error) {
	info := a.setup.Prefill(ctx)

	text := []struct {
		prompt string
		dst    *string
	}{
		{"First name", &info.FirstName},
		{"Username", &info.Username},
		{"Phone number", &info.PhoneNumber},
		{"Current city", &info.CurrentCity},
		{"Home city", &info.HomeCity},
		{"Sex", &info.Sex},
		{"Education", &info.Education},
		{"Occupation", &info.Occupation},
		{"Relationship", &info.Relationship},
	}
	for _, f := range text {
		v, err := getTextWithDefault(a.reader, f.prompt, *f.dst, a.out)
		if err != nil {
			return info, err
		}
		*f.dst = v
	}

	b := info.Birthday
	raw, err := getTextWithDefault(a.reader, "Birth date (DD/MM/YYYY)", fmt.Sprintf("%s %s %s", b.Day, b.Month, b.Year), a.out)
	if err != nil {
		return info, err
	}
	if parsed, ok := services.ParseBirthDate(raw); ok {
		info.Birthday = parsed
	}

	lists := []struct {
		prompt string
		dst    *[]string
	}{
		{"Spoken languages (comma separated)", &info.SpokenLanguages},
		{"Learning languages (comma separated)", &info.LearningLanguages},
	}
	for _, f := range lists {
		v, err := getTextWithDefault(a.reader, f.prompt, strings.Join(*f.dst, ", "), a.out)
		if err != nil {
			return info, err
		}
		*f.dst = splitList(v)
	}
	return info, nil
}

// Done leaves account setup for the main view once the profile is complete.
func (a *App) Done(ctx context.Context) error {
	if err := a.requireView(session.AccountSetup); err != nil {
		return err
	}
	return a.ctrl.CompleteAccountSetup()
}
