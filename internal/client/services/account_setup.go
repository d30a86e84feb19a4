package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophmeet/internal/client/draft"
	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/client/session"
	"github.com/dmitrijs2005/gophmeet/internal/logging"
)

// Basic info field names beyond the ones models defines.
const (
	fieldCurrentCity       = "currentCity"
	fieldHomeCity          = "homeCity"
	fieldSex               = "sex"
	fieldEducation         = "education"
	fieldOccupation        = "occupation"
	fieldRelationship      = "relationship"
	fieldSpokenLanguages   = "spokenLanguages"
	fieldLearningLanguages = "learningLanguages"
)

var defaultBirthday = Birthday{Day: "12", Month: "Mar", Year: "1995"}

const defaultSex = "Male"

// BasicInfo is the account setup form.
type BasicInfo struct {
	FirstName         string
	Username          string
	PhoneNumber       string
	CurrentCity       string
	HomeCity          string
	Sex               string
	Birthday          Birthday
	Education         string
	Occupation        string
	Relationship      string
	SpokenLanguages   []string
	LearningLanguages []string
}

// Validate checks the fields that make a profile complete.
func (b BasicInfo) Validate() error {
	errs := FormErrors{}
	if strings.TrimSpace(b.FirstName) == "" {
		errs[FormFirstName] = "First name is required"
	}
	if strings.TrimSpace(b.Username) == "" {
		errs[FormUsername] = "Username is required"
	}
	return errs.orNil()
}

// fields builds the profile document. Empty optional values are left out.
func (b BasicInfo) fields(email string) models.Fields {
	f := models.Fields{
		models.FieldEmail:      email,
		models.FieldFirstName:  strings.TrimSpace(b.FirstName),
		models.FieldUsername:   strings.TrimSpace(b.Username),
		fieldSex:               b.Sex,
		models.FieldBirthday:   b.Birthday.fields(),
		fieldSpokenLanguages:   nonNil(b.SpokenLanguages),
		fieldLearningLanguages: nonNil(b.LearningLanguages),
	}
	optional := map[string]string{
		fieldCurrentCity:        b.CurrentCity,
		fieldHomeCity:           b.HomeCity,
		fieldEducation:          b.Education,
		fieldOccupation:         b.Occupation,
		fieldRelationship:       b.Relationship,
		models.FieldPhoneNumber: b.PhoneNumber,
	}
	for k, v := range optional {
		if v = strings.TrimSpace(v); v != "" {
			f[k] = v
		}
	}
	return f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string(nil), s...)
}

// AccountSetupService backs the account setup screen.
type AccountSetupService interface {
	// Prefill returns the form values: the cached profile first, then the
	// stashed signup data, then defaults.
	Prefill(ctx context.Context) BasicInfo
	// Save writes the form to the profile store and refreshes the cached
	// profile. It returns session.ErrProfileIncomplete when the refreshed
	// profile is still not complete.
	Save(ctx context.Context, info BasicInfo) error
}

type accountSetupService struct {
	src   draft.ProfileSource
	store draft.Store
	stash *SignupStash
	log   logging.Logger
}

func NewAccountSetupService(src draft.ProfileSource, store draft.Store, stash *SignupStash, log logging.Logger) AccountSetupService {
	if log == nil {
		log = logging.Nop()
	}
	return &accountSetupService{src: src, store: store, stash: stash, log: log}
}

func (s *accountSetupService) Prefill(ctx context.Context) BasicInfo {
	var f models.Fields
	if p := s.src.Profile(); p != nil {
		f = p.Fields
	}
	pending := s.stash.Load(ctx)
	if pending == nil {
		pending = &models.PendingSignup{}
	}

	info := BasicInfo{
		FirstName:         firstNonEmpty(f.String(models.FieldFirstName), pending.FullName),
		Username:          f.String(models.FieldUsername),
		PhoneNumber:       firstNonEmpty(f.String(models.FieldPhoneNumber), pending.PhoneNumber),
		CurrentCity:       f.String(fieldCurrentCity),
		HomeCity:          f.String(fieldHomeCity),
		Sex:               firstNonEmpty(f.String(fieldSex), defaultSex),
		Education:         f.String(fieldEducation),
		Occupation:        f.String(fieldOccupation),
		Relationship:      f.String(fieldRelationship),
		SpokenLanguages:   stringList(f[fieldSpokenLanguages]),
		LearningLanguages: stringList(f[fieldLearningLanguages]),
		Birthday:          defaultBirthday,
	}

	if b, ok := birthdayFromFields(f[models.FieldBirthday]); ok {
		info.Birthday = b
	} else if b, ok := ParseBirthDate(pending.BirthDate); ok {
		info.Birthday = b
	}
	return info
}

func (s *accountSetupService) Save(ctx context.Context, info BasicInfo) error {
	id := s.src.Identity()
	if id == nil {
		return session.ErrNotSignedIn
	}
	if err := info.Validate(); err != nil {
		return err
	}

	email := id.Email
	if email == "" {
		if pending := s.stash.Load(ctx); pending != nil {
			email = pending.Email
		}
	}
	fields := info.fields(email)

	var err error
	if s.src.Profile() != nil {
		err = s.store.Update(ctx, id.UID, fields)
	} else {
		err = s.store.Create(ctx, id.UID, fields)
	}
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	if err := s.stash.Clear(ctx); err != nil {
		s.log.Warn(ctx, "signup data clear failed", "error", err)
	}
	if err := s.src.RefreshProfile(ctx); err != nil {
		s.log.Warn(ctx, "profile refresh after setup failed", "uid", id.UID, "error", err)
	}

	if !s.src.Profile().Complete() {
		return session.ErrProfileIncomplete
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
