package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/common"
)

// Form field names used as FormErrors keys.
const (
	FormFullName    = "fullName"
	FormEmail       = "email"
	FormBirthDate   = "birthDate"
	FormPhoneNumber = "phoneNumber"
	FormPassword    = "password"
	FormFirstName   = "firstName"
	FormUsername    = "username"
	FormContent     = "content"
	FormVisibility  = "visibility"
	FormGeneral     = "general"
)

const (
	minFullNameLen  = 2
	minPasswordLen  = 8
	minPhoneDigits  = 10
	birthDateLayout = "02/01/2006"
	isoDateLayout   = "2006-01-02"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[\d\s+\-()]+$`)
)

var monthAbbr = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// FormErrors maps a form field to the message shown next to it.
type FormErrors map[string]string

func (e FormErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return strings.Join(parts, "; ")
}

func (e FormErrors) Unwrap() error { return common.ErrorValidation }

func (e FormErrors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// SignupForm is what the sign-up screen submits.
type SignupForm struct {
	FullName    string
	Email       string
	BirthDate   string
	PhoneNumber string
	Password    []byte
}

// Validate checks every field and returns FormErrors, or nil.
func (f SignupForm) Validate() error {
	errs := FormErrors{}

	name := strings.TrimSpace(f.FullName)
	switch {
	case name == "":
		errs[FormFullName] = "Full name is required"
	case len([]rune(name)) < minFullNameLen:
		errs[FormFullName] = "Full name must be at least 2 characters"
	}

	if msg := validateEmail(f.Email); msg != "" {
		errs[FormEmail] = msg
	}

	switch {
	case strings.TrimSpace(f.BirthDate) == "":
		errs[FormBirthDate] = "Birth date is required"
	case !validDate(f.BirthDate):
		errs[FormBirthDate] = "Please enter date in DD/MM/YYYY format"
	}

	phone := strings.TrimSpace(f.PhoneNumber)
	switch {
	case phone == "":
		errs[FormPhoneNumber] = "Phone number is required"
	case !validPhone(phone):
		errs[FormPhoneNumber] = "Please enter a valid phone number"
	}

	switch {
	case len(f.Password) == 0:
		errs[FormPassword] = "Password is required"
	case len(f.Password) < minPasswordLen:
		errs[FormPassword] = "Password must be at least 8 characters"
	}

	return errs.orNil()
}

func validateEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required"
	}
	if !emailRe.MatchString(email) {
		return "Please enter a valid email address"
	}
	return ""
}

func validPhone(phone string) bool {
	if !phoneRe.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{birthDateLayout, isoDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func validDate(s string) bool {
	_, ok := parseDate(s)
	return ok
}

// Birthday is the profile's split birth date. Month is an English
// three-letter abbreviation.
type Birthday struct {
	Day   string
	Month string
	Year  string
}

// ParseBirthDate splits DD/MM/YYYY (or YYYY-MM-DD) into a Birthday.
func ParseBirthDate(s string) (Birthday, bool) {
	t, ok := parseDate(s)
	if !ok {
		return Birthday{}, false
	}
	return Birthday{
		Day:   fmt.Sprintf("%02d", t.Day()),
		Month: monthAbbr[t.Month()-1],
		Year:  fmt.Sprintf("%04d", t.Year()),
	}, true
}

func (b Birthday) fields() map[string]any {
	return map[string]any{"day": b.Day, "month": b.Month, "year": b.Year}
}

func birthdayFromFields(v any) (Birthday, bool) {
	var m map[string]any
	switch t := v.(type) {
	case map[string]any:
		m = t
	case models.Fields:
		m = t
	default:
		return Birthday{}, false
	}
	b := Birthday{}
	b.Day, _ = m["day"].(string)
	b.Month, _ = m["month"].(string)
	b.Year, _ = m["year"].(string)
	return b, b.Day != "" || b.Month != "" || b.Year != ""
}
