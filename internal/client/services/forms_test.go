package services

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() SignupForm {
	return SignupForm{
		FullName:    "Ann Lee",
		Email:       "ann@example.com",
		BirthDate:   "05/07/1990",
		PhoneNumber: "+1 (555) 123-4567",
		Password:    []byte("secret123"),
	}
}

func TestSignupForm_Validate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(f *SignupForm)
		field string
		msg   string
	}{
		{name: "missing name", edit: func(f *SignupForm) { f.FullName = "  " }, field: FormFullName, msg: "Full name is required"},
		{name: "short name", edit: func(f *SignupForm) { f.FullName = "A" }, field: FormFullName, msg: "Full name must be at least 2 characters"},
		{name: "missing email", edit: func(f *SignupForm) { f.Email = "" }, field: FormEmail, msg: "Email is required"},
		{name: "bad email", edit: func(f *SignupForm) { f.Email = "ann@example" }, field: FormEmail, msg: "Please enter a valid email address"},
		{name: "missing birth date", edit: func(f *SignupForm) { f.BirthDate = "" }, field: FormBirthDate, msg: "Birth date is required"},
		{name: "bad birth date", edit: func(f *SignupForm) { f.BirthDate = "31/02/1990" }, field: FormBirthDate, msg: "Please enter date in DD/MM/YYYY format"},
		{name: "missing phone", edit: func(f *SignupForm) { f.PhoneNumber = "" }, field: FormPhoneNumber, msg: "Phone number is required"},
		{name: "short phone", edit: func(f *SignupForm) { f.PhoneNumber = "555-1234" }, field: FormPhoneNumber, msg: "Please enter a valid phone number"},
		{name: "letters in phone", edit: func(f *SignupForm) { f.PhoneNumber = "555-123-456x7" }, field: FormPhoneNumber, msg: "Please enter a valid phone number"},
		{name: "missing password", edit: func(f *SignupForm) { f.Password = nil }, field: FormPassword, msg: "Password is required"},
		{name: "short password", edit: func(f *SignupForm) { f.Password = []byte("1234567") }, field: FormPassword, msg: "Password must be at least 8 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.edit(&f)

			err := f.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrorValidation))

			var fe FormErrors
			require.True(t, errors.As(err, &fe))
			assert.Len(t, fe, 1)
			assert.Equal(t, tt.msg, fe[tt.field])
		})
	}

	require.NoError(t, validForm().Validate())
}

func TestSignupForm_ValidateReportsEveryField(t *testing.T) {
	err := SignupForm{}.Validate()

	var fe FormErrors
	require.True(t, errors.As(err, &fe))
	assert.Len(t, fe, 5)
	assert.Contains(t, err.Error(), "email: Email is required")
}

func TestParseBirthDate(t *testing.T) {
	b, ok := ParseBirthDate("05/07/1990")
	require.True(t, ok)
	assert.Equal(t, Birthday{Day: "05", Month: "Jul", Year: "1990"}, b)

	b, ok = ParseBirthDate("1995-03-12")
	require.True(t, ok)
	assert.Equal(t, Birthday{Day: "12", Month: "Mar", Year: "1995"}, b)

	for _, bad := range []string{"", "1990", "32/01/1990", "5/7/1990", "12-03-1995"} {
		_, ok := ParseBirthDate(bad)
		assert.False(t, ok, bad)
	}
}

func TestBirthdayFromFields(t *testing.T) {
	b, ok := birthdayFromFields(map[string]any{"day": "1", "month": "Jan", "year": "2000"})
	require.True(t, ok)
	assert.Equal(t, Birthday{Day: "1", Month: "Jan", Year: "2000"}, b)

	b, ok = birthdayFromFields(models.Fields{"month": "Feb"})
	require.True(t, ok)
	assert.Equal(t, "Feb", b.Month)

	_, ok = birthdayFromFields("12/03/1995")
	assert.False(t, ok)
	_, ok = birthdayFromFields(map[string]any{})
	assert.False(t, ok)
}
