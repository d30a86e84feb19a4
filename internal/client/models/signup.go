package models

// PendingSignup is what the sign-up form collected before the profile
// existed. It is kept locally until the first profile is created.
type PendingSignup struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	BirthDate   string `json:"birthDate"`
	PhoneNumber string `json:"phoneNumber"`
	UID         string `json:"uid"`
}
