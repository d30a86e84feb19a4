// Package models defines client-side data models: the signed-in identity,
// the sparse profile record, and the locally stashed signup form.
package models

// Identity is the session identity issued by the identity gateway.
type Identity struct {
	// UID is the provider-assigned user id; profiles are keyed by it.
	UID string

	Email       string
	DisplayName string

	// EmailVerified is the locally cached flag; it only changes after an
	// explicit reload against the gateway.
	EmailVerified bool

	// Token is the signed id token for this identity.
	Token string
}

// Clone returns a copy of i, or nil for a nil receiver.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// SameUser reports whether a and b identify the same user. Two nils match.
func SameUser(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UID == b.UID
}

// Credentials are submitted by the sign-in and sign-up forms.
type Credentials struct {
	Email    string
	Password []byte

	// DisplayName is only used on sign-up.
	DisplayName string
}
