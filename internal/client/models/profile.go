package models

import "time"

// Well-known profile field names.
const (
	FieldUID             = "uid"
	FieldEmail           = "email"
	FieldFirstName       = "firstName"
	FieldUsername        = "username"
	FieldPhoneNumber     = "phoneNumber"
	FieldBirthday        = "birthday"
	FieldProfileImageURL = "profileImageUrl"
	FieldCreatedAt       = "createdAt"
	FieldUpdatedAt       = "updatedAt"
)

// Fields is a sparse set of profile fields. Values are JSON-compatible:
// string, bool, numbers, []string, []any and nested Fields/map[string]any.
type Fields map[string]any

// Clone returns a deep copy of f. Nested maps and slices are copied so the
// result can be mutated independently.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Fields:
		return t.Clone()
	case map[string]any:
		return map[string]any(Fields(t).Clone())
	case []string:
		if t == nil {
			return t
		}
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// String returns the string value of name, or "" when absent or not a string.
func (f Fields) String(name string) string {
	s, _ := f[name].(string)
	return s
}

// Profile is the client's copy of a profile record.
type Profile struct {
	ID        string
	Fields    Fields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Complete reports whether the profile has both a first name and a username.
// A nil profile is incomplete. This predicate drives navigation.
func (p *Profile) Complete() bool {
	if p == nil {
		return false
	}
	return p.Fields.String(FieldFirstName) != "" && p.Fields.String(FieldUsername) != ""
}

// Clone returns a deep copy of p, or nil for a nil receiver.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Fields = p.Fields.Clone()
	return &c
}
