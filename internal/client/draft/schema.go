package draft

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/common"
)

// Field is one editable profile field. The type of Default decides how text
// input is coerced; a nil Default means free text.
type Field struct {
	Name    string
	Default any
}

// Schema is the field set of one editable screen.
type Schema struct {
	Name   string
	Fields []Field
}

// Has reports whether the schema owns name.
func (s Schema) Has(name string) bool {
	_, ok := s.field(name)
	return ok
}

func (s Schema) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names lists field names in declaration order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// Seed builds the initial draft: the profile's value where present,
// otherwise the default. Fields with neither are left out.
func (s Schema) Seed(p *models.Profile) models.Fields {
	d := make(models.Fields, len(s.Fields))
	for _, f := range s.Fields {
		if p != nil {
			if v, ok := p.Fields[f.Name]; ok && v != nil {
				d[f.Name] = v
				continue
			}
		}
		if f.Default != nil {
			d[f.Name] = f.Default
		}
	}
	return d.Clone()
}

// Coerce converts text input for field into the type of its default.
func (s Schema) Coerce(field, raw string) (any, error) {
	f, ok := s.field(field)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no field %q", common.ErrorUnknownField, s.Name, field)
	}
	raw = strings.TrimSpace(raw)

	switch f.Default.(type) {
	case bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects true or false", common.ErrorValidation, field)
		}
		return v, nil
	case int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a whole number", common.ErrorValidation, field)
		}
		return v, nil
	case []string:
		if raw == "" {
			return []string{}, nil
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	default:
		return raw, nil
	}
}
