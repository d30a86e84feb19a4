package draft

import (
	"testing"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Seed(t *testing.T) {
	s := Schema{Fields: []Field{
		{Name: "showEmail", Default: false},
		{Name: "ageMin", Default: 18},
		{Name: "about"},
	}}

	assert.Equal(t, models.Fields{"showEmail": false, "ageMin": 18}, s.Seed(nil))

	p := &models.Profile{Fields: models.Fields{"showEmail": true, "about": "hi", "other": 1, "ageMin": nil}}
	assert.Equal(t, models.Fields{"showEmail": true, "ageMin": 18, "about": "hi"}, s.Seed(p))
}

func TestSchema_Coerce(t *testing.T) {
	s := Schema{Name: "x", Fields: []Field{
		{Name: "flag", Default: false},
		{Name: "age", Default: 18},
		{Name: "tags", Default: []string{}},
		{Name: "text"},
	}}

	v, err := s.Coerce("flag", "true")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = s.Coerce("age", " 30 ")
	require.NoError(t, err)
	assert.Equal(t, 30, v)

	v, err = s.Coerce("tags", "go, chess ,,")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "chess"}, v)

	v, err = s.Coerce("tags", "")
	require.NoError(t, err)
	assert.Equal(t, []string{}, v)

	v, err = s.Coerce("text", "hello world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", v)

	_, err = s.Coerce("flag", "maybe")
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = s.Coerce("age", "old")
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = s.Coerce("missing", "1")
	assert.ErrorIs(t, err, common.ErrorUnknownField)

	assert.Equal(t, []string{"flag", "age", "tags", "text"}, s.Names())
	assert.True(t, s.Has("age"))
	assert.False(t, s.Has("nope"))
}

func TestSerialize_Deterministic(t *testing.T) {
	a, err := serialize(models.Fields{"b": 1, "a": map[string]any{"y": 1, "x": 2}})
	require.NoError(t, err)
	b, err := serialize(models.Fields{"a": map[string]any{"x": 2, "y": 1}, "b": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	n, err := serialize(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", n)
}
