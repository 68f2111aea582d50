package config

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestStoreApplyIndependentFields(t *testing.T) {
	s := NewStore(Settings{Mode: Top, ThicknessDip: 1})

	d := s.Apply(Change{Centered: ptr(true)})
	assert.Equal(t, Delta{Presentation: true}, d)
	assert.Equal(t, Settings{Mode: Top, Centered: true, ThicknessDip: 1}, s.Settings())

	d = s.Apply(Change{Mode: ptr(Bottom)})
	assert.Equal(t, Delta{Mode: true}, d)
	assert.Equal(t, Bottom, s.Mode())
	assert.True(t, s.Settings().Centered, "unrelated fields must survive")
}

func TestStoreApplySameValueIsNoChange(t *testing.T) {
	s := NewStore(Settings{Mode: Top, Animated: true, MarginDip: 4})

	d := s.Apply(Change{Mode: ptr(Top), Animated: ptr(true), MarginDip: ptr(4)})
	assert.False(t, d.Any())

	d = s.Apply(Change{})
	assert.False(t, d.Any())
}

func TestChangeValidate(t *testing.T) {
	require.NoError(t, Change{}.Validate())
	require.NoError(t, Change{Mode: ptr(Off), ThicknessDip: ptr(0)}.Validate())

	err := Change{Mode: ptr(Mode(7))}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidChange))
	assert.True(t, errors.Is(err, ErrUnknownMode))

	assert.ErrorIs(t, Change{ThicknessDip: ptr(-1)}.Validate(), ErrInvalidChange)
	assert.ErrorIs(t, Change{MarginDip: ptr(-1)}.Validate(), ErrInvalidChange)
}

func TestChangeJSON(t *testing.T) {
	var c Change
	require.NoError(t, json.Unmarshal([]byte(`{"mode":"off","thicknessDip":2}`), &c))

	require.NotNil(t, c.Mode)
	assert.Equal(t, Off, *c.Mode)
	require.NotNil(t, c.ThicknessDip)
	assert.Equal(t, 2, *c.ThicknessDip)
	assert.Nil(t, c.Animated)
	assert.Nil(t, c.Centered)
	assert.Nil(t, c.MarginDip)

	assert.Error(t, json.Unmarshal([]byte(`{"mode":"diagonal"}`), &c))
}

func TestDiff(t *testing.T) {
	from := Settings{Mode: Top, Animated: true, ThicknessDip: 1}
	to := Settings{Mode: Off, Animated: true, ThicknessDip: 2}

	c := Diff(from, to)
	require.NotNil(t, c.Mode)
	assert.Equal(t, Off, *c.Mode)
	require.NotNil(t, c.ThicknessDip)
	assert.Equal(t, 2, *c.ThicknessDip)
	assert.Nil(t, c.Animated)

	s := NewStore(from)
	s.Apply(c)
	assert.Equal(t, to, s.Settings())

	assert.True(t, Diff(to, to).IsEmpty())
}
