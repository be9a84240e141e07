package localstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	require.NoError(t, s.Set("thing", payload{Name: "x", Count: 3}))

	var got payload
	require.NoError(t, s.Get("thing", &got))
	assert.Equal(t, payload{Name: "x", Count: 3}, got)
}

func TestGetMissingKey(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	var v string
	assert.ErrorIs(t, s.Get("nope", &v), ErrNotFound)
}

func TestDeleteMissingKeyIsNoop(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, s.Delete("nope"))
}

func TestOverwrite(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.SetString("k", "first"))
	require.NoError(t, s.SetString("k", "second"))

	v, err := s.GetString("k")
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}

func TestValuesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s.SetString(KeyAccessToken, "tok"))

	reopened, err := New(dir)
	require.NoError(t, err)
	v, err := reopened.GetString(KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", v)
}

func TestSelectedVariantKeyPerProduct(t *testing.T) {
	assert.Equal(t, "selected_variant_7", SelectedVariantKey(7))
	assert.NotEqual(t, SelectedVariantKey(7), SelectedVariantKey(8))
}

func TestHostileKeyStaysInsideDir(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.SetString("../../etc/passwd", "v"))
	v, err := s.GetString("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
