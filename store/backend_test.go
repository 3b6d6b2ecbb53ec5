package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileBackendRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	b := NewFileBackend(dir)

	_, found, err := b.Get(SessionKey)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, b.Set(SessionKey, []byte(`{"a":1}`)))
	data, found, err := b.Get(SessionKey)
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, `{"a":1}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")

	require.NoError(t, b.Delete(SessionKey))
	require.NoError(t, b.Delete(SessionKey))
	_, found, err = b.Get(SessionKey)
	require.NoError(t, err)
	require.False(t, found)
}

func TestFileBackendRejectsPathKeys(t *testing.T) {
	b := NewFileBackend(t.TempDir())
	require.Error(t, b.Set("../escape", nil))
	_, _, err := b.Get("a/b")
	require.Error(t, err)
}

func TestSealedBackend(t *testing.T) {
	inner := NewMemoryBackend()
	b := NewSealedBackend(inner, "s3cret")

	require.NoError(t, b.Set(SessionKey, []byte("token-data")))
	raw, _, _ := inner.Get(SessionKey)
	require.NotContains(t, string(raw), "token-data")

	data, found, err := b.Get(SessionKey)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "token-data", string(data))

	other := NewSealedBackend(inner, "different")
	_, _, err = other.Get(SessionKey)
	require.True(t, errors.Is(err, ErrCorrupt))

	require.NoError(t, inner.Set(CartKey, []byte("short")))
	_, _, err = b.Get(CartKey)
	require.True(t, errors.Is(err, ErrCorrupt))
}

func TestSealedBackendWrongKeyResetsSession(t *testing.T) {
	inner := NewMemoryBackend()
	s := NewSessionStore(NewSealedBackend(inner, "one"), quietLogger())
	require.NoError(t, s.Login(nil, "a", "r"))

	reopened := NewSessionStore(NewSealedBackend(inner, "two"), quietLogger())
	require.False(t, reopened.IsAuthenticated())
}
