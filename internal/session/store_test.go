package session_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"munimji/internal/core"
	"munimji/internal/session"
)

func newStore(t *testing.T) *session.FileStore {
	t.Helper()
	return session.NewFileStore(filepath.Join(t.TempDir(), "session.json"))
}

func TestEstablishAndRead(t *testing.T) {
	store := newStore(t)

	user := core.Profile{ID: 7, PhoneNumber: "9876543210", ShopName: "Sharma Kirana"}
	require.NoError(t, store.Establish("tok-123", user))

	token, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	got, err := store.User()
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestEstablishReplacesPrevious(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Establish("old", core.Profile{ID: 1}))
	require.NoError(t, store.Establish("new", core.Profile{ID: 2}))

	token, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "new", token)

	user, err := store.User()
	require.NoError(t, err)
	assert.EqualValues(t, 2, user.ID)
}

func TestAbsentSession(t *testing.T) {
	store := newStore(t)

	_, err := store.Token()
	assert.ErrorIs(t, err, session.ErrNoSession)

	_, err = store.User()
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestClear(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Establish("tok", core.Profile{ID: 3}))
	require.NoError(t, store.Clear())

	_, err := store.Token()
	assert.ErrorIs(t, err, session.ErrNoSession)
	_, err = store.User()
	assert.ErrorIs(t, err, session.ErrNoSession)

	// Clearing an already-clear store is fine.
	require.NoError(t, store.Clear())
}
