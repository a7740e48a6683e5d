package session

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStorage struct {
	loadErr error
	saveErr error
}

func (b brokenStorage) Load() (string, error) { return "", b.loadErr }
func (b brokenStorage) Save(string) error     { return b.saveErr }
func (b brokenStorage) Clear() error          { return nil }

func TestStore_StartsFromPersistedToken(t *testing.T) {
	logger, _ := test.NewNullLogger()
	storage := &MemoryStorage{}
	require.NoError(t, storage.Save("persisted"))

	store := NewStore(storage, logger)

	token, ok := store.Token()
	assert.True(t, ok)
	assert.Equal(t, "persisted", token)
}

func TestStore_LoadFailureIsAnonymous(t *testing.T) {
	logger, hook := test.NewNullLogger()

	store := NewStore(brokenStorage{loadErr: errors.New("disk on fire")}, logger)

	assert.False(t, store.Authenticated())
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "starting anonymous")
}

func TestStore_SetAndClear(t *testing.T) {
	logger, _ := test.NewNullLogger()
	storage := &MemoryStorage{}
	store := NewStore(storage, logger)

	require.NoError(t, store.SetToken("abc"))
	token, ok := store.Token()
	assert.True(t, ok)
	assert.Equal(t, "abc", token)
	persisted, _ := storage.Load()
	assert.Equal(t, "abc", persisted)

	require.NoError(t, store.ClearToken())
	_, ok = store.Token()
	assert.False(t, ok)
	persisted, _ = storage.Load()
	assert.Empty(t, persisted)
}

func TestStore_SetEmptyTokenRejected(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := NewStore(&MemoryStorage{}, logger)

	assert.ErrorIs(t, store.SetToken(""), ErrEmptyToken)
	assert.False(t, store.Authenticated())
}

func TestStore_PersistFailureKeepsMemoryToken(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := NewStore(brokenStorage{saveErr: errors.New("read-only")}, logger)

	err := store.SetToken("abc")

	assert.Error(t, err)
	token, ok := store.Token()
	assert.True(t, ok)
	assert.Equal(t, "abc", token)
}

func TestStore_AuthHeader(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := NewStore(&MemoryStorage{}, logger)

	h := store.AuthHeader()
	assert.Equal(t, "application/json", h.Get("Content-Type"))
	assert.Empty(t, h.Get("Authorization"))
	assert.Len(t, h, 1)

	require.NoError(t, store.SetToken("abc"))
	h = store.AuthHeader()
	assert.Equal(t, "application/json", h.Get("Content-Type"))
	assert.Equal(t, "Bearer abc", h.Get("Authorization"))
}

func TestStore_Subscribe(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := NewStore(&MemoryStorage{}, logger)

	type change struct {
		token string
		authd bool
	}
	var got []change
	unsubscribe := store.Subscribe(func(token string, authenticated bool) {
		got = append(got, change{token, authenticated})
	})

	require.NoError(t, store.SetToken("abc"))
	require.NoError(t, store.ClearToken())
	// Clearing an anonymous session is not a change.
	require.NoError(t, store.ClearToken())

	unsubscribe()
	require.NoError(t, store.SetToken("def"))

	assert.Equal(t, []change{{"abc", true}, {"", false}}, got)
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")

	first := NewStore(NewFileStorage(path), logger)
	require.NoError(t, first.SetToken("abc"))

	second := NewStore(NewFileStorage(path), logger)
	token, ok := second.Token()
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	require.NoError(t, second.ClearToken())
	third := NewStore(NewFileStorage(path), logger)
	assert.False(t, third.Authenticated())
}
