package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage_MissingFileIsEmpty(t *testing.T) {
	fs := NewFileStorage(filepath.Join(t.TempDir(), "session.yaml"))

	token, err := fs.Load()

	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileStorage_SaveWritesPrivateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	fs := NewFileStorage(path)

	require.NoError(t, fs.Save("abc"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "token: abc\n", string(data))
}

func TestFileStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unterminated"), 0o600))

	_, err := NewFileStorage(path).Load()

	assert.Error(t, err)
}

func TestFileStorage_ClearIsIdempotent(t *testing.T) {
	fs := NewFileStorage(filepath.Join(t.TempDir(), "session.yaml"))

	require.NoError(t, fs.Save("abc"))
	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear())

	token, err := fs.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}
