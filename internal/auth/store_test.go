package auth

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stravamark/stravamark/internal/models"
)

func TestTokenStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := NewTokenStore(path)

	state := models.TokenState{
		AccessToken:  "access-abc",
		RefreshToken: "refresh-def",
		ExpiresAt:    1764400000,
	}
	require.NoError(t, store.Save(state))

	loaded := store.Load()
	assert.Equal(t, state, loaded)
}

func TestTokenStore_MissingFileReadsAsAbsent(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "nope.json"))

	loaded := store.Load()
	assert.False(t, loaded.HasTokens())
	assert.Equal(t, models.TokenState{}, loaded)
}

func TestTokenStore_CorruptFileReadsAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewTokenStore(path)
	assert.Equal(t, models.TokenState{}, store.Load())
}

func TestTokenStore_OwnerOnlyPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes not meaningful on windows")
	}

	path := filepath.Join(t.TempDir(), "tokens.json")
	store := NewTokenStore(path)
	require.NoError(t, store.Save(models.TokenState{AccessToken: "a", RefreshToken: "r", ExpiresAt: 1}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestTokenStore_SaveOverwritesWholly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := NewTokenStore(path)

	require.NoError(t, store.Save(models.TokenState{AccessToken: "old", RefreshToken: "old", ExpiresAt: 1}))
	require.NoError(t, store.Save(models.TokenState{AccessToken: "new", RefreshToken: "new", ExpiresAt: 2}))

	loaded := store.Load()
	assert.Equal(t, "new", loaded.AccessToken)
	assert.EqualValues(t, 2, loaded.ExpiresAt)
}

func TestTokenStore_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "tokens.json")
	store := NewTokenStore(path)

	require.NoError(t, store.Save(models.TokenState{AccessToken: "a", RefreshToken: "r", ExpiresAt: 1}))
	assert.True(t, store.Load().HasTokens())
}
