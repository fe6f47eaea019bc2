package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/helioshq/helios-admin/testing"
)

var sample = Credentials{AccessToken: "access-1", RefreshToken: "refresh-1"}

func TestCredentialsEmpty(t *testing.T) {
	assert.True(t, Credentials{}.Empty())
	assert.True(t, Credentials{RefreshToken: "r"}.Empty(), "a refresh token alone is not a session")
	assert.False(t, Credentials{AccessToken: "a"}.Empty())
}

func TestMemoryCredentials(t *testing.T) {
	store := NewMemoryCredentials()
	ctx := context.Background()

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Empty())

	require.NoError(t, store.Save(ctx, sample))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample, loaded)

	require.NoError(t, store.Clear(ctx))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Empty())
}

func TestFileCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	store := NewFileCredentials(path)
	ctx := context.Background()

	// Missing file reads as no session.
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Empty())

	require.NoError(t, store.Save(ctx, sample))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample, loaded)

	require.NoError(t, store.Clear(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice stays silent.
	require.NoError(t, store.Clear(ctx))
}

func TestFileCredentialsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	loaded, err := NewFileCredentials(path).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded.Empty(), "a corrupt file is treated as no stored session")
}

func TestFileCredentialsUsesFixedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewFileCredentials(path)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sample))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), KeyAccessToken)
	assert.Contains(t, string(data), KeyRefreshToken)
}

func TestRedisCredentials(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisCredentials(client, "cli1")
	ctx := context.Background()

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Empty())

	require.NoError(t, store.Save(ctx, sample))
	assert.True(t, mr.Exists("cli1:"+KeyAccessToken))
	assert.True(t, mr.Exists("cli1:"+KeyRefreshToken))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample, loaded)

	require.NoError(t, store.Clear(ctx))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Empty())
}

func TestRedisCredentialsPrefixIsolation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	a := NewRedisCredentials(client, "a")
	b := NewRedisCredentials(client, "b")

	require.NoError(t, a.Save(ctx, sample))

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Empty(), "prefixes scope sessions per owner")
}
