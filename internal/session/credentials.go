package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Fixed credential keys in durable storage.
const (
	KeyAccessToken  = "helios_access_token"
	KeyRefreshToken = "helios_refresh_token"
)

// Credentials is the persisted bearer pair.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Empty reports whether no access token is persisted.
func (c Credentials) Empty() bool { return c.AccessToken == "" }

// CredentialStore persists the credential pair. Only the session store is
// permitted to write through it.
type CredentialStore interface {
	Load(ctx context.Context) (Credentials, error)
	Save(ctx context.Context, creds Credentials) error
	Clear(ctx context.Context) error
}

// MemoryCredentials keeps credentials in process memory. Used by tests and
// by embedders that handle persistence themselves.
type MemoryCredentials struct {
	mu    sync.Mutex
	creds Credentials
}

// NewMemoryCredentials constructs an empty in-memory store.
func NewMemoryCredentials() *MemoryCredentials { return &MemoryCredentials{} }

func (m *MemoryCredentials) Load(ctx context.Context) (Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds, nil
}

func (m *MemoryCredentials) Save(ctx context.Context, creds Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	return nil
}

func (m *MemoryCredentials) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{}
	return nil
}

// FileCredentials persists credentials as a mode-0600 JSON file, the CLI
// analog of browser local storage.
type FileCredentials struct {
	path string
}

// NewFileCredentials constructs a file-backed store at path.
func NewFileCredentials(path string) *FileCredentials {
	return &FileCredentials{path: path}
}

func (f *FileCredentials) Load(ctx context.Context) (Credentials, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, nil
		}
		return Credentials{}, err
	}
	var stored map[string]string
	if err := json.Unmarshal(data, &stored); err != nil {
		// A corrupt file is equivalent to no stored session.
		return Credentials{}, nil
	}
	return Credentials{
		AccessToken:  stored[KeyAccessToken],
		RefreshToken: stored[KeyRefreshToken],
	}, nil
}

func (f *FileCredentials) Save(ctx context.Context, creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(map[string]string{
		KeyAccessToken:  creds.AccessToken,
		KeyRefreshToken: creds.RefreshToken,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

func (f *FileCredentials) Clear(ctx context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RedisCredentials persists credentials under the fixed keys in Redis,
// scoped by an owner prefix.
type RedisCredentials struct {
	client *redis.Client
	prefix string
}

// NewRedisCredentials constructs a redis-backed store. The prefix scopes the
// keys per owning client.
func NewRedisCredentials(client *redis.Client, prefix string) *RedisCredentials {
	return &RedisCredentials{client: client, prefix: prefix}
}

func (r *RedisCredentials) Load(ctx context.Context) (Credentials, error) {
	var creds Credentials
	access, err := r.client.Get(ctx, r.key(KeyAccessToken)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Credentials{}, err
	}
	refresh, err := r.client.Get(ctx, r.key(KeyRefreshToken)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Credentials{}, err
	}
	creds.AccessToken = access
	creds.RefreshToken = refresh
	return creds, nil
}

func (r *RedisCredentials) Save(ctx context.Context, creds Credentials) error {
	if err := r.client.Set(ctx, r.key(KeyAccessToken), creds.AccessToken, 0).Err(); err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(KeyRefreshToken), creds.RefreshToken, 0).Err()
}

func (r *RedisCredentials) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key(KeyAccessToken), r.key(KeyRefreshToken)).Err()
}

func (r *RedisCredentials) key(name string) string {
	if r.prefix == "" {
		return name
	}
	return r.prefix + ":" + name
}
