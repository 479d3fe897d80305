package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/gobarber/gobarber/internal/session"
)

// exerciseStore runs the behaviour every backend must share
func exerciseStore(t *testing.T, store session.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "@GoBarber:token")
	assert.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, store.Set(ctx, "@GoBarber:token", "abc"))
	value, err := store.Get(ctx, "@GoBarber:token")
	require.NoError(t, err)
	assert.Equal(t, "abc", value)

	require.NoError(t, store.Set(ctx, "@GoBarber:token", "def"))
	value, err = store.Get(ctx, "@GoBarber:token")
	require.NoError(t, err)
	assert.Equal(t, "def", value)

	require.NoError(t, store.Remove(ctx, "@GoBarber:token"))
	_, err = store.Get(ctx, "@GoBarber:token")
	assert.ErrorIs(t, err, session.ErrNotFound)

	// Removing an absent key is a no-op
	require.NoError(t, store.Remove(ctx, "@GoBarber:token"))
	require.NoError(t, store.Remove(ctx, "@GoBarber:never-set"))
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestKeyring(t *testing.T) {
	keyring.MockInit()
	exerciseStore(t, NewKeyring(""))
}

func TestKeyring_ServicesAreIsolated(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()

	a := NewKeyring("gobarber-a")
	b := NewKeyring("gobarber-b")
	require.NoError(t, a.Set(ctx, "@GoBarber:token", "abc"))

	_, err := b.Get(ctx, "@GoBarber:token")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	exerciseStore(t, NewFile(path))
}

func TestFile_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	require.NoError(t, NewFile(path).Set(ctx, "@GoBarber:user", `{"id":"1"}`))

	value, err := NewFile(path).Get(ctx, "@GoBarber:user")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, value)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFile_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := NewFile(path).Get(context.Background(), "@GoBarber:token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, session.ErrNotFound)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("GOBARBER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GOBARBER_TEST_REDIS_ADDR not set")
	}

	store, err := NewRedis(context.Background(), addr)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		opts    Options
		want    any
		wantErr bool
	}{
		{name: "default is keyring", opts: Options{}, want: &Keyring{}},
		{name: "keyring", opts: Options{Backend: BackendKeyring}, want: &Keyring{}},
		{name: "file", opts: Options{Backend: BackendFile, FilePath: filepath.Join(t.TempDir(), "s.json")}, want: &File{}},
		{name: "memory", opts: Options{Backend: BackendMemory}, want: &Memory{}},
		{name: "redis without address", opts: Options{Backend: BackendRedis}, wantErr: true},
		{name: "unknown", opts: Options{Backend: "floppy"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closeFn, err := Open(ctx, tt.opts)
			require.NotNil(t, closeFn)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, store)
			assert.NoError(t, closeFn())
		})
	}
}
