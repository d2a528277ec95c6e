package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b-harvest/gasp-e2e/internal/application/ports"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

const (
	addrA chain.Address = "0x1000000000000000000000000000000000000001"
	addrB chain.Address = "0x2000000000000000000000000000000000000002"
)

func stores(t *testing.T) map[string]ports.KeyStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]ports.KeyStore{
		"file":  NewFileKeyStore(filepath.Join(t.TempDir(), "keys")),
		"redis": NewRedisKeyStore(client, "test:"),
	}
}

func TestKeyStores(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			list, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)

			_, err = store.Load(ctx, addrA)
			require.Error(t, err)
			assert.True(t, IsNotFound(err))

			require.NoError(t, store.Save(ctx, addrB, []byte(`{"b":1}`)))
			require.NoError(t, store.Save(ctx, addrA, []byte(`{"a":1}`)))
			require.NoError(t, store.Save(ctx, addrA, []byte(`{"a":2}`)))

			data, err := store.Load(ctx, addrA)
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":2}`, string(data))

			list, err = store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []chain.Address{addrA, addrB}, list)

			require.NoError(t, store.Delete(ctx, addrA))
			assert.True(t, IsNotFound(store.Delete(ctx, addrA)))

			assert.Error(t, store.Save(ctx, addrA, nil))
		})
	}
}

func TestFileKeyStore_FileLayout(t *testing.T) {
	dir := t.TempDir()
	store := NewFileKeyStore(dir)
	require.NoError(t, store.Save(context.Background(), addrA, []byte(`{}`)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("x"), 0600))

	info, err := os.Stat(filepath.Join(dir, string(addrA)+".json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []chain.Address{addrA}, list)
}

func TestDialRedisKeyStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store, err := DialRedisKeyStore(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Save(ctx, addrA, []byte(`{}`)))
	assert.True(t, mr.Exists(DefaultRedisPrefix+string(addrA)))

	_, err = DialRedisKeyStore(ctx, "http://not-redis")
	assert.ErrorContains(t, err, "parse redis url")
}
