package blobstore

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "blobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"Memory": NewMemoryStore(),
		"SQLite": sqlite,
	}
}

type counter struct {
	N int `json:"n"`
}

func TestStore_LoadSave(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Load(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Save(ctx, "k", []byte(`{"n":1}`)))
			require.NoError(t, s.Save(ctx, "k", []byte(`{"n":2}`)))
			got, err := s.Load(ctx, "k")
			require.NoError(t, err)
			assert.JSONEq(t, `{"n":2}`, string(got))
		})
	}
}

func TestStore_UpdateFailureWritesNothing(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, "k", []byte(`{"n":1}`)))

			boom := errors.New("boom")
			err := s.Update(ctx, "k", func(old []byte) ([]byte, error) {
				return nil, boom
			})
			assert.ErrorIs(t, err, boom)

			got, err := s.Load(ctx, "k")
			require.NoError(t, err)
			assert.JSONEq(t, `{"n":1}`, string(got))
		})
	}
}

func TestUpdateJSON_Concurrent(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed := func() counter { return counter{N: 100} }

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := UpdateJSON(ctx, s, "counter", seed, func(c *counter) error {
						c.N++
						return nil
					})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			got, err := LoadJSON(ctx, s, "counter", seed)
			require.NoError(t, err)
			assert.Equal(t, 120, got.N, "no update may be lost")
		})
	}
}

func TestLoadJSON_Seed(t *testing.T) {
	s := NewMemoryStore()
	got, err := LoadJSON(context.Background(), s, "none", func() counter { return counter{N: 7} })
	require.NoError(t, err)
	assert.Equal(t, 7, got.N)

	require.NoError(t, s.Save(context.Background(), "bad", []byte("{")))
	_, err = LoadJSON(context.Background(), s, "bad", func() counter { return counter{} })
	assert.Error(t, err)
}
