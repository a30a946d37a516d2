// Package blobstore keeps whole JSON documents under string keys. Each key is
// read-modify-written atomically through Update.
package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var ErrNotFound = errors.New("blob not found")

// Store is a keyed blob store.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	// Update runs fn with the current value (nil if the key is missing) and
	// stores what it returns. Nothing is written if fn fails.
	Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error
	Close() error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (s *MemoryStore) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var old []byte
	if b, ok := s.blobs[key]; ok {
		old = append([]byte(nil), b...)
	}
	next, err := fn(old)
	if err != nil {
		return err
	}
	s.blobs[key] = append([]byte(nil), next...)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// LoadJSON decodes the document at key. A missing key yields seed().
func LoadJSON[T any](ctx context.Context, s Store, key string, seed func() T) (T, error) {
	var v T
	b, err := s.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return seed(), nil
	}
	if err != nil {
		return v, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return v, nil
}

// UpdateJSON applies fn to the document at key atomically. A missing key
// starts from seed().
func UpdateJSON[T any](ctx context.Context, s Store, key string, seed func() T, fn func(v *T) error) (T, error) {
	var out T
	err := s.Update(ctx, key, func(old []byte) ([]byte, error) {
		var v T
		if old == nil {
			v = seed()
		} else if err := json.Unmarshal(old, &v); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		if err := fn(&v); err != nil {
			return nil, err
		}
		out = v
		return json.Marshal(v)
	})
	return out, err
}
