// Package memory is an in-process db.Store backed by bounded expirable LRUs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/maktaba-labs/maktaba/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// DefaultSize is the number of entries kept per TTL when no size is configured.
const DefaultSize = 10000

// Store keeps values in expirable LRUs, one per distinct TTL. Callers use a
// fixed TTL each (search responses, embeddings), so there are only a few.
// A key lives in at most one partition.
type Store struct {
	size int

	mu         sync.RWMutex
	partitions map[time.Duration]*expirable.LRU[string, []byte]
}

// NewStore creates an in-memory store holding at most size entries per TTL.
func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	return &Store{
		size:       size,
		partitions: make(map[time.Duration]*expirable.LRU[string, []byte]),
	}, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close drops all entries.
func (s *Store) Close() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.partitions {
		p.Purge()
	}
}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Get retrieves a value by key. Expired entries are not returned.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.partitions {
		if v, ok := p.Get(key); ok {
			return v, nil
		}
	}
	return nil, db.ErrKeyNotFound
}

// Set stores a value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value that expires after ttl. A non-positive ttl stores without expiry.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	target := s.partition(ttl)

	s.mu.RLock()
	for d, p := range s.partitions {
		if d != ttl {
			p.Remove(key)
		}
	}
	s.mu.RUnlock()

	target.Add(key, clone(value))
	return nil
}

// Del removes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.partitions {
		p.Remove(key)
	}
	return nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.partitions {
		n += p.Len()
	}
	return n
}

// partition returns the LRU for ttl, creating it on first use. A zero ttl
// makes expirable keep entries until evicted.
func (s *Store) partition(ttl time.Duration) *expirable.LRU[string, []byte] {
	s.mu.RLock()
	p, ok := s.partitions[ttl]
	s.mu.RUnlock()
	if ok {
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok = s.partitions[ttl]; ok {
		return p
	}
	p = expirable.NewLRU[string, []byte](s.size, nil, ttl)
	s.partitions[ttl] = p
	return p
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
