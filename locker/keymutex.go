package locker

import (
	"context"
	"sync"
)

// KeyMutex is an in-process Locker backed by a fixed set of striped mutexes.
// Distinct keys may share a stripe.
type KeyMutex struct {
	locks []chan struct{}
}

var _ Locker = (*KeyMutex)(nil)

// NewKeyMutex creates a KeyMutex with count stripes
func NewKeyMutex(count uint) *KeyMutex {
	if count == 0 {
		count = 1
	}
	locks := make([]chan struct{}, count)
	for i := range locks {
		locks[i] = make(chan struct{}, 1)
	}
	return &KeyMutex{locks: locks}
}

// Lock blocks until the key's stripe is free or ctx is done
func (m *KeyMutex) Lock(ctx context.Context, key string) (func(), error) {
	ch := m.locks[elfHash(key)%uint(len(m.locks))]
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() { once.Do(func() { <-ch }) }, nil
}

func elfHash(key string) uint {
	h := uint(0)
	for i := range len(key) {
		h = (h << 4) + uint(key[i])
		g := h & 0xF0000000
		if g != 0 {
			h ^= g >> 24
		}
		h &= ^g
	}
	return h
}
