package remotedata

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	errUnknown = errors.New("fetch failed")
	// ErrSuperseded is reported by Handle.Wait when a newer attempt replaced
	// the one the handle was tracking.
	ErrSuperseded = errors.New("fetch superseded by a newer request")
)

// Ticket identifies one fetch attempt. Only the most recently issued ticket
// may settle a container.
type Ticket struct {
	Key string
	Seq uint64
}

// Container holds the Data for one scope key. The zero value is ready to use
// and starts in NotAsked.
type Container[T any] struct {
	mu   sync.Mutex
	key  string
	seq  uint64
	data Data[T]
}

func NewContainer[T any]() *Container[T] {
	return &Container[T]{}
}

// Begin starts a new attempt for key. The container is Loading when Begin
// returns and any earlier value, for this or another key, is discarded.
func (c *Container[T]) Begin(key string) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.key = key
	c.data = LoadingData[T]()
	return Ticket{Key: key, Seq: c.seq}
}

// Settle applies the outcome of the attempt identified by t. It reports false
// and leaves the container untouched when t is stale or already settled.
func (c *Container[T]) Settle(t Ticket, v T, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Seq != c.seq || t.Key != c.key || c.data.state != Loading {
		return false
	}
	c.data = FromResult(v, err)
	return true
}

// Reset drops all state, for example when the owning view goes away.
// Attempts still in flight will not be able to settle.
func (c *Container[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.key = ""
	c.data = NotAskedData[T]()
}

func (c *Container[T]) Data() Data[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

func (c *Container[T]) Key() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

// Ticket returns the latest issued ticket.
func (c *Container[T]) Ticket() Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Ticket{Key: c.key, Seq: c.seq}
}

// Current reports whether t is still the authoritative attempt.
func (c *Container[T]) Current(t Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return t.Seq == c.seq && t.Key == c.key
}

// Run begins an attempt for key and resolves it with fetch on a new
// goroutine. Panics inside fetch are reported as Failure.
func (c *Container[T]) Run(ctx context.Context, key string, fetch func(context.Context) (T, error)) *Handle[T] {
	ticket := c.Begin(key)
	h := &Handle[T]{c: c, ticket: ticket, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		v, err := safeFetch(ctx, fetch)
		c.Settle(ticket, v, err)
	}()
	return h
}

// Of starts fetch in a fresh container bound to key.
func Of[T any](ctx context.Context, key string, fetch func(context.Context) (T, error)) *Handle[T] {
	return NewContainer[T]().Run(ctx, key, fetch)
}

func safeFetch[T any](ctx context.Context, fetch func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v = zero
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	if fetch == nil {
		return v, errors.New("missing fetch function")
	}
	return fetch(ctx)
}

// Handle tracks one attempt started by Run or Of.
type Handle[T any] struct {
	c      *Container[T]
	ticket Ticket
	done   chan struct{}
}

func (h *Handle[T]) Ticket() Ticket { return h.ticket }

// Data reads the container's current state without blocking.
func (h *Handle[T]) Data() Data[T] {
	return h.c.Data()
}

// Wait blocks until the tracked attempt has finished and returns the
// container state. If a newer attempt replaced it, ErrSuperseded is returned
// along with whatever the container currently holds.
func (h *Handle[T]) Wait(ctx context.Context) (Data[T], error) {
	select {
	case <-h.done:
	case <-ctx.Done():
		return h.c.Data(), ctx.Err()
	}
	if !h.c.Current(h.ticket) {
		return h.c.Data(), ErrSuperseded
	}
	return h.c.Data(), nil
}
