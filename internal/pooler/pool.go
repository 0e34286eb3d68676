// Package pooler keeps expensive resources, like keyed database handles
// whose key derivation runs on every open, around for reuse.
package pooler

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Get once the pool is closed.
var ErrClosed = errors.New("pool is closed")

type Config[T any] struct {
	// MaxItems is the maximum number of items checked out at once.
	// Must be greater than zero.
	MaxItems int
	// MaxIdle is the maximum number of items kept for reuse.
	// Must be greater than or equal to zero.
	// Must not exceed MaxItems.
	MaxIdle int
	// NewFunc creates a new item.
	NewFunc func(ctx context.Context) (T, error)
	// CloseFunc closes an item.
	CloseFunc func(T) error
}

// Stats is a point in time view of a pool.
type Stats struct {
	InUse   int
	Idle    int
	Created int
}

// Pool is a generic, thread-safe pool for any resource type T.
// At most MaxItems items are checked out at once; Get waits for a Put beyond
// that. Up to MaxIdle returned items are kept and the rest are closed.
type Pool[T any] struct {
	Config[T]

	// slots holds one token per checked out item.
	slots chan struct{}

	mu      sync.Mutex
	closed  bool
	idle    []T
	created int
}

// NewPool validates the configuration and creates an empty pool.
func NewPool[T any](config Config[T]) (*Pool[T], error) {
	if config.MaxItems <= 0 {
		return nil, errors.New("maxItems must be greater than zero")
	}
	if config.MaxIdle < 0 {
		return nil, errors.New("maxIdle cannot be negative")
	}
	if config.MaxIdle > config.MaxItems {
		return nil, errors.New("maxIdle cannot exceed maxItems")
	}
	if config.NewFunc == nil {
		return nil, errors.New("newFunc must not be nil")
	}
	if config.CloseFunc == nil {
		return nil, errors.New("closeFunc must not be nil")
	}

	return &Pool[T]{
		Config: config,
		slots:  make(chan struct{}, config.MaxItems),
		idle:   make([]T, 0, config.MaxIdle),
	}, nil
}

// Get returns an idle item, or a new one when none is idle. It blocks while
// MaxItems items are checked out, until one is Put back or ctx is done.
func (p *Pool[T]) Get(ctx context.Context) (T, error) {
	var zero T

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.slots
		return zero, ErrClosed
	}
	if n := len(p.idle); n > 0 {
		res := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return res, nil
	}
	p.mu.Unlock()

	res, err := p.NewFunc(ctx)
	if err != nil {
		<-p.slots
		return zero, err
	}

	p.mu.Lock()
	p.created++
	p.mu.Unlock()
	return res, nil
}

// Put returns an item taken with Get. It is closed when the pool is closed
// or MaxIdle items are already idle.
func (p *Pool[T]) Put(res T) error {
	p.mu.Lock()
	defer func() {
		p.mu.Unlock()
		<-p.slots
	}()

	if p.closed || len(p.idle) >= p.MaxIdle {
		return p.CloseFunc(res)
	}

	p.idle = append(p.idle, res)
	return nil
}

// Discard closes an item taken with Get instead of returning it, for items
// that are no longer usable.
func (p *Pool[T]) Discard(res T) error {
	defer func() { <-p.slots }()
	return p.CloseFunc(res)
}

// With runs fn with an item from the pool and puts it back afterwards.
func (p *Pool[T]) With(ctx context.Context, fn func(T) error) error {
	res, err := p.Get(ctx)
	if err != nil {
		return err
	}

	fnErr := fn(res)
	return errors.Join(fnErr, p.Put(res))
}

// Stats returns the current counters of the pool.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		InUse:   len(p.slots),
		Idle:    len(p.idle),
		Created: p.created,
	}
}

// Close closes the pool and all idle items. Any subsequent call to Get
// fails. Items checked out are closed when they are Put back.
func (p *Pool[T]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	for _, res := range p.idle {
		errs = append(errs, p.CloseFunc(res))
	}
	p.idle = nil
	return errors.Join(errs...)
}
