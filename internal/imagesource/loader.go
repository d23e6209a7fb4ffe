package imagesource

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by Load when a newer load started before this
// one finished.
var ErrSuperseded = errors.New("image load superseded")

// Loader runs at most one load at a time. Starting a load cancels the
// previous one and discards its result.
type Loader struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Load runs fn with a context that is cancelled when a newer Load starts.
func (l *Loader) Load(ctx context.Context, fn func(context.Context) (*Source, error)) (*Source, error) {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	if l.cancel != nil {
		l.cancel()
	}
	lctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	src, err := fn(lctx)

	l.mu.Lock()
	current := gen == l.gen
	if current {
		l.cancel = nil
	}
	l.mu.Unlock()
	cancel()

	if !current {
		return nil, ErrSuperseded
	}
	return src, err
}

// Cancel aborts the in-flight load, if any.
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
