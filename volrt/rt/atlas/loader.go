// Package atlas loads slice atlas images concurrently. Each load is tagged
// with a generation; only the most recently issued generation is current.
package atlas

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	ErrLoadFailed = errors.New("atlas load failed")
	// ErrSuperseded marks a load that completed after a newer one was issued.
	ErrSuperseded = errors.New("atlas load superseded")
)

// Result is one finished load. Images keep source order.
type Result struct {
	Generation uint64
	Names      []string
	Images     []image.Image
	Err        error
}

type Loader struct {
	mu      sync.Mutex
	next    uint64
	pending map[uint64]context.CancelFunc
	done    []Result
	notify  chan struct{}
}

func NewLoader() *Loader {
	return &Loader{
		pending: make(map[uint64]context.CancelFunc),
		notify:  make(chan struct{}, 1),
	}
}

// Start issues a new generation and decodes every source in parallel.
// The first failure cancels the remaining sources of that generation.
func (l *Loader) Start(ctx context.Context, sources []Source) uint64 {
	ctx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	l.next++
	gen := l.next
	l.pending[gen] = cancel
	l.mu.Unlock()

	go func() {
		defer cancel()
		res := Result{Generation: gen, Names: make([]string, len(sources))}
		images := make([]image.Image, len(sources))

		g, gctx := errgroup.WithContext(ctx)
		for i, src := range sources {
			res.Names[i] = src.Name()
			g.Go(func() error {
				img, err := src.Load(gctx)
				if err != nil {
					return fmt.Errorf("%w: %s: %w", ErrLoadFailed, src.Name(), err)
				}
				images[i] = img
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			res.Err = err
		} else {
			res.Images = images
		}
		l.finish(res)
	}()
	return gen
}

func (l *Loader) finish(res Result) {
	l.mu.Lock()
	delete(l.pending, res.Generation)
	l.done = append(l.done, res)
	l.mu.Unlock()

	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Poll drains finished loads in completion order.
func (l *Loader) Poll() []Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.done
	l.done = nil
	return out
}

// Wait blocks until at least one finished load is ready to Poll.
func (l *Loader) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		ready := len(l.done) > 0
		l.mu.Unlock()
		if ready {
			return nil
		}
		select {
		case <-l.notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Latest is the most recently issued generation, or 0.
func (l *Loader) Latest() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next
}

func (l *Loader) IsCurrent(gen uint64) bool {
	return gen != 0 && gen == l.Latest()
}

// Pending reports how many loads are still running.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Unsettled reports whether gen is still running or finished but not yet
// drained by Poll.
func (l *Loader) Unsettled(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.pending[gen]; ok {
		return true
	}
	for _, res := range l.done {
		if res.Generation == gen {
			return true
		}
	}
	return false
}

// Close cancels every running load.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, cancel := range l.pending {
		cancel()
	}
}
