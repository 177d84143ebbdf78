package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/cwbudde/echolab/engine"
)

// Factory creates a Transport hosting a fresh engine.
type Factory func(ctx context.Context) (Transport, error)

// InlineFactory returns a Factory for in-process engines.
func InlineFactory(opts ...Option) Factory {
	return func(context.Context) (Transport, error) {
		return NewInline(nil, opts...), nil
	}
}

// HostFactory returns a Factory for goroutine-hosted engines.
func HostFactory(opts ...Option) Factory {
	return func(context.Context) (Transport, error) {
		return NewHost(nil, opts...), nil
	}
}

// SpawnFactory returns a Factory that starts one worker process per engine.
func SpawnFactory(name string, args ...string) Factory {
	return func(ctx context.Context) (Transport, error) {
		// The process outlives the request that created it; Close ends it.
		return Spawn(context.WithoutCancel(ctx), name, args...)
	}
}

// WebSocketFactory returns a Factory dialing a remote WebSocketHandler.
func WebSocketFactory(url string) Factory {
	return func(ctx context.Context) (Transport, error) {
		return DialWebSocket(ctx, url)
	}
}

// Pool hands out fresh engines on demand and bounds how many transforms run
// at once. Every engine it creates is released on Close.
type Pool struct {
	factory Factory
	sem     *semaphore.Weighted

	mu     sync.Mutex
	live   map[*Proxy]struct{}
	closed bool
}

// NewPool returns a pool creating engines with factory. At most maxConcurrent
// operations run at the same time; a non-positive value means GOMAXPROCS.
func NewPool(factory Factory, maxConcurrent int) *Pool {
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		factory: factory,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		live:    make(map[*Proxy]struct{}),
	}
}

// Acquire creates a new engine. Release it when done.
func (p *Pool) Acquire(ctx context.Context) (*Proxy, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	t, err := p.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("worker: create engine: %w", err)
	}
	px := NewProxy(t)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = px.Close()
		return nil, ErrClosed
	}
	p.live[px] = struct{}{}
	return px, nil
}

// Release closes px and forgets it.
func (p *Pool) Release(px *Proxy) error {
	p.mu.Lock()
	_, ok := p.live[px]
	delete(p.live, px)
	p.mu.Unlock()
	if !ok {
		return nil
	}
	return px.Close()
}

// Live returns the number of engines currently held.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

// Run performs one operation on a brand-new engine: it is created, given u
// (which may be nil), asked to run op on samples, and released again.
func (p *Pool) Run(ctx context.Context, op Op, u *engine.Update, samples []float32) ([]float32, error) {
	return p.Do(ctx, Request{Op: op, Params: u, Samples: samples})
}

// Do is Run for a complete request, including its sample rate override.
func (p *Pool) Do(ctx context.Context, req Request) ([]float32, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	px, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(px)

	return px.Do(ctx, req)
}

// Job is one operation for Batch.
type Job struct {
	Op      Op
	Params  *engine.Update
	Samples []float32
}

// Batch runs jobs concurrently, each on its own engine, and returns their
// outputs in job order. The first failure cancels the remaining jobs.
func (p *Pool) Batch(ctx context.Context, jobs []Job) ([][]float32, error) {
	out := make([][]float32, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		g.Go(func() error {
			res, err := p.Run(ctx, job.Op, job.Params, job.Samples)
			if err != nil {
				return fmt.Errorf("job %d: %w", i, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases every live engine. Later Acquire and Run calls fail with
// ErrClosed.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	live := p.live
	p.live = make(map[*Proxy]struct{})
	p.mu.Unlock()

	var errs []error
	for px := range live {
		if err := px.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
