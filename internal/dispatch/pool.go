// Package dispatch drains the event queue and routes classified paths to
// their handlers.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Jake-Brewer/auto-commit/internal/queue"
)

// ErrAlreadyStarted is returned when Start is called on a running pool.
var ErrAlreadyStarted = errors.New("dispatcher already started")

// Config holds tuning knobs for the worker pool.
type Config struct {
	Workers      int
	PollInterval time.Duration
	ErrorBackoff time.Duration
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		Workers:      2,
		PollInterval: time.Second,
		ErrorBackoff: 100 * time.Millisecond,
	}
}

// Pool owns the dispatch workers. Each worker dequeues file events,
// classifies them, and routes the result: include goes to the committer,
// ignore is dropped, review lands in the review store. Every dequeued
// event is acknowledged exactly once, success or failure.
type Pool struct {
	queue      *queue.Queue
	classifier Classifier
	reviews    ReviewAdder
	committer  Committer
	stop       chan struct{}
	cfg        Config
	wg         sync.WaitGroup
	mu         sync.Mutex
	started    bool
}

// New creates a pool with the default configuration.
func New(q *queue.Queue, classifier Classifier, reviews ReviewAdder, committer Committer) *Pool {
	return NewWithConfig(q, classifier, reviews, committer, DefaultConfig())
}

// NewWithConfig creates a pool with custom tuning. Zero or negative
// values fall back to the defaults.
func NewWithConfig(q *queue.Queue, classifier Classifier, reviews ReviewAdder, committer Committer, cfg Config) *Pool {
	def := DefaultConfig()
	if cfg.Workers < 1 {
		cfg.Workers = def.Workers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = def.ErrorBackoff
	}

	return &Pool{
		queue:      q,
		classifier: classifier,
		reviews:    reviews,
		committer:  committer,
		cfg:        cfg,
	}
}

// Start launches the workers. It fails if the pool is already running.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return ErrAlreadyStarted
	}
	p.started = true
	p.stop = make(chan struct{})

	for i := 0; i < p.cfg.Workers; i++ {
		w := &worker{id: i + 1, pool: p}
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.run(ctx)
		}()
	}

	slog.Info("dispatcher started",
		"workers", p.cfg.Workers,
		"poll_interval", p.cfg.PollInterval)
	return nil
}

// Stop signals the workers and waits for each to finish its current
// event. No event is abandoned mid-processing. Stop on an idle pool is
// a no-op.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.stop)
	p.mu.Unlock()

	p.wg.Wait()
	slog.Info("dispatcher stopped")
}

// WaitForIdle blocks until every produced event has been processed and
// acknowledged, or until ctx ends.
func (p *Pool) WaitForIdle(ctx context.Context) error {
	return p.queue.Join(ctx)
}
