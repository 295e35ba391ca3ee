package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"oracle/internal/domain"
)

// DimensionLock remembers the length of the first vector an embedder produced
// and rejects vectors of any other length afterwards.
type DimensionLock struct {
	mu sync.Mutex
	n  int
}

// NewDimensionLock returns a lock already fixed to n. Zero leaves it open.
func NewDimensionLock(n int) *DimensionLock {
	return &DimensionLock{n: n}
}

// Check validates vectors against the locked dimension, locking it on first use.
func (d *DimensionLock) Check(vectors ...[]float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("empty embedding: %w", domain.ErrDimensionMismatch)
		}
		if d.n == 0 {
			d.n = len(v)
			continue
		}
		if len(v) != d.n {
			return fmt.Errorf("got %d, want %d: %w", len(v), d.n, domain.ErrDimensionMismatch)
		}
	}
	return nil
}

// Get returns the locked dimension, or 0 when nothing has been embedded yet.
func (d *DimensionLock) Get() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.n
}

// Retrying wraps an embedder and retries failed calls with exponential backoff.
type Retrying struct {
	next    domain.Embedder
	retries int
	base    time.Duration
	log     zerolog.Logger
}

// NewRetrying returns next unchanged when retries is not positive.
func NewRetrying(next domain.Embedder, retries int, log zerolog.Logger) domain.Embedder {
	if retries <= 0 {
		return next
	}
	return &Retrying{next: next, retries: retries, base: 200 * time.Millisecond, log: log}
}

func (r *Retrying) Dimension() int { return r.next.Dimension() }

func (r *Retrying) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := r.do(ctx, func() error {
		var err error
		out, err = r.next.Embed(ctx, text)
		return err
	})
	return out, err
}

func (r *Retrying) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := r.do(ctx, func() error {
		var err error
		out, err = r.next.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}

func (r *Retrying) do(ctx context.Context, call func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = call(); err == nil {
			return nil
		}
		if attempt >= r.retries || ctx.Err() != nil {
			return err
		}
		d := r.delay(attempt)
		r.log.Warn().Err(err).Int("attempt", attempt+1).Dur("backoff", d).Msg("embedding failed, retrying")
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
}

func (r *Retrying) delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 16 {
		attempt = 16
	}
	// exponential backoff capped at 5s
	d := r.base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
