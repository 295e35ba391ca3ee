package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oracle/internal/domain"
)

type flaky struct {
	failures int
	calls    int
}

func (f *flaky) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("temporary")
	}
	return []float32{1, 0}, nil
}

func (f *flaky) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	v, err := f.Embed(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = v
	}
	return out, nil
}

func (f *flaky) Dimension() int { return 2 }

func Test_DimensionLock(t *testing.T) {
	d := NewDimensionLock(0)
	assert.Equal(t, 0, d.Get())
	require.NoError(t, d.Check([]float32{1, 2, 3}))
	assert.Equal(t, 3, d.Get())
	require.NoError(t, d.Check([]float32{4, 5, 6}, []float32{7, 8, 9}))
	assert.ErrorIs(t, d.Check([]float32{1, 2}), domain.ErrDimensionMismatch)
	assert.ErrorIs(t, d.Check([]float32{}), domain.ErrDimensionMismatch)

	fixed := NewDimensionLock(2)
	assert.ErrorIs(t, fixed.Check([]float32{1, 2, 3}), domain.ErrDimensionMismatch)
}

func Test_NewRetrying_Disabled(t *testing.T) {
	f := &flaky{}
	assert.Same(t, domain.Embedder(f), NewRetrying(f, 0, zerolog.Nop()))
}

func Test_Retrying_RecoversAfterFailures(t *testing.T) {
	f := &flaky{failures: 2}
	r := NewRetrying(f, 3, zerolog.Nop()).(*Retrying)
	r.base = time.Millisecond

	v, err := r.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v)
	assert.Equal(t, 3, f.calls)
	assert.Equal(t, 2, r.Dimension())
}

func Test_Retrying_GivesUp(t *testing.T) {
	f := &flaky{failures: 10}
	r := NewRetrying(f, 2, zerolog.Nop()).(*Retrying)
	r.base = time.Millisecond

	_, err := r.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Equal(t, 3, f.calls)
}

func Test_Retrying_StopsOnCancel(t *testing.T) {
	f := &flaky{failures: 10}
	r := NewRetrying(f, 5, zerolog.Nop()).(*Retrying)
	r.base = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := r.Embed(ctx, "x")
	require.Error(t, err)
	assert.Equal(t, 1, f.calls)
}

func Test_Retrying_Delay(t *testing.T) {
	r := &Retrying{base: 200 * time.Millisecond}
	assert.Equal(t, 200*time.Millisecond, r.delay(0))
	assert.Equal(t, 400*time.Millisecond, r.delay(1))
	assert.Equal(t, 3200*time.Millisecond, r.delay(4))
	assert.Equal(t, 5*time.Second, r.delay(5))
	assert.Equal(t, 5*time.Second, r.delay(60))
}
