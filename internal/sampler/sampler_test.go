package sampler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeProvider returns canned snapshots and counts calls.
type fakeProvider struct {
	calls atomic.Int64
	snap  Snapshot
	err   error
}

func (f *fakeProvider) Snapshot(ctx context.Context) (Snapshot, error) {
	f.calls.Add(1)
	if f.err != nil {
		return Snapshot{}, f.err
	}
	return f.snap, nil
}

func TestSamplerCollectsSamples(t *testing.T) {
	provider := &fakeProvider{snap: Snapshot{CPUPercent: 42.0, MemoryBytes: 1024, ThreadCount: 4}}
	s := New(provider, 10*time.Millisecond, nil)

	s.Start(context.Background())
	time.Sleep(55 * time.Millisecond)
	set := s.Stop()

	// One primed sample plus ticks; timing jitter makes the exact count
	// unpredictable.
	assert.GreaterOrEqual(t, set.Len(), 2)
	for _, sample := range set.Samples {
		assert.Equal(t, 42.0, sample.CPUPercent)
		assert.Equal(t, uint64(1024), sample.MemoryBytes)
		assert.Equal(t, 4, sample.ThreadCount)
		assert.False(t, sample.Timestamp.IsZero())
	}
}

func TestSamplerImmediateStop(t *testing.T) {
	provider := &fakeProvider{snap: Snapshot{CPUPercent: 10.0}}
	s := New(provider, time.Second, nil)

	s.Start(context.Background())
	set := s.Stop()

	// The primed sample may or may not land before stop; either way Stop
	// must return without hanging.
	assert.LessOrEqual(t, set.Len(), 1)
}

func TestSamplerProcessNotFound(t *testing.T) {
	provider := &fakeProvider{err: ErrProcessNotFound}
	s := New(provider, 10*time.Millisecond, nil)

	s.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	set := s.Stop()

	// A missing target yields zero samples, never an error.
	assert.Equal(t, 0, set.Len())
	assert.GreaterOrEqual(t, provider.calls.Load(), int64(1))
}

func TestSamplerContextCancellation(t *testing.T) {
	provider := &fakeProvider{snap: Snapshot{CPUPercent: 10.0}}
	s := New(provider, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(25 * time.Millisecond)
	cancel()
	time.Sleep(25 * time.Millisecond)

	before := provider.calls.Load()
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, before, provider.calls.Load(), "sampling should stop after cancellation")

	set := s.Stop()
	assert.GreaterOrEqual(t, set.Len(), 1)
}

func TestNewDefaultsInterval(t *testing.T) {
	s := New(&fakeProvider{}, 0, nil)
	assert.Equal(t, DefaultInterval, s.interval)

	s = New(&fakeProvider{}, -time.Second, nil)
	assert.Equal(t, DefaultInterval, s.interval)
}
