package sampler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/inferbench/inferbench/internal/metrics"
	"github.com/inferbench/inferbench/pkg/models"
)

// DefaultInterval is the default sampling tick.
const DefaultInterval = time.Second

// Sampler collects resource samples on a fixed interval until stopped.
// It runs on its own goroutine so a blocking network call on the
// caller's side never starves the tick schedule. A Sampler is single
// use: Start once, Stop once.
type Sampler struct {
	provider ProcessMetricsProvider
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	samples []models.Sample

	stop chan struct{}
	done chan struct{}
}

// New creates a sampler for the given provider. An interval <= 0 falls
// back to DefaultInterval.
func New(provider ProcessMetricsProvider, interval time.Duration, logger *slog.Logger) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		provider: provider,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins sampling in the background. Sampling continues until
// Stop is called, never on a fixed total-duration timer.
func (s *Sampler) Start(ctx context.Context) {
	go s.loop(ctx)
}

// Stop halts sampling, waits for the sampling goroutine to exit, and
// returns the sealed sample set.
func (s *Sampler) Stop() *models.SampleSet {
	close(s.stop)
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	return &models.SampleSet{Samples: s.samples}
}

func (s *Sampler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Prime an immediate sample so short requests still get coverage.
	s.sample(ctx)

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample(ctx)
		}
	}
}

func (s *Sampler) sample(ctx context.Context) {
	snap, err := s.provider.Snapshot(ctx)
	if err != nil {
		// Best-effort: a missing target degrades metrics to zero
		// rather than aborting the benchmark.
		if errors.Is(err, ErrProcessNotFound) {
			metrics.RecordSamplerResolveFailure()
			s.logger.Warn("target process not found, skipping sample")
		} else {
			s.logger.Warn("failed to sample target process",
				slog.String("error", err.Error()))
		}
		return
	}

	s.mu.Lock()
	s.samples = append(s.samples, models.Sample{
		Timestamp:   time.Now(),
		CPUPercent:  snap.CPUPercent,
		MemoryBytes: snap.MemoryBytes,
		ThreadCount: snap.ThreadCount,
	})
	s.mu.Unlock()
}
