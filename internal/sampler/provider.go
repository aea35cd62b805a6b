// Package sampler provides best-effort resource sampling of a target
// process tree. Sampling runs concurrently with a blocking inference
// request and must never fail the benchmark: a target that cannot be
// resolved simply yields zero samples.
package sampler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// ErrProcessNotFound indicates the target process could not be resolved.
var ErrProcessNotFound = errors.New("target process not found")

// Snapshot is one aggregate observation of the target process and its
// direct children: CPU percentages, resident memory, and thread counts
// are summed because inference servers fork workers that individually
// under-report.
type Snapshot struct {
	CPUPercent  float64
	MemoryBytes uint64
	ThreadCount int
}

// ProcessMetricsProvider produces resource snapshots for a target
// process tree. Implementations must be safe for repeated calls from a
// single sampling goroutine.
type ProcessMetricsProvider interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Selector identifies the target process either by a substring of its
// executable name or by a PID file. The PID file takes precedence when
// both are set.
type Selector struct {
	ProcessName string
	PIDFile     string
}

// ProcessTreeProvider resolves a process by Selector and aggregates
// metrics over the process and its direct children via gopsutil.
type ProcessTreeProvider struct {
	selector Selector
	logger   *slog.Logger

	// cached handle; re-resolved when the process disappears
	proc *process.Process
}

// NewProcessTreeProvider creates a provider for the given selector.
func NewProcessTreeProvider(selector Selector, logger *slog.Logger) *ProcessTreeProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessTreeProvider{
		selector: selector,
		logger:   logger,
	}
}

// Snapshot resolves the target if needed and returns aggregated stats
// for the process tree. Returns ErrProcessNotFound when the target
// cannot be resolved; callers treat that as "no samples", not a fault.
func (p *ProcessTreeProvider) Snapshot(ctx context.Context) (Snapshot, error) {
	if p.proc != nil {
		if running, err := p.proc.IsRunningWithContext(ctx); err != nil || !running {
			p.proc = nil
		}
	}

	if p.proc == nil {
		proc, err := p.resolve(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		p.proc = proc
	}

	snap := p.collect(ctx, p.proc)

	children, err := p.proc.ChildrenWithContext(ctx)
	if err == nil {
		for _, child := range children {
			cs := p.collect(ctx, child)
			snap.CPUPercent += cs.CPUPercent
			snap.MemoryBytes += cs.MemoryBytes
			snap.ThreadCount += cs.ThreadCount
		}
	}

	return snap, nil
}

// collect reads per-process stats, tolerating partial failures (a field
// that cannot be read is reported as zero).
func (p *ProcessTreeProvider) collect(ctx context.Context, proc *process.Process) Snapshot {
	var snap Snapshot

	if cpu, err := proc.CPUPercentWithContext(ctx); err == nil {
		snap.CPUPercent = cpu
	}
	if mem, err := proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		snap.MemoryBytes = mem.RSS
	}
	if threads, err := proc.NumThreadsWithContext(ctx); err == nil {
		snap.ThreadCount = int(threads)
	}
	return snap
}

func (p *ProcessTreeProvider) resolve(ctx context.Context) (*process.Process, error) {
	if p.selector.PIDFile != "" {
		proc, err := p.resolvePIDFile(ctx)
		if err == nil {
			return proc, nil
		}
		p.logger.Debug("pid file resolution failed, falling back to name match",
			slog.String("pid_file", p.selector.PIDFile),
			slog.String("error", err.Error()))
	}

	if p.selector.ProcessName == "" {
		return nil, ErrProcessNotFound
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if strings.Contains(name, p.selector.ProcessName) {
			return proc, nil
		}
	}
	return nil, ErrProcessNotFound
}

func (p *ProcessTreeProvider) resolvePIDFile(ctx context.Context) (*process.Process, error) {
	data, err := os.ReadFile(p.selector.PIDFile)
	if err != nil {
		return nil, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, err
	}
	return process.NewProcessWithContext(ctx, int32(pid))
}
