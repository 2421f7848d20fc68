// Package agent owns the Snapshot and the refresh scheduler that keeps it
// current.
package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nhdewitt/rabbit/internal/clock"
	"github.com/nhdewitt/rabbit/internal/collector"
	"github.com/nhdewitt/rabbit/internal/config"
	"github.com/nhdewitt/rabbit/internal/protocol"
)

type Options struct {
	Clock  clock.Clock
	Logger *slog.Logger

	// Arch and Threads are static processor facts recorded at construction.
	Arch    string
	Threads uint64
}

// Agent drives the refresh cycle. All fields below store are owned by the
// scheduler goroutine and need no locking.
type Agent struct {
	cfg      config.Config
	provider Provider
	store    *Store
	clock    clock.Clock
	logger   *slog.Logger

	cpu     collector.CPUTracker
	threads map[string]*collector.CPUTracker

	prevDisks map[string]diskCounters
	prevNets  map[string]netCounters

	// powerWG tracks the detached slow power read.
	powerWG sync.WaitGroup
}

type diskCounters struct {
	read, written uint64
}

type netCounters struct {
	recv, sent uint64
}

func New(cfg config.Config, p Provider, static protocol.StaticInfo, opts Options) *Agent {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	a := &Agent{
		cfg:       cfg,
		provider:  p,
		store:     NewStore(static),
		clock:     opts.Clock,
		logger:    opts.Logger,
		threads:   make(map[string]*collector.CPUTracker),
		prevDisks: make(map[string]diskCounters),
		prevNets:  make(map[string]netCounters),
	}

	a.store.WithWrite(func(s *protocol.Snapshot) {
		s.Processor.Arch = opts.Arch
		s.Processor.ThreadCount = opts.Threads
	})

	return a
}

func (a *Agent) Store() *Store { return a.store }

func (a *Agent) Config() config.Config { return a.cfg }

// Run collects a baseline, then refreshes once per cadence until ctx is
// cancelled. It waits for an in-flight slow power read before returning.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("refresh scheduler started", "cadence", a.cfg.Cadence(), "fast_power", a.cfg.FastPower())
	defer a.powerWG.Wait()

	a.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("refresh scheduler stopped")
			return nil
		case <-a.clock.After(a.cfg.Cadence()):
			a.Refresh(ctx)
		}
	}
}

// step is one subsystem update in the refresh cycle.
type step struct {
	name string
	fn   func(ctx context.Context, elapsed float64)
}

// Refresh runs one full cycle in a fixed order. A failing or panicking
// subsystem leaves its previous values in place and does not stop the
// others.
func (a *Agent) Refresh(ctx context.Context) {
	start := a.clock.Now()

	var last time.Time
	a.store.WithRead(func(s *protocol.Snapshot) { last = s.Refreshed })
	elapsed := elapsedSeconds(last, start)

	steps := []step{
		{"cpu", a.refreshCPU},
		{"memory", a.refreshMemory},
		{"swap", a.refreshSwap},
		{"storage", a.refreshStorage},
		{"network", a.refreshNetwork},
		{"components", a.refreshComponents},
		{"processes", a.refreshProcesses},
		{"ups", a.refreshUPS},
		{"batteries", a.refreshBatteries},
		{"power", a.refreshPower},
	}

	for _, st := range steps {
		if ctx.Err() != nil {
			return
		}
		a.safely(ctx, st, elapsed)
	}

	now := a.clock.Now()
	a.store.WithWrite(func(s *protocol.Snapshot) { s.Refreshed = now })
	a.logger.Debug("refresh complete", "took", now.Sub(start))
}

func (a *Agent) safely(ctx context.Context, st step, elapsed float64) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic recovered in refresh", "subsystem", st.name, "panic", r)
		}
	}()
	st.fn(ctx, elapsed)
}

// elapsedSeconds is the wall-clock time since the last completed cycle,
// floored at one second.
func elapsedSeconds(last, now time.Time) float64 {
	if last.IsZero() {
		return 1
	}
	if d := now.Sub(last).Seconds(); d > 1 {
		return d
	}
	return 1
}
