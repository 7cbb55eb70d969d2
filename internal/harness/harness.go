package harness

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/madgwhat/internal/filter"
	"github.com/roach88/madgwhat/internal/fusion"
	"github.com/roach88/madgwhat/internal/metrics"
)

// Options configures New.
type Options struct {
	// Loader opens one module. Defaults to filter.NewLoader(Logger).
	Loader filter.Loader

	// Logger receives load and tuning diagnostics. Defaults to discard.
	Logger *slog.Logger

	// Metrics is optional.
	Metrics *metrics.Recorder
}

// Bench is the set of modules that loaded successfully.
//
// Thread-safety: Run and Tune hold the bench mutex for their whole duration.
type Bench struct {
	mu      sync.Mutex
	modules []filter.Module
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// New loads every path and keeps the modules that opened.
//
// Load failures are logged as warnings and the module is left out, so the
// bench may hold fewer modules than paths, possibly none. Paths repeated in
// the input are loaded once. Module order follows path order.
func New(paths []string, opts Options) *Bench {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	load := opts.Loader
	if load == nil {
		load = filter.NewLoader(logger)
	}

	b := &Bench{
		modules: make([]filter.Module, 0, len(paths)),
		logger:  logger,
		metrics: opts.Metrics,
	}

	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		if seen[path] {
			logger.Debug("module listed twice; loading once", "module", path)
			continue
		}
		seen[path] = true

		m, err := load(path)
		if err != nil {
			b.metrics.LoadFailed()
			logger.Warn("module failed to load; excluded from bench", "module", path, "error", err)
			continue
		}
		b.modules = append(b.modules, m)
	}

	logger.Debug("bench ready", "candidates", len(paths), "loaded", len(b.modules))
	return b
}

// Len returns the number of loaded modules.
func (b *Bench) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.modules)
}

// Modules returns the loaded module paths in bench order.
func (b *Bench) Modules() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	paths := make([]string, len(b.modules))
	for i, m := range b.modules {
		paths[i] = m.Path()
	}
	return paths
}

// Tune applies the tuning to every module.
//
// A module without the requested setter is left as it is; that is not an
// error and is only logged at debug level.
func (b *Bench) Tune(t Tuning) TuneReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	report := TuneReport{MissingBeta: []string{}, MissingDeltat: []string{}}
	for _, m := range b.modules {
		if t.Beta != nil {
			applied := m.SetBeta(*t.Beta)
			b.metrics.SetterCalled(metrics.SetterBeta, applied)
			if !applied {
				report.MissingBeta = append(report.MissingBeta, m.Path())
				b.logger.Debug("module has no beta setter", "module", m.Path())
			}
		}
		if t.Deltat != nil {
			applied := m.SetDeltat(*t.Deltat)
			b.metrics.SetterCalled(metrics.SetterDeltat, applied)
			if !applied {
				report.MissingDeltat = append(report.MissingDeltat, m.Path())
				b.logger.Debug("module has no deltat setter", "module", m.Path())
			}
		}
	}
	return report
}

// Run invokes every module once with m, in bench order.
//
// The returned run always has exactly one outcome per loaded module.
func (b *Bench) Run(m fusion.Measurement) TestRun {
	b.mu.Lock()
	defer b.mu.Unlock()

	run := TestRun{
		Measurement: m,
		Outcomes:    make([]Outcome, 0, len(b.modules)),
	}
	for _, mod := range b.modules {
		run.Outcomes = append(run.Outcomes, b.invoke(mod, m))
	}
	return run
}

func (b *Bench) invoke(mod filter.Module, m fusion.Measurement) Outcome {
	q, err := mod.Invoke(m)
	b.metrics.Invoked(err == nil)
	if err != nil {
		if !errors.Is(err, filter.ErrNoEntryPoint) {
			b.logger.Warn("module invocation failed", "module", mod.Path(), "error", err)
		}
		return Outcome{Module: mod.Path(), Err: err.Error()}
	}
	return Outcome{Module: mod.Path(), Quaternion: &q}
}
