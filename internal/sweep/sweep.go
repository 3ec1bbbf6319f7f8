// Package sweep drives one simulation run per (T, S) pair over a single
// shared network.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/nvandessel/coopnet/internal/game"
	"github.com/nvandessel/coopnet/internal/logging"
	"github.com/nvandessel/coopnet/internal/network"
	"github.com/nvandessel/coopnet/internal/simulation"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// TailFraction is the share of final rounds summarized by TailMean/TailStd.
const TailFraction = 0.1

// Config describes a sweep.
type Config struct {
	Params []game.Params
	Steps  int
	Seed   uint64
	Policy simulation.IsolatedPolicy

	// Workers bounds concurrent runs. Values below 2 run pairs one after
	// another in sweep order.
	Workers int

	// ContinueOnError records a failed run and keeps going instead of
	// aborting the whole sweep.
	ContinueOnError bool

	// OnRunDone, if set, is called after each run finishes, failed or not.
	// With several workers it is called from multiple goroutines.
	OnRunDone func(RunReport)
}

// RunReport is the outcome of one (T, S) pair.
type RunReport struct {
	Index         int             `json:"index"`
	Params        game.Params     `json:"params"`
	Fractions     []float64       `json:"fractions"`
	Final         []game.Strategy `json:"final,omitempty"`
	FinalFraction float64         `json:"final_fraction"`
	TailMean      float64         `json:"tail_mean"`
	TailStd       float64         `json:"tail_std"`
	Err           string          `json:"error,omitempty"`
}

// Failed reports whether the run ended with an error.
func (r RunReport) Failed() bool { return r.Err != "" }

// Report is the outcome of a whole sweep.
type Report struct {
	Nodes      int           `json:"nodes"`
	Edges      int           `json:"edges"`
	MeanDegree float64       `json:"mean_degree"`
	Isolated   int           `json:"isolated"`
	Seed       uint64        `json:"seed"`
	Steps      int           `json:"steps"`
	Policy     string        `json:"policy"`
	Runs       []RunReport   `json:"runs"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// Failures counts runs that ended with an error.
func (r *Report) Failures() int {
	n := 0
	for _, run := range r.Runs {
		if run.Failed() {
			n++
		}
	}
	return n
}

// ResolveSeed returns seed, or a fresh random seed when seed is 0.
func ResolveSeed(seed uint64) uint64 {
	for seed == 0 {
		seed = rand.Uint64()
	}
	return seed
}

// NetworkRand returns the generator a sweep with this seed uses for its
// network. Runs draw from streams 1..N of the same seed.
func NetworkRand(seed uint64) *rand.Rand {
	return simulation.NewRand(seed, 0)
}

// RunRand returns the generator for the run at index i.
func RunRand(seed uint64, i int) *rand.Rand {
	return simulation.NewRand(seed, uint64(i)+1)
}

// Runner executes sweeps over a fixed network.
type Runner struct {
	net    *network.Network
	logger *slog.Logger
	rounds *logging.RoundLogger
}

// NewRunner creates a runner. logger may be nil; rounds may be nil.
func NewRunner(net *network.Network, logger *slog.Logger, rounds *logging.RoundLogger) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{net: net, logger: logger, rounds: rounds}
}

// Run plays every pair in cfg.Params. Each run gets its own state buffer and
// its own generator derived from (cfg.Seed, index), so results do not
// depend on cfg.Workers.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Report, error) {
	if len(cfg.Params) == 0 {
		return nil, fmt.Errorf("%w: sweep has no parameter pairs", network.ErrInvalidParameter)
	}
	if cfg.Steps <= 0 {
		return nil, fmt.Errorf("%w: steps must be positive, got %d", network.ErrInvalidParameter, cfg.Steps)
	}

	report := &Report{
		Nodes:      r.net.NodeCount(),
		Edges:      r.net.EdgeCount(),
		MeanDegree: r.net.MeanDegree(),
		Isolated:   len(r.net.IsolatedNodes()),
		Seed:       cfg.Seed,
		Steps:      cfg.Steps,
		Policy:     cfg.Policy.String(),
		Runs:       make([]RunReport, len(cfg.Params)),
		StartedAt:  time.Now().UTC(),
	}

	limit := cfg.Workers
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, params := range cfg.Params {
		g.Go(func() error {
			run, err := r.runOne(gctx, i, params, cfg)
			report.Runs[i] = run
			if cfg.OnRunDone != nil {
				cfg.OnRunDone(run)
			}
			if err != nil && (!cfg.ContinueOnError || isCancellation(err)) {
				return fmt.Errorf("run %d (%s): %w", i, params, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Runs that never started leave no error behind; a cancelled sweep is
	// incomplete either way.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report.Duration = time.Since(report.StartedAt)

	r.logger.Info("sweep complete",
		"runs", len(report.Runs),
		"failed", report.Failures(),
		"duration", report.Duration)
	return report, nil
}

func (r *Runner) runOne(ctx context.Context, i int, params game.Params, cfg Config) (RunReport, error) {
	r.logger.Info("running simulation", "run", i, "t", params.T, "s", params.S)

	opts := simulation.Options{
		Steps:  cfg.Steps,
		Policy: cfg.Policy,
	}
	if r.rounds != nil {
		trace := r.rounds.Trace()
		opts.Observer = func(round int, fraction float64, st *simulation.State) {
			ev := logging.RoundEvent{Run: i, T: params.T, S: params.S, Round: round, Fraction: fraction}
			if trace {
				ev.Assignment = simulation.FormatAssignment(st.Strategies)
			}
			r.rounds.Log(ev)
		}
	}

	res, err := simulation.Run(ctx, r.net, params, opts, RunRand(cfg.Seed, i))
	if err != nil {
		r.logger.Warn("run failed", "run", i, "t", params.T, "s", params.S, "error", err)
		return RunReport{Index: i, Params: params, Err: err.Error()}, err
	}

	run := Summarize(i, res)
	r.logger.Debug("run complete",
		"run", i,
		"final_fraction", run.FinalFraction,
		"tail_mean", run.TailMean)
	return run, nil
}

// isCancellation reports whether err stems from a cancelled or expired
// context rather than from the run itself.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Summarize builds a RunReport from a simulation result.
func Summarize(index int, res simulation.Result) RunReport {
	mean, std := TailStats(res.Fractions)
	return RunReport{
		Index:         index,
		Params:        res.Params,
		Fractions:     res.Fractions,
		Final:         res.Final,
		FinalFraction: res.FinalFraction(),
		TailMean:      mean,
		TailStd:       std,
	}
}

// TailStats returns the mean and sample standard deviation of the last
// TailFraction of the series (at least one value). The deviation of a single
// value is 0.
func TailStats(fractions []float64) (mean, std float64) {
	if len(fractions) == 0 {
		return 0, 0
	}
	n := int(float64(len(fractions)) * TailFraction)
	if n < 1 {
		n = 1
	}
	tail := fractions[len(fractions)-n:]
	if len(tail) == 1 {
		return tail[0], 0
	}
	return stat.MeanStdDev(tail, nil)
}
