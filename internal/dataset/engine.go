package dataset

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eudatnat/harvest-cli/internal/store"
)

// Engine orchestrates load, format, save runs over the registry and
// records each run in the store.
type Engine struct {
	reg   *Registry
	deps  Deps
	store store.Store
}

// RunOpts selects which datasets to run and how.
type RunOpts struct {
	Datasets []string // explicit dataset names; empty selects all
	Category string   // restrict to a category
	Formats  []string // output format override; empty uses each dataset's own
}

// RunResult describes the outcome of one dataset run.
type RunResult struct {
	Dataset string
	RunID   string
	Report  *Report
	Outputs []string
	Err     error
}

// NewEngine creates an engine. A nil store disables run recording.
func NewEngine(reg *Registry, deps Deps, st store.Store) *Engine {
	return &Engine{reg: reg, deps: deps, store: st}
}

// Run executes the selected datasets sequentially. Individual dataset
// failures are recorded and do not stop the batch; the returned results
// carry per-dataset errors.
func (e *Engine) Run(ctx context.Context, opts RunOpts) ([]RunResult, error) {
	log := zap.L().With(zap.String("component", "engine"))

	names, err := e.selectNames(opts)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		log.Info("no datasets selected")
		return nil, nil
	}
	log.Info("selected datasets", zap.Int("count", len(names)))

	var results []RunResult
	var failed int

	for _, name := range names {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		res := e.runOne(ctx, name, opts.Formats)
		if res.Err != nil {
			failed++
		}
		results = append(results, res)
	}

	log.Info("engine run complete",
		zap.Int("datasets", len(results)),
		zap.Int("failed", failed),
	)
	return results, nil
}

func (e *Engine) selectNames(opts RunOpts) ([]string, error) {
	if len(opts.Datasets) > 0 {
		for _, name := range opts.Datasets {
			if _, err := e.reg.Get(name); err != nil {
				return nil, err
			}
		}
		return opts.Datasets, nil
	}
	if opts.Category != "" {
		var names []string
		for _, m := range e.reg.ByCategory(opts.Category) {
			names = append(names, m.Name)
		}
		return names, nil
	}
	return e.reg.Names(), nil
}

func (e *Engine) runOne(ctx context.Context, name string, formats []string) RunResult {
	log := zap.L().With(zap.String("component", "engine"), zap.String("dataset", name))
	res := RunResult{Dataset: name}

	c, err := e.reg.New(name, e.deps)
	if err != nil {
		res.Err = err
		return res
	}

	var runID string
	if e.store != nil {
		run, err := e.store.StartRun(ctx, name)
		if err != nil {
			log.Error("failed to record run start", zap.Error(err))
		} else {
			runID = run.ID
			res.RunID = runID
		}
	}

	start := time.Now()
	outputs, report, err := e.pipeline(ctx, c, formats)
	elapsed := time.Since(start)

	if err != nil {
		log.Error("run failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		e.recordFailure(ctx, log, runID, err)
		res.Err = err
		return res
	}

	rows := 0
	if report != nil {
		rows = report.Rows
	} else if c.Frame() != nil {
		rows = c.Frame().NumRows()
	}
	if e.store != nil && runID != "" {
		if err := e.store.CompleteRun(ctx, runID, rows, strings.Join(outputs, ",")); err != nil {
			log.Error("failed to record run completion", zap.Error(err))
		}
	}

	log.Info("run complete",
		zap.Int("rows", rows),
		zap.Strings("outputs", outputs),
		zap.Duration("elapsed", elapsed),
	)
	res.Report = report
	res.Outputs = outputs
	return res
}

// pipeline runs load, format (unless the metadata makes it a no-op), and
// one save per requested format.
func (e *Engine) pipeline(ctx context.Context, c *Coordinator, formats []string) ([]string, *Report, error) {
	if _, err := c.LoadData(ctx, ""); err != nil {
		return nil, nil, err
	}

	var report *Report
	if !c.Meta().IsNoopFormat() {
		r, err := c.FormatData(ctx)
		if err != nil {
			return nil, nil, err
		}
		report = r
	}

	if len(formats) == 0 {
		formats = c.Meta().Output.Formats
	}
	if len(formats) == 0 {
		formats = []string{"csv"}
	}

	var outputs []string
	for _, format := range formats {
		path, err := c.SaveData(ctx, format)
		if err != nil {
			return outputs, report, err
		}
		outputs = append(outputs, path)
	}
	return outputs, report, nil
}

func (e *Engine) recordFailure(ctx context.Context, log *zap.Logger, runID string, cause error) {
	if e.store == nil || runID == "" {
		return
	}
	if err := e.store.FailRun(ctx, runID, cause); err != nil {
		log.Error("failed to record run failure", zap.Error(err))
	}
}
