// Package pipeline drives one ETL run: persist the raw inputs, transform
// them, write the snapshot and report, optionally publish them, then persist
// the transformed views.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/salesetl/internal/extract"
	"github.com/JonMunkholm/salesetl/internal/logging"
	"github.com/JonMunkholm/salesetl/internal/publish"
	"github.com/JonMunkholm/salesetl/internal/report"
	"github.com/JonMunkholm/salesetl/internal/transform"
	"github.com/JonMunkholm/salesetl/internal/warehouse"
)

// Options locates inputs and outputs and tunes the transform and report.
type Options struct {
	InputDir     string
	OutputDir    string
	SnapshotFile string
	ReportFile   string
	InferKeys    bool
	DayFirst     bool
	Report       report.Options
}

// SnapshotPath is where the Parquet snapshot is written.
func (o Options) SnapshotPath() string {
	return filepath.Join(o.OutputDir, o.SnapshotFile)
}

// ReportPath is where the PDF report is written.
func (o Options) ReportPath() string {
	return filepath.Join(o.OutputDir, o.ReportFile)
}

// Pipeline wires the destinations and publisher for a run. Raw and Publisher
// may be nil, in which case their steps are skipped.
type Pipeline struct {
	Raw       warehouse.Sink
	Warehouse warehouse.Sink
	Publisher publish.Publisher
	Options   Options
}

// Step records how long one stage took.
type Step struct {
	Name       string `json:"name"`
	DurationMs int64  `json:"duration_ms"`
	Skipped    bool   `json:"skipped,omitempty"`
}

// Result describes a finished or failed run.
type Result struct {
	RunID        string                `json:"run_id"`
	StartedAt    time.Time             `json:"started_at"`
	FinishedAt   time.Time             `json:"finished_at"`
	Steps        []Step                `json:"steps"`
	Raw          *warehouse.RawSummary `json:"raw,omitempty"`
	RowCounts    map[string]int        `json:"row_counts,omitempty"`
	SnapshotPath string                `json:"snapshot_path,omitempty"`
	ReportPath   string                `json:"report_path,omitempty"`
	Pages        int                   `json:"pages,omitempty"`
	Published    []string              `json:"published,omitempty"`
	Error        string                `json:"error,omitempty"`

	// Views holds the transformed tables of the run, nil if the run failed
	// before transforming.
	Views *transform.Views `json:"-"`
}

// Run executes the stages in order. Any failure stops the run; stages already
// done are not undone. The returned Result is non-nil even on error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), StartedAt: time.Now()}
	ctx = logging.WithRunID(ctx, res.RunID)
	logger := logging.FromContext(ctx)
	logger.Info("pipeline run started", "input_dir", p.Options.InputDir, "output_dir", p.Options.OutputDir)

	err := p.run(ctx, res)
	res.FinishedAt = time.Now()
	duration := res.FinishedAt.Sub(res.StartedAt).Milliseconds()
	if err != nil {
		res.Error = err.Error()
		logger.Error("pipeline run failed", "error", err, "duration_ms", duration)
		return res, err
	}
	logger.Info("pipeline run completed", "duration_ms", duration, "pages", res.Pages)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, res *Result) error {
	if p.Warehouse == nil {
		return fmt.Errorf("pipeline: warehouse destination is required")
	}
	opts := p.Options

	if p.Raw == nil {
		res.skip("save_raw")
	} else {
		_ = res.step(ctx, "save_raw", func() error {
			res.Raw = warehouse.SaveRaw(ctx, opts.InputDir, p.Raw)
			return nil
		})
	}

	var tables *extract.Tables
	if err := res.step(ctx, "load", func() (err error) {
		tables, err = extract.Load(ctx, opts.InputDir, extract.FailOnMissing)
		return err
	}); err != nil {
		return err
	}

	if err := res.step(ctx, "transform", func() (err error) {
		res.Views, err = transform.Transform(tables.Employees, tables.Products, tables.Sales, transform.Options{InferKeys: opts.InferKeys, DayFirst: opts.DayFirst})
		if err != nil {
			return fmt.Errorf("transform: %w", err)
		}
		res.RowCounts = res.Views.RowCounts()
		return nil
	}); err != nil {
		return err
	}

	if err := res.step(ctx, "snapshot", func() error {
		if err := report.WriteSnapshot(res.Views.Summary, opts.SnapshotPath()); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		res.SnapshotPath = opts.SnapshotPath()
		return nil
	}); err != nil {
		return err
	}

	if err := res.step(ctx, "report", func() error {
		pages := report.BuildPages(res.Views, opts.Report)
		if err := report.RenderPDF(pages, opts.ReportPath()); err != nil {
			return fmt.Errorf("report: %w", err)
		}
		res.ReportPath = opts.ReportPath()
		res.Pages = len(pages)
		return nil
	}); err != nil {
		return err
	}

	if p.Publisher == nil {
		res.skip("publish")
	} else if err := res.step(ctx, "publish", func() (err error) {
		res.Published, err = p.Publisher.Publish(ctx, res.RunID, res.SnapshotPath, res.ReportPath)
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		return nil
	}); err != nil {
		return err
	}

	return res.step(ctx, "save_transformed", func() error {
		return warehouse.SaveTransformed(ctx, res.Views, p.Warehouse)
	})
}

func (r *Result) step(ctx context.Context, name string, fn func() error) error {
	logger := logging.WithFields(ctx, "step", name)
	logger.Debug("step started")
	start := time.Now()

	err := fn()
	r.Steps = append(r.Steps, Step{Name: name, DurationMs: time.Since(start).Milliseconds()})
	if err != nil {
		return err
	}
	logger.Info("step completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (r *Result) skip(name string) {
	r.Steps = append(r.Steps, Step{Name: name, Skipped: true})
}
