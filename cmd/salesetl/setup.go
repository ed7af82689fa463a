package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/salesetl/internal/config"
	"github.com/JonMunkholm/salesetl/internal/logging"
	"github.com/JonMunkholm/salesetl/internal/pipeline"
	"github.com/JonMunkholm/salesetl/internal/publish"
	"github.com/JonMunkholm/salesetl/internal/report"
	"github.com/JonMunkholm/salesetl/internal/warehouse"
)

// app is everything a command needs, built from the environment.
type app struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
}

func (a *app) Close() error {
	return errors.Join(a.pipeline.Raw.Close(), a.pipeline.Warehouse.Close())
}

func setup(ctx context.Context) (*app, error) {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"input_dir", cfg.Pipeline.InputDir,
		"output_dir", cfg.Pipeline.OutputDir,
		"raw_driver", cfg.Raw.Driver,
		"dw_driver", cfg.Warehouse.Driver,
		"publish", cfg.Publish.PublishEnabled(),
	)
	slog.Debug("effective configuration", "config", cfg.String())

	opts := warehouse.Options{
		MaxConns:        cfg.Pool.MaxConns,
		MinConns:        cfg.Pool.MinConns,
		MaxConnLifetime: cfg.Pool.MaxConnLifetime,
		MaxConnIdleTime: cfg.Pool.MaxConnIdleTime,
		BatchSize:       cfg.Pool.BatchSize,
		WriteTimeout:    cfg.Pool.WriteTimeout,
	}

	raw, err := warehouse.Open(ctx, warehouse.Destination{Name: "raw", Driver: cfg.Raw.Driver, URL: cfg.Raw.URL}, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to raw database: %w", err)
	}
	slog.Info("connected to database", "destination", "raw", "driver", cfg.Raw.Driver)

	dw, err := warehouse.Open(ctx, warehouse.Destination{Name: "dw", Driver: cfg.Warehouse.Driver, URL: cfg.Warehouse.URL}, opts)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("connect to warehouse database: %w", err)
	}
	slog.Info("connected to database", "destination", "dw", "driver", cfg.Warehouse.Driver)

	p := &pipeline.Pipeline{
		Raw:       raw,
		Warehouse: dw,
		Options: pipeline.Options{
			InputDir:     cfg.Pipeline.InputDir,
			OutputDir:    cfg.Pipeline.OutputDir,
			SnapshotFile: cfg.Pipeline.SnapshotFile,
			ReportFile:   cfg.Pipeline.ReportFile,
			InferKeys:    cfg.Pipeline.InferKeyColumns,
			DayFirst:     cfg.Pipeline.DateDayFirst,
			Report: report.Options{
				Title:        cfg.Report.Title,
				Author:       cfg.Report.Author,
				TopEmployees: cfg.Report.TopEmployees,
				TopProducts:  cfg.Report.TopProducts,
			},
		},
	}

	if cfg.Publish.PublishEnabled() {
		pub, err := publish.NewS3Publisher(cfg.Publish.Region, cfg.Publish.Bucket, cfg.Publish.Prefix)
		if err != nil {
			raw.Close()
			dw.Close()
			return nil, err
		}
		p.Publisher = pub
		slog.Info("publishing enabled", "bucket", cfg.Publish.Bucket, "prefix", cfg.Publish.Prefix)
	}

	return &app{cfg: cfg, pipeline: p}, nil
}
