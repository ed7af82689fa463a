package warehouse

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/salesetl/internal/extract"
	"github.com/JonMunkholm/salesetl/internal/frame"
	"github.com/JonMunkholm/salesetl/internal/logging"
	"github.com/JonMunkholm/salesetl/internal/transform"
)

// TableMapping pairs a transformed view with its warehouse table.
type TableMapping struct {
	View  string
	Table string
}

// WarehouseTables lists the warehouse table for every view, in write order.
var WarehouseTables = []TableMapping{
	{View: transform.ViewProducts, Table: "dProdutos"},
	{View: transform.ViewEmployees, Table: "dFuncionarios"},
	{View: transform.ViewSales, Table: "fVendas"},
	{View: transform.ViewSummary, Table: "resumo_vendas"},
	{View: transform.ViewTotalByEmployee, Table: "total_por_func"},
	{View: transform.ViewTicketByProduct, Table: "ticket_por_prod"},
	{View: transform.ViewSalesByCategory, Table: "vendas_por_categoria"},
	{View: transform.ViewTop5, Table: "top5_func"},
}

// RawSummary reports what SaveRaw did with each input file.
type RawSummary struct {
	Written []string          `json:"written"`
	Skipped []string          `json:"skipped"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// SaveRaw copies every input file in dir to its _raw table. Missing files are
// skipped with a warning. A file that cannot be read or written is logged and
// recorded in the summary without stopping the others.
func SaveRaw(ctx context.Context, dir string, sink Sink) *RawSummary {
	logger := logging.WithFields(ctx, "dir", dir, "destination", "raw")
	logger.Info("saving raw input files")

	summary := &RawSummary{Failed: make(map[string]string)}
	for _, in := range extract.Inputs {
		path := filepath.Join(dir, in.File)

		f, err := extract.ReadCSV(path)
		if errors.Is(err, extract.ErrMissingInput) {
			logger.Warn("input file not found, skipping", "file", path)
			summary.Skipped = append(summary.Skipped, in.File)
			continue
		}
		if err != nil {
			logger.Error("failed to read raw file", "file", path, "error", err)
			summary.Failed[in.File] = err.Error()
			continue
		}
		if err := insertFrame(ctx, sink, in.RawTable, f.TrimColumns()); err != nil {
			summary.Failed[in.File] = err.Error()
			continue
		}
		summary.Written = append(summary.Written, in.RawTable)
	}
	return summary
}

// SaveTransformed writes every view to its warehouse table. Nil views are
// skipped. The first failing write stops the run and is returned.
func SaveTransformed(ctx context.Context, views *transform.Views, sink Sink) error {
	logger := logging.WithFields(ctx, "destination", "dw")
	logger.Info("saving transformed views")

	for _, m := range WarehouseTables {
		f := views.Get(m.View)
		if f == nil {
			logger.Info("view not present, skipping", "view", m.View, "table", m.Table)
			continue
		}
		if err := insertFrame(ctx, sink, m.Table, PrepareForWarehouse(f, views.DayFirst)); err != nil {
			return err
		}
	}
	return nil
}

// PrepareForWarehouse returns a copy of f with lower-case, underscore
// separated column names and a data column parsed to dates.
func PrepareForWarehouse(f *frame.Frame, dayFirst bool) *frame.Frame {
	out := f.Copy().RenameFunc(func(c string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(c)), " ", "_")
	})
	out.ParseDates(transform.ColDate, dayFirst)
	return out
}

func insertFrame(ctx context.Context, sink Sink, table string, f *frame.Frame) error {
	logger := logging.WithFields(ctx, "table", table)
	logger.Info("writing table", "rows", f.Len())
	if err := sink.Write(ctx, table, f); err != nil {
		logger.Error("failed to write table", "error", err)
		return fmt.Errorf("write %s: %w", table, err)
	}
	logger.Info("table written")
	return nil
}
