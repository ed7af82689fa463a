package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/JonMunkholm/salesetl/internal/frame"
)

const snapshotParallelism = 4

// snapshotSchema builds the CSV-writer metadata for f. Every column is
// optional so null cells survive.
func snapshotSchema(f *frame.Frame) []string {
	md := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		var typ string
		switch f.ColumnKind(c) {
		case frame.KindInt:
			typ = "type=INT64"
		case frame.KindFloat:
			typ = "type=DOUBLE"
		case frame.KindTime:
			typ = "type=INT64, convertedtype=TIMESTAMP_MILLIS"
		default:
			typ = "type=BYTE_ARRAY, convertedtype=UTF8"
		}
		md[i] = fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", c, typ)
	}
	return md
}

// snapshotValue converts a cell to the Go type the column's parquet type
// expects.
func snapshotValue(v any, kind frame.Kind) any {
	if v == nil {
		return nil
	}
	switch kind {
	case frame.KindInt:
		if x, ok := v.(int64); ok {
			return x
		}
	case frame.KindFloat:
		if x, ok := frame.ToFloat(v); ok {
			return x
		}
	case frame.KindTime:
		if t, ok := v.(time.Time); ok {
			return t.UnixMilli()
		}
	default:
		return cellText(v)
	}
	return nil
}

// WriteSnapshot stores f as a SNAPPY-compressed Parquet file at path,
// creating the parent directory. Row order is kept.
func WriteSnapshot(f *frame.Frame, path string) error {
	if f == nil {
		return fmt.Errorf("write snapshot: no data")
	}
	if len(f.Columns) == 0 {
		return fmt.Errorf("write snapshot %s: frame has no columns", f.Name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}

	pw, err := writer.NewCSVWriter(snapshotSchema(f), fw, snapshotParallelism)
	if err != nil {
		fw.Close()
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	kinds := make([]frame.Kind, len(f.Columns))
	for i, c := range f.Columns {
		kinds[i] = f.ColumnKind(c)
	}
	for i, row := range f.Rows {
		rec := make([]any, len(row))
		for j, v := range row {
			rec[j] = snapshotValue(v, kinds[j])
		}
		if err := pw.Write(rec); err != nil {
			fw.Close()
			return fmt.Errorf("write snapshot row %d: %w", i, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finish snapshot: %w", err)
	}
	return fw.Close()
}
