// Package extract reads the three sales input files into frames.
package extract

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/salesetl/internal/frame"
	"github.com/JonMunkholm/salesetl/internal/logging"
)

// Input describes one of the fixed input files.
type Input struct {
	Key      string
	File     string
	RawTable string
}

// Inputs lists the input files in load order.
var Inputs = []Input{
	{Key: "empregados", File: "empregados.csv", RawTable: "empregados_raw"},
	{Key: "produtos", File: "produtos.csv", RawTable: "produtos_raw"},
	{Key: "vendas", File: "vendas.csv", RawTable: "vendas_raw"},
}

// ErrMissingInput matches any MissingInputError.
var ErrMissingInput = errors.New("input file not found")

// MissingInputError reports an input file that does not exist.
type MissingInputError struct {
	Path string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("input file not found: %s", e.Path)
}

func (e *MissingInputError) Is(target error) bool {
	return target == ErrMissingInput
}

// MissingPolicy selects what Load does when an input file is absent.
type MissingPolicy int

const (
	// FailOnMissing returns the MissingInputError.
	FailOnMissing MissingPolicy = iota
	// SkipMissing logs a warning and leaves the table nil.
	SkipMissing
)

// Tables holds the loaded inputs. A skipped input is nil.
type Tables struct {
	Employees *frame.Frame
	Products  *frame.Frame
	Sales     *frame.Frame
}

// ByKey returns the table for an Input key.
func (t *Tables) ByKey(key string) *frame.Frame {
	switch key {
	case "empregados":
		return t.Employees
	case "produtos":
		return t.Products
	case "vendas":
		return t.Sales
	}
	return nil
}

func (t *Tables) set(key string, f *frame.Frame) {
	switch key {
	case "empregados":
		t.Employees = f
	case "produtos":
		t.Products = f
	case "vendas":
		t.Sales = f
	}
}

// Load reads every input from dir.
func Load(ctx context.Context, dir string, policy MissingPolicy) (*Tables, error) {
	logger := logging.WithFields(ctx, "dir", dir)
	tables := &Tables{}

	for _, in := range Inputs {
		f, err := ReadCSV(filepath.Join(dir, in.File))
		if err != nil {
			if errors.Is(err, ErrMissingInput) && policy == SkipMissing {
				logger.Warn("input file not found, skipping", "file", in.File)
				continue
			}
			return nil, fmt.Errorf("load %s: %w", in.File, err)
		}
		f.Name = in.Key
		logger.Debug("input loaded", "file", in.File, "rows", f.Len(), "columns", len(f.Columns))
		tables.set(in.Key, f)
	}

	return tables, nil
}

// ReadCSV reads a comma-separated file with a header row.
func ReadCSV(path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingInputError{Path: path}
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(name, file)
}

// Parse reads CSV text from r. A UTF-8 BOM is dropped and invalid UTF-8 is
// replaced. Repeated header names get a numeric suffix (nome, nome.1). Rows shorter than the header are padded with nulls; longer rows
// are an error. Column types are inferred with frame.InferColumn.
func Parse(name string, r io.Reader) (*frame.Frame, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: no header row", name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	header = uniqueHeader(header)

	columns := make([][]string, len(header))
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", name, line, err)
		}
		if len(record) > len(header) {
			return nil, fmt.Errorf("%s: line %d: expected %d fields, saw %d", name, line, len(header), len(record))
		}
		for i := range header {
			cell := ""
			if i < len(record) {
				cell = record[i]
			}
			columns[i] = append(columns[i], cell)
		}
	}

	f := frame.New(name, header...)
	rows := 0
	if len(columns) > 0 {
		rows = len(columns[0])
	}
	f.Rows = make([][]any, rows)
	for r := range f.Rows {
		f.Rows[r] = make([]any, len(header))
	}
	for c, raw := range columns {
		for r, v := range frame.InferColumn(raw) {
			f.Rows[r][c] = v
		}
	}
	return f, nil
}

// uniqueHeader renames repeated column names to name.1, name.2 and so on,
// skipping suffixes already taken by another column.
func uniqueHeader(header []string) []string {
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[h] = true
	}
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		n := seen[h]
		seen[h] = n + 1
		if n == 0 {
			out[i] = h
			continue
		}
		name := fmt.Sprintf("%s.%d", h, n)
		for taken[name] {
			n++
			name = fmt.Sprintf("%s.%d", h, n)
		}
		seen[h] = n + 1
		taken[name] = true
		out[i] = name
	}
	return out
}
