// Package transform turns the employee, product and sales tables into the
// cleaned dimension and fact tables plus the summary views used by the
// report and the warehouse.
package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/salesetl/internal/frame"
)

// Column names the transformer relies on.
const (
	ColEmployeeID = "id_empregado"
	ColProductID  = "id_produto"
	ColQuantity   = "quantidade"
	ColUnitValue  = "valor_unitario"
	ColTotal      = "valor_total"
	ColDate       = "data"
	ColCategory   = "categoria"
	ColEmployee   = "nome_emp"
	ColProduct    = "nome_prod"
	ColTotalSales = "total_vendas"
	ColTotalQty   = "total_qt"
	ColTicket     = "ticket_medio"
)

// ErrMissingColumn matches any MissingColumnError.
var ErrMissingColumn = errors.New("required column missing")

// MissingColumnError names a required column absent from an input table.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table %s: required column %q not found", e.Table, e.Column)
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// Options tunes Transform.
type Options struct {
	// InferKeys lets an employee or product table without its canonical key
	// column use the first column whose name contains "id" instead.
	InferKeys bool

	// DayFirst reads ambiguous numeric dates such as 01/02/2024 as
	// day/month. Columns with an unambiguous value decide for themselves.
	DayFirst bool
}

// Transform cleans the three inputs, joins them into the enriched sales
// summary and aggregates it. Input frames are not modified.
func Transform(emp, prod, sales *frame.Frame, opts Options) (*Views, error) {
	if emp == nil || prod == nil || sales == nil {
		return nil, errors.New("transform: employees, products and sales are all required")
	}

	emp = clean(emp, ViewEmployees)
	prod = clean(prod, ViewProducts)
	sales = clean(sales, ViewSales)

	for _, col := range []string{ColQuantity, ColUnitValue} {
		if !sales.Has(col) {
			return nil, &MissingColumnError{Table: "vendas", Column: col}
		}
		sales.Map(col, coerceNumber)
	}
	if sales.Has(ColTotal) {
		sales.Map(ColTotal, coerceNumber)
	}

	if err := resolveKey(emp, "empregados", ColEmployeeID, opts); err != nil {
		return nil, err
	}
	if err := resolveKey(prod, "produtos", ColProductID, opts); err != nil {
		return nil, err
	}
	for _, col := range []string{ColEmployeeID, ColProductID} {
		if !sales.Has(col) {
			return nil, &MissingColumnError{Table: "vendas", Column: col}
		}
	}

	emp.RenameFunc(renameNome(ColEmployee))
	prod.RenameFunc(renameNome(ColProduct))

	summary, err := frame.LeftJoin(sales, emp, ColEmployeeID, "_emp")
	if err != nil {
		return nil, fmt.Errorf("join employees: %w", err)
	}
	summary, err = frame.LeftJoin(summary, prod, ColProductID, "_prod")
	if err != nil {
		return nil, fmt.Errorf("join products: %w", err)
	}
	summary.Name = ViewSummary

	if ShouldRecomputeTotal(summary) {
		summary.Set(ColTotal, lineTotals(summary))
	}

	if !summary.Has(ColEmployee) {
		return nil, &MissingColumnError{Table: "empregados", Column: "nome"}
	}
	if !summary.Has(ColProduct) {
		return nil, &MissingColumnError{Table: "produtos", Column: "nome"}
	}

	totals := totalByEmployee(summary)
	views := &Views{
		Products:        prod,
		Employees:       emp,
		Sales:           sales,
		TotalByEmployee: totals,
		TicketByProduct: ticketByProduct(summary),
		SalesByCategory: salesByCategory(summary),
		Top5:            top5(totals),
	}

	summary.ParseDates(ColDate, opts.DayFirst)
	views.Summary = summary
	views.DayFirst = opts.DayFirst

	return views, nil
}

// ShouldRecomputeTotal reports whether valor_total is rebuilt from
// quantidade * valor_unitario. That happens only when the column is absent,
// every value is null, or every value is exactly zero. A single nonzero or
// null value among zeros keeps the column as is.
func ShouldRecomputeTotal(f *frame.Frame) bool {
	if !f.Has(ColTotal) {
		return true
	}
	allNull, allZero := true, true
	for _, v := range f.Column(ColTotal) {
		if v == nil {
			allZero = false
			continue
		}
		allNull = false
		if x, ok := frame.ToFloat(v); !ok || x != 0 {
			allZero = false
		}
	}
	return allNull || allZero
}

func clean(f *frame.Frame, name string) *frame.Frame {
	out := f.Copy().TrimColumns().DropDuplicates()
	out.Name = name
	return out
}

// coerceNumber maps unparseable or missing values to 0.
func coerceNumber(v any) any {
	if x, ok := frame.ToFloat(v); ok {
		return x
	}
	return 0.0
}

func resolveKey(f *frame.Frame, table, key string, opts Options) error {
	if f.Has(key) {
		return nil
	}
	if opts.InferKeys {
		for _, c := range f.Columns {
			if strings.Contains(strings.ToLower(c), "id") {
				f.Rename(map[string]string{c: key})
				return nil
			}
		}
	}
	return &MissingColumnError{Table: table, Column: key}
}

// renameNome renames the first column called nome, in any case, to to.
// Later matches keep their names so column names stay unique.
func renameNome(to string) func(string) string {
	done := false
	return func(c string) string {
		if !done && strings.EqualFold(c, "nome") {
			done = true
			return to
		}
		return c
	}
}

func lineTotals(f *frame.Frame) []any {
	out := make([]any, f.Len())
	for i := range f.Rows {
		q, _ := frame.ToFloat(f.Value(i, ColQuantity))
		u, _ := frame.ToFloat(f.Value(i, ColUnitValue))
		out[i] = q * u
	}
	return out
}
