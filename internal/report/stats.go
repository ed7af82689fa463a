package report

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/salesetl/internal/frame"
	"github.com/JonMunkholm/salesetl/internal/transform"
)

// KPIs are the headline numbers on the cover page.
type KPIs struct {
	TotalSales        float64 `json:"total_sales"`
	Transactions      int     `json:"transactions"`
	MeanTicket        float64 `json:"mean_ticket"`
	MedianTicket      float64 `json:"median_ticket"`
	DistinctProducts  int     `json:"distinct_products"`
	DistinctEmployees int     `json:"distinct_employees"`
}

// ComputeKPIs summarizes the resumo view. Missing totals are ignored by the
// sum, mean and median; every figure is zero for an empty view.
func ComputeKPIs(summary *frame.Frame) KPIs {
	var k KPIs
	if summary.Empty() {
		return k
	}

	values := numbers(summary, transform.ColTotal)
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}

	k.TotalSales = total.InexactFloat64()
	k.Transactions = summary.Len()
	if len(values) > 0 {
		k.MeanTicket = total.Div(decimal.NewFromInt(int64(len(values)))).InexactFloat64()
		k.MedianTicket = median(values)
	}
	k.DistinctProducts = distinct(summary, transform.ColProductID)
	k.DistinctEmployees = distinct(summary, transform.ColEmployeeID)
	return k
}

// numbers returns the numeric values of col, skipping nulls and non-numbers.
func numbers(f *frame.Frame, col string) []float64 {
	var out []float64
	for _, v := range f.Column(col) {
		if v == nil {
			continue
		}
		if x, ok := frame.ToFloat(v); ok {
			out = append(out, x)
		}
	}
	return out
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

func distinct(f *frame.Frame, col string) int {
	seen := make(map[string]struct{})
	for _, v := range f.Column(col) {
		if v == nil {
			continue
		}
		seen[frame.GroupKey(v)] = struct{}{}
	}
	return len(seen)
}

// Bin is one histogram bucket covering [Lo, Hi).
type Bin struct {
	Lo, Hi float64
	Count  int
}

// Histogram splits values into n equal-width bins between their min and max.
// The last bin is closed on the right. A single distinct value gets a unit
// wide range centered on it.
func Histogram(values []float64, n int) []Bin {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lo = lo + float64(i)*width
		bins[i].Hi = lo + float64(i+1)*width
	}
	bins[n-1].Hi = hi

	for _, v := range values {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		bins[i].Count++
	}
	return bins
}

// MonthTotal is the summed value for one calendar month.
type MonthTotal struct {
	Month time.Time
	Total float64
}

// Label renders the month as "2006-01".
func (m MonthTotal) Label() string {
	return m.Month.Format("2006-01")
}

// MonthlyTotals sums valor_total per calendar month of data. Months between
// the first and last sale with no sales are filled with zero. Returns nil
// when no row has a date.
func MonthlyTotals(summary *frame.Frame) []MonthTotal {
	di, vi := summary.Index(transform.ColDate), summary.Index(transform.ColTotal)
	if di < 0 {
		return nil
	}

	sums := make(map[time.Time]decimal.Decimal)
	var first, last time.Time
	for _, row := range summary.Rows {
		d, ok := frame.ToTime(row[di])
		if !ok {
			continue
		}
		m := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		if first.IsZero() || m.Before(first) {
			first = m
		}
		if m.After(last) {
			last = m
		}

		sum := sums[m]
		if vi >= 0 && row[vi] != nil {
			if x, ok := frame.ToFloat(row[vi]); ok {
				sum = sum.Add(decimal.NewFromFloat(x))
			}
		}
		sums[m] = sum
	}
	if len(sums) == 0 {
		return nil
	}

	var out []MonthTotal
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		out = append(out, MonthTotal{Month: m, Total: sums[m].InexactFloat64()})
	}
	return out
}

// QualityLines describes record count, duplicates and missing values of the
// resumo view. An empty view has nothing to describe.
func QualityLines(summary *frame.Frame) []string {
	if summary.Empty() {
		return nil
	}
	lines := []string{
		"Total registros no resumo: " + Count(summary.Len()),
		"Registros duplicados (resumo): " + Count(summary.Duplicates()),
		"Exemplo missing counts (col: n_missing):",
	}

	type missing struct {
		col string
		n   int
	}
	var all, nonzero []missing
	for _, c := range summary.Columns {
		m := missing{c, summary.Nulls(c)}
		all = append(all, m)
		if m.n > 0 {
			nonzero = append(nonzero, m)
		}
	}
	show := nonzero
	if len(show) == 0 {
		show = all
	}
	if len(show) > 12 {
		show = show[:12]
	}
	for _, m := range show {
		lines = append(lines, " - "+m.col+": "+Count(m.n))
	}
	return lines
}
