// Package report builds the sales report. Pages are plain descriptions of
// charts, tables and text; RenderPDF draws them and WriteSnapshot stores the
// enriched sales view as Parquet.
package report

import (
	"fmt"

	"github.com/JonMunkholm/salesetl/internal/frame"
	"github.com/JonMunkholm/salesetl/internal/transform"
)

// Area positions a block inside the page content box. All fields are
// fractions of the box, measured from its top-left corner.
type Area struct {
	X, Y, W, H float64
}

// Block is anything drawn on a page.
type Block interface {
	Area() Area
}

// KPI is a labelled headline value.
type KPI struct {
	Label string
	Value string
}

// KPIGrid lays KPIs out in rows of Columns cards.
type KPIGrid struct {
	At      Area
	Columns int
	Items   []KPI
}

// Bar is one labelled value of a bar or pie chart.
type Bar struct {
	Label string
	Value float64
}

// BarChart draws bars left to right, or top to bottom when Horizontal.
type BarChart struct {
	At         Area
	Title      string
	AxisLabel  string
	Horizontal bool
	Bars       []Bar
}

// HistogramChart draws precomputed bins.
type HistogramChart struct {
	At        Area
	Title     string
	AxisLabel string
	Bins      []Bin
}

// PieChart draws slice shares counter-clockwise from twelve o'clock.
type PieChart struct {
	At     Area
	Title  string
	Slices []Bar
}

// LineChart connects points in order.
type LineChart struct {
	At     Area
	Title  string
	XLabel string
	YLabel string
	Points []Bar
}

// Table is a header row plus body rows of preformatted text.
type Table struct {
	At     Area
	Header []string
	Rows   [][]string
}

// Text is a block of monospaced lines.
type Text struct {
	At    Area
	Lines []string
}

func (b KPIGrid) Area() Area        { return b.At }
func (b BarChart) Area() Area       { return b.At }
func (b HistogramChart) Area() Area { return b.At }
func (b PieChart) Area() Area       { return b.At }
func (b LineChart) Area() Area      { return b.At }
func (b Table) Area() Area          { return b.At }
func (b Text) Area() Area           { return b.At }

// Page is one report page.
type Page struct {
	Title  string
	Blocks []Block
}

// Options controls page content.
type Options struct {
	Title        string
	Author       string
	TopEmployees int
	TopProducts  int
}

const (
	histogramBins = 30
	tableRows     = 5
	sampleRows    = 12
)

// SampleColumns lists the resumo columns shown on the sample page, in order.
var SampleColumns = []string{
	"id_venda", transform.ColDate, transform.ColProductID, transform.ColEmployeeID,
	transform.ColQuantity, transform.ColUnitValue, transform.ColTotal,
	transform.ColEmployee, transform.ColProduct, transform.ColCategory,
}

// BuildPages describes every report page for views. Pages whose data is
// empty are left out, so the page count depends on the data.
func BuildPages(views *transform.Views, opts Options) []Page {
	if opts.TopEmployees <= 0 {
		opts.TopEmployees = 10
	}
	if opts.TopProducts <= 0 {
		opts.TopProducts = 12
	}

	var summary *frame.Frame
	if views != nil {
		summary = views.Summary
	}

	pages := []Page{coverPage(summary, opts)}
	builders := []func() (Page, bool){
		func() (Page, bool) { return employeePage(views.Get(transform.ViewTotalByEmployee), opts.TopEmployees) },
		func() (Page, bool) { return productPage(views.Get(transform.ViewTicketByProduct), summary, opts.TopProducts) },
		func() (Page, bool) { return categoryPage(views.Get(transform.ViewSalesByCategory)) },
		func() (Page, bool) { return monthlyPage(summary) },
		func() (Page, bool) { return qualityPage(summary), true },
		func() (Page, bool) { return samplePage(summary) },
	}
	for _, build := range builders {
		if p, ok := build(); ok {
			pages = append(pages, p)
		}
	}
	return pages
}

func coverPage(summary *frame.Frame, opts Options) Page {
	k := ComputeKPIs(summary)
	p := Page{Title: opts.Title}
	if opts.Author != "" {
		p.Blocks = append(p.Blocks, Text{At: Area{0, 0, 1, 0.08}, Lines: []string{"Autor: " + opts.Author}})
	}
	p.Blocks = append(p.Blocks, KPIGrid{
		At:      Area{0.04, 0.2, 0.92, 0.4},
		Columns: 3,
		Items: []KPI{
			{"Total Vendas (R$)", Currency(k.TotalSales)},
			{"Transações (count)", Count(k.Transactions)},
			{"Ticket médio (R$)", Currency(k.MeanTicket)},
			{"Ticket mediano (R$)", Currency(k.MedianTicket)},
			{"Produtos únicos", Count(k.DistinctProducts)},
			{"Funcionários únicos", Count(k.DistinctEmployees)},
		},
	})
	return p
}

func employeePage(totals *frame.Frame, n int) (Page, bool) {
	if totals.Empty() {
		return Page{}, false
	}
	top := totals.Copy()
	top.SortStable(transform.ColTotalSales, true)
	top = top.Head(n)

	table := Table{At: Area{0, 0.76, 1, 0.24}, Header: []string{transform.ColEmployee, transform.ColTotalSales}}
	for i := 0; i < min(tableRows, top.Len()); i++ {
		table.Rows = append(table.Rows, []string{
			cellText(top.Value(i, transform.ColEmployee)),
			numberText(top.Value(i, transform.ColTotalSales)),
		})
	}

	return Page{
		Title: fmt.Sprintf("Top %d - Total de Vendas por Funcionário", n),
		Blocks: []Block{
			BarChart{
				At:         Area{0, 0, 1, 0.7},
				AxisLabel:  "Total Vendas (R$)",
				Horizontal: true,
				Bars:       bars(top, transform.ColEmployee, transform.ColTotalSales),
			},
			table,
		},
	}, true
}

func productPage(tickets, summary *frame.Frame, n int) (Page, bool) {
	if tickets.Empty() {
		return Page{}, false
	}
	top := tickets.Copy()
	top.SortStable(transform.ColTicket, true)
	top = top.Head(n)

	title := fmt.Sprintf("Top %d - Ticket Médio por Produto", n)
	return Page{
		Title: title,
		Blocks: []Block{
			BarChart{
				At:         Area{0, 0, 1, 0.58},
				Title:      title,
				Horizontal: true,
				Bars:       bars(top, transform.ColProduct, transform.ColTicket),
			},
			HistogramChart{
				At:        Area{0, 0.66, 1, 0.34},
				Title:     "Distribuição de valor por transação",
				AxisLabel: "Valor total (R$)",
				Bins:      Histogram(numbers(summary, transform.ColTotal), histogramBins),
			},
		},
	}, true
}

func categoryPage(categories *frame.Frame) (Page, bool) {
	if categories.Empty() {
		return Page{}, false
	}
	sorted := categories.Copy()
	sorted.SortStable(transform.ColTotal, true)
	values := bars(sorted, transform.ColCategory, transform.ColTotal)

	return Page{
		Title: "Vendas por Categoria",
		Blocks: []Block{
			BarChart{At: Area{0, 0, 0.65, 1}, AxisLabel: "Valor (R$)", Bars: values},
			PieChart{At: Area{0.67, 0.1, 0.31, 0.8}, Title: "Participação (%)", Slices: values},
		},
	}, true
}

func monthlyPage(summary *frame.Frame) (Page, bool) {
	months := MonthlyTotals(summary)
	if len(months) == 0 {
		return Page{}, false
	}
	points := make([]Bar, len(months))
	for i, m := range months {
		points[i] = Bar{Label: m.Label(), Value: m.Total}
	}
	return Page{
		Title: "Vendas por Mês",
		Blocks: []Block{
			LineChart{At: Area{0, 0.05, 1, 0.85}, XLabel: "Mês", YLabel: "Valor total (R$)", Points: points},
		},
	}, true
}

func qualityPage(summary *frame.Frame) Page {
	return Page{
		Title:  "Qualidade dos Dados - Resumo",
		Blocks: []Block{Text{At: Area{0.01, 0.02, 0.98, 0.9}, Lines: QualityLines(summary)}},
	}
}

func samplePage(summary *frame.Frame) (Page, bool) {
	if summary.Empty() {
		return Page{}, false
	}
	var cols []string
	for _, c := range SampleColumns {
		if summary.Has(c) {
			cols = append(cols, c)
		}
	}

	table := Table{At: Area{0, 0, 1, 1}, Header: cols}
	sample := summary.Head(sampleRows)
	for i := range sample.Rows {
		row := make([]string, len(cols))
		for j, c := range cols {
			v := sample.Value(i, c)
			switch c {
			case transform.ColQuantity, transform.ColUnitValue, transform.ColTotal:
				row[j] = numberText(v)
			case transform.ColDate:
				if d, ok := frame.ToTime(v); ok {
					row[j] = d.Format("2006-01-02")
				}
			default:
				row[j] = cellText(v)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return Page{Title: "Amostra de registros (resumo)", Blocks: []Block{table}}, true
}

// bars pairs the label and value columns of f. Unparseable values plot as 0.
func bars(f *frame.Frame, label, value string) []Bar {
	out := make([]Bar, f.Len())
	for i := range f.Rows {
		x, _ := frame.ToFloat(f.Value(i, value))
		out[i] = Bar{Label: cellText(f.Value(i, label)), Value: x}
	}
	return out
}

func numberText(v any) string {
	if v == nil {
		return ""
	}
	x, ok := frame.ToFloat(v)
	if !ok {
		return cellText(v)
	}
	return Number(x)
}
