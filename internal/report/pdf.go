package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
)

// Page geometry in millimetres, A4 landscape.
const (
	pageW = 297.0
	pageH = 210.0

	contentX = 15.0
	contentY = 24.0
	contentW = pageW - contentX - 10
	contentH = pageH - contentY - 16
)

var (
	barColor  = [3]int{46, 134, 193}
	histColor = [3]int{106, 176, 76}
	palette   = [][3]int{
		{46, 134, 193}, {231, 76, 60}, {39, 174, 96}, {243, 156, 18},
		{142, 68, 173}, {22, 160, 133}, {211, 84, 0}, {127, 140, 141},
	}
)

type box struct{ x, y, w, h float64 }

func (a Area) box() box {
	return box{
		x: contentX + a.X*contentW,
		y: contentY + a.Y*contentH,
		w: a.W * contentW,
		h: a.H * contentH,
	}
}

// renderer wraps an fpdf document with the Latin-1 text translation the core
// fonts need.
type renderer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// RenderPDF draws pages into a PDF file at path, creating its directory.
// The first page title becomes the document title.
func RenderPDF(pages []Page, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	r := &renderer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	if len(pages) > 0 {
		pdf.SetTitle(pages[0].Title, true)
	}
	pdf.SetCreator("salesetl", true)
	pdf.SetMargins(contentX, 10, 10)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(0, 6, r.tr(fmt.Sprintf("Página %d", pdf.PageNo())), "", 0, "R", false, 0, "")
	})

	for _, p := range pages {
		r.page(p)
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func (r *renderer) page(p Page) {
	r.pdf.AddPage()
	r.pdf.SetFont("Helvetica", "B", 16)
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.SetXY(contentX, 10)
	r.pdf.CellFormat(contentW, 10, r.tr(p.Title), "", 0, "C", false, 0, "")

	for _, b := range p.Blocks {
		switch b := b.(type) {
		case KPIGrid:
			r.kpis(b)
		case BarChart:
			if b.Horizontal {
				r.hbar(b)
			} else {
				r.vbar(b)
			}
		case HistogramChart:
			r.histogram(b)
		case PieChart:
			r.pie(b)
		case LineChart:
			r.line(b)
		case Table:
			r.table(b)
		case Text:
			r.text(b)
		}
	}
}

func (r *renderer) fill(c [3]int) { r.pdf.SetFillColor(c[0], c[1], c[2]) }

// label writes s with its left edge at x and baseline at y.
func (r *renderer) label(x, y float64, s string) {
	r.pdf.Text(x, y, r.tr(s))
}

// fit shortens s until it is at most w wide.
func (r *renderer) fit(s string, w float64) string {
	t := r.tr(s)
	if r.pdf.GetStringWidth(t) <= w {
		return t
	}
	rs := []rune(s)
	for len(rs) > 1 {
		rs = rs[:len(rs)-1]
		t = r.tr(string(rs) + "...")
		if r.pdf.GetStringWidth(t) <= w {
			return t
		}
	}
	return t
}

// chartTitle draws an optional title and returns the area left for the plot.
func (r *renderer) chartTitle(bx box, title string) box {
	if title == "" {
		return bx
	}
	r.pdf.SetFont("Helvetica", "B", 10)
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.SetXY(bx.x, bx.y)
	r.pdf.CellFormat(bx.w, 6, r.tr(title), "", 0, "C", false, 0, "")
	return box{bx.x, bx.y + 7, bx.w, bx.h - 7}
}

func (r *renderer) kpis(g KPIGrid) {
	bx := g.At.box()
	cols := max(g.Columns, 1)
	rows := (len(g.Items) + cols - 1) / cols
	cw, ch := bx.w/float64(cols), bx.h/float64(max(rows, 1))

	for i, k := range g.Items {
		x := bx.x + float64(i%cols)*cw
		y := bx.y + float64(i/cols)*ch
		r.pdf.SetTextColor(60, 60, 60)
		r.pdf.SetFont("Helvetica", "B", 10)
		r.label(x, y+6, k.Label)
		r.pdf.SetTextColor(0, 0, 0)
		r.pdf.SetFont("Helvetica", "B", 14)
		r.label(x, y+14, k.Value)
	}
}

func maxValue(bars []Bar) float64 {
	m := 0.0
	for _, b := range bars {
		m = math.Max(m, b.Value)
	}
	return m
}

func (r *renderer) hbar(c BarChart) {
	bx := r.chartTitle(c.At.box(), c.Title)
	if len(c.Bars) == 0 {
		return
	}
	axisH := 0.0
	if c.AxisLabel != "" {
		axisH = 8
	}
	labelW := bx.w * 0.22
	plotX, plotW := bx.x+labelW, bx.w-labelW
	plotH := bx.h - axisH
	scale := maxValue(c.Bars) * 1.12
	rowH := plotH / float64(len(c.Bars))
	barH := rowH * 0.7

	r.pdf.SetDrawColor(80, 80, 80)
	r.pdf.Line(plotX, bx.y, plotX, bx.y+plotH)

	r.pdf.SetFont("Helvetica", "", 8)
	for i, b := range c.Bars {
		y := bx.y + float64(i)*rowH + (rowH-barH)/2
		w := 0.0
		if scale > 0 && b.Value > 0 {
			w = b.Value / scale * plotW
		}
		r.fill(barColor)
		r.pdf.Rect(plotX, y, w, barH, "F")

		r.pdf.SetTextColor(0, 0, 0)
		r.pdf.SetXY(bx.x, y)
		r.pdf.CellFormat(labelW-2, barH, r.fit(b.Label, labelW-3), "", 0, "R", false, 0, "")

		value := r.tr(Currency(b.Value))
		vw := r.pdf.GetStringWidth(value)
		if w >= plotW*0.14 && vw < w-2 {
			r.pdf.SetTextColor(255, 255, 255)
			r.pdf.Text(plotX+w-vw-1.5, y+barH/2+1.2, value)
		} else {
			r.pdf.Text(plotX+w+1.5, y+barH/2+1.2, value)
		}
	}

	if c.AxisLabel != "" {
		r.pdf.SetTextColor(0, 0, 0)
		r.pdf.SetFont("Helvetica", "", 9)
		r.pdf.SetXY(plotX, bx.y+plotH+1)
		r.pdf.CellFormat(plotW, 6, r.tr(c.AxisLabel), "", 0, "C", false, 0, "")
	}
}

func (r *renderer) vbar(c BarChart) {
	bx := r.chartTitle(c.At.box(), c.Title)
	if len(c.Bars) == 0 {
		return
	}
	const axisW, labelH = 26.0, 22.0
	plotX, plotW := bx.x+axisW, bx.w-axisW
	plotH := bx.h - labelH
	base := bx.y + plotH
	scale := maxValue(c.Bars) * 1.1
	colW := plotW / float64(len(c.Bars))
	barW := colW * 0.7

	r.axes(plotX, bx.y, plotW, plotH, scale, c.AxisLabel)

	r.pdf.SetFont("Helvetica", "", 8)
	for i, b := range c.Bars {
		x := plotX + float64(i)*colW + (colW-barW)/2
		h := 0.0
		if scale > 0 && b.Value > 0 {
			h = b.Value / scale * plotH
		}
		r.fill(barColor)
		r.pdf.Rect(x, base-h, barW, h, "F")

		r.pdf.SetTextColor(0, 0, 0)
		cx := x + barW/2
		r.pdf.TransformBegin()
		r.pdf.TransformRotate(35, cx, base+3)
		t := r.fit(b.Label, labelH*1.4)
		r.pdf.Text(cx-r.pdf.GetStringWidth(t), base+3, t)
		r.pdf.TransformEnd()
	}
}

// axes draws the left and bottom axis lines, a max tick in currency and an
// optional rotated y label.
func (r *renderer) axes(x, y, w, h, top float64, ylabel string) {
	r.pdf.SetDrawColor(80, 80, 80)
	r.pdf.SetLineWidth(0.2)
	r.pdf.Line(x, y, x, y+h)
	r.pdf.Line(x, y+h, x+w, y+h)

	r.pdf.SetFont("Helvetica", "", 7)
	r.pdf.SetTextColor(60, 60, 60)
	for _, frac := range []float64{0, 0.5, 1} {
		ty := y + h - frac*h
		t := r.tr(Currency(top * frac))
		r.pdf.Text(x-r.pdf.GetStringWidth(t)-1.5, ty+1, t)
		r.pdf.Line(x-1, ty, x, ty)
	}

	if ylabel != "" {
		r.pdf.SetFont("Helvetica", "", 8)
		r.pdf.TransformBegin()
		lx, ly := x-22, y+h/2
		r.pdf.TransformRotate(90, lx, ly)
		t := r.tr(ylabel)
		r.pdf.Text(lx-r.pdf.GetStringWidth(t)/2, ly, t)
		r.pdf.TransformEnd()
	}
}

func (r *renderer) histogram(c HistogramChart) {
	bx := r.chartTitle(c.At.box(), c.Title)
	if len(c.Bins) == 0 {
		return
	}
	const axisW, labelH = 12.0, 12.0
	plotX, plotW := bx.x+axisW, bx.w-axisW
	plotH := bx.h - labelH
	base := bx.y + plotH

	top := 0
	for _, b := range c.Bins {
		top = max(top, b.Count)
	}

	r.pdf.SetDrawColor(80, 80, 80)
	r.pdf.Line(plotX, bx.y, plotX, base)
	r.pdf.Line(plotX, base, plotX+plotW, base)
	r.pdf.SetFont("Helvetica", "", 7)
	r.pdf.SetTextColor(60, 60, 60)
	t := r.tr(Count(top))
	r.pdf.Text(plotX-r.pdf.GetStringWidth(t)-1.5, bx.y+2, t)

	binW := plotW / float64(len(c.Bins))
	r.fill(histColor)
	r.pdf.SetDrawColor(255, 255, 255)
	for i, b := range c.Bins {
		if top == 0 || b.Count == 0 {
			continue
		}
		h := float64(b.Count) / float64(top) * plotH
		r.pdf.Rect(plotX+float64(i)*binW, base-h, binW, h, "FD")
	}

	lo, hi := r.tr(Currency(c.Bins[0].Lo)), r.tr(Currency(c.Bins[len(c.Bins)-1].Hi))
	r.pdf.Text(plotX, base+4, lo)
	r.pdf.Text(plotX+plotW-r.pdf.GetStringWidth(hi), base+4, hi)
	if c.AxisLabel != "" {
		r.pdf.SetFont("Helvetica", "", 8)
		r.pdf.SetTextColor(0, 0, 0)
		r.pdf.SetXY(plotX, base+5)
		r.pdf.CellFormat(plotW, 5, r.tr(c.AxisLabel), "", 0, "C", false, 0, "")
	}
}

func (r *renderer) pie(c PieChart) {
	bx := r.chartTitle(c.At.box(), c.Title)
	total := 0.0
	for _, s := range c.Slices {
		total += math.Max(s.Value, 0)
	}
	if total <= 0 {
		return
	}

	radius := math.Min(bx.w, bx.h) / 2 * 0.7
	cx, cy := bx.x+bx.w/2, bx.y+bx.h/2
	point := func(angle, dist float64) fpdf.PointType {
		rad := angle * math.Pi / 180
		return fpdf.PointType{X: cx + dist*math.Cos(rad), Y: cy - dist*math.Sin(rad)}
	}

	r.pdf.SetDrawColor(255, 255, 255)
	r.pdf.SetFont("Helvetica", "", 7)
	start := 90.0
	for i, s := range c.Slices {
		if s.Value <= 0 {
			continue
		}
		share := s.Value / total
		sweep := share * 360
		pts := []fpdf.PointType{{X: cx, Y: cy}}
		steps := max(int(math.Ceil(sweep/2)), 1)
		for k := 0; k <= steps; k++ {
			pts = append(pts, point(start+sweep*float64(k)/float64(steps), radius))
		}
		r.fill(palette[i%len(palette)])
		r.pdf.Polygon(pts, "FD")

		mid := start + sweep/2
		r.pdf.SetTextColor(255, 255, 255)
		pct := r.tr(Percent(share))
		p := point(mid, radius*0.6)
		r.pdf.Text(p.X-r.pdf.GetStringWidth(pct)/2, p.Y+1, pct)

		r.pdf.SetTextColor(0, 0, 0)
		name := r.fit(s.Label, 30)
		p = point(mid, radius*1.15)
		if math.Cos(mid*math.Pi/180) < 0 {
			p.X -= r.pdf.GetStringWidth(name)
		}
		r.pdf.Text(p.X, p.Y+1, name)
		start += sweep
	}
}

func (r *renderer) line(c LineChart) {
	bx := r.chartTitle(c.At.box(), c.Title)
	if len(c.Points) == 0 {
		return
	}
	const axisW, labelH = 30.0, 20.0
	plotX, plotW := bx.x+axisW, bx.w-axisW
	plotH := bx.h - labelH
	base := bx.y + plotH
	scale := maxValue(c.Points) * 1.1

	r.axes(plotX, bx.y, plotW, plotH, scale, c.YLabel)

	step := plotW
	if len(c.Points) > 1 {
		step = plotW / float64(len(c.Points)-1)
	}
	at := func(i int) (float64, float64) {
		x := plotX + float64(i)*step
		if len(c.Points) == 1 {
			x = plotX + plotW/2
		}
		y := base
		if scale > 0 {
			y = base - math.Max(c.Points[i].Value, 0)/scale*plotH
		}
		return x, y
	}

	r.pdf.SetDrawColor(barColor[0], barColor[1], barColor[2])
	r.pdf.SetLineWidth(0.7)
	for i := 1; i < len(c.Points); i++ {
		x0, y0 := at(i - 1)
		x1, y1 := at(i)
		r.pdf.Line(x0, y0, x1, y1)
	}
	r.pdf.SetLineWidth(0.2)

	// Thin out month labels so they do not overlap.
	every := max(1, len(c.Points)/24)
	r.fill(barColor)
	r.pdf.SetFont("Helvetica", "", 7)
	r.pdf.SetTextColor(0, 0, 0)
	for i, p := range c.Points {
		x, y := at(i)
		r.pdf.Circle(x, y, 0.9, "F")
		if i%every != 0 {
			continue
		}
		r.pdf.TransformBegin()
		r.pdf.TransformRotate(45, x, base+3)
		t := r.tr(p.Label)
		r.pdf.Text(x-r.pdf.GetStringWidth(t), base+3, t)
		r.pdf.TransformEnd()
	}

	if c.XLabel != "" {
		r.pdf.SetFont("Helvetica", "", 9)
		r.pdf.SetXY(plotX, base+labelH-6)
		r.pdf.CellFormat(plotW, 6, r.tr(c.XLabel), "", 0, "C", false, 0, "")
	}
}

func (r *renderer) table(t Table) {
	bx := t.At.box()
	if len(t.Header) == 0 {
		return
	}
	colW := bx.w / float64(len(t.Header))
	rowH := math.Min(7, bx.h/float64(len(t.Rows)+1))

	r.pdf.SetDrawColor(160, 160, 160)
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.SetFont("Helvetica", "B", 8)
	r.pdf.SetFillColor(230, 230, 230)
	r.pdf.SetXY(bx.x, bx.y)
	for _, h := range t.Header {
		r.pdf.CellFormat(colW, rowH, r.fit(h, colW-2), "1", 0, "L", true, 0, "")
	}
	r.pdf.SetFont("Helvetica", "", 8)
	for i, row := range t.Rows {
		r.pdf.SetXY(bx.x, bx.y+float64(i+1)*rowH)
		for _, cell := range row {
			r.pdf.CellFormat(colW, rowH, r.fit(cell, colW-2), "1", 0, "L", false, 0, "")
		}
	}
}

func (r *renderer) text(t Text) {
	bx := t.At.box()
	r.pdf.SetFont("Courier", "", 11)
	r.pdf.SetTextColor(0, 0, 0)
	for i, line := range t.Lines {
		r.label(bx.x, bx.y+5+float64(i)*5.5, line)
	}
}
