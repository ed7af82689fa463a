package transform

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/salesetl/internal/frame"
)

// group accumulates sums for one key tuple.
type group struct {
	keys []any
	sums []decimal.Decimal
}

// groupSum sums the value columns per distinct key tuple. Rows with a null
// key are dropped and null values are skipped. Groups come back ordered by
// key, ascending.
func groupSum(f *frame.Frame, keys []string, values ...string) []*group {
	keyIdx := make([]int, len(keys))
	for i, k := range keys {
		keyIdx[i] = f.Index(k)
	}
	valIdx := make([]int, len(values))
	for i, v := range values {
		valIdx[i] = f.Index(v)
	}

	byKey := make(map[string]*group)
	var order []*group
rows:
	for _, row := range f.Rows {
		tuple := make([]any, len(keyIdx))
		for i, idx := range keyIdx {
			if idx < 0 || row[idx] == nil {
				continue rows
			}
			tuple[i] = row[idx]
		}
		k := frame.GroupKey(tuple...)
		g, ok := byKey[k]
		if !ok {
			g = &group{keys: tuple, sums: make([]decimal.Decimal, len(values))}
			byKey[k] = g
			order = append(order, g)
		}
		for i, idx := range valIdx {
			if idx < 0 {
				continue
			}
			if x, ok := frame.ToFloat(row[idx]); ok {
				g.sums[i] = g.sums[i].Add(decimal.NewFromFloat(x))
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		for k := range order[i].keys {
			if c := frame.Compare(order[i].keys[k], order[j].keys[k]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return order
}

func totalByEmployee(summary *frame.Frame) *frame.Frame {
	out := frame.New(ViewTotalByEmployee, ColEmployeeID, ColEmployee, ColTotalSales)
	for _, g := range groupSum(summary, []string{ColEmployeeID, ColEmployee}, ColTotal) {
		out.Append(g.keys[0], g.keys[1], g.sums[0].InexactFloat64())
	}
	return out
}

// ticketByProduct divides each product's sales by the units sold. A product
// with zero units keeps its raw sales total as the ticket.
func ticketByProduct(summary *frame.Frame) *frame.Frame {
	qty := make(map[string]decimal.Decimal)
	for _, g := range groupSum(summary, []string{ColProductID}, ColQuantity) {
		qty[frame.GroupKey(g.keys[0])] = g.sums[0]
	}

	out := frame.New(ViewTicketByProduct, ColProductID, ColProduct, ColTotal, ColTotalQty, ColTicket)
	for _, g := range groupSum(summary, []string{ColProductID, ColProduct}, ColTotal) {
		total := g.sums[0].InexactFloat64()
		units := qty[frame.GroupKey(g.keys[0])].InexactFloat64()
		divisor := units
		if divisor == 0 {
			divisor = 1
		}
		out.Append(g.keys[0], g.keys[1], total, units, total/divisor)
	}
	return out
}

// salesByCategory is empty, with its columns, when there is no category.
func salesByCategory(summary *frame.Frame) *frame.Frame {
	out := frame.New(ViewSalesByCategory, ColCategory, ColTotal)
	if !summary.Has(ColCategory) {
		return out
	}
	for _, g := range groupSum(summary, []string{ColCategory}, ColTotal) {
		out.Append(g.keys[0], g.sums[0].InexactFloat64())
	}
	return out
}

// top5 keeps the five best sellers; ties stay in group order.
func top5(totals *frame.Frame) *frame.Frame {
	out := totals.Copy()
	out.Name = ViewTop5
	out.SortStable(ColTotalSales, true)
	return out.Head(5)
}
