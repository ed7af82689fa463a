package transform

import "github.com/JonMunkholm/salesetl/internal/frame"

// View names.
const (
	ViewProducts        = "dProdutos"
	ViewEmployees       = "dFuncionarios"
	ViewSales           = "fVendas"
	ViewSummary         = "resumo"
	ViewTotalByEmployee = "total_por_func"
	ViewTicketByProduct = "ticket_por_prod"
	ViewSalesByCategory = "vendas_por_categoria"
	ViewTop5            = "top5"
)

// ViewNames lists every view in output order.
var ViewNames = []string{
	ViewProducts,
	ViewEmployees,
	ViewSales,
	ViewSummary,
	ViewTotalByEmployee,
	ViewTicketByProduct,
	ViewSalesByCategory,
	ViewTop5,
}

// Views is the output of Transform.
type Views struct {
	Products        *frame.Frame
	Employees       *frame.Frame
	Sales           *frame.Frame
	Summary         *frame.Frame
	TotalByEmployee *frame.Frame
	TicketByProduct *frame.Frame
	SalesByCategory *frame.Frame
	Top5            *frame.Frame

	// DayFirst is the date order hint the views were built with.
	DayFirst bool
}

// Get returns the view with the given name, or nil.
func (v *Views) Get(name string) *frame.Frame {
	if v == nil {
		return nil
	}
	switch name {
	case ViewProducts:
		return v.Products
	case ViewEmployees:
		return v.Employees
	case ViewSales:
		return v.Sales
	case ViewSummary:
		return v.Summary
	case ViewTotalByEmployee:
		return v.TotalByEmployee
	case ViewTicketByProduct:
		return v.TicketByProduct
	case ViewSalesByCategory:
		return v.SalesByCategory
	case ViewTop5:
		return v.Top5
	}
	return nil
}

// RowCounts returns the row count of every view, keyed by name.
func (v *Views) RowCounts() map[string]int {
	counts := make(map[string]int, len(ViewNames))
	for _, name := range ViewNames {
		counts[name] = v.Get(name).Len()
	}
	return counts
}
