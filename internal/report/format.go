package report

import (
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Number grouping follows the report's established layout: comma thousands,
// dot decimals.
var printer = message.NewPrinter(language.English)

// Currency formats x as "R$ 1,234.56".
func Currency(x float64) string {
	return printer.Sprintf("R$ %.2f", x)
}

// Number formats x as "1,234.56".
func Number(x float64) string {
	return printer.Sprintf("%.2f", x)
}

// Count formats n as "1,234".
func Count(n int) string {
	return printer.Sprintf("%d", n)
}

// Percent formats a share in [0,1] as "12.5%".
func Percent(share float64) string {
	return strconv.FormatFloat(share*100, 'f', 1, 64) + "%"
}

// cellText renders a cell for a table.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return printer.Sprint(x)
	}
}
