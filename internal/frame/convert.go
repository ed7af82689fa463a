package frame

// convert.go turns CSV text into typed cells and compares cells.
//
// Numbers follow a strict grammar (no currency symbols or thousands
// separators); anything else stays text. Dates accept ISO layouts first,
// then numeric day/month/year spellings in either order. Which order wins
// for an ambiguous value like 01/02/2024 is decided per column by
// DayFirst.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a valid numeric format.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years more than this many years in the future move to the previous century.
var TwoDigitYearPivot = 20

var (
	isoLayouts = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339,
		"2006-01-02 15:04",
	}
	monthFirstLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
	}
	dayFirstLayouts = []string{
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006", "2.1.2006", "02.01.2006",
	}
	otherLayouts = []string{
		"2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
	monthFirstShortLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	dayFirstShortLayouts = []string{
		"2/1/06", "02/01/06", "2-1-06", "2.1.06", "02.01.06",
	}
)

// numericDateRegex matches d/m/y or m/d/y with /, - or . separators.
var numericDateRegex = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{2}|\d{4})$`)

// Kind is the inferred type of a column.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "null"
	}
}

// ParseNumber parses s as a number. Surrounding whitespace is ignored.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ToFloat converts a cell to float64. Text is parsed with ParseNumber.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	case string:
		return ParseNumber(x)
	default:
		return 0, false
	}
}

// ParseDate parses s month-first. See ParseDateOrder.
func ParseDate(s string) (time.Time, bool) {
	return ParseDateOrder(s, false)
}

// ParseDateOrder parses s using the known date layouts. Numeric dates try
// the preferred order first and fall back to the other one, so 15/01/2024
// parses whatever dayFirst says.
func ParseDateOrder(s string, dayFirst bool) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	long, short := monthFirstLayouts, monthFirstShortLayouts
	altLong, altShort := dayFirstLayouts, dayFirstShortLayouts
	if dayFirst {
		long, altLong = altLong, long
		short, altShort = altShort, short
	}

	for _, layouts := range [][]string{isoLayouts, long, altLong, otherLayouts} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layouts := range [][]string{short, altShort} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				if t.Year() > pivotYear {
					t = t.AddDate(-100, 0, 0)
				}
				return t, true
			}
		}
	}

	return time.Time{}, false
}

// DayFirst decides the order of numeric dates in a column from its first
// unambiguous value: a leading part above 12 means day-first, a middle part
// above 12 means month-first. When every value is ambiguous the hint wins.
func DayFirst(values []any, hint bool) bool {
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		m := numericDateRegex.FindStringSubmatch(strings.TrimSpace(s))
		if m == nil {
			continue
		}
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		switch {
		case first > 12 && second <= 12:
			return true
		case second > 12 && first <= 12:
			return false
		}
	}
	return hint
}

// ToTime converts a cell to a date. Integers are read as yyyymmdd.
func ToTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		return ParseDate(x)
	case int64:
		return ParseDate(strconv.FormatInt(x, 10))
	default:
		return time.Time{}, false
	}
}

// DateOrNull converts a cell to time.Time, or nil when it cannot be parsed.
func DateOrNull(v any) any {
	if t, ok := ToTime(v); ok {
		return t
	}
	return nil
}

// ParseDates replaces col with parsed dates, nil where a cell cannot be
// parsed. The day/month order is chosen once for the whole column with
// DayFirst.
func (f *Frame) ParseDates(col string, dayFirstHint bool) {
	values := f.Column(col)
	if values == nil {
		return
	}
	dayFirst := DayFirst(values, dayFirstHint)
	f.Map(col, func(v any) any {
		if s, ok := v.(string); ok {
			if t, ok := ParseDateOrder(s, dayFirst); ok {
				return t
			}
			return nil
		}
		return DateOrNull(v)
	})
}

// InferColumn types a column of raw CSV text. Empty cells become nil.
// The column is int64 when every value is an integer, float64 when every
// value is numeric, and string otherwise.
func InferColumn(raw []string) []any {
	allInt, allNum := true, true
	for _, s := range raw {
		if strings.TrimSpace(s) == "" {
			continue
		}
		if _, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil {
			allInt = false
		}
		if _, ok := ParseNumber(s); !ok {
			allNum = false
			break
		}
	}

	out := make([]any, len(raw))
	for i, s := range raw {
		t := strings.TrimSpace(s)
		if t == "" {
			continue
		}
		switch {
		case allInt:
			n, _ := strconv.ParseInt(t, 10, 64)
			out[i] = n
		case allNum:
			f, _ := ParseNumber(t)
			out[i] = f
		default:
			out[i] = s
		}
	}
	return out
}

// KindOf returns the kind of a single cell.
func KindOf(v any) Kind {
	switch v.(type) {
	case int64, int:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case time.Time:
		return KindTime
	default:
		return KindNull
	}
}

// ColumnKind infers the kind of col across all rows. Ints mixed with floats
// widen to float; any other mix widens to string.
func (f *Frame) ColumnKind(col string) Kind {
	idx := f.Index(col)
	if idx < 0 {
		return KindNull
	}
	kind := KindNull
	for _, row := range f.Rows {
		kind = widen(kind, KindOf(row[idx]))
	}
	return kind
}

func widen(a, b Kind) Kind {
	switch {
	case a == b:
		return a
	case a == KindNull:
		return b
	case b == KindNull:
		return a
	case (a == KindInt && b == KindFloat) || (a == KindFloat && b == KindInt):
		return KindFloat
	default:
		return KindString
	}
}

// normalize folds integral floats into int64 so that 10 and 10.0 compare
// and hash equally. Strings are left untouched.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	default:
		return v
	}
}

// Compare orders two non-nil cells: numbers before dates before text,
// then by value within a kind.
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch ra {
	case 0:
		fa, _ := ToFloat(a)
		fb, _ := ToFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case 1:
		return a.(time.Time).Compare(b.(time.Time))
	case 2:
		return strings.Compare(a.(string), b.(string))
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case int64, int, float64:
		return 0
	case time.Time:
		return 1
	case string:
		return 2
	default:
		return 3
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
