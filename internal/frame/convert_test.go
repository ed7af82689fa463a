package frame

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"10", 10, true},
		{" 2.5 ", 2.5, true},
		{"-3", -3, true},
		{".5", 0.5, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"1,5", 0, false},
		{"R$ 10", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseNumber(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{int64(3), 3, true},
		{4.25, 4.25, true},
		{"7", 7, true},
		{"x", 0, false},
		{nil, 0, false},
		{time.Now(), 0, false},
	}
	for _, tt := range tests {
		got, ok := ToFloat(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ToFloat(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"2024-03-15 10:30:00", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"3/15/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"20240315", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"3/15/24", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"15/01/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"31/12/2024", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"31.12.2024", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"25-03-2024", time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC), true},
		{"31/12/24", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"01.02.2024", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"31/31/2024", time.Time{}, false},
		{"not a date", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if ok != tt.wantOK || !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseDateOrder(t *testing.T) {
	tests := []struct {
		in       string
		dayFirst bool
		want     time.Time
	}{
		{"01.02.2024", true, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"01/02/2024", true, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"01/02/2024", false, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"3/15/2024", true, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-03-05", true, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"05/03/24", true, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, ok := ParseDateOrder(tt.in, tt.dayFirst)
		if !ok || !got.Equal(tt.want) {
			t.Errorf("ParseDateOrder(%q, %v) = (%v, %v), want %v", tt.in, tt.dayFirst, got, ok, tt.want)
		}
	}
}

func TestDayFirst(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		hint   bool
		want   bool
	}{
		{"day over twelve", []any{"01/02/2024", "15/01/2024"}, false, true},
		{"month-first value", []any{nil, "01/02/2024", "03/15/2024"}, true, false},
		{"ambiguous uses hint", []any{"01.02.2024", "03.04.2024"}, true, true},
		{"ambiguous default", []any{"01.02.2024"}, false, false},
		{"iso ignored", []any{"2024-01-15", int64(5)}, true, true},
		{"first decisive value wins", []any{"25-03-2024", "03/25/2024"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayFirst(tt.values, tt.hint); got != tt.want {
				t.Errorf("DayFirst() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrame_ParseDates(t *testing.T) {
	f := New("vendas", "id_venda", "data")
	f.Append(int64(1), "01.02.2024")
	f.Append(int64(2), "15.01.2024")
	f.Append(int64(3), "garbage")
	f.Append(int64(4), nil)

	f.ParseDates("data", false)

	want := []any{
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		nil,
		nil,
	}
	if diff := cmp.Diff(want, f.Column("data")); diff != "" {
		t.Errorf("ParseDates() mismatch (-want +got):\n%s", diff)
	}

	f.ParseDates("missing", true)
	if len(f.Columns) != 2 {
		t.Errorf("ParseDates on a missing column added it: %v", f.Columns)
	}
}

func TestDateOrNull(t *testing.T) {
	if got := DateOrNull("garbage"); got != nil {
		t.Errorf("DateOrNull(garbage) = %v, want nil", got)
	}
	if got := DateOrNull(nil); got != nil {
		t.Errorf("DateOrNull(nil) = %v, want nil", got)
	}
	want := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	if got, ok := DateOrNull("2023-12-01").(time.Time); !ok || !got.Equal(want) {
		t.Errorf("DateOrNull(2023-12-01) = %v, want %v", got, want)
	}
}

func TestInferColumn(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []any
	}{
		{"ints", []string{"1", "", "3"}, []any{int64(1), nil, int64(3)}},
		{"floats", []string{"1", "2.5"}, []any{1.0, 2.5}},
		{"text", []string{"1", "Ana"}, []any{"1", "Ana"}},
		{"empty", []string{"", " "}, []any{nil, nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, InferColumn(tt.in)); diff != "" {
				t.Errorf("InferColumn() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 1, 0)
	tests := []struct {
		a, b any
		want int
	}{
		{int64(1), 2.0, -1},
		{3.0, int64(3), 0},
		{"b", "a", 1},
		{d1, d2, -1},
		{int64(100), "a", -1},
		{"a", d1, 1},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
