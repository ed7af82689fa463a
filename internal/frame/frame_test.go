package frame

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func sample() *Frame {
	f := New("vendas", " id_venda", "valor_total ")
	f.Append(int64(1), 10.0)
	f.Append(int64(2), 0.0)
	f.Append(int64(1), 10.0)
	f.Append(int64(3), nil)
	return f
}

func TestTrimColumns(t *testing.T) {
	f := sample().TrimColumns()
	want := []string{"id_venda", "valor_total"}
	if diff := cmp.Diff(want, f.Columns); diff != "" {
		t.Errorf("TrimColumns() mismatch (-want +got):\n%s", diff)
	}
}

func TestDropDuplicates(t *testing.T) {
	f := sample().DropDuplicates()
	want := [][]any{
		{int64(1), 10.0},
		{int64(2), 0.0},
		{int64(3), nil},
	}
	if diff := cmp.Diff(want, f.Rows); diff != "" {
		t.Errorf("DropDuplicates() mismatch (-want +got):\n%s", diff)
	}
}

func TestDropDuplicates_IntegralFloatEqualsInt(t *testing.T) {
	f := New("t", "a")
	f.Append(int64(10))
	f.Append(10.0)
	if got := f.DropDuplicates().Len(); got != 1 {
		t.Errorf("DropDuplicates().Len() = %d, want 1", got)
	}
	if got := f.Duplicates(); got != 1 {
		t.Errorf("Duplicates() = %d, want 1", got)
	}
}

func TestCopy_IsIndependent(t *testing.T) {
	f := sample()
	c := f.Copy()
	c.Rows[0][1] = 99.0
	c.Columns[0] = "changed"
	if f.Rows[0][1] != 10.0 {
		t.Errorf("original row changed: %v", f.Rows[0][1])
	}
	if f.Columns[0] != " id_venda" {
		t.Errorf("original column changed: %q", f.Columns[0])
	}
}

func TestSet_AddsAndReplaces(t *testing.T) {
	f := sample().TrimColumns()
	f.Set("flag", []any{"a", "b", "c", "d"})
	if !f.Has("flag") || f.Value(2, "flag") != "c" {
		t.Fatalf("Set() did not add column: %v", f.Columns)
	}
	f.Set("valor_total", []any{1.0, 2.0, 3.0, 4.0})
	if f.Value(3, "valor_total") != 4.0 {
		t.Errorf("Set() did not replace values")
	}
	if len(f.Columns) != 3 {
		t.Errorf("len(Columns) = %d, want 3", len(f.Columns))
	}
}

func TestSelectAndHead(t *testing.T) {
	f := sample().TrimColumns()
	s, err := f.Select("valor_total")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if diff := cmp.Diff([]string{"valor_total"}, s.Columns); diff != "" {
		t.Errorf("Select() columns mismatch:\n%s", diff)
	}
	if _, err := f.Select("missing"); err == nil {
		t.Error("Select() expected error for missing column")
	}
	if got := f.Head(2).Len(); got != 2 {
		t.Errorf("Head(2).Len() = %d, want 2", got)
	}
	if got := f.Head(10).Len(); got != 4 {
		t.Errorf("Head(10).Len() = %d, want 4", got)
	}
}

func TestSortStable(t *testing.T) {
	f := New("t", "name", "v")
	f.Append("a", 5.0)
	f.Append("b", nil)
	f.Append("c", 7.0)
	f.Append("d", 5.0)

	f.SortStable("v", true)
	var got []any
	for _, r := range f.Rows {
		got = append(got, r[0])
	}
	want := []any{"c", "a", "d", "b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SortStable(desc) mismatch (-want +got):\n%s", diff)
	}
}

func TestNilFrame(t *testing.T) {
	var f *Frame
	if f.Len() != 0 || !f.Empty() || f.Has("x") {
		t.Error("nil frame should be empty and have no columns")
	}
	if f.Copy() != nil || f.Head(3) != nil {
		t.Error("nil frame copies should be nil")
	}
}

func TestNulls(t *testing.T) {
	f := sample().TrimColumns()
	if got := f.Nulls("valor_total"); got != 1 {
		t.Errorf("Nulls() = %d, want 1", got)
	}
	if got := f.Nulls("missing"); got != 0 {
		t.Errorf("Nulls(missing) = %d, want 0", got)
	}
}

func TestColumnKind(t *testing.T) {
	f := New("t", "i", "f", "mixed", "s", "d", "none")
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	f.Append(int64(1), 1.5, int64(1), "x", d, nil)
	f.Append(nil, int64(2), "y", "z", nil, nil)

	tests := map[string]Kind{
		"i":     KindInt,
		"f":     KindFloat,
		"mixed": KindString,
		"s":     KindString,
		"d":     KindTime,
		"none":  KindNull,
		"nope":  KindNull,
	}
	for col, want := range tests {
		if got := f.ColumnKind(col); got != want {
			t.Errorf("ColumnKind(%q) = %v, want %v", col, got, want)
		}
	}
}
