package frame

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLeftJoin(t *testing.T) {
	sales := New("vendas", "id_venda", "id_empregado", "valor_total")
	sales.Append(int64(1), int64(1), 10.0)
	sales.Append(int64(2), int64(2), 5.0)
	sales.Append(int64(3), nil, 1.0)
	sales.Append(int64(4), 1.0, 2.0)

	emp := New("empregados", "id_empregado", "nome_emp", "valor_total")
	emp.Append(int64(1), "Ana", "x")

	got, err := LeftJoin(sales, emp, "id_empregado", "_emp")
	if err != nil {
		t.Fatalf("LeftJoin() error = %v", err)
	}

	wantCols := []string{"id_venda", "id_empregado", "valor_total", "nome_emp", "valor_total_emp"}
	if diff := cmp.Diff(wantCols, got.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	wantRows := [][]any{
		{int64(1), int64(1), 10.0, "Ana", "x"},
		{int64(2), int64(2), 5.0, nil, nil},
		{int64(3), nil, 1.0, nil, nil},
		{int64(4), 1.0, 2.0, "Ana", "x"},
	}
	if diff := cmp.Diff(wantRows, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestLeftJoin_RepeatsOnMultipleMatches(t *testing.T) {
	left := New("l", "k")
	left.Append("a")
	right := New("r", "k", "v")
	right.Append("a", int64(1))
	right.Append("a", int64(2))
	right.Append(nil, int64(3))

	got, err := LeftJoin(left, right, "k", "_r")
	if err != nil {
		t.Fatalf("LeftJoin() error = %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", got.Len())
	}
	if got.Value(1, "v") != int64(2) {
		t.Errorf("second match v = %v, want 2", got.Value(1, "v"))
	}
}

func TestLeftJoin_MissingKey(t *testing.T) {
	left := New("l", "k")
	right := New("r", "other")
	if _, err := LeftJoin(left, right, "k", "_r"); err == nil {
		t.Error("LeftJoin() expected error for missing right key")
	}
	if _, err := LeftJoin(right, left, "k", "_r"); err == nil {
		t.Error("LeftJoin() expected error for missing left key")
	}
}
