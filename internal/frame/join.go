package frame

import "fmt"

// LeftJoin keeps every row of left and appends the columns of right for
// each right row whose key equals the left key. A left row matching several
// right rows is repeated once per match; a row with no match, or with a
// null key, gets nulls for the right-hand columns.
//
// The right key column is not repeated. Other right columns whose name is
// already used on the left get suffix appended.
func LeftJoin(left, right *Frame, key, suffix string) (*Frame, error) {
	lk := left.Index(key)
	if lk < 0 {
		return nil, fmt.Errorf("left join: column %q not found in %s", key, left.Name)
	}
	rk := right.Index(key)
	if rk < 0 {
		return nil, fmt.Errorf("left join: column %q not found in %s", key, right.Name)
	}

	taken := make(map[string]bool, len(left.Columns))
	for _, c := range left.Columns {
		taken[c] = true
	}
	cols := append([]string(nil), left.Columns...)
	var rightIdx []int
	for i, c := range right.Columns {
		if i == rk {
			continue
		}
		name := c
		if taken[name] {
			name += suffix
		}
		cols = append(cols, name)
		rightIdx = append(rightIdx, i)
	}

	matches := make(map[string][]int, len(right.Rows))
	for i, row := range right.Rows {
		if row[rk] == nil {
			continue
		}
		k := cellKey(row[rk])
		matches[k] = append(matches[k], i)
	}

	out := New(left.Name, cols...)
	for _, row := range left.Rows {
		var hits []int
		if row[lk] != nil {
			hits = matches[cellKey(row[lk])]
		}
		if len(hits) == 0 {
			r := make([]any, len(cols))
			copy(r, row)
			out.Rows = append(out.Rows, r)
			continue
		}
		for _, h := range hits {
			r := make([]any, 0, len(cols))
			r = append(r, row...)
			for _, j := range rightIdx {
				r = append(r, right.Rows[h][j])
			}
			out.Rows = append(out.Rows, r)
		}
	}
	return out, nil
}
