package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Kind enumerates the value types a Table column can hold.
type Kind string

const (
	KindFloat  Kind = "float"
	KindString Kind = "string"
	KindTime   Kind = "time"
)

// Column describes one column of a Table.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Value is one cell of a Table. Only the field matching the column kind is set.
type Value struct {
	F float64
	S string
	T time.Time
}

// Float builds a float cell.
func Float(f float64) Value { return Value{F: f} }

// Str builds a string cell.
func Str(s string) Value { return Value{S: s} }

// Time builds a time cell.
func Time(t time.Time) Value { return Value{T: t} }

// Table is an ordered sequence of uniform rows, the universal data-interchange
// unit between adapters and the metrics engine. Rows are positional and aligned
// with Cols.
type Table struct {
	Cols []Column
	Rows [][]Value
}

// NewTable creates an empty table with the given schema.
func NewTable(cols ...Column) Table {
	return Table{Cols: cols}
}

// EmptyTable is an alias kept for call sites that want to make the
// "explicitly empty but correctly schemaed" intent obvious.
func EmptyTable(cols ...Column) Table { return NewTable(cols...) }

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Col returns the index of the named column.
func (t Table) Col(name string) (int, bool) {
	for i, c := range t.Cols {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// HasCols reports whether every named column is present.
func (t Table) HasCols(names ...string) bool {
	for _, n := range names {
		if _, ok := t.Col(n); !ok {
			return false
		}
	}
	return true
}

// Append adds one row. The number of values must match the schema.
func (t *Table) Append(vals ...Value) error {
	if len(vals) != len(t.Cols) {
		return fmt.Errorf("table append: got %d values for %d columns", len(vals), len(t.Cols))
	}
	t.Rows = append(t.Rows, vals)
	return nil
}

// FloatAt returns the float value at (row, column name).
func (t Table) FloatAt(row int, col string) (float64, bool) {
	i, ok := t.Col(col)
	if !ok || row < 0 || row >= len(t.Rows) {
		return 0, false
	}
	return t.Rows[row][i].F, true
}

// StrAt returns the string value at (row, column name).
func (t Table) StrAt(row int, col string) (string, bool) {
	i, ok := t.Col(col)
	if !ok || row < 0 || row >= len(t.Rows) {
		return "", false
	}
	return t.Rows[row][i].S, true
}

// TimeAt returns the time value at (row, column name).
func (t Table) TimeAt(row int, col string) (time.Time, bool) {
	i, ok := t.Col(col)
	if !ok || row < 0 || row >= len(t.Rows) {
		return time.Time{}, false
	}
	return t.Rows[row][i].T, true
}

// LastFloat returns the float value of the last row for a column.
func (t Table) LastFloat(col string) (float64, bool) {
	return t.FloatAt(t.Len()-1, col)
}

// MaxTime returns the maximum value of a time column.
func (t Table) MaxTime(col string) (time.Time, bool) {
	i, ok := t.Col(col)
	if !ok || t.Empty() {
		return time.Time{}, false
	}
	max := t.Rows[0][i].T
	for _, r := range t.Rows[1:] {
		if r[i].T.After(max) {
			max = r[i].T
		}
	}
	return max, true
}

// SortByFloatDesc returns a copy sorted descending by a float column.
// Sorting is stable so ties keep their input order.
func (t Table) SortByFloatDesc(col string) Table {
	i, ok := t.Col(col)
	if !ok {
		return t
	}
	out := Table{Cols: t.Cols, Rows: make([][]Value, len(t.Rows))}
	copy(out.Rows, t.Rows)
	sort.SliceStable(out.Rows, func(a, b int) bool {
		return out.Rows[a][i].F > out.Rows[b][i].F
	})
	return out
}

// Head returns a copy limited to the first n rows.
func (t Table) Head(n int) Table {
	if n >= t.Len() {
		return t
	}
	return Table{Cols: t.Cols, Rows: t.Rows[:n]}
}

// MergeByTime merges extension rows into a base table keyed by a time column.
// Extension rows win on duplicate keys; the result is sorted ascending by key.
// Both tables must share the base schema.
func MergeByTime(base, ext Table, col string) Table {
	if _, ok := base.Col(col); !ok {
		return base
	}
	byKey := make(map[int64][]Value, base.Len()+ext.Len())
	order := make([]int64, 0, base.Len()+ext.Len())
	add := func(t Table) {
		i, ok := t.Col(col)
		if !ok {
			return
		}
		for _, r := range t.Rows {
			k := r[i].T.Unix()
			if _, seen := byKey[k]; !seen {
				order = append(order, k)
			}
			byKey[k] = r
		}
	}
	add(base)
	add(ext)
	sort.Slice(order, func(a, b int) bool { return order[a] < order[b] })

	out := Table{Cols: base.Cols, Rows: make([][]Value, 0, len(order))}
	for _, k := range order {
		out.Rows = append(out.Rows, byKey[k])
	}
	return out
}

// --- serialization ---

type tableJSON struct {
	Cols []Column          `json:"cols"`
	Rows [][]json.RawMessage `json:"rows"`
}

// MarshalJSON encodes the table so that schema and values round-trip exactly.
// Times are encoded as RFC3339Nano strings.
func (t Table) MarshalJSON() ([]byte, error) {
	enc := tableJSON{Cols: t.Cols, Rows: make([][]json.RawMessage, 0, len(t.Rows))}
	for _, row := range t.Rows {
		cells := make([]json.RawMessage, len(row))
		for i, v := range row {
			var (
				b   []byte
				err error
			)
			switch t.Cols[i].Kind {
			case KindFloat:
				b, err = json.Marshal(v.F)
			case KindString:
				b, err = json.Marshal(v.S)
			case KindTime:
				b, err = json.Marshal(v.T.Format(time.RFC3339Nano))
			default:
				err = fmt.Errorf("table marshal: unknown kind %q", t.Cols[i].Kind)
			}
			if err != nil {
				return nil, err
			}
			cells[i] = b
		}
		enc.Rows = append(enc.Rows, cells)
	}
	return json.Marshal(enc)
}

// UnmarshalJSON decodes a table encoded by MarshalJSON.
func (t *Table) UnmarshalJSON(data []byte) error {
	var dec tableJSON
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}
	out := Table{Cols: dec.Cols}
	for _, cells := range dec.Rows {
		if len(cells) != len(dec.Cols) {
			return fmt.Errorf("table unmarshal: row width %d != %d columns", len(cells), len(dec.Cols))
		}
		row := make([]Value, len(cells))
		for i, raw := range cells {
			switch dec.Cols[i].Kind {
			case KindFloat:
				if err := json.Unmarshal(raw, &row[i].F); err != nil {
					return fmt.Errorf("table unmarshal %s: %w", dec.Cols[i].Name, err)
				}
			case KindString:
				if err := json.Unmarshal(raw, &row[i].S); err != nil {
					return fmt.Errorf("table unmarshal %s: %w", dec.Cols[i].Name, err)
				}
			case KindTime:
				var s string
				if err := json.Unmarshal(raw, &s); err != nil {
					return fmt.Errorf("table unmarshal %s: %w", dec.Cols[i].Name, err)
				}
				tv, err := time.Parse(time.RFC3339Nano, s)
				if err != nil {
					return fmt.Errorf("table unmarshal %s: %w", dec.Cols[i].Name, err)
				}
				row[i].T = tv
			default:
				return fmt.Errorf("table unmarshal: unknown kind %q", dec.Cols[i].Kind)
			}
		}
		out.Rows = append(out.Rows, row)
	}
	*t = out
	return nil
}
