package database

import (
	"fmt"
	"strconv"
	"time"
)

// Row is one result row: column names in select order and the values the
// driver produced for them.
type Row struct {
	cols []string
	vals []any
}

// NewRow builds a row from parallel column and value slices.
func NewRow(cols []string, vals []any) Row {
	return Row{cols: cols, vals: vals}
}

// Columns returns the column names in select order.
func (r Row) Columns() []string { return r.cols }

// Len is the number of fields.
func (r Row) Len() int { return len(r.cols) }

// Get returns the raw driver value of the named column.
func (r Row) Get(name string) (any, bool) {
	for i, c := range r.cols {
		if c == name {
			return r.vals[i], true
		}
	}
	return nil, false
}

// Map copies the row into a column keyed map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.cols))
	for i, c := range r.cols {
		m[c] = r.vals[i]
	}
	return m
}

// String returns the column as text; NULL and missing columns give "".
func (r Row) String(name string) string {
	v, _ := r.Get(name)
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// Int64 returns the column as an integer; NULL, missing and unparsable
// values give 0.
func (r Row) Int64(name string) int64 {
	v, _ := r.Get(name)
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case uint64:
		return int64(t)
	case float64:
		return int64(t)
	case []byte:
		n, _ := strconv.ParseInt(string(t), 10, 64)
		return n
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

// Uint64 is Int64 for identifier columns.
func (r Row) Uint64(name string) uint64 {
	n := r.Int64(name)
	if n < 0 {
		return 0
	}
	return uint64(n)
}

// Float64 returns the column as a float; NULL gives 0.
func (r Row) Float64(name string) float64 {
	if f := r.NullFloat64(name); f != nil {
		return *f
	}
	return 0
}

// NullFloat64 returns nil for NULL or missing columns.
func (r Row) NullFloat64(name string) *float64 {
	v, _ := r.Get(name)
	var f float64
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int64:
		f = float64(t)
	case int:
		f = float64(t)
	case []byte:
		p, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return nil
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil
		}
		f = p
	default:
		return nil
	}
	return &f
}
