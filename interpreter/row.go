package interpreter

import (
	"bytes"
	"encoding/json"
)

// Row is an ordered mapping from column name to value. Values are string,
// []string or nil. Column order follows first assignment, so serialised
// output is stable across runs.
type Row struct {
	columns []string
	values  map[string]interface{}
}

// NewRow creates an empty row
func NewRow() *Row {
	return &Row{
		columns: []string{},
		values:  map[string]interface{}{},
	}
}

// Set assigns a value to a column, appending the column on first assignment
func (r *Row) Set(column string, value interface{}) {
	if _, exists := r.values[column]; !exists {
		r.columns = append(r.columns, column)
	}
	r.values[column] = value
}

// Get returns the value of a column and whether it is set
func (r *Row) Get(column string) (interface{}, bool) {
	value, ok := r.values[column]
	return value, ok
}

// Columns returns the column names in assignment order
func (r *Row) Columns() []string {
	columns := make([]string, len(r.columns))
	copy(columns, r.columns)
	return columns
}

// Len returns the number of columns
func (r *Row) Len() int {
	return len(r.columns)
}

// Clone returns a deep copy. Mutating the original afterwards never alters
// the copy, including list values.
func (r *Row) Clone() *Row {
	clone := &Row{
		columns: make([]string, len(r.columns)),
		values:  make(map[string]interface{}, len(r.values)),
	}
	copy(clone.columns, r.columns)

	for column, value := range r.values {
		if list, ok := value.([]string); ok {
			copied := make([]string, len(list))
			copy(copied, list)
			clone.values[column] = copied
			continue
		}
		clone.values[column] = value
	}

	return clone
}

// Map returns the row as a plain map (column order is lost)
func (r *Row) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(r.values))
	for column, value := range r.values {
		out[column] = value
	}
	return out
}

// MarshalJSON renders the row as a JSON object in column order
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, column := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(column)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		value, err := json.Marshal(r.values[column])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
