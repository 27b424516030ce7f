package features

import (
	"math"

	"estimator/pkg/errors"
)

// Unknown is the sentinel for a missing numeric value. Zero is a valid value and never means missing.
var Unknown = math.NaN()

// Schema is the ordered column list a model expects, with display labels and the
// encoder table bound to each categorical column
type Schema struct {
	names   []string
	index   map[string]int
	display map[string]string
	tables  map[string]*Table
}

// NewSchema rejects duplicate columns and bindings to columns outside the schema
func NewSchema(names []string, display map[string]string, tables map[string]*Table) (Schema, error) {
	index := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := index[n]; dup {
			return Schema{}, errors.Newf("duplicate feature %q", n)
		}
		index[n] = i
	}
	for col := range display {
		if _, ok := index[col]; !ok {
			return Schema{}, errors.Newf("display name for unknown feature %q", col)
		}
	}
	for col := range tables {
		if _, ok := index[col]; !ok {
			return Schema{}, errors.Newf("encoder bound to unknown feature %q", col)
		}
	}

	return Schema{names: names, index: index, display: display, tables: tables}, nil
}

// Len returns the number of columns
func (s Schema) Len() int {
	return len(s.names)
}

// Names returns the columns in order
func (s Schema) Names() []string {
	return s.names
}

// Index returns the position of a column
func (s Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Label returns the display name of column i
func (s Schema) Label(i int) string {
	if l, ok := s.display[s.names[i]]; ok {
		return l
	}
	return s.names[i]
}

// Table returns the encoder bound to a column
func (s Schema) Table(column string) (*Table, error) {
	t, ok := s.tables[column]
	if !ok {
		return nil, errors.Wrapf(errors.ErrSchemaMismatch, "no encoder bound to %q", column)
	}
	return t, nil
}

// Require checks the schema holds exactly these columns, in any order
func (s Schema) Require(columns ...string) error {
	for _, c := range columns {
		if _, ok := s.index[c]; !ok {
			return errors.Wrapf(errors.ErrSchemaMismatch, "schema has no column %q", c)
		}
	}
	if len(columns) != len(s.names) {
		return errors.Wrapf(errors.ErrSchemaMismatch, "schema has %d columns, encoder fills %d", len(s.names), len(columns))
	}
	return nil
}

// Row projects named values onto the schema. Every column needs a value and every value needs a column.
func (s Schema) Row(values map[string]float64) ([]float64, error) {
	if len(values) != len(s.names) {
		for name := range values {
			if _, ok := s.index[name]; !ok {
				return nil, errors.Wrapf(errors.ErrSchemaMismatch, "value %q has no column", name)
			}
		}
	}

	row := make([]float64, len(s.names))
	for i, name := range s.names {
		v, ok := values[name]
		if !ok {
			return nil, errors.Wrapf(errors.ErrSchemaMismatch, "column %q has no value", name)
		}
		row[i] = v
	}
	return row, nil
}
