package tdsclient

import "github.com/joacominatel/tdskit/driver"

// Table is an ordered sequence of rows of text values. It never carries a
// header row; column names travel separately.
type Table [][]string

// ResultSet pairs the column names of one result set with its rows.
type ResultSet struct {
	Columns []string
	Rows    Table
}

// Binding maps one input column onto a server datatype. Bindings are
// positional: the n-th binding describes the n-th field of every row.
type Binding struct {
	Name string
	Type driver.TypeCode
}

// LogSelector is the set of bound column names whose values are echoed into
// the audit line of a bulk load.
type LogSelector map[string]struct{}

// NewLogSelector builds a selector from column names.
func NewLogSelector(names ...string) LogSelector {
	sel := make(LogSelector, len(names))
	for _, name := range names {
		sel[name] = struct{}{}
	}
	return sel
}

// Has reports whether name is selected.
func (s LogSelector) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// ResultSink receives delivered result sets.
type ResultSink func(columns []string, rows Table)
