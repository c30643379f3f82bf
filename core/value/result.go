package value

// Row is one result row: an ordered, fixed-length sequence of Values,
// one per column. Column identity is carried by the owning Result's
// column list at the same index.
type Row []Value

// ColumnCount returns the number of values in the row.
func (r Row) ColumnCount() int { return len(r) }

// IsNull reports whether column index i is null. Out-of-range indexes
// report true, matching absent data.
func (r Row) IsNull(i int) bool {
	return i < 0 || i >= len(r) || r[i].IsNull()
}

// Int returns the integer at index i. ok is false when the index is out
// of range or the cell holds a different kind.
func (r Row) Int(i int) (int64, bool) {
	if i < 0 || i >= len(r) {
		return 0, false
	}
	return r[i].AsInt()
}

// Float returns the real at index i.
func (r Row) Float(i int) (float64, bool) {
	if i < 0 || i >= len(r) {
		return 0, false
	}
	return r[i].AsFloat()
}

// Text returns the text at index i.
func (r Row) Text(i int) (string, bool) {
	if i < 0 || i >= len(r) {
		return "", false
	}
	return r[i].AsText()
}

// Blob returns the blob at index i.
func (r Row) Blob(i int) ([]byte, bool) {
	if i < 0 || i >= len(r) {
		return nil, false
	}
	return r[i].AsBlob()
}

// Result is a columnar query result: ordered column names plus rows, all
// rows sharing the column list's arity.
type Result struct {
	columns []string
	rows    []Row
}

// NewResult builds a Result from a column list and rows.
func NewResult(columns []string, rows []Row) *Result {
	return &Result{columns: columns, rows: rows}
}

// Empty reports whether the result has no rows.
func (r *Result) Empty() bool { return len(r.rows) == 0 }

// RowCount returns the number of rows.
func (r *Result) RowCount() int { return len(r.rows) }

// ColumnCount returns the number of columns in the projection.
func (r *Result) ColumnCount() int { return len(r.columns) }

// Columns returns the column names in projection order.
func (r *Result) Columns() []string { return r.columns }

// ColumnIndex returns the index of the named column, or -1 if absent.
func (r *Result) ColumnIndex(name string) int {
	for i, c := range r.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Row returns row i. It panics when i is out of range, mirroring slice
// indexing.
func (r *Result) Row(i int) Row { return r.rows[i] }

// Rows returns all rows in order.
func (r *Result) Rows() []Row { return r.rows }

// TimeSeries is a column-oriented series: a mapping from column name to
// an ordered sequence of Values. All columns of one series must share the
// same length; the invariant is enforced at insertion time, not here.
type TimeSeries map[string][]Value
