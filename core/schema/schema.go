// Package schema reflects live table metadata from an embedded SQLite
// database: table enumeration by name prefix, column names and declared
// types, and declared foreign keys.
//
// Nothing here is cached. Every call issues a fresh metadata query, so a
// schema change between two calls is always observed. That trades repeated
// PRAGMA round-trips for correctness under schema evolution.
package schema

import (
	"strings"

	"github.com/psrenergy/psrdb/core/errors"
	"github.com/psrenergy/psrdb/core/value"
)

// Executor is the single operation the introspector needs from the
// database: run one parameterized statement and return its result.
type Executor interface {
	Execute(sql string, params []value.Value) (*value.Result, error)
}

// ForeignKey describes one declared foreign key on a table.
type ForeignKey struct {
	Column       string // source column on the owning table
	TargetTable  string // referenced table
	TargetColumn string // referenced column
}

// Introspector answers read-only metadata queries through an Executor.
type Introspector struct {
	exec Executor
}

// New returns an Introspector over exec.
func New(exec Executor) *Introspector {
	return &Introspector{exec: exec}
}

// QuoteIdentifier quotes a table or column name for interpolation into
// SQL text. SQLite identifiers cannot be bound as parameters, so PRAGMA
// and INSERT statements must splice them in; embedded quotes are doubled.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// TablesWithPrefix enumerates tables whose name starts with prefix, in
// sqlite_master order. A closed connection yields an empty list rather
// than an error, matching the behavior callers rely on when probing for
// optional backing tables.
func (in *Introspector) TablesWithPrefix(prefix string) ([]string, error) {
	res, err := in.exec.Execute(
		"SELECT name FROM sqlite_master WHERE type='table' AND name LIKE ?",
		[]value.Value{value.Text(prefix + "%")})
	if err != nil {
		if errors.Is(err, errors.ErrNotOpen) {
			return nil, nil
		}
		return nil, err
	}

	var tables []string
	for _, row := range res.Rows() {
		if name, ok := row.Text(0); ok {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

// Columns returns the table's column names in declaration order.
func (in *Introspector) Columns(table string) ([]string, error) {
	res, err := in.tableInfo(table)
	if err != nil || res == nil {
		return nil, err
	}

	var columns []string
	for _, row := range res.Rows() {
		// PRAGMA table_info: cid, name, type, notnull, dflt_value, pk
		if name, ok := row.Text(1); ok {
			columns = append(columns, name)
		}
	}
	return columns, nil
}

// ColumnType returns the column's declared type, or "" when the column is
// unknown or carries no declared type. Callers treat "" as "skip
// validation and let the engine decide".
func (in *Introspector) ColumnType(table, column string) (string, error) {
	res, err := in.tableInfo(table)
	if err != nil || res == nil {
		return "", err
	}

	for _, row := range res.Rows() {
		name, ok := row.Text(1)
		if !ok || name != column {
			continue
		}
		declared, _ := row.Text(2)
		return declared, nil
	}
	return "", nil
}

// ForeignKeys returns the table's declared foreign keys. Malformed
// metadata rows with an empty source column are dropped.
func (in *Introspector) ForeignKeys(table string) ([]ForeignKey, error) {
	res, err := in.exec.Execute("PRAGMA foreign_key_list("+QuoteIdentifier(table)+")", nil)
	if err != nil {
		if errors.Is(err, errors.ErrNotOpen) {
			return nil, nil
		}
		return nil, err
	}

	var fks []ForeignKey
	for _, row := range res.Rows() {
		// PRAGMA foreign_key_list: id, seq, table, from, to, ...
		var fk ForeignKey
		fk.TargetTable, _ = row.Text(2)
		fk.Column, _ = row.Text(3)
		fk.TargetColumn, _ = row.Text(4)
		if fk.Column != "" {
			fks = append(fks, fk)
		}
	}
	return fks, nil
}

func (in *Introspector) tableInfo(table string) (*value.Result, error) {
	res, err := in.exec.Execute("PRAGMA table_info("+QuoteIdentifier(table)+")", nil)
	if err != nil {
		if errors.Is(err, errors.ErrNotOpen) {
			return nil, nil
		}
		return nil, err
	}
	return res, nil
}
