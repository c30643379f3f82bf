// Package element implements schema-driven element creation on top of a
// plain statement executor.
//
// An element is one logical record in a collection: a row of scalar
// attributes in the collection's own table, plus any number of vector,
// set, and time-series attributes stored in auxiliary tables discovered
// by naming convention:
//
//	<collection>_vector_<group>      id, vector_index, one column per attribute
//	<collection>_set_<group>         id, one column per attribute (unordered)
//	<collection>_time_series_<group> id, one column per series field
//
// The engine reflects the live schema on every call (tables, declared
// column types, foreign keys), validates scalar values against declared
// types, resolves foreign-key labels to numeric ids, and explodes array
// attributes into one row per index. It never caches metadata, so schema
// changes between calls are always observed.
package element

import (
	"log/slog"
	"strings"

	"github.com/psrenergy/psrdb/core/errors"
	"github.com/psrenergy/psrdb/core/schema"
	"github.com/psrenergy/psrdb/core/value"
)

// Field is one (column, value) pair of an element. Column names are
// unique per call by contract.
type Field struct {
	Name  string
	Value value.Value
}

// Executor is the contract the engine consumes from its database: run one
// parameterized statement, report the rowid of the last insert on this
// connection, and report whether the connection is usable.
type Executor interface {
	Execute(sql string, params []value.Value) (*value.Result, error)
	LastInsertID() (int64, error)
	IsOpen() bool
}

// Engine performs element creation and label lookups against one
// Executor. It holds no state besides its collaborators and is as
// single-threaded as the connection beneath it.
type Engine struct {
	exec   Executor
	schema *schema.Introspector
	logger *slog.Logger
}

// New returns an Engine over exec. logger may be nil.
func New(exec Executor, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		exec:   exec,
		schema: schema.New(exec),
		logger: logger,
	}
}

// CreateElement inserts one element into the collection named by table:
// a scalar row (column order follows the input order), then the exploded
// vector and set attributes, then the time-series attributes, all keyed
// by the scalar row's generated id, which is returned.
//
// The call is not wrapped in a transaction. A failure in the vector or
// time-series phase leaves the scalar row committed unless the caller
// opened a transaction around the call; callers needing atomicity must
// bracket the call with BeginTransaction/Commit themselves.
func (e *Engine) CreateElement(table string, fields []Field, series map[string]value.TimeSeries) (int64, error) {
	if !e.exec.IsOpen() {
		return 0, errors.ErrNotOpen
	}
	if table == "" {
		return 0, errors.Wrap(errors.ErrInvalidArgument, "table name cannot be empty")
	}
	if len(fields) == 0 {
		return 0, errors.Wrap(errors.ErrInvalidArgument, "fields cannot be empty")
	}

	scalars, vectors := partitionFields(fields)
	if len(scalars) == 0 {
		return 0, errors.Wrap(errors.ErrInvalidArgument, "at least one scalar field is required")
	}

	// Validate before resolving so a label headed for a foreign-key
	// column is never rejected by the scalar type rules.
	resolved := make([]Field, 0, len(scalars))
	for _, f := range scalars {
		if err := e.validateScalar(table, f); err != nil {
			return 0, err
		}
		v, err := e.resolveScalar(table, f.Name, f.Value)
		if err != nil {
			return 0, err
		}
		resolved = append(resolved, Field{Name: f.Name, Value: v})
	}

	var sql strings.Builder
	var placeholders strings.Builder
	params := make([]value.Value, 0, len(resolved))

	sql.WriteString("INSERT INTO " + schema.QuoteIdentifier(table) + " (")
	for i, f := range resolved {
		if i > 0 {
			sql.WriteString(", ")
			placeholders.WriteString(", ")
		}
		sql.WriteString(schema.QuoteIdentifier(f.Name))
		placeholders.WriteString("?")
		params = append(params, f.Value)
	}
	sql.WriteString(") VALUES (" + placeholders.String() + ")")

	e.logger.Debug("create element", "table", table, "sql", sql.String())

	if _, err := e.exec.Execute(sql.String(), params); err != nil {
		return 0, err
	}

	id, err := e.exec.LastInsertID()
	if err != nil {
		return 0, err
	}

	if err := e.insertVectors(table, id, vectors); err != nil {
		return 0, err
	}
	if err := e.insertTimeSeries(table, id, series); err != nil {
		return 0, err
	}

	return id, nil
}

// GetElementID looks up the id of the element whose label column equals
// label in the given collection.
func (e *Engine) GetElementID(collection, label string) (int64, error) {
	if !e.exec.IsOpen() {
		return 0, errors.ErrNotOpen
	}

	res, err := e.exec.Execute(
		"SELECT id FROM "+schema.QuoteIdentifier(collection)+" WHERE label = ?",
		[]value.Value{value.Text(label)})
	if err != nil {
		return 0, err
	}
	if res.Empty() {
		return 0, errors.NewNotFound("element", label+" in "+collection)
	}

	id, ok := res.Row(0).Int(0)
	if !ok {
		return 0, errors.Wrapf(errors.ErrNotFound, "element %q in %q has no integer id", label, collection)
	}
	return id, nil
}
