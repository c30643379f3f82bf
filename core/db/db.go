// Package db provides the database handle: open/close lifecycle,
// parameterized statement execution returning typed results, explicit
// transactions, and the element-creation entry points.
//
// A Database wraps one logical SQLite connection. The model is strictly
// sequential: every call is a blocking round-trip on the calling
// goroutine, and concurrent use of one Database must be serialized by the
// caller. The pool underneath is pinned to a single connection so that
// last_insert_rowid and explicit BEGIN/COMMIT keep their per-connection
// meaning.
package db

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/psrenergy/psrdb/core/element"
	"github.com/psrenergy/psrdb/core/errors"
	"github.com/psrenergy/psrdb/core/sqlite"
	"github.com/psrenergy/psrdb/core/value"
	"github.com/psrenergy/psrdb/internal/logging"
)

// Field is one (column, value) pair passed to CreateElement.
type Field = element.Field

// Option configures Open and FromSchema.
type Option func(*options)

type options struct {
	consoleLevel  logging.Level
	consoleFormat logging.Format
	logger        *slog.Logger
	readOnly      bool
}

// WithConsoleLevel sets the console log level for the database's logger.
// The file sink always logs at debug. Default is info.
func WithConsoleLevel(level logging.Level) Option {
	return func(o *options) { o.consoleLevel = level }
}

// WithConsoleFormat sets the console log format for the database's
// logger. The file sink is always text. Default is text.
func WithConsoleFormat(format logging.Format) Option {
	return func(o *options) { o.consoleFormat = format }
}

// WithLogger injects a logger, replacing the default console+file pair.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// ReadOnly opens the database rejecting all writes. The file must exist.
func ReadOnly() Option {
	return func(o *options) { o.readOnly = true }
}

// Database is a handle to one open SQLite database.
type Database struct {
	sqldb      *sql.DB
	path       string
	schemaPath string
	logger     *slog.Logger
	engine     *element.Engine
}

// Open opens (creating if needed) the SQLite database at path and enables
// foreign-key enforcement. Use ":memory:" for a transient database.
func Open(path string, opts ...Option) (*Database, error) {
	o := options{consoleLevel: logging.LevelInfo}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logging.ForDatabase(path, o.consoleLevel, o.consoleFormat)
	}
	logger.Debug("opening database", "path", path)

	open := sqlite.Open
	if o.readOnly {
		open = sqlite.OpenReadOnly
	}
	sqldb, err := open(path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return nil, errors.Wrapf(err, "failed to open database %q", path)
	}

	// One connection only: transactions and last_insert_rowid are
	// per-connection state, and the contract is a single sequential writer.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(0)

	if err := sqldb.Ping(); err != nil {
		sqldb.Close()
		logger.Error("failed to open database", "error", err)
		return nil, errors.Wrapf(err, "failed to open database %q", path)
	}
	if _, err := sqldb.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqldb.Close()
		return nil, errors.Wrap(err, "failed to enable foreign keys")
	}

	d := &Database{sqldb: sqldb, path: path, logger: logger}
	d.engine = element.New(d, logger)
	logger.Debug("database opened, foreign keys enabled")
	return d, nil
}

// IsOpen reports whether the database is usable.
func (d *Database) IsOpen() bool {
	return d != nil && d.sqldb != nil
}

// Close releases the underlying connection. Closing a closed database is
// a no-op.
func (d *Database) Close() error {
	if !d.IsOpen() {
		return nil
	}
	err := d.sqldb.Close()
	d.sqldb = nil
	return err
}

// Path returns the path the database was opened with.
func (d *Database) Path() string { return d.path }

// SchemaPath returns the migration directory, when opened via FromSchema.
func (d *Database) SchemaPath() string { return d.schemaPath }

// Logger returns the database's logger.
func (d *Database) Logger() *slog.Logger { return d.logger }

// Execute runs one SQL statement with positional parameters and returns
// its result set (empty for statements that produce no rows). Array
// Values are never bindable; exploding them into per-row inserts is the
// element engine's job.
func (d *Database) Execute(sqlText string, params []value.Value) (*value.Result, error) {
	if !d.IsOpen() {
		return nil, errors.ErrNotOpen
	}

	args := make([]any, len(params))
	for i, p := range params {
		a, err := bindArg(p)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %d", i+1)
		}
		args[i] = a
	}

	rows, err := d.sqldb.Query(sqlText, args...)
	if err != nil {
		return nil, errors.NewExecution("execute", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.NewExecution("execute", err)
	}

	var out []value.Row
	scratch := make([]any, len(columns))
	for i := range scratch {
		scratch[i] = new(any)
	}
	for rows.Next() {
		if err := rows.Scan(scratch...); err != nil {
			return nil, errors.NewExecution("step", err)
		}
		row := make(value.Row, len(columns))
		for i := range columns {
			row[i] = decodeCell(*scratch[i].(*any))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewExecution("step", err)
	}

	return value.NewResult(columns, out), nil
}

// bindArg converts a Value to a driver argument.
func bindArg(v value.Value) (any, error) {
	switch v.Kind() {
	case value.KindNull:
		return nil, nil
	case value.KindInt:
		n, _ := v.AsInt()
		return n, nil
	case value.KindFloat:
		f, _ := v.AsFloat()
		return f, nil
	case value.KindText:
		s, _ := v.AsText()
		return s, nil
	case value.KindBlob:
		b, _ := v.AsBlob()
		return b, nil
	default:
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "cannot bind %s value", v.Kind())
	}
}

// decodeCell converts a driver cell to a Value. Drivers report dates for
// DATE/DATETIME-declared columns as time.Time; those round down to text.
func decodeCell(cell any) value.Value {
	switch c := cell.(type) {
	case nil:
		return value.Null()
	case int64:
		return value.Int(c)
	case float64:
		return value.Float(c)
	case string:
		return value.Text(c)
	case []byte:
		b := make([]byte, len(c))
		copy(b, c)
		return value.Blob(b)
	case bool:
		if c {
			return value.Int(1)
		}
		return value.Int(0)
	case time.Time:
		return value.Text(c.Format(time.RFC3339))
	default:
		return value.Null()
	}
}

// LastInsertID returns the rowid generated by the most recent INSERT on
// this connection. It is only meaningful immediately after an INSERT.
func (d *Database) LastInsertID() (int64, error) {
	res, err := d.Execute("SELECT last_insert_rowid()", nil)
	if err != nil {
		return 0, err
	}
	id, _ := res.Row(0).Int(0)
	return id, nil
}

// Changes returns the number of rows modified by the most recent
// statement on this connection.
func (d *Database) Changes() (int64, error) {
	res, err := d.Execute("SELECT changes()", nil)
	if err != nil {
		return 0, err
	}
	n, _ := res.Row(0).Int(0)
	return n, nil
}

// BeginTransaction starts an explicit transaction. Nested transactions
// are not supported; a second begin is an engine-level error.
func (d *Database) BeginTransaction() error {
	_, err := d.Execute("BEGIN TRANSACTION", nil)
	return err
}

// Commit commits the open transaction.
func (d *Database) Commit() error {
	_, err := d.Execute("COMMIT", nil)
	return err
}

// Rollback rolls back the open transaction.
func (d *Database) Rollback() error {
	_, err := d.Execute("ROLLBACK", nil)
	return err
}

// CreateElement inserts one element (scalar row plus exploded vector, set
// and time-series attributes) and returns its generated id. See
// element.Engine.CreateElement for the atomicity contract.
func (d *Database) CreateElement(table string, fields []Field) (int64, error) {
	return d.engine.CreateElement(table, fields, nil)
}

// CreateElementWithSeries is CreateElement plus named time series keyed
// by group name.
func (d *Database) CreateElementWithSeries(table string, fields []Field, series map[string]value.TimeSeries) (int64, error) {
	return d.engine.CreateElement(table, fields, series)
}

// GetElementID returns the id of the element labeled label in collection.
func (d *Database) GetElementID(collection, label string) (int64, error) {
	return d.engine.GetElementID(collection, label)
}
