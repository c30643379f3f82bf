package db_test

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psrenergy/psrdb/core/db"
	"github.com/psrenergy/psrdb/core/errors"
	"github.com/psrenergy/psrdb/core/value"
	"github.com/psrenergy/psrdb/internal/logging"
)

func openTestDB(t *testing.T) *db.Database {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"), db.WithConsoleLevel(logging.LevelOff))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestOpenAndClose(t *testing.T) {
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"), db.WithConsoleLevel(logging.LevelOff))
	require.NoError(t, err)
	assert.True(t, d.IsOpen())

	require.NoError(t, d.Close())
	assert.False(t, d.IsOpen())

	// Closing twice is a no-op.
	require.NoError(t, d.Close())

	_, err = d.Execute("SELECT 1", nil)
	assert.ErrorIs(t, err, errors.ErrNotOpen)
}

func TestExecuteTypedRoundTrip(t *testing.T) {
	d := openTestDB(t)

	_, err := d.Execute(`CREATE TABLE t (i INTEGER, r REAL, s TEXT, b BLOB, n INTEGER)`, nil)
	require.NoError(t, err)

	_, err = d.Execute("INSERT INTO t (i, r, s, b, n) VALUES (?, ?, ?, ?, ?)",
		[]value.Value{
			value.Int(42),
			value.Float(2.5),
			value.Text("hello"),
			value.Blob([]byte{0x01, 0x02}),
			value.Null(),
		})
	require.NoError(t, err)

	res, err := d.Execute("SELECT i, r, s, b, n FROM t", nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.RowCount())
	assert.Equal(t, []string{"i", "r", "s", "b", "n"}, res.Columns())

	row := res.Row(0)
	i, ok := row.Int(0)
	require.True(t, ok)
	assert.Equal(t, int64(42), i)

	r, ok := row.Float(1)
	require.True(t, ok)
	assert.Equal(t, 2.5, r)

	s, ok := row.Text(2)
	require.True(t, ok)
	assert.Equal(t, "hello", s)

	b, ok := row.Blob(3)
	require.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x02}, b)

	assert.True(t, row.IsNull(4))
}

func TestExecuteRejectsArrayParams(t *testing.T) {
	d := openTestDB(t)

	_, err := d.Execute("SELECT ?", []value.Value{value.Ints([]int64{1, 2})})
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestExecuteSurfacesEngineErrors(t *testing.T) {
	d := openTestDB(t)

	_, err := d.Execute("SELECT * FROM no_such_table", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrExecution)
	assert.Contains(t, err.Error(), "no_such_table")
}

func TestLastInsertID(t *testing.T) {
	d := openTestDB(t)

	_, err := d.Execute("CREATE TABLE t (id INTEGER PRIMARY KEY, label TEXT)", nil)
	require.NoError(t, err)

	for want := int64(1); want <= 3; want++ {
		_, err = d.Execute("INSERT INTO t (label) VALUES (?)", []value.Value{value.Text("x")})
		require.NoError(t, err)

		id, err := d.LastInsertID()
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
}

func TestChanges(t *testing.T) {
	d := openTestDB(t)

	_, err := d.Execute("CREATE TABLE t (v INTEGER)", nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = d.Execute("INSERT INTO t (v) VALUES (?)", []value.Value{value.Int(int64(i))})
		require.NoError(t, err)
	}

	_, err = d.Execute("UPDATE t SET v = v + 1", nil)
	require.NoError(t, err)

	n, err := d.Changes()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestTransactionRollback(t *testing.T) {
	d := openTestDB(t)

	_, err := d.Execute("CREATE TABLE t (v INTEGER)", nil)
	require.NoError(t, err)

	require.NoError(t, d.BeginTransaction())
	_, err = d.Execute("INSERT INTO t (v) VALUES (1)", nil)
	require.NoError(t, err)
	require.NoError(t, d.Rollback())

	res, err := d.Execute("SELECT COUNT(*) FROM t", nil)
	require.NoError(t, err)
	n, _ := res.Row(0).Int(0)
	assert.Equal(t, int64(0), n)
}

func TestTransactionCommit(t *testing.T) {
	d := openTestDB(t)

	_, err := d.Execute("CREATE TABLE t (v INTEGER)", nil)
	require.NoError(t, err)

	require.NoError(t, d.BeginTransaction())
	_, err = d.Execute("INSERT INTO t (v) VALUES (1)", nil)
	require.NoError(t, err)
	require.NoError(t, d.Commit())

	res, err := d.Execute("SELECT COUNT(*) FROM t", nil)
	require.NoError(t, err)
	n, _ := res.Row(0).Int(0)
	assert.Equal(t, int64(1), n)
}

func TestForeignKeysEnforced(t *testing.T) {
	d := openTestDB(t)

	_, err := d.Execute(`CREATE TABLE parent (id INTEGER PRIMARY KEY)`, nil)
	require.NoError(t, err)
	_, err = d.Execute(`CREATE TABLE child (
		id INTEGER PRIMARY KEY,
		parent_id INTEGER REFERENCES parent(id)
	)`, nil)
	require.NoError(t, err)

	_, err = d.Execute("INSERT INTO child (parent_id) VALUES (99)", nil)
	assert.ErrorIs(t, err, errors.ErrExecution)
}

func TestInMemoryDatabase(t *testing.T) {
	// WithLogger keeps the log-file sink out of the working directory.
	d, err := db.Open(":memory:", db.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Execute("CREATE TABLE t (v INTEGER)", nil)
	require.NoError(t, err)
	_, err = d.Execute("INSERT INTO t (v) VALUES (7)", nil)
	require.NoError(t, err)

	res, err := d.Execute("SELECT v FROM t", nil)
	require.NoError(t, err)
	v, _ := res.Row(0).Int(0)
	assert.Equal(t, int64(7), v)
}

func TestReadOnlyOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	d, err := db.Open(path, db.WithConsoleLevel(logging.LevelOff))
	require.NoError(t, err)
	_, err = d.Execute("CREATE TABLE t (v INTEGER)", nil)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	ro, err := db.Open(path, db.ReadOnly(), db.WithConsoleLevel(logging.LevelOff))
	require.NoError(t, err)
	defer ro.Close()

	_, err = ro.Execute("SELECT COUNT(*) FROM t", nil)
	require.NoError(t, err)

	_, err = ro.Execute("INSERT INTO t (v) VALUES (1)", nil)
	assert.ErrorIs(t, err, errors.ErrExecution)
}
