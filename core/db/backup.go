package db

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/psrenergy/psrdb/core/errors"
	"github.com/psrenergy/psrdb/core/schema"
	"github.com/psrenergy/psrdb/core/value"
)

// Backup streams an xz-compressed SQL dump of the whole database to w:
// schema statements from sqlite_master followed by one INSERT per row,
// wrapped in a single transaction. The dump is plain SQL and can be
// replayed through Execute or the sqlite3 shell.
//
// The dump reads live data without a snapshot; run it while no writer is
// active, consistent with the single-writer model.
func (d *Database) Backup(w io.Writer) error {
	if !d.IsOpen() {
		return errors.ErrNotOpen
	}

	xzw, err := xz.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "failed to create xz writer")
	}

	if err := d.writeDump(xzw); err != nil {
		xzw.Close()
		return err
	}
	return xzw.Close()
}

// BackupFile writes Backup's dump to path, replacing any existing file.
func (d *Database) BackupFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create backup file %s", path)
	}
	if err := d.Backup(file); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	d.logger.Info("backup written", "path", path)
	return file.Close()
}

func (d *Database) writeDump(w io.Writer) error {
	if _, err := io.WriteString(w, "BEGIN TRANSACTION;\n"); err != nil {
		return errors.Wrap(err, "failed to write dump")
	}

	// Tables first so data inserts follow their CREATE TABLE, then
	// indexes, triggers and views.
	objects, err := d.Execute(`SELECT name, type, sql FROM sqlite_master
		WHERE sql IS NOT NULL AND name NOT LIKE 'sqlite_%'
		ORDER BY CASE type WHEN 'table' THEN 0 ELSE 1 END, rowid`, nil)
	if err != nil {
		return err
	}

	for _, row := range objects.Rows() {
		name, _ := row.Text(0)
		objType, _ := row.Text(1)
		createSQL, _ := row.Text(2)

		if _, err := io.WriteString(w, createSQL+";\n"); err != nil {
			return errors.Wrap(err, "failed to write dump")
		}
		if objType != "table" {
			continue
		}
		if err := d.dumpTableRows(w, name); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, "COMMIT;\n"); err != nil {
		return errors.Wrap(err, "failed to write dump")
	}
	return nil
}

func (d *Database) dumpTableRows(w io.Writer, table string) error {
	rows, err := d.Execute("SELECT * FROM "+schema.QuoteIdentifier(table), nil)
	if err != nil {
		return err
	}

	for _, row := range rows.Rows() {
		literals := make([]string, len(row))
		for i, cell := range row {
			literals[i] = sqlLiteral(cell)
		}
		stmt := fmt.Sprintf("INSERT INTO %s VALUES (%s);\n",
			schema.QuoteIdentifier(table), strings.Join(literals, ", "))
		if _, err := io.WriteString(w, stmt); err != nil {
			return errors.Wrap(err, "failed to write dump")
		}
	}
	return nil
}

// sqlLiteral renders one scalar cell as a SQL literal.
func sqlLiteral(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return "NULL"
	case value.KindInt:
		n, _ := v.AsInt()
		return strconv.FormatInt(n, 10)
	case value.KindFloat:
		f, _ := v.AsFloat()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case value.KindText:
		s, _ := v.AsText()
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	case value.KindBlob:
		b, _ := v.AsBlob()
		return "X'" + hex.EncodeToString(b) + "'"
	default:
		return "NULL"
	}
}
