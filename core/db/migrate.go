package db

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/zeebo/blake3"

	"github.com/psrenergy/psrdb/core/errors"
	"github.com/psrenergy/psrdb/core/value"
)

// migrationsTable records the BLAKE3 checksum of every applied migration
// so later runs can detect a migration file that changed after it was
// applied. The schema version itself lives in PRAGMA user_version.
const migrationsTable = "psr_migrations"

// FromSchema opens (creating if needed) the database at dbPath and brings
// it up to date with the migrations under schemaDir. Each migration is a
// subdirectory named by a positive version number containing an up.sql
// file; pending migrations are applied in ascending order, each inside
// its own transaction.
func FromSchema(dbPath, schemaDir string, opts ...Option) (*Database, error) {
	info, err := os.Stat(schemaDir)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "schema path does not exist: %s", schemaDir)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "schema path is not a directory: %s", schemaDir)
	}

	d, err := Open(dbPath, opts...)
	if err != nil {
		return nil, err
	}
	d.schemaPath = schemaDir

	d.logger.Info("opening database from schema", "db", dbPath, "schema", schemaDir)

	if err := d.MigrateUp(); err != nil {
		d.Close()
		return nil, err
	}

	version, err := d.CurrentVersion()
	if err != nil {
		d.Close()
		return nil, err
	}
	d.logger.Info("database ready", "version", version)
	return d, nil
}

// CurrentVersion returns the schema version stored in PRAGMA user_version.
func (d *Database) CurrentVersion() (int64, error) {
	res, err := d.Execute("PRAGMA user_version", nil)
	if err != nil {
		return 0, err
	}
	if res.Empty() {
		return 0, nil
	}
	v, _ := res.Row(0).Int(0)
	return v, nil
}

// SetVersion stores the schema version in PRAGMA user_version.
func (d *Database) SetVersion(version int64) error {
	// PRAGMA arguments cannot be bound.
	_, err := d.Execute(fmt.Sprintf("PRAGMA user_version = %d", version), nil)
	return err
}

// MigrateUp applies every pending migration under SchemaPath. Migrations
// already applied are verified against the recorded checksum of their
// up.sql; a mismatch aborts before anything new is applied.
func (d *Database) MigrateUp() error {
	if !d.IsOpen() {
		return errors.ErrNotOpen
	}
	if d.schemaPath == "" {
		d.logger.Debug("no schema path set, skipping migrations")
		return nil
	}

	versions, err := listMigrations(d.schemaPath)
	if err != nil {
		return err
	}

	current, err := d.CurrentVersion()
	if err != nil {
		return err
	}
	d.logger.Debug("found migrations", "count", len(versions), "current_version", current)

	if err := d.ensureMigrationsTable(); err != nil {
		return err
	}

	for _, version := range versions {
		path := filepath.Join(d.schemaPath, strconv.FormatInt(version, 10), "up.sql")
		sqlText, err := os.ReadFile(path)
		if err != nil {
			d.logger.Error("migration file not found", "version", version, "path", path)
			return errors.Wrapf(err, "migration file not found: %s", path)
		}
		checksum := blake3.Sum256(sqlText)
		sum := hex.EncodeToString(checksum[:])

		if version <= current {
			if err := d.verifyApplied(version, sum); err != nil {
				return err
			}
			continue
		}

		d.logger.Info("applying migration", "version", version)
		if err := d.applyMigration(version, string(sqlText), sum); err != nil {
			d.logger.Error("migration failed", "version", version, "error", err)
			return errors.Wrapf(err, "migration %d failed", version)
		}
		d.logger.Debug("migration applied", "version", version, "checksum", sum)
	}
	return nil
}

// listMigrations collects positive numeric subdirectory names in
// ascending order. Non-numeric entries are skipped.
func listMigrations(dir string) ([]int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read schema directory %s", dir)
	}

	var versions []int64
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		version, err := strconv.ParseInt(entry.Name(), 10, 64)
		if err != nil || version <= 0 {
			continue
		}
		versions = append(versions, version)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

func (d *Database) ensureMigrationsTable() error {
	_, err := d.Execute(`CREATE TABLE IF NOT EXISTS `+migrationsTable+` (
		version INTEGER PRIMARY KEY,
		checksum TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`, nil)
	return err
}

// verifyApplied checks an already-applied migration file against its
// recorded checksum. Databases migrated before the ledger existed have no
// row and are left alone.
func (d *Database) verifyApplied(version int64, sum string) error {
	res, err := d.Execute("SELECT checksum FROM "+migrationsTable+" WHERE version = ?",
		[]value.Value{value.Int(version)})
	if err != nil {
		return err
	}
	if res.Empty() {
		return nil
	}
	recorded, _ := res.Row(0).Text(0)
	if recorded != sum {
		return errors.Wrapf(errors.ErrInvalidArgument,
			"migration %d was modified after being applied (checksum %s, recorded %s)",
			version, sum, recorded)
	}
	return nil
}

func (d *Database) applyMigration(version int64, sqlText, sum string) error {
	if err := d.BeginTransaction(); err != nil {
		return err
	}

	// Migration scripts may hold several statements; run them through
	// the driver's multi-statement Exec rather than the typed executor.
	if _, err := d.sqldb.Exec(sqlText); err != nil {
		d.Rollback()
		return errors.NewExecution("execute", err)
	}
	if err := d.SetVersion(version); err != nil {
		d.Rollback()
		return err
	}
	if _, err := d.Execute(
		"INSERT INTO "+migrationsTable+" (version, checksum, applied_at) VALUES (?, ?, ?)",
		[]value.Value{value.Int(version), value.Text(sum), value.Text(time.Now().UTC().Format(time.RFC3339))},
	); err != nil {
		d.Rollback()
		return err
	}
	return d.Commit()
}
