package schema_test

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/psrenergy/psrdb/core/db"
	"github.com/psrenergy/psrdb/core/schema"
	"github.com/psrenergy/psrdb/internal/logging"
)

func openTestDB(t *testing.T) *db.Database {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"), db.WithConsoleLevel(logging.LevelOff))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func mustExec(t *testing.T, d *db.Database, sql string) {
	t.Helper()
	if _, err := d.Execute(sql, nil); err != nil {
		t.Fatalf("failed to execute %q: %v", sql, err)
	}
}

func TestTablesWithPrefix(t *testing.T) {
	d := openTestDB(t)
	mustExec(t, d, "CREATE TABLE Resource (id INTEGER PRIMARY KEY, label TEXT)")
	mustExec(t, d, "CREATE TABLE Resource_vector_values (id INTEGER, vector_index INTEGER, v REAL)")
	mustExec(t, d, "CREATE TABLE Resource_vector_costs (id INTEGER, vector_index INTEGER, c REAL)")
	mustExec(t, d, "CREATE TABLE Resource_set_tags (id INTEGER, tag TEXT)")
	mustExec(t, d, "CREATE TABLE Other_vector_values (id INTEGER, vector_index INTEGER, v REAL)")

	in := schema.New(d)

	tests := []struct {
		name   string
		prefix string
		want   []string
	}{
		{"vector tables", "Resource_vector_", []string{"Resource_vector_values", "Resource_vector_costs"}},
		{"set tables", "Resource_set_", []string{"Resource_set_tags"}},
		{"no matches", "Resource_time_series_", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := in.TablesWithPrefix(tt.prefix)
			if err != nil {
				t.Fatalf("TablesWithPrefix() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TablesWithPrefix(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestTablesWithPrefixClosedConnection(t *testing.T) {
	d := openTestDB(t)
	d.Close()

	in := schema.New(d)
	got, err := in.TablesWithPrefix("anything_")
	if err != nil {
		t.Fatalf("expected no error on closed connection, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty list on closed connection, got %v", got)
	}
}

func TestColumns(t *testing.T) {
	d := openTestDB(t)
	mustExec(t, d, "CREATE TABLE Plant (id INTEGER PRIMARY KEY, label TEXT, capacity REAL, data BLOB)")

	in := schema.New(d)
	got, err := in.Columns("Plant")
	if err != nil {
		t.Fatalf("Columns() error: %v", err)
	}
	want := []string{"id", "label", "capacity", "data"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Columns() = %v, want %v", got, want)
	}

	// Unknown table reflects as no columns.
	got, err = in.Columns("Missing")
	if err != nil {
		t.Fatalf("Columns() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Columns(Missing) = %v, want empty", got)
	}
}

func TestColumnType(t *testing.T) {
	d := openTestDB(t)
	mustExec(t, d, "CREATE TABLE Plant (id INTEGER PRIMARY KEY, label TEXT, capacity REAL, data BLOB, untyped)")

	in := schema.New(d)
	tests := []struct {
		column string
		want   string
	}{
		{"id", "INTEGER"},
		{"label", "TEXT"},
		{"capacity", "REAL"},
		{"data", "BLOB"},
		{"untyped", ""},
		{"missing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			got, err := in.ColumnType("Plant", tt.column)
			if err != nil {
				t.Fatalf("ColumnType() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ColumnType(Plant, %s) = %q, want %q", tt.column, got, tt.want)
			}
		})
	}
}

func TestForeignKeys(t *testing.T) {
	d := openTestDB(t)
	mustExec(t, d, "CREATE TABLE Resource (id INTEGER PRIMARY KEY, label TEXT)")
	mustExec(t, d, "CREATE TABLE Fuel (id INTEGER PRIMARY KEY, label TEXT)")
	mustExec(t, d, `CREATE TABLE Plant (
		id INTEGER PRIMARY KEY,
		label TEXT,
		resource_id INTEGER REFERENCES Resource(id),
		fuel_id INTEGER REFERENCES Fuel(id)
	)`)

	in := schema.New(d)
	got, err := in.ForeignKeys("Plant")
	if err != nil {
		t.Fatalf("ForeignKeys() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ForeignKeys() returned %d keys, want 2", len(got))
	}

	byColumn := make(map[string]schema.ForeignKey)
	for _, fk := range got {
		byColumn[fk.Column] = fk
	}
	if fk := byColumn["resource_id"]; fk.TargetTable != "Resource" || fk.TargetColumn != "id" {
		t.Errorf("resource_id FK = %+v", fk)
	}
	if fk := byColumn["fuel_id"]; fk.TargetTable != "Fuel" || fk.TargetColumn != "id" {
		t.Errorf("fuel_id FK = %+v", fk)
	}

	// A table without foreign keys reflects as none.
	got, err = in.ForeignKeys("Resource")
	if err != nil {
		t.Fatalf("ForeignKeys() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ForeignKeys(Resource) = %v, want empty", got)
	}
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Plant", `"Plant"`},
		{`weird"name`, `"weird""name"`},
	}
	for _, tt := range tests {
		if got := schema.QuoteIdentifier(tt.in); got != tt.want {
			t.Errorf("QuoteIdentifier(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
