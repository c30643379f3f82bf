// Command psrdb is the CLI for psrdb databases: run statements, apply
// schema migrations, create elements, and write compressed backups.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/psrenergy/psrdb/core/db"
	"github.com/psrenergy/psrdb/core/sqlite"
	"github.com/psrenergy/psrdb/core/value"
	"github.com/psrenergy/psrdb/internal/config"
	"github.com/psrenergy/psrdb/internal/logging"
)

const version = "0.1.0"

// CLI defines the command-line interface for psrdb.
var CLI struct {
	// Global flags
	Config    string `name:"config" short:"c" help:"Config file path (default: ./psrdb.yaml if present)" type:"path"`
	Database  string `name:"db" short:"d" help:"Database file path (overrides config)" type:"path"`
	LogLevel  string `name:"log-level" help:"Console log level (debug|info|warn|error|off)"`
	LogFormat string `name:"log-format" help:"Console log format (text|json)"`

	Exec    ExecCmd      `cmd:"" help:"Execute a SQL statement and print the result"`
	Migrate MigrateCmd   `cmd:"" help:"Apply pending schema migrations"`
	Backup  BackupCmd    `cmd:"" help:"Write an xz-compressed SQL dump"`
	Element ElementGroup `cmd:"" help:"Element operations"`
	Version VersionCmd   `cmd:"" help:"Print version and driver information"`
}

// ElementGroup contains element-level operations.
type ElementGroup struct {
	Create ElementCreateCmd `cmd:"" help:"Create an element from key=value fields"`
	ID     ElementIDCmd     `cmd:"" help:"Look up an element id by label"`
}

type appContext struct {
	cfg *config.Config
}

func (a *appContext) databasePath() (string, error) {
	path := CLI.Database
	if path == "" {
		path = a.cfg.Database
	}
	if path == "" {
		return "", fmt.Errorf("no database path: pass --db or set database in the config file")
	}
	return path, nil
}

// consoleLogSettings resolves the console log level and format, flags
// taking precedence over the config file.
func (a *appContext) consoleLogSettings() (logging.Level, logging.Format) {
	level := CLI.LogLevel
	if level == "" {
		level = a.cfg.Log.Level
	}
	format := CLI.LogFormat
	if format == "" {
		format = a.cfg.Log.Format
	}
	return parseLevel(level), parseFormat(format)
}

func (a *appContext) logOptions() []db.Option {
	level, format := a.consoleLogSettings()
	return []db.Option{
		db.WithConsoleLevel(level),
		db.WithConsoleFormat(format),
	}
}

func (a *appContext) openDatabase(opts ...db.Option) (*db.Database, error) {
	path, err := a.databasePath()
	if err != nil {
		return nil, err
	}
	return db.Open(path, append(a.logOptions(), opts...)...)
}

func parseLevel(s string) logging.Level {
	switch strings.ToLower(s) {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	case "off":
		return logging.LevelOff
	default:
		return logging.LevelInfo
	}
}

func parseFormat(s string) logging.Format {
	if strings.ToLower(s) == "json" {
		return logging.FormatJSON
	}
	return logging.FormatText
}

// ExecCmd runs one SQL statement with optional positional text parameters.
type ExecCmd struct {
	SQL      string   `arg:"" help:"SQL statement to execute"`
	Params   []string `arg:"" optional:"" help:"Positional parameters (bound as text)"`
	ReadOnly bool     `help:"Open the database read-only"`
}

func (cmd *ExecCmd) Run(app *appContext) error {
	var opts []db.Option
	if cmd.ReadOnly {
		opts = append(opts, db.ReadOnly())
	}
	database, err := app.openDatabase(opts...)
	if err != nil {
		return err
	}
	defer database.Close()

	params := make([]value.Value, len(cmd.Params))
	for i, p := range cmd.Params {
		params[i] = value.Text(p)
	}

	res, err := database.Execute(cmd.SQL, params)
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}

func printResult(res *value.Result) {
	if res.ColumnCount() == 0 {
		return
	}
	fmt.Println(strings.Join(res.Columns(), "\t"))
	for _, row := range res.Rows() {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cell.String()
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
	fmt.Printf("(%d rows)\n", res.RowCount())
}

// MigrateCmd applies pending migrations from a schema directory.
type MigrateCmd struct {
	SchemaDir string `arg:"" optional:"" help:"Migration directory (defaults to config schema.dir)" type:"path"`
}

func (cmd *MigrateCmd) Run(app *appContext) error {
	schemaDir := cmd.SchemaDir
	if schemaDir == "" {
		schemaDir = app.cfg.Schema.Dir
	}
	if schemaDir == "" {
		return fmt.Errorf("no schema directory: pass one or set schema.dir in the config file")
	}

	path, err := app.databasePath()
	if err != nil {
		return err
	}
	database, err := db.FromSchema(path, schemaDir, app.logOptions()...)
	if err != nil {
		return err
	}
	defer database.Close()

	v, err := database.CurrentVersion()
	if err != nil {
		return err
	}
	fmt.Printf("database at version %d\n", v)
	return nil
}

// BackupCmd writes an xz-compressed SQL dump of the database.
type BackupCmd struct {
	Output string `arg:"" help:"Output file (e.g. dump.sql.xz)" type:"path"`
}

func (cmd *BackupCmd) Run(app *appContext) error {
	// A dump never needs write access.
	database, err := app.openDatabase(db.ReadOnly())
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.BackupFile(cmd.Output); err != nil {
		return err
	}
	fmt.Printf("backup written to %s\n", cmd.Output)
	return nil
}

// ElementCreateCmd creates one element from key=value field pairs.
// Values parse as integers, reals, JSON arrays, or fall back to text;
// "null" is the null value.
type ElementCreateCmd struct {
	Table  string   `arg:"" help:"Collection (table) name"`
	Fields []string `arg:"" help:"Fields as column=value pairs"`
}

func (cmd *ElementCreateCmd) Run(app *appContext) error {
	database, err := app.openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	fields := make([]db.Field, 0, len(cmd.Fields))
	for _, pair := range cmd.Fields {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("field %q is not of the form column=value", pair)
		}
		v, err := parseFieldValue(raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		fields = append(fields, db.Field{Name: name, Value: v})
	}

	id, err := database.CreateElement(cmd.Table, fields)
	if err != nil {
		return err
	}
	fmt.Printf("created element %d in %s\n", id, cmd.Table)
	return nil
}

// parseFieldValue maps a CLI string to a Value: null, integer, real,
// JSON array (homogeneous int/real/text), or plain text.
func parseFieldValue(raw string) (value.Value, error) {
	if raw == "null" {
		return value.Null(), nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return value.Int(n), nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return value.Float(f), nil
	}
	if strings.HasPrefix(raw, "[") {
		return parseArrayValue(raw)
	}
	return value.Text(raw), nil
}

func parseArrayValue(raw string) (value.Value, error) {
	var texts []string
	if err := json.Unmarshal([]byte(raw), &texts); err == nil {
		return value.Texts(texts), nil
	}
	var ints []int64
	if err := json.Unmarshal([]byte(raw), &ints); err == nil {
		return value.Ints(ints), nil
	}
	var floats []float64
	if err := json.Unmarshal([]byte(raw), &floats); err == nil {
		return value.Floats(floats), nil
	}
	return value.Null(), fmt.Errorf("cannot parse array %q: need a homogeneous JSON array", raw)
}

// ElementIDCmd looks up an element id by label.
type ElementIDCmd struct {
	Collection string `arg:"" help:"Collection (table) name"`
	Label      string `arg:"" help:"Element label"`
}

func (cmd *ElementIDCmd) Run(app *appContext) error {
	database, err := app.openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	id, err := database.GetElementID(cmd.Collection, cmd.Label)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

// VersionCmd prints version and driver information.
type VersionCmd struct{}

func (cmd *VersionCmd) Run(app *appContext) error {
	info := sqlite.GetInfo()
	fmt.Printf("psrdb %s (driver: %s, %s)\n", version, info.DriverName, info.DriverType)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("psrdb"),
		kong.Description("Schema-driven element store over embedded SQLite"),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "psrdb: %v\n", err)
		os.Exit(1)
	}

	if err := ctx.Run(&appContext{cfg: cfg}); err != nil {
		fmt.Fprintf(os.Stderr, "psrdb: %v\n", err)
		os.Exit(1)
	}
}
