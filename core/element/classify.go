package element

import (
	"strings"

	"github.com/psrenergy/psrdb/core/errors"
	"github.com/psrenergy/psrdb/core/value"
)

// partitionFields splits an element's fields into scalar fields and
// array-valued (vector/set) fields, preserving input order within each
// partition.
func partitionFields(fields []Field) (scalars, vectors []Field) {
	for _, f := range fields {
		if f.Value.IsArray() {
			vectors = append(vectors, f)
		} else {
			scalars = append(scalars, f)
		}
	}
	return scalars, vectors
}

// validateScalar checks one scalar field against the column's declared
// type. Columns the schema does not know, columns with a non-affinity
// declared type, and foreign-key columns are skipped: the first two are
// left for the engine to reject, the last accepts text labels whatever
// the declared type says.
func (e *Engine) validateScalar(table string, f Field) error {
	declared, err := e.schema.ColumnType(table, f.Name)
	if err != nil {
		return err
	}
	if declared == "" {
		return nil
	}

	fks, err := e.schema.ForeignKeys(table)
	if err != nil {
		return err
	}
	for _, fk := range fks {
		if fk.Column == f.Name {
			return nil
		}
	}

	// Null is valid for every declared type.
	if f.Value.IsNull() {
		return nil
	}

	kind := f.Value.Kind()
	valid := true
	switch strings.ToUpper(strings.TrimSpace(declared)) {
	case "TEXT":
		valid = kind == value.KindText
	case "INTEGER":
		valid = kind == value.KindInt
	case "REAL":
		// Integers widen to real.
		valid = kind == value.KindFloat || kind == value.KindInt
	case "BLOB":
		valid = kind == value.KindBlob
	default:
		// Unrecognized declared type, no validation.
	}

	if !valid {
		return errors.NewTypeMismatch(f.Name, declared, kind.String())
	}
	return nil
}
