package element

import (
	"strings"

	"github.com/psrenergy/psrdb/core/errors"
	"github.com/psrenergy/psrdb/core/schema"
	"github.com/psrenergy/psrdb/core/value"
)

// insertVectors writes the array-valued fields of one element, exploded
// into one row per index in each field's backing table. Backing tables
// are discovered via the <collection>_vector_* and <collection>_set_*
// naming convention; set tables store unordered membership and carry no
// vector_index column.
func (e *Engine) insertVectors(collection string, elementID int64, fields []Field) error {
	if len(fields) == 0 {
		return nil
	}

	vectorTables, err := e.schema.TablesWithPrefix(collection + "_vector_")
	if err != nil {
		return err
	}
	setTables, err := e.schema.TablesWithPrefix(collection + "_set_")
	if err != nil {
		return err
	}

	// Map each attribute column to its backing table; id and
	// vector_index are reserved.
	columnToTable := make(map[string]string)
	isSetTable := make(map[string]bool)

	for _, table := range vectorTables {
		columns, err := e.schema.Columns(table)
		if err != nil {
			return err
		}
		for _, col := range columns {
			if col != "id" && col != "vector_index" {
				columnToTable[col] = table
			}
		}
	}
	for _, table := range setTables {
		isSetTable[table] = true
		columns, err := e.schema.Columns(table)
		if err != nil {
			return err
		}
		for _, col := range columns {
			if col != "id" {
				columnToTable[col] = table
			}
		}
	}

	// Group the fields by backing table, keeping first-appearance order
	// so inserts happen in a caller-predictable sequence.
	groups := make(map[string][]Field)
	var tableOrder []string
	for _, f := range fields {
		table, ok := columnToTable[f.Name]
		if !ok {
			return errors.NewSchema("", f.Name, "vector column not found in schema")
		}
		if _, seen := groups[table]; !seen {
			tableOrder = append(tableOrder, table)
		}
		groups[table] = append(groups[table], f)
	}

	for _, table := range tableOrder {
		if err := e.insertVectorGroup(table, isSetTable[table], elementID, groups[table]); err != nil {
			return err
		}
	}
	return nil
}

// insertVectorGroup writes one backing table's group: equal-length check,
// relation resolution, then one INSERT per index. A zero-length group is
// a no-op.
func (e *Engine) insertVectorGroup(table string, isSet bool, elementID int64, group []Field) error {
	size := -1
	for _, f := range group {
		n := f.Value.Len()
		if size == -1 {
			size = n
		} else if n != size {
			return errors.NewGroupLength(table)
		}
	}
	if size <= 0 {
		// Empty vectors are legal and insert nothing.
		return nil
	}

	// Explode every field to per-index scalars, resolving foreign-key
	// labels against this backing table's declared relations.
	resolved := make([][]value.Value, len(group))
	for i, f := range group {
		elems, err := e.resolveElements(table, f.Name, f.Value)
		if err != nil {
			return err
		}
		resolved[i] = elems
	}

	var sql strings.Builder
	var placeholders strings.Builder
	sql.WriteString("INSERT INTO " + schema.QuoteIdentifier(table) + " (id")
	placeholders.WriteString("?")
	if !isSet {
		sql.WriteString(", vector_index")
		placeholders.WriteString(", ?")
	}
	for _, f := range group {
		sql.WriteString(", " + schema.QuoteIdentifier(f.Name))
		placeholders.WriteString(", ?")
	}
	sql.WriteString(") VALUES (" + placeholders.String() + ")")
	stmt := sql.String()

	e.logger.Debug("insert vector group", "table", table, "rows", size, "set", isSet)

	for i := 0; i < size; i++ {
		params := make([]value.Value, 0, len(group)+2)
		params = append(params, value.Int(elementID))
		if !isSet {
			// vector_index is 1-based.
			params = append(params, value.Int(int64(i+1)))
		}
		for j := range group {
			params = append(params, resolved[j][i])
		}
		if _, err := e.exec.Execute(stmt, params); err != nil {
			return err
		}
	}
	return nil
}
