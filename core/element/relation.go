package element

import (
	"github.com/psrenergy/psrdb/core/errors"
	"github.com/psrenergy/psrdb/core/value"
)

// foreignKeyTarget returns the target table when column is a declared
// foreign key of table, or "" when it is not.
func (e *Engine) foreignKeyTarget(table, column string) (string, error) {
	fks, err := e.schema.ForeignKeys(table)
	if err != nil {
		return "", err
	}
	for _, fk := range fks {
		if fk.Column == column {
			return fk.TargetTable, nil
		}
	}
	return "", nil
}

// resolveScalar converts a text label into the referenced element's id
// when column is a foreign key. Non-relation columns and non-text values
// (raw ids, nulls) pass through unchanged.
func (e *Engine) resolveScalar(table, column string, v value.Value) (value.Value, error) {
	target, err := e.foreignKeyTarget(table, column)
	if err != nil || target == "" {
		return v, err
	}

	label, ok := v.AsText()
	if !ok {
		return v, nil
	}
	id, err := e.lookupLabel(table, target, label)
	if err != nil {
		return v, err
	}
	return value.Int(id), nil
}

// lookupLabel resolves one label against the relation's target table,
// reporting a relation-specific error when the label matches nothing.
func (e *Engine) lookupLabel(table, target, label string) (int64, error) {
	id, err := e.GetElementID(target, label)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return 0, errors.NewRelationNotFound(label, table, target)
		}
		return 0, err
	}
	return id, nil
}

// resolveElements explodes an array field into per-index scalar Values,
// resolving foreign-key labels along the way. An empty-string label in a
// relation array stands for "no reference" and becomes a null slot.
func (e *Engine) resolveElements(table, column string, v value.Value) ([]value.Value, error) {
	target, err := e.foreignKeyTarget(table, column)
	if err != nil {
		return nil, err
	}

	if target == "" || v.Kind() != value.KindTextArray {
		// Not a relation, or already raw ids.
		return v.Elements(), nil
	}

	out := make([]value.Value, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		label, _ := v.Index(i).AsText()
		if label == "" {
			out = append(out, value.Null())
			continue
		}
		id, err := e.lookupLabel(table, target, label)
		if err != nil {
			return nil, err
		}
		out = append(out, value.Int(id))
	}
	return out, nil
}
