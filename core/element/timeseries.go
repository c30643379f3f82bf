package element

import (
	"sort"
	"strings"

	"github.com/psrenergy/psrdb/core/errors"
	"github.com/psrenergy/psrdb/core/schema"
	"github.com/psrenergy/psrdb/core/value"
)

// insertTimeSeries writes each named series into its
// <collection>_time_series_<group> table, one row per series index.
// Groups and their columns are processed in sorted order so the emitted
// statements are deterministic.
func (e *Engine) insertTimeSeries(collection string, elementID int64, series map[string]value.TimeSeries) error {
	if len(series) == 0 {
		return nil
	}

	tsTables, err := e.schema.TablesWithPrefix(collection + "_time_series_")
	if err != nil {
		return err
	}
	exists := make(map[string]bool, len(tsTables))
	for _, t := range tsTables {
		exists[t] = true
	}

	groups := make([]string, 0, len(series))
	for group := range series {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	for _, group := range groups {
		data := series[group]
		if len(data) == 0 {
			continue
		}

		table := collection + "_time_series_" + group
		if !exists[table] {
			return errors.Wrapf(errors.ErrGroupNotFound, "time series group %q", group)
		}

		columns := make([]string, 0, len(data))
		for col := range data {
			columns = append(columns, col)
		}
		sort.Strings(columns)

		rowCount := len(data[columns[0]])
		for _, col := range columns {
			if len(data[col]) != rowCount {
				return errors.Wrapf(errors.ErrGroupLengthMismatch,
					"time series group %q: columns must have the same length", group)
			}
		}
		if rowCount == 0 {
			continue
		}

		var sql strings.Builder
		var placeholders strings.Builder
		sql.WriteString("INSERT INTO " + schema.QuoteIdentifier(table) + " (id")
		placeholders.WriteString("?")
		for _, col := range columns {
			sql.WriteString(", " + schema.QuoteIdentifier(col))
			placeholders.WriteString(", ?")
		}
		sql.WriteString(") VALUES (" + placeholders.String() + ")")
		stmt := sql.String()

		e.logger.Debug("insert time series", "table", table, "rows", rowCount)

		for i := 0; i < rowCount; i++ {
			params := make([]value.Value, 0, len(columns)+1)
			params = append(params, value.Int(elementID))
			for _, col := range columns {
				params = append(params, data[col][i])
			}
			if _, err := e.exec.Execute(stmt, params); err != nil {
				return err
			}
		}
	}
	return nil
}
