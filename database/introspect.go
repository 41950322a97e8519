package database

import (
	"context"
	"fmt"

	"github.com/sqldef/modeldef/schema"
)

// ApplyKeyRoles marks primary and unique key columns. Constraint rows carry
// column_name, constraint_name and constraint_type as information_schema
// spells them.
func ApplyKeyRoles(columns []schema.Column, constraints []Row) {
	width := map[string]int{}
	for _, row := range constraints {
		width[row.String("constraint_name")]++
	}
	byName := map[string]*schema.Column{}
	for i := range columns {
		byName[columns[i].Name] = &columns[i]
	}
	for _, row := range constraints {
		column, ok := byName[row.String("column_name")]
		if !ok {
			continue
		}
		switch row.String("constraint_type") {
		case "PRIMARY KEY":
			column.PrimaryKey = true
		case "UNIQUE":
			// only single-column constraints describe the column itself
			if width[row.String("constraint_name")] == 1 {
				column.UniqueKey = true
			}
		}
	}
}

// QueryStrings returns the first value of each row.
func QueryStrings(ctx context.Context, conn Conn, query string, args ...any) ([]string, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		values = append(values, AsString(row.Index(0)))
	}
	return values, nil
}

// DescribeError wraps an introspection failure with the table.
func DescribeError(table string, err error) error {
	return fmt.Errorf("failed to describe table `%s': %w", table, err)
}
