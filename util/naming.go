package util

import "fmt"

// maxIdentifierLength is PostgreSQL's NAMEDATALEN - 1, the shortest limit of
// the supported dialects.
const maxIdentifierLength = 63

// BuildConstraintName names a constraint or index of one column as
// <table>_<column>_<suffix>, which is also PostgreSQL's own convention.
// Names longer than maxIdentifierLength are truncated the way PostgreSQL
// does it: the column is cut down to 28 characters first, then the table.
func BuildConstraintName(tableName, columnName, suffix string) string {
	fullName := fmt.Sprintf("%s_%s_%s", tableName, columnName, suffix)
	if len(fullName) <= maxIdentifierLength {
		return fullName
	}

	overflow := len(fullName) - maxIdentifierLength
	tableRemove, columnRemove := 0, 0
	if len(columnName) > 28 {
		columnRemove = min(overflow, len(columnName)-28)
		tableRemove = overflow - columnRemove
	} else {
		tableRemove = overflow
	}

	truncatedTable := tableName[:len(tableName)-tableRemove]
	truncatedColumn := columnName[:len(columnName)-columnRemove]
	return fmt.Sprintf("%s_%s_%s", truncatedTable, truncatedColumn, suffix)
}
