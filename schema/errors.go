package schema

import "fmt"

// ConfigurationError is an operation the model asks for that the dialect or
// the model itself cannot support. It aborts the run before any statement is
// issued for the table.
type ConfigurationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("table `%s', column `%s': %s", e.Table, e.Column, e.Message)
	}
	if e.Table != "" {
		return fmt.Sprintf("table `%s': %s", e.Table, e.Message)
	}
	return e.Message
}

// DataLossError is returned when converging would have to destroy rows and
// the run was not authorized to reset.
type DataLossError struct {
	Table  string
	Column string
}

func (e *DataLossError) Error() string {
	return fmt.Sprintf("cannot add new non null column `%s', table `%s' has records. Consider adding a default value or resetting the table.", e.Column, e.Table)
}

// UnsupportedTypeError is a type or value the dialect cannot represent.
type UnsupportedTypeError struct {
	Dialect Dialect
	Type    Type
	Reason  string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s does not support type %s: %s", e.Dialect, e.Type, e.Reason)
	}
	return fmt.Sprintf("%s does not support type %s", e.Dialect, e.Type)
}
