package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/sqldef/modeldef/util"
)

// Model is the declared side of one table.
type Model interface {
	TableName() string
	// Columns returns the desired columns in declaration order.
	Columns() []Column
	// RenamedFrom lists names the table was previously known by, oldest first.
	RenamedFrom() []string
	// Virtual models are not persisted and never converged.
	Virtual() bool
}

// DropActionProvider is implemented by models that need to run something
// before one of their live columns is removed.
type DropActionProvider interface {
	DropAction(column string) Action
}

// Executor runs one statement. Actions receive the run's executor so their
// statements go through the same connection and logger.
type Executor interface {
	Execute(ctx context.Context, stmt string) error
}

// Action is a side effect attached to a manipulation, e.g. a backfill.
type Action interface {
	Run(ctx context.Context, exec Executor) error
}

type ActionFunc func(ctx context.Context, exec Executor) error

func (f ActionFunc) Run(ctx context.Context, exec Executor) error {
	return f(ctx, exec)
}

// SQLAction is an Action executing a single statement.
type SQLAction string

func (a SQLAction) Run(ctx context.Context, exec Executor) error {
	return exec.Execute(ctx, string(a))
}

// Table is a plain Model.
type Table struct {
	Name        string
	Cols        []Column
	Renamed     []string
	IsVirtual   bool
	DropActions map[string]Action
}

var (
	_ Model              = (*Table)(nil)
	_ DropActionProvider = (*Table)(nil)
)

func (t *Table) TableName() string     { return t.Name }
func (t *Table) Columns() []Column     { return t.Cols }
func (t *Table) RenamedFrom() []string { return t.Renamed }
func (t *Table) Virtual() bool         { return t.IsVirtual }

func (t *Table) DropAction(column string) Action {
	return t.DropActions[column]
}

// PrimaryKey returns the names of the primary key columns in declaration order.
func PrimaryKey(columns []Column) []string {
	var keys []string
	for _, c := range columns {
		if c.PrimaryKey {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// ValidateModel checks everything about m that would otherwise fail halfway
// through a run: names, types, defaults and auto-increment placement.
func ValidateModel(d Dialect, m Model) error {
	table := m.TableName()
	if table == "" {
		return &ConfigurationError{Message: "model without table name"}
	}
	columns := m.Columns()
	if len(columns) == 0 {
		return &ConfigurationError{Table: table, Message: "no columns declared"}
	}

	seen := map[string]bool{}
	for _, c := range columns {
		if c.Name == "" {
			return &ConfigurationError{Table: table, Message: "column without name"}
		}
		key := strings.ToLower(c.Name)
		if seen[key] {
			return &ConfigurationError{Table: table, Column: c.Name, Message: "declared more than once"}
		}
		seen[key] = true

		if err := d.Supports(c.Type); err != nil {
			return fmt.Errorf("table `%s', column `%s': %w", table, c.Name, err)
		}
		if c.DefaultValue != nil {
			if _, err := tryEncode(d, *c.DefaultValue, c.Type, !c.NotNull); err != nil {
				return fmt.Errorf("table `%s', column `%s' default: %w", table, c.Name, err)
			}
		}
		if c.Migration != nil && c.Migration.Default != nil {
			if _, err := tryEncode(d, *c.Migration.Default, c.Type, !c.NotNull); err != nil {
				return fmt.Errorf("table `%s', column `%s' migration default: %w", table, c.Name, err)
			}
		}
		if c.AutoIncrement {
			if !c.Type.IsInteger() {
				return &ConfigurationError{Table: table, Column: c.Name, Message: fmt.Sprintf("auto increment requires an integer type, got %s", c.Type)}
			}
			if !c.PrimaryKey && !c.UniqueKey {
				return &ConfigurationError{Table: table, Column: c.Name, Message: "auto increment column must be a key"}
			}
		}
	}

	pk := PrimaryKey(columns)
	if d == DialectSQLite3 {
		for _, c := range columns {
			if c.AutoIncrement && (len(pk) != 1 || !c.PrimaryKey) {
				return &ConfigurationError{Table: table, Column: c.Name, Message: "sqlite3 only supports AUTOINCREMENT on a single-column primary key"}
			}
		}
	}
	for _, c := range columns {
		if c.Migration == nil || c.Migration.RenamedFrom == "" {
			continue
		}
		if seen[strings.ToLower(c.Migration.RenamedFrom)] {
			return &ConfigurationError{Table: table, Column: c.Name, Message: fmt.Sprintf("renamed from `%s', which is still declared", c.Migration.RenamedFrom)}
		}
	}
	if t, ok := m.(*Table); ok {
		for column := range util.CanonicalMapIter(t.DropActions) {
			if seen[strings.ToLower(column)] {
				return &ConfigurationError{Table: table, Column: column, Message: "drop action declared for a column that is kept"}
			}
		}
	}
	return nil
}

// tryEncode turns the encoder's assertion into an error for validation.
func tryEncode(d Dialect, v Value, t Type, optional bool) (literal string, err error) {
	defer func() {
		if r := recover(); r != nil {
			if typeErr, ok := r.(*UnsupportedTypeError); ok {
				err = typeErr
				return
			}
			panic(r)
		}
	}()
	return EncodeValue(d, v, t, optional), nil
}
