package schema

import (
	"fmt"
	"strings"
)

// Dialect is the SQL engine a convergence run targets. The set is closed:
// every switch over it must list all four values.
type Dialect int

const (
	DialectMysql Dialect = iota
	DialectPostgres
	DialectSQLite3
	DialectMssql
)

// Dialects lists every supported dialect in declaration order.
var Dialects = []Dialect{DialectMysql, DialectPostgres, DialectSQLite3, DialectMssql}

func (d Dialect) String() string {
	switch d {
	case DialectMysql:
		return "mysql"
	case DialectPostgres:
		return "postgres"
	case DialectSQLite3:
		return "sqlite3"
	case DialectMssql:
		return "mssql"
	default:
		panic(fmt.Sprintf("unexpected dialect: %d", int(d)))
	}
}

// ParseDialect accepts the names used in connection URL schemes.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "mysql":
		return DialectMysql, nil
	case "postgres", "postgresql", "psql":
		return DialectPostgres, nil
	case "sqlite", "sqlite3", "file":
		return DialectSQLite3, nil
	case "mssql", "sqlserver":
		return DialectMssql, nil
	default:
		return 0, fmt.Errorf("unknown dialect: %q", name)
	}
}

// AlterStyle describes how a dialect changes an existing column.
type AlterStyle int

const (
	// AlterModify rewrites the full column definition in one statement.
	AlterModify AlterStyle = iota
	// AlterClauses needs one statement per changed attribute.
	AlterClauses
	// AlterColumnClause rewrites type and nullability, defaults are named constraints.
	AlterColumnClause
	// AlterUnsupported cannot change a column in place.
	AlterUnsupported
)

func (d Dialect) AlterStyle() AlterStyle {
	switch d {
	case DialectMysql:
		return AlterModify
	case DialectPostgres:
		return AlterClauses
	case DialectMssql:
		return AlterColumnClause
	case DialectSQLite3:
		return AlterUnsupported
	default:
		panic(fmt.Sprintf("unexpected dialect: %d", int(d)))
	}
}

func (d Dialect) SupportsInlineAlter() bool {
	return d.AlterStyle() != AlterUnsupported
}

// SupportsArrays reports whether array columns and ARRAY[...] literals exist.
func (d Dialect) SupportsArrays() bool {
	return d == DialectPostgres
}

// SupportsAddRequiredColumn is false when ADD COLUMN ... NOT NULL without a
// default is rejected regardless of the table contents.
func (d Dialect) SupportsAddRequiredColumn() bool {
	return d == DialectMysql || d == DialectPostgres
}

// BackslashEscapes reports whether string literals escape quotes with a backslash
// instead of doubling them.
func (d Dialect) BackslashEscapes() bool {
	return d == DialectMysql
}

// IsFileBased is true when the database is a local file rather than a server catalog.
func (d Dialect) IsFileBased() bool {
	return d == DialectSQLite3
}

func (d Dialect) quoteChars() (string, string) {
	switch d {
	case DialectMysql:
		return "`", "`"
	case DialectPostgres, DialectSQLite3:
		return `"`, `"`
	case DialectMssql:
		return "[", "]"
	default:
		panic(fmt.Sprintf("unexpected dialect: %d", int(d)))
	}
}

// Escape returns the identifier opening quote.
func (d Dialect) Escape() string {
	open, _ := d.quoteChars()
	return open
}

// QuoteIdent quotes an identifier, doubling any embedded closing quote.
func (d Dialect) QuoteIdent(name string) string {
	open, close := d.quoteChars()
	return open + strings.ReplaceAll(name, close, close+close) + close
}

func (d Dialect) BoolLiteral(b bool) string {
	switch d {
	case DialectPostgres:
		if b {
			return "TRUE"
		}
		return "FALSE"
	case DialectMysql, DialectSQLite3, DialectMssql:
		if b {
			return "1"
		}
		return "0"
	default:
		panic(fmt.Sprintf("unexpected dialect: %d", int(d)))
	}
}

func (d Dialect) NullKeyword() string {
	return "NULL"
}

// LimitOne selects at most one row of the table.
func (d Dialect) LimitOne(table string) string {
	if d == DialectMssql {
		return fmt.Sprintf("SELECT TOP 1 * FROM %s", d.QuoteIdent(table))
	}
	return fmt.Sprintf("SELECT * FROM %s LIMIT 1", d.QuoteIdent(table))
}

const (
	defaultMysqlVarcharLength = 191
	defaultMssqlVarcharLength = 255
	defaultDecimalPrecision   = 18
	defaultDecimalScale       = 2
)

// TypeName renders the SQL type of t, ignoring column-level modifiers such as
// auto-increment. Callers validate the type with Supports first.
func (d Dialect) TypeName(t Type) string {
	if t.Raw != "" {
		return strings.ToUpper(t.Raw)
	}
	if err := d.Supports(t); err != nil {
		panic(err)
	}
	switch t.Kind {
	case KindBool:
		switch d {
		case DialectMysql:
			return "TINYINT(1)"
		case DialectMssql:
			return "BIT"
		default:
			return "BOOLEAN"
		}
	case KindInt:
		switch d {
		case DialectMysql, DialectMssql:
			return "INT"
		default:
			return "INTEGER"
		}
	case KindBigInt:
		return "BIGINT"
	case KindFloat:
		if d == DialectMysql {
			return "FLOAT"
		}
		return "REAL"
	case KindDouble:
		switch d {
		case DialectPostgres:
			return "DOUBLE PRECISION"
		case DialectMssql:
			return "FLOAT"
		default:
			return "DOUBLE"
		}
	case KindDecimal:
		precision, scale := t.Precision, t.Scale
		if precision == 0 {
			precision, scale = defaultDecimalPrecision, defaultDecimalScale
		}
		if d == DialectPostgres {
			return fmt.Sprintf("NUMERIC(%d,%d)", precision, scale)
		}
		return fmt.Sprintf("DECIMAL(%d,%d)", precision, scale)
	case KindString:
		switch d {
		case DialectMysql:
			return fmt.Sprintf("VARCHAR(%d)", orDefault(t.Length, defaultMysqlVarcharLength))
		case DialectMssql:
			return fmt.Sprintf("NVARCHAR(%d)", orDefault(t.Length, defaultMssqlVarcharLength))
		default:
			if t.Length > 0 {
				return fmt.Sprintf("VARCHAR(%d)", t.Length)
			}
			return "TEXT"
		}
	case KindDate:
		return "DATE"
	case KindDateTime:
		switch d {
		case DialectMysql:
			return "DATETIME(3)"
		case DialectPostgres:
			return "TIMESTAMP(3) WITH TIME ZONE"
		case DialectMssql:
			return "DATETIME2(3)"
		default:
			return "DATETIME"
		}
	case KindEnum:
		switch d {
		case DialectMysql:
			quoted := make([]string, len(t.Values))
			for i, v := range t.Values {
				quoted[i] = quoteString(d, v)
			}
			return fmt.Sprintf("ENUM(%s)", strings.Join(quoted, ","))
		case DialectMssql:
			return fmt.Sprintf("NVARCHAR(%d)", defaultMssqlVarcharLength)
		default:
			return "TEXT"
		}
	case KindArray:
		return d.TypeName(*t.Elem) + "[]"
	default:
		panic(fmt.Sprintf("unexpected type kind: %d", int(t.Kind)))
	}
}

// ColumnTypeName is TypeName with the auto-increment spelling some dialects
// fold into the type itself.
func (d Dialect) ColumnTypeName(c Column) string {
	if c.AutoIncrement {
		switch {
		case d == DialectPostgres && c.Type.Kind == KindInt:
			return "SERIAL"
		case d == DialectPostgres && c.Type.Kind == KindBigInt:
			return "BIGSERIAL"
		case d == DialectSQLite3 && c.Type.IsInteger():
			// AUTOINCREMENT is only allowed on an INTEGER PRIMARY KEY
			return "INTEGER"
		}
	}
	return d.TypeName(c.Type)
}

// Supports returns an UnsupportedTypeError when t cannot be stored in d.
func (d Dialect) Supports(t Type) error {
	if t.Raw != "" {
		return nil
	}
	switch t.Kind {
	case KindArray:
		if !d.SupportsArrays() {
			return &UnsupportedTypeError{Dialect: d, Type: t}
		}
		if t.Elem == nil {
			return &UnsupportedTypeError{Dialect: d, Type: t, Reason: "array without element type"}
		}
		if t.Elem.Kind == KindArray {
			return &UnsupportedTypeError{Dialect: d, Type: t, Reason: "nested arrays"}
		}
		return d.Supports(*t.Elem)
	case KindEnum:
		if len(t.Values) == 0 {
			return &UnsupportedTypeError{Dialect: d, Type: t, Reason: "enum without values"}
		}
	}
	return nil
}

func orDefault(n, def int) int {
	if n > 0 {
		return n
	}
	return def
}
