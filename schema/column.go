package schema

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Column is the dialect-neutral description of one table column. Desired
// columns come from a Model, live columns from introspection.
type Column struct {
	Name          string
	Type          Type
	NotNull       bool
	AutoIncrement bool
	PrimaryKey    bool
	UniqueKey     bool

	// Default is a SQL literal or expression in the target dialect.
	Default *string
	// DefaultValue is a typed default, rendered into Default by Resolve.
	DefaultValue *Value

	// Migration is only meaningful on the desired side.
	Migration *ColumnMigration
}

// ColumnMigration carries model metadata about how a column came to be.
type ColumnMigration struct {
	// RenamedFrom is the previous name of the column, if any.
	RenamedFrom string
	// Default fills existing rows when the column is added.
	Default *Value
	// Action runs right after the column is added.
	Action Action
	// AlterAction runs right after the column is altered.
	AlterAction Action
}

// Resolve renders DefaultValue for the dialect. Columns with a literal
// Default are returned unchanged.
func (c Column) Resolve(d Dialect) Column {
	if c.Default == nil && c.DefaultValue != nil {
		literal := EncodeValue(d, *c.DefaultValue, c.Type, !c.NotNull)
		c.Default = &literal
	}
	return c
}

func (c Column) HasDefault() bool {
	return c.Default != nil
}

// RequiresValue is true for a NOT NULL column without a default, which cannot
// be added to a table holding rows.
func (c Column) RequiresValue() bool {
	return c.NotNull && !c.HasDefault() && !c.AutoIncrement
}

// comparableTypeName is the type spelling used for diffing. PostgreSQL serial
// types are introspected as their base integer type, so the base name is used there.
func (c Column) comparableTypeName(d Dialect) string {
	if d == DialectPostgres {
		return strings.ToUpper(d.TypeName(c.Type))
	}
	return strings.ToUpper(d.ColumnTypeName(c))
}

// TypeDiffers reports a type change as the dialect spells it.
func (c Column) TypeDiffers(d Dialect, other Column) bool {
	return c.comparableTypeName(d) != other.comparableTypeName(d)
}

// DefaultDiffers compares normalized default literals.
func (c Column) DefaultDiffers(d Dialect, other Column) bool {
	if c.Default == nil || other.Default == nil {
		return (c.Default == nil) != (other.Default == nil)
	}
	return NormalizeDefault(d, *c.Default, c.Type) != NormalizeDefault(d, *other.Default, other.Type)
}

// Differs reports whether converging c into other needs an AlterColumn:
// a different type, nullability or default.
func (c Column) Differs(d Dialect, other Column) bool {
	if c.NotNull != other.NotNull && !c.PrimaryKey && !other.PrimaryKey {
		return true
	}
	return c.TypeDiffers(d, other) || c.DefaultDiffers(d, other)
}

var (
	postgresQuotedCast = regexp.MustCompile(`^((?:E)?'(?:[^']|'')*')::.+$`)
	postgresCast       = regexp.MustCompile(`^([^']*?)::[a-zA-Z_ ]+(?:\[\])?(?:\(\d+(?:,\d+)?\))?$`)
	postgresInnerCast  = regexp.MustCompile(`('(?:[^']|'')*')::[a-zA-Z_ ]+(?:\[\])?`)
)

var defaultDateTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
}

// NormalizeDefault canonicalizes a default literal so that what a model
// declares and what a catalog reports compare equal.
func NormalizeDefault(d Dialect, literal string, t Type) string {
	s := strings.TrimSpace(literal)
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' && balanced(s[1:len(s)-1]) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if d == DialectPostgres {
		for {
			if m := postgresQuotedCast.FindStringSubmatch(s); m != nil {
				s = m[1]
				continue
			}
			if m := postgresCast.FindStringSubmatch(s); m != nil {
				s = strings.TrimSpace(m[1])
				continue
			}
			break
		}
		if strings.HasPrefix(s, "E'") {
			s = "'" + strings.ReplaceAll(s[2:], `\\`, `\`)
		}
	}
	if d == DialectMssql && strings.HasPrefix(s, "N'") {
		s = s[1:]
	}

	quoted := len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\''
	switch t.Kind {
	case KindInt, KindBigInt, KindFloat, KindDouble, KindDecimal:
		if quoted {
			s = s[1 : len(s)-1]
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return formatFloat(f)
		}
		return strings.ToLower(s)
	case KindBool:
		if quoted {
			s = s[1 : len(s)-1]
		}
		s = strings.ToLower(s)
		if d != DialectPostgres {
			switch s {
			case "true":
				return "1"
			case "false":
				return "0"
			}
		}
		return s
	case KindArray:
		if d == DialectPostgres {
			s = postgresInnerCast.ReplaceAllString(s, "$1")
		}
		if strings.HasPrefix(strings.ToLower(s), "array[") {
			return "ARRAY[" + s[len("array["):]
		}
	case KindDateTime:
		if quoted {
			inner := s[1 : len(s)-1]
			for _, layout := range defaultDateTimeLayouts {
				if ts, err := time.Parse(layout, inner); err == nil {
					return "'" + ts.UTC().Format(dateTimeLiteralLayout) + "'"
				}
			}
		}
	}
	if !quoted {
		return strings.ToLower(s)
	}
	return s
}

func balanced(s string) bool {
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				depth++
			}
		case ')':
			if !inQuote {
				depth--
				if depth < 0 {
					return false
				}
			}
		}
	}
	return depth == 0
}
