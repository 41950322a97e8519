package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

const (
	dateLiteralLayout     = "2006-01-02"
	dateTimeLiteralLayout = "2006-01-02 15:04:05.000000"
	// TIMESTAMP WITH TIME ZONE reads offset-less literals in the session time zone.
	postgresDateTimeLiteralLayout = dateTimeLiteralLayout + "-07"
)

// EncodeValue renders v as a SQL literal of column type t. A value that the
// type or the dialect cannot represent is a model/connector mismatch and
// panics with *UnsupportedTypeError.
func EncodeValue(d Dialect, v Value, t Type, optional bool) string {
	if v.IsNull() {
		if optional {
			return d.NullKeyword()
		}
		panic(&UnsupportedTypeError{Dialect: d, Type: t, Reason: "null for a required column"})
	}
	switch t.Kind {
	case KindString, KindEnum:
		if v.valueType == ValueTypeStr {
			return quoteString(d, v.strVal)
		}
	case KindBool:
		if v.valueType == ValueTypeBool {
			return d.BoolLiteral(v.bitVal)
		}
	case KindInt, KindBigInt:
		switch v.valueType {
		case ValueTypeInt:
			return strconv.FormatInt(v.intVal, 10)
		case ValueTypeUint:
			return strconv.FormatUint(v.uintVal, 10)
		}
	case KindFloat, KindDouble, KindDecimal:
		switch v.valueType {
		case ValueTypeFloat:
			return encodeFloat(d, t, v.floatVal)
		case ValueTypeInt:
			return strconv.FormatInt(v.intVal, 10)
		case ValueTypeUint:
			return strconv.FormatUint(v.uintVal, 10)
		}
	case KindDate:
		if v.valueType == ValueTypeDate || v.valueType == ValueTypeDateTime {
			return quoteString(d, v.timeVal.Format(dateLiteralLayout))
		}
	case KindDateTime:
		if v.valueType == ValueTypeDateTime || v.valueType == ValueTypeDate {
			return encodeDateTime(d, v)
		}
	case KindArray:
		if !d.SupportsArrays() {
			panic(&UnsupportedTypeError{Dialect: d, Type: t})
		}
		if v.valueType == ValueTypeArray && t.Elem != nil {
			elems := make([]string, len(v.elems))
			for i, e := range v.elems {
				elems[i] = EncodeValue(d, e, *t.Elem, true)
			}
			return wrapInArray(strings.Join(elems, ", "))
		}
	}
	panic(&UnsupportedTypeError{Dialect: d, Type: t, Reason: fmt.Sprintf("cannot encode %s value", v.valueType)})
}

// SQL renders v without a column type, choosing the literal form from the
// value itself.
func (v Value) SQL(d Dialect) string {
	switch v.valueType {
	case ValueTypeNull:
		return d.NullKeyword()
	case ValueTypeBool:
		return d.BoolLiteral(v.bitVal)
	case ValueTypeInt:
		return strconv.FormatInt(v.intVal, 10)
	case ValueTypeUint:
		return strconv.FormatUint(v.uintVal, 10)
	case ValueTypeFloat:
		return encodeFloat(d, Scalar(KindDouble), v.floatVal)
	case ValueTypeStr:
		return quoteString(d, v.strVal)
	case ValueTypeDate:
		return quoteString(d, v.timeVal.Format(dateLiteralLayout))
	case ValueTypeDateTime:
		return encodeDateTime(d, v)
	case ValueTypeArray:
		if !d.SupportsArrays() {
			panic(&UnsupportedTypeError{Dialect: d, Type: Type{Kind: KindArray}})
		}
		elems := make([]string, len(v.elems))
		for i, e := range v.elems {
			elems[i] = e.SQL(d)
		}
		return wrapInArray(strings.Join(elems, ", "))
	default:
		panic(fmt.Sprintf("unexpected value type: %d", int(v.valueType)))
	}
}

// StringConstant quotes s with the SQL standard quote doubling.
func StringConstant(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteString(d Dialect, s string) string {
	switch d {
	case DialectMysql:
		var b strings.Builder
		b.Grow(len(s) + 2)
		b.WriteByte('\'')
		for i := 0; i < len(s); i++ {
			switch s[i] {
			case '\'':
				b.WriteString(`\'`)
			case '\\':
				b.WriteString(`\\`)
			default:
				b.WriteByte(s[i])
			}
		}
		b.WriteByte('\'')
		return b.String()
	case DialectPostgres:
		// QuoteLiteral switches to the E'...' form, with a leading space, when s holds a backslash
		return strings.TrimSpace(pq.QuoteLiteral(s))
	case DialectSQLite3, DialectMssql:
		return StringConstant(s)
	default:
		panic(fmt.Sprintf("unexpected dialect: %d", int(d)))
	}
}

// encodeFloat rejects NaN and infinities, which no dialect has a numeric literal for.
func encodeFloat(d Dialect, t Type, f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		panic(&UnsupportedTypeError{Dialect: d, Type: t, Reason: fmt.Sprintf("non-finite value %s", formatFloat(f))})
	}
	return formatFloat(f)
}

func encodeDateTime(d Dialect, v Value) string {
	layout := dateTimeLiteralLayout
	if d == DialectPostgres {
		layout = postgresDateTimeLiteralLayout
	}
	return quoteString(d, v.timeVal.UTC().Format(layout))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func wrapInArray(s string) string {
	return "ARRAY[" + s + "]"
}
