package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type ValueType int

const (
	ValueTypeNull = ValueType(iota)
	ValueTypeBool
	ValueTypeInt
	ValueTypeUint
	ValueTypeFloat
	ValueTypeStr
	ValueTypeDate
	ValueTypeDateTime
	ValueTypeArray
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeNull:
		return "null"
	case ValueTypeBool:
		return "bool"
	case ValueTypeInt:
		return "int"
	case ValueTypeUint:
		return "uint"
	case ValueTypeFloat:
		return "float"
	case ValueTypeStr:
		return "string"
	case ValueTypeDate:
		return "date"
	case ValueTypeDateTime:
		return "datetime"
	case ValueTypeArray:
		return "array"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// Value is a typed application value, e.g. a column default.
type Value struct {
	valueType ValueType

	// ValueType-specific
	bitVal   bool      // ValueTypeBool
	intVal   int64     // ValueTypeInt
	uintVal  uint64    // ValueTypeUint
	floatVal float64   // ValueTypeFloat
	strVal   string    // ValueTypeStr
	timeVal  time.Time // ValueTypeDate, ValueTypeDateTime
	elems    []Value   // ValueTypeArray
}

func Null() Value                { return Value{valueType: ValueTypeNull} }
func Bool(b bool) Value          { return Value{valueType: ValueTypeBool, bitVal: b} }
func Int(i int64) Value          { return Value{valueType: ValueTypeInt, intVal: i} }
func Uint(u uint64) Value        { return Value{valueType: ValueTypeUint, uintVal: u} }
func Float(f float64) Value      { return Value{valueType: ValueTypeFloat, floatVal: f} }
func String(s string) Value      { return Value{valueType: ValueTypeStr, strVal: s} }
func Date(t time.Time) Value     { return Value{valueType: ValueTypeDate, timeVal: t} }
func DateTime(t time.Time) Value { return Value{valueType: ValueTypeDateTime, timeVal: t} }
func Array(elems ...Value) Value { return Value{valueType: ValueTypeArray, elems: elems} }

func (v Value) Type() ValueType {
	return v.valueType
}

func (v Value) IsNull() bool {
	return v.valueType == ValueTypeNull
}

func (v Value) String() string {
	switch v.valueType {
	case ValueTypeNull:
		return "null"
	case ValueTypeBool:
		return strconv.FormatBool(v.bitVal)
	case ValueTypeInt:
		return strconv.FormatInt(v.intVal, 10)
	case ValueTypeUint:
		return strconv.FormatUint(v.uintVal, 10)
	case ValueTypeFloat:
		return formatFloat(v.floatVal)
	case ValueTypeStr:
		return strconv.Quote(v.strVal)
	case ValueTypeDate:
		return v.timeVal.Format(dateLiteralLayout)
	case ValueTypeDateTime:
		return v.timeVal.UTC().Format(dateTimeLiteralLayout)
	case ValueTypeArray:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "?"
	}
}

// CoerceValue converts a decoded YAML/JSON scalar into a Value of the given
// column type.
func CoerceValue(raw any, t Type) (Value, error) {
	if raw == nil {
		return Null(), nil
	}
	switch t.Kind {
	case KindBool:
		if b, ok := raw.(bool); ok {
			return Bool(b), nil
		}
	case KindInt, KindBigInt:
		switch n := raw.(type) {
		case int:
			return Int(int64(n)), nil
		case int64:
			return Int(n), nil
		case uint64:
			return Uint(n), nil
		case float64:
			if n == math.Trunc(n) {
				return Int(int64(n)), nil
			}
		}
	case KindFloat, KindDouble, KindDecimal:
		switch n := raw.(type) {
		case int:
			return Int(int64(n)), nil
		case int64:
			return Int(n), nil
		case uint64:
			return Uint(n), nil
		case float64:
			return Float(n), nil
		}
	case KindString, KindEnum:
		if s, ok := raw.(string); ok {
			if t.Kind == KindEnum && !containsString(t.Values, s) {
				return Value{}, fmt.Errorf("%q is not one of the enum values %v", s, t.Values)
			}
			return String(s), nil
		}
	case KindDate:
		switch d := raw.(type) {
		case time.Time:
			return Date(d), nil
		case string:
			parsed, err := time.Parse(dateLiteralLayout, d)
			if err != nil {
				return Value{}, err
			}
			return Date(parsed), nil
		}
	case KindDateTime:
		switch d := raw.(type) {
		case time.Time:
			return DateTime(d), nil
		case string:
			for _, layout := range []string{time.RFC3339Nano, dateTimeLiteralLayout, "2006-01-02 15:04:05"} {
				if parsed, err := time.Parse(layout, d); err == nil {
					return DateTime(parsed), nil
				}
			}
			return Value{}, fmt.Errorf("cannot parse %q as datetime", d)
		}
	case KindArray:
		if items, ok := raw.([]any); ok && t.Elem != nil {
			elems := make([]Value, 0, len(items))
			for _, item := range items {
				elem, err := CoerceValue(item, *t.Elem)
				if err != nil {
					return Value{}, err
				}
				elems = append(elems, elem)
			}
			return Array(elems...), nil
		}
	}
	return Value{}, fmt.Errorf("cannot use %v (%T) as %s", raw, raw, t)
}

func containsString(strs []string, str string) bool {
	for _, s := range strs {
		if s == str {
			return true
		}
	}
	return false
}
