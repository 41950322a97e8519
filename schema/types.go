package schema

import (
	"fmt"
	"strings"
)

type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindBigInt
	KindFloat
	KindDouble
	KindDecimal
	KindString
	KindDate
	KindDateTime
	KindEnum
	KindArray
)

var kindNames = map[Kind]string{
	KindBool:     "bool",
	KindInt:      "int",
	KindBigInt:   "bigint",
	KindFloat:    "float",
	KindDouble:   "double",
	KindDecimal:  "decimal",
	KindString:   "string",
	KindDate:     "date",
	KindDateTime: "datetime",
	KindEnum:     "enum",
	KindArray:    "array",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps the type names used in model files to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "bool", "boolean":
		return KindBool, nil
	case "int", "integer", "int32":
		return KindInt, nil
	case "bigint", "int64":
		return KindBigInt, nil
	case "float", "float32", "real":
		return KindFloat, nil
	case "double", "float64":
		return KindDouble, nil
	case "decimal", "numeric":
		return KindDecimal, nil
	case "string", "text", "varchar":
		return KindString, nil
	case "date":
		return KindDate, nil
	case "datetime", "timestamp":
		return KindDateTime, nil
	case "enum":
		return KindEnum, nil
	case "array", "vec":
		return KindArray, nil
	default:
		return 0, fmt.Errorf("unknown column type: %q", name)
	}
}

// Type is a scalar, enum or array column type.
type Type struct {
	Kind Kind

	Length    int // KindString, 0 means the dialect default
	Precision int // KindDecimal
	Scale     int // KindDecimal

	Values []string // KindEnum
	Elem   *Type    // KindArray

	// Raw is the live spelling of a type that has no exact Kind mapping,
	// e.g. MySQL "longtext". It wins over Kind when rendering.
	Raw string
}

func Scalar(kind Kind) Type {
	return Type{Kind: kind}
}

func Enum(values ...string) Type {
	return Type{Kind: KindEnum, Values: values}
}

func ArrayOf(elem Type) Type {
	return Type{Kind: KindArray, Elem: &elem}
}

func (t Type) IsInteger() bool {
	return t.Kind == KindInt || t.Kind == KindBigInt
}

func (t Type) String() string {
	switch t.Kind {
	case KindString:
		if t.Length > 0 {
			return fmt.Sprintf("string(%d)", t.Length)
		}
	case KindDecimal:
		if t.Precision > 0 {
			return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
		}
	case KindEnum:
		return fmt.Sprintf("enum(%s)", strings.Join(t.Values, ","))
	case KindArray:
		if t.Elem != nil {
			return t.Elem.String() + "[]"
		}
	}
	return t.Kind.String()
}
