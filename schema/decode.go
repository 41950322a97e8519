package schema

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	typeSpelling        = regexp.MustCompile(`^([a-z0-9_]+(?: [a-z0-9_]+)*?)(?:\s*\(([^)]*)\))?((?: [a-z]+)*)$`)
	mysqlDisplayWidth   = regexp.MustCompile(`^(int|integer|bigint)\(\d+\)`)
	mysqlEnumDefinition = regexp.MustCompile(`(?i)^enum\((.*)\)$`)
	enumValue           = regexp.MustCompile(`'((?:[^'\\]|''|\\.)*)'`)
)

// DecodeType maps a live type spelling to a Type. When the guessed Type would
// not render back to the same spelling, the spelling is kept in Type.Raw so
// that the diff sees the difference.
func DecodeType(d Dialect, spelling string) Type {
	spelling = strings.TrimSpace(spelling)
	if d == DialectMysql {
		// enum values keep their case
		if m := mysqlEnumDefinition.FindStringSubmatch(spelling); m != nil {
			var values []string
			for _, v := range enumValue.FindAllStringSubmatch(m[1], -1) {
				values = append(values, strings.ReplaceAll(v[1], "''", "'"))
			}
			return Enum(values...)
		}
	}

	canonical := strings.Join(strings.Fields(strings.ToLower(spelling)), " ")
	switch d {
	case DialectMysql:
		canonical = mysqlDisplayWidth.ReplaceAllString(canonical, "$1")
	case DialectPostgres:
		canonical = strings.ReplaceAll(canonical, "character varying", "varchar")
	}

	guess, ok := guessType(d, canonical)
	if ok && d.Supports(guess) == nil && strings.EqualFold(d.TypeName(guess), canonical) {
		return guess
	}
	guess.Raw = canonical
	return guess
}

func guessType(d Dialect, canonical string) (Type, bool) {
	if strings.HasSuffix(canonical, "[]") {
		elem, ok := guessType(d, strings.TrimSuffix(canonical, "[]"))
		return ArrayOf(elem), ok
	}
	if d == DialectMysql && canonical == "tinyint(1)" {
		return Scalar(KindBool), true
	}

	m := typeSpelling.FindStringSubmatch(canonical)
	if m == nil {
		return Scalar(KindString), false
	}
	name := m[1] + m[3]
	args := splitArgs(m[2])

	switch name {
	case "boolean", "bool", "bit":
		return Scalar(KindBool), true
	case "int", "integer", "int4", "serial":
		return Scalar(KindInt), true
	case "bigint", "int8", "bigserial":
		return Scalar(KindBigInt), true
	case "real", "float4":
		return Scalar(KindFloat), true
	case "float":
		if d == DialectMssql {
			return Scalar(KindDouble), true
		}
		return Scalar(KindFloat), true
	case "double", "double precision", "float8":
		return Scalar(KindDouble), true
	case "decimal", "numeric":
		t := Scalar(KindDecimal)
		if len(args) > 0 {
			t.Precision = args[0]
		}
		if len(args) > 1 {
			t.Scale = args[1]
		}
		return t, true
	case "text":
		return Scalar(KindString), true
	case "varchar", "character varying", "nvarchar":
		t := Scalar(KindString)
		if len(args) > 0 {
			t.Length = args[0]
		}
		return t, true
	case "date":
		return Scalar(KindDate), true
	case "datetime", "datetime2", "timestamp", "timestamp with time zone", "timestamptz":
		return Scalar(KindDateTime), true
	}
	return Scalar(KindString), false
}

func splitArgs(s string) []int {
	if s == "" {
		return nil
	}
	var args []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil
		}
		args = append(args, n)
	}
	return args
}
