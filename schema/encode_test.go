package schema

import (
	"database/sql"
	"math"
	"testing"
	"time"

	pg_query "github.com/pganalyze/pg_query_go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestEncodeValue(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 123456000, time.UTC)
	tests := []struct {
		name     string
		dialect  Dialect
		value    Value
		typ      Type
		expected string
	}{
		{"null", DialectPostgres, Null(), Scalar(KindString), "NULL"},
		{"mysql string", DialectMysql, String("O'Brien"), Scalar(KindString), `'O\'Brien'`},
		{"mysql backslash", DialectMysql, String(`C:\dir`), Scalar(KindString), `'C:\\dir'`},
		{"mysql invalid utf8", DialectMysql, String("a\xffb'"), Scalar(KindString), "'a\xffb\\''"},
		{"postgres string", DialectPostgres, String("O'Brien"), Scalar(KindString), `'O''Brien'`},
		{"postgres backslash", DialectPostgres, String(`a\b`), Scalar(KindString), `E'a\\b'`},
		{"sqlite3 string", DialectSQLite3, String("O'Brien"), Scalar(KindString), `'O''Brien'`},
		{"mssql string", DialectMssql, String("O'Brien"), Scalar(KindString), `'O''Brien'`},
		{"enum", DialectMysql, String("active"), Enum("active"), `'active'`},
		{"postgres bool", DialectPostgres, Bool(true), Scalar(KindBool), "TRUE"},
		{"sqlite3 bool", DialectSQLite3, Bool(true), Scalar(KindBool), "1"},
		{"mysql bool", DialectMysql, Bool(false), Scalar(KindBool), "0"},
		{"int", DialectMysql, Int(-42), Scalar(KindInt), "-42"},
		{"uint", DialectMysql, Uint(math.MaxUint64), Scalar(KindBigInt), "18446744073709551615"},
		{"float", DialectPostgres, Float(1.5), Scalar(KindDouble), "1.5"},
		{"float without exponent", DialectPostgres, Float(1e21), Scalar(KindDouble), "1000000000000000000000"},
		{"int as decimal", DialectPostgres, Int(3), Scalar(KindDecimal), "3"},
		{"date", DialectPostgres, Date(at), Scalar(KindDate), "'2024-01-02'"},
		{"datetime", DialectMysql, DateTime(at), Scalar(KindDateTime), "'2024-01-02 03:04:05.123456'"},
		{"postgres datetime with offset", DialectPostgres, DateTime(at.In(time.FixedZone("CET", 60*60))), Scalar(KindDateTime), "'2024-01-02 03:04:05.123456+00'"},
		{"datetime in utc", DialectSQLite3, DateTime(at.In(time.FixedZone("JST", 9*60*60))), Scalar(KindDateTime), "'2024-01-02 03:04:05.123456'"},
		{"array", DialectPostgres, Array(String("a"), String("b")), ArrayOf(Scalar(KindString)), "ARRAY['a', 'b']"},
		{"int array", DialectPostgres, Array(Int(1), Int(2)), ArrayOf(Scalar(KindInt)), "ARRAY[1, 2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EncodeValue(tt.dialect, tt.value, tt.typ, true))
		})
	}
}

func TestEncodeValueUnsupported(t *testing.T) {
	assertTypePanic := func(t *testing.T, f func()) {
		t.Helper()
		defer func() {
			r := recover()
			require.NotNil(t, r)
			_, ok := r.(*UnsupportedTypeError)
			assert.True(t, ok, "panic value %#v", r)
		}()
		f()
	}

	t.Run("array on mysql", func(t *testing.T) {
		assertTypePanic(t, func() {
			EncodeValue(DialectMysql, Array(Int(1)), ArrayOf(Scalar(KindInt)), true)
		})
	})
	t.Run("string as int", func(t *testing.T) {
		assertTypePanic(t, func() {
			EncodeValue(DialectPostgres, String("x"), Scalar(KindInt), true)
		})
	})
	t.Run("null for required column", func(t *testing.T) {
		assertTypePanic(t, func() {
			EncodeValue(DialectPostgres, Null(), Scalar(KindInt), false)
		})
	})
	t.Run("nan default", func(t *testing.T) {
		assertTypePanic(t, func() {
			EncodeValue(DialectPostgres, Float(math.NaN()), Scalar(KindDouble), true)
		})
	})
	t.Run("infinite value", func(t *testing.T) {
		assertTypePanic(t, func() {
			Float(math.Inf(1)).SQL(DialectMysql)
		})
	})
	t.Run("untyped array on sqlite3", func(t *testing.T) {
		assertTypePanic(t, func() {
			Array(Int(1)).SQL(DialectSQLite3)
		})
	})
}

func TestValueSQL(t *testing.T) {
	assert.Equal(t, "NULL", Null().SQL(DialectMysql))
	assert.Equal(t, "TRUE", Bool(true).SQL(DialectPostgres))
	assert.Equal(t, "1", Bool(true).SQL(DialectMssql))
	assert.Equal(t, `'it''s'`, String("it's").SQL(DialectSQLite3))
	assert.Equal(t, "ARRAY[1, 2]", Array(Int(1), Uint(2)).SQL(DialectPostgres))
}

// The literal must read back as the original string in the dialect's own grammar.
func TestStringLiteralRoundTripSQLite(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	for _, s := range []string{"O'Brien", "''", `back\slash`, "multi\nline"} {
		var got string
		literal := EncodeValue(DialectSQLite3, String(s), Scalar(KindString), false)
		require.NoError(t, db.QueryRow("SELECT "+literal).Scan(&got))
		assert.Equal(t, s, got)
	}

	var truthy int
	require.NoError(t, db.QueryRow("SELECT "+EncodeValue(DialectSQLite3, Bool(true), Scalar(KindBool), false)).Scan(&truthy))
	assert.Equal(t, 1, truthy)
}

func TestStringLiteralRoundTripPostgres(t *testing.T) {
	tests := []struct {
		value    string
		expected string
	}{
		{"O'Brien", `"str":"O'Brien"`},
		{`a\b`, `"str":"a\\b"`},
	}
	for _, tt := range tests {
		literal := EncodeValue(DialectPostgres, String(tt.value), Scalar(KindString), false)
		tree, err := pg_query.ParseToJSON("SELECT " + literal)
		require.NoError(t, err, literal)
		assert.Contains(t, tree, tt.expected)
	}
}
