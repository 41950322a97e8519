package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeType(t *testing.T) {
	tests := []struct {
		dialect  Dialect
		spelling string
		expected Type
	}{
		{DialectMysql, "int", Scalar(KindInt)},
		{DialectMysql, "int(11)", Scalar(KindInt)},
		{DialectMysql, "bigint(20)", Scalar(KindBigInt)},
		{DialectMysql, "tinyint(1)", Scalar(KindBool)},
		{DialectMysql, "varchar(191)", Type{Kind: KindString, Length: 191}},
		{DialectMysql, "decimal(18,2)", Type{Kind: KindDecimal, Precision: 18, Scale: 2}},
		{DialectMysql, "datetime(3)", Scalar(KindDateTime)},
		{DialectMysql, "double", Scalar(KindDouble)},
		{DialectMysql, "enum('Active','it''s')", Enum("Active", "it's")},
		{DialectPostgres, "integer", Scalar(KindInt)},
		{DialectPostgres, "double precision", Scalar(KindDouble)},
		{DialectPostgres, "character varying(64)", Type{Kind: KindString, Length: 64}},
		{DialectPostgres, "text", Scalar(KindString)},
		{DialectPostgres, "timestamp(3) with time zone", Scalar(KindDateTime)},
		{DialectPostgres, "numeric(10,4)", Type{Kind: KindDecimal, Precision: 10, Scale: 4}},
		{DialectPostgres, "text[]", ArrayOf(Scalar(KindString))},
		{DialectSQLite3, "INTEGER", Scalar(KindInt)},
		{DialectSQLite3, "BOOLEAN", Scalar(KindBool)},
		{DialectSQLite3, "DATETIME", Scalar(KindDateTime)},
		{DialectSQLite3, "VARCHAR(64)", Type{Kind: KindString, Length: 64}},
		{DialectMssql, "nvarchar(255)", Type{Kind: KindString, Length: 255}},
		{DialectMssql, "bit", Scalar(KindBool)},
		{DialectMssql, "float", Scalar(KindDouble)},
		{DialectMssql, "datetime2(3)", Scalar(KindDateTime)},
	}
	for _, tt := range tests {
		t.Run(tt.dialect.String()+" "+tt.spelling, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecodeType(tt.dialect, tt.spelling))
		})
	}
}

func TestDecodeTypeKeepsUnknownSpelling(t *testing.T) {
	tests := []struct {
		dialect  Dialect
		spelling string
		raw      string
	}{
		{DialectMysql, "longtext", "longtext"},
		{DialectMysql, "datetime", "datetime"},
		{DialectMysql, "bigint(20) unsigned", "bigint unsigned"},
		{DialectPostgres, "timestamp without time zone", "timestamp without time zone"},
		{DialectPostgres, "jsonb", "jsonb"},
		{DialectMssql, "nvarchar(max)", "nvarchar(max)"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect.String()+" "+tt.spelling, func(t *testing.T) {
			decoded := DecodeType(tt.dialect, tt.spelling)
			assert.Equal(t, tt.raw, decoded.Raw)
			// a raw type never compares equal to a declared one
			assert.NotEqual(t, tt.dialect.TypeName(Scalar(decoded.Kind)), tt.dialect.TypeName(decoded))
		})
	}
}
