package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/sqldef/modeldef/database"
	"github.com/sqldef/modeldef/schema"
)

type MssqlDatabase struct {
	config database.Config
	db     *sql.DB
}

func NewDatabase(config database.Config) (database.Database, error) {
	db, err := sql.Open("sqlserver", mssqlBuildDSN(config))
	if err != nil {
		return nil, err
	}

	return &MssqlDatabase{
		db:     db,
		config: config,
	}, nil
}

func (d *MssqlDatabase) Dialect() schema.Dialect {
	return schema.DialectMssql
}

const tableNamesQuery = `SELECT name FROM sys.tables WHERE is_ms_shipped = 0 AND schema_id = SCHEMA_ID() ORDER BY name`

func (d *MssqlDatabase) TableNames(ctx context.Context, conn database.Conn) ([]string, error) {
	return database.QueryStrings(ctx, conn, tableNamesQuery)
}

const columnsQuery = `SELECT c.COLUMN_NAME, c.DATA_TYPE, c.CHARACTER_MAXIMUM_LENGTH, c.NUMERIC_PRECISION, c.NUMERIC_SCALE, c.DATETIME_PRECISION, c.IS_NULLABLE, c.COLUMN_DEFAULT,
COLUMNPROPERTY(OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME)), c.COLUMN_NAME, 'IsIdentity') AS IS_IDENTITY
FROM INFORMATION_SCHEMA.COLUMNS c
WHERE c.TABLE_SCHEMA = SCHEMA_NAME() AND c.TABLE_NAME = @p1
ORDER BY c.ORDINAL_POSITION`

const keysQuery = `SELECT kcu.COLUMN_NAME AS column_name, tc.CONSTRAINT_NAME AS constraint_name, tc.CONSTRAINT_TYPE AS constraint_type
FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu ON kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME AND kcu.TABLE_SCHEMA = tc.TABLE_SCHEMA AND kcu.TABLE_NAME = tc.TABLE_NAME
WHERE tc.TABLE_SCHEMA = SCHEMA_NAME() AND tc.TABLE_NAME = @p1 AND tc.CONSTRAINT_TYPE IN ('PRIMARY KEY', 'UNIQUE')`

func (d *MssqlDatabase) Columns(ctx context.Context, conn database.Conn, table string) ([]schema.Column, error) {
	rows, err := conn.Query(ctx, columnsQuery, table)
	if err != nil {
		return nil, database.DescribeError(table, err)
	}

	columns := make([]schema.Column, 0, len(rows))
	for _, row := range rows {
		columns = append(columns, schema.Column{
			Name:          row.String("COLUMN_NAME"),
			Type:          schema.DecodeType(schema.DialectMssql, typeSpelling(row)),
			NotNull:       !row.Bool("IS_NULLABLE"),
			AutoIncrement: row.Int64("IS_IDENTITY") == 1,
			Default:       row.NullString("COLUMN_DEFAULT"),
		})
	}

	keys, err := conn.Query(ctx, keysQuery, table)
	if err != nil {
		return nil, database.DescribeError(table, err)
	}
	database.ApplyKeyRoles(columns, keys)
	return columns, nil
}

// typeSpelling puts the modifiers INFORMATION_SCHEMA reports separately back
// into the type name, e.g. nvarchar(255) or decimal(18,2).
func typeSpelling(row database.Row) string {
	dataType := strings.ToLower(row.String("DATA_TYPE"))
	switch dataType {
	case "char", "varchar", "nchar", "nvarchar", "binary", "varbinary":
		length := row.Int64("CHARACTER_MAXIMUM_LENGTH")
		if length == -1 {
			return dataType + "(max)"
		}
		return fmt.Sprintf("%s(%d)", dataType, length)
	case "decimal", "numeric":
		return fmt.Sprintf("%s(%d,%d)", dataType, row.Int64("NUMERIC_PRECISION"), row.Int64("NUMERIC_SCALE"))
	case "datetime2", "datetimeoffset", "time":
		return fmt.Sprintf("%s(%d)", dataType, row.Int64("DATETIME_PRECISION"))
	default:
		return dataType
	}
}

func (d *MssqlDatabase) DB() *sql.DB {
	return d.db
}

func (d *MssqlDatabase) Close() error {
	return d.db.Close()
}

func mssqlBuildDSN(config database.Config) string {
	query := url.Values{}
	if config.DbName != "" {
		query.Add("database", config.DbName)
	}
	if config.SslMode != "" {
		query.Add("encrypt", config.SslMode)
	}
	if config.SslCa != "" {
		query.Add("certificate", config.SslCa)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(config.User, config.Password),
		Host:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}
