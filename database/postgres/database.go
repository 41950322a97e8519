package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"

	_ "github.com/lib/pq"
	"github.com/sqldef/modeldef/database"
	"github.com/sqldef/modeldef/schema"
)

type PostgresDatabase struct {
	config database.Config
	db     *sql.DB
}

func NewDatabase(config database.Config) (database.Database, error) {
	db, err := sql.Open("postgres", postgresBuildDSN(config))
	if err != nil {
		return nil, err
	}

	return &PostgresDatabase{
		db:     db,
		config: config,
	}, nil
}

func (d *PostgresDatabase) Dialect() schema.Dialect {
	return schema.DialectPostgres
}

const tableNamesQuery = `SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = current_schema() ORDER BY tablename`

func (d *PostgresDatabase) TableNames(ctx context.Context, conn database.Conn) ([]string, error) {
	return database.QueryStrings(ctx, conn, tableNamesQuery)
}

// format_type gives the spelling with modifiers, e.g. character varying(64),
// which information_schema splits over several columns.
const columnsQuery = `SELECT c.column_name, format_type(a.atttypid, a.atttypmod) AS data_type, c.is_nullable, c.column_default, c.is_identity
FROM information_schema.columns c
JOIN pg_catalog.pg_attribute a ON a.attrelid = (quote_ident(c.table_schema) || '.' || quote_ident(c.table_name))::regclass AND a.attname = c.column_name
WHERE c.table_schema = current_schema() AND c.table_name = $1
ORDER BY c.ordinal_position`

const keysQuery = `SELECT kcu.column_name, tc.constraint_name, tc.constraint_type
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema AND kcu.table_name = tc.table_name
WHERE tc.table_schema = current_schema() AND tc.table_name = $1 AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')`

func (d *PostgresDatabase) Columns(ctx context.Context, conn database.Conn, table string) ([]schema.Column, error) {
	rows, err := conn.Query(ctx, columnsQuery, table)
	if err != nil {
		return nil, database.DescribeError(table, err)
	}

	columns := make([]schema.Column, 0, len(rows))
	for _, row := range rows {
		column := schema.Column{
			Name:          row.String("column_name"),
			Type:          schema.DecodeType(schema.DialectPostgres, row.String("data_type")),
			NotNull:       !row.Bool("is_nullable"),
			AutoIncrement: row.Bool("is_identity"),
		}
		if def := row.NullString("column_default"); def != nil {
			// serial columns own their sequence default
			if strings.HasPrefix(*def, "nextval(") {
				column.AutoIncrement = true
			} else {
				column.Default = def
			}
		}
		columns = append(columns, column)
	}

	keys, err := conn.Query(ctx, keysQuery, table)
	if err != nil {
		return nil, database.DescribeError(table, err)
	}
	database.ApplyKeyRoles(columns, keys)
	return columns, nil
}

func (d *PostgresDatabase) DB() *sql.DB {
	return d.db
}

func (d *PostgresDatabase) Close() error {
	return d.db.Close()
}

func postgresBuildDSN(config database.Config) string {
	user := config.User
	password := config.Password
	database := config.DbName
	host := ""
	var options []string

	if config.Socket == "" {
		host = fmt.Sprintf("%s:%d", config.Host, config.Port)
	} else {
		// postgres://user:@%2Fvar%2Frun%2Fpostgresql/dbname would be rejected
		// by the URL parser, so the socket directory goes into host=.
		options = append(options, fmt.Sprintf("host=%s", config.Socket))
	}

	if config.SslMode != "" {
		options = append(options, fmt.Sprintf("sslmode=%s", config.SslMode))
	} else if sslmode, ok := os.LookupEnv("PGSSLMODE"); ok {
		options = append(options, fmt.Sprintf("sslmode=%s", sslmode))
	}

	if config.SslCa != "" {
		options = append(options, fmt.Sprintf("sslrootcert=%s", config.SslCa))
	} else if sslrootcert, ok := os.LookupEnv("PGSSLROOTCERT"); ok {
		options = append(options, fmt.Sprintf("sslrootcert=%s", sslrootcert))
	}

	if sslcert, ok := os.LookupEnv("PGSSLCERT"); ok {
		options = append(options, fmt.Sprintf("sslcert=%s", sslcert))
	}

	if sslkey, ok := os.LookupEnv("PGSSLKEY"); ok {
		options = append(options, fmt.Sprintf("sslkey=%s", sslkey))
	}

	// `QueryEscape` instead of `PathEscape` so that colon can be escaped.
	return fmt.Sprintf("postgres://%s:%s@%s/%s?%s", url.QueryEscape(user), url.QueryEscape(password), host, database, strings.Join(options, "&"))
}
