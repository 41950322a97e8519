package sqlite3

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sqldef/modeldef/database"
	"github.com/sqldef/modeldef/schema"
	_ "modernc.org/sqlite"
)

type Sqlite3Database struct {
	config database.Config
	db     *sql.DB
}

func NewDatabase(config database.Config) (database.Database, error) {
	db, err := sql.Open("sqlite", config.DbName)
	if err != nil {
		return nil, err
	}

	return &Sqlite3Database{
		db:     db,
		config: config,
	}, nil
}

func (d *Sqlite3Database) Dialect() schema.Dialect {
	return schema.DialectSQLite3
}

// The underscore is escaped so that only internal sqlite_ tables are hidden.
const tableNamesQuery = `select tbl_name from sqlite_master where type = 'table' and tbl_name not like 'sqlite\_%' escape '\'`

func (d *Sqlite3Database) TableNames(ctx context.Context, conn database.Conn) ([]string, error) {
	return database.QueryStrings(ctx, conn, tableNamesQuery)
}

const (
	columnsQuery       = `select name, type, "notnull", dflt_value, pk from pragma_table_info(?) order by cid`
	uniqueIndexesQuery = `select il.name as index_name, ii.name as column_name from pragma_index_list(?) as il, pragma_index_info(il.name) as ii where il."unique" = 1 and il.origin != 'pk'`
	tableSQLQuery      = `select sql from sqlite_master where type = 'table' and tbl_name = ?`
)

// Columns merges three sources, since SQLite spreads column metadata over
// separate pragmas: table info, unique indexes and the AUTOINCREMENT keyword
// of the CREATE TABLE statement.
func (d *Sqlite3Database) Columns(ctx context.Context, conn database.Conn, table string) ([]schema.Column, error) {
	rows, err := conn.Query(ctx, columnsQuery, table)
	if err != nil {
		return nil, database.DescribeError(table, err)
	}
	columns := make([]schema.Column, 0, len(rows))
	primaryKeys := 0
	for _, row := range rows {
		column := schema.Column{
			Name:       row.String("name"),
			Type:       schema.DecodeType(schema.DialectSQLite3, row.String("type")),
			NotNull:    row.Bool("notnull"),
			PrimaryKey: row.Int64("pk") > 0,
			Default:    row.NullString("dflt_value"),
		}
		if column.PrimaryKey {
			primaryKeys++
		}
		columns = append(columns, column)
	}

	indexes, err := conn.Query(ctx, uniqueIndexesQuery, table)
	if err != nil {
		return nil, database.DescribeError(table, err)
	}
	width := map[string]int{}
	for _, row := range indexes {
		width[row.String("index_name")]++
	}
	for _, row := range indexes {
		if width[row.String("index_name")] != 1 {
			continue
		}
		for i := range columns {
			if columns[i].Name == row.String("column_name") {
				columns[i].UniqueKey = true
			}
		}
	}

	ddl, err := database.QueryStrings(ctx, conn, tableSQLQuery, table)
	if err != nil {
		return nil, database.DescribeError(table, err)
	}
	if primaryKeys == 1 && len(ddl) > 0 && strings.Contains(strings.ToUpper(ddl[0]), "AUTOINCREMENT") {
		for i := range columns {
			if columns[i].PrimaryKey {
				columns[i].AutoIncrement = true
			}
		}
	}
	return columns, nil
}

func (d *Sqlite3Database) DB() *sql.DB {
	return d.db
}

func (d *Sqlite3Database) Close() error {
	return d.db.Close()
}
