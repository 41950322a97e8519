package modeldef

import (
	"fmt"

	"github.com/sqldef/modeldef/database"
	"github.com/sqldef/modeldef/database/mssql"
	"github.com/sqldef/modeldef/database/mysql"
	"github.com/sqldef/modeldef/database/postgres"
	"github.com/sqldef/modeldef/database/sqlite3"
	"github.com/sqldef/modeldef/schema"
)

// Open parses a database URL, see database.ParseURL, and opens its pool.
func Open(url string) (database.Database, error) {
	d, config, err := database.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return OpenConfig(d, config)
}

func OpenConfig(d schema.Dialect, config database.Config) (database.Database, error) {
	switch d {
	case schema.DialectMysql:
		return mysql.NewDatabase(config)
	case schema.DialectPostgres:
		return postgres.NewDatabase(config)
	case schema.DialectSQLite3:
		return sqlite3.NewDatabase(config)
	case schema.DialectMssql:
		return mssql.NewDatabase(config)
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", d)
	}
}
