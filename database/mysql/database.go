package mysql

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	driver "github.com/go-sql-driver/mysql"
	"github.com/sqldef/modeldef/database"
	"github.com/sqldef/modeldef/schema"
)

type MysqlDatabase struct {
	config database.Config
	db     *sql.DB
}

func NewDatabase(config database.Config) (database.Database, error) {
	if config.SslMode == "custom" {
		err := registerTLSConfig(config.SslCa)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("mysql", mysqlBuildDSN(config))
	if err != nil {
		return nil, err
	}

	return &MysqlDatabase{
		db:     db,
		config: config,
	}, nil
}

func (d *MysqlDatabase) Dialect() schema.Dialect {
	return schema.DialectMysql
}

func (d *MysqlDatabase) TableNames(ctx context.Context, conn database.Conn) ([]string, error) {
	return database.QueryStrings(ctx, conn, "SHOW FULL TABLES WHERE Table_Type != 'VIEW'")
}

func (d *MysqlDatabase) Columns(ctx context.Context, conn database.Conn, table string) ([]schema.Column, error) {
	rows, err := conn.Query(ctx, "SHOW COLUMNS FROM "+schema.DialectMysql.QuoteIdent(table))
	if err != nil {
		return nil, database.DescribeError(table, err)
	}

	columns := make([]schema.Column, 0, len(rows))
	for _, row := range rows {
		extra := strings.ToLower(row.String("Extra"))
		key := row.String("Key")
		column := schema.Column{
			Name:          row.String("Field"),
			Type:          schema.DecodeType(schema.DialectMysql, row.String("Type")),
			NotNull:       row.String("Null") == "NO",
			PrimaryKey:    key == "PRI",
			UniqueKey:     key == "UNI",
			AutoIncrement: strings.Contains(extra, "auto_increment"),
		}
		if def := row.NullString("Default"); def != nil {
			literal := liveDefault(*def, column.Type, extra)
			column.Default = &literal
		}
		slog.Debug("Introspected column", "table", table, "column", column.Name, "type", row.String("Type"))
		columns = append(columns, column)
	}
	return columns, nil
}

// liveDefault turns SHOW COLUMNS' unquoted default back into a literal.
// Expression defaults are flagged DEFAULT_GENERATED and stay as they are.
func liveDefault(value string, t schema.Type, extra string) string {
	if strings.Contains(extra, "default_generated") {
		return value
	}
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		return value
	}
	switch t.Kind {
	case schema.KindString, schema.KindEnum, schema.KindDate, schema.KindDateTime:
		return schema.String(value).SQL(schema.DialectMysql)
	}
	return value
}

func (d *MysqlDatabase) DB() *sql.DB {
	return d.db
}

func (d *MysqlDatabase) Close() error {
	return d.db.Close()
}

func mysqlBuildDSN(config database.Config) string {
	c := driver.NewConfig()
	c.User = config.User
	c.Passwd = config.Password
	c.DBName = config.DbName
	c.AllowCleartextPasswords = config.MySQLEnableCleartextPlugin
	c.TLSConfig = config.SslMode
	if config.Socket == "" {
		c.Net = "tcp"
		c.Addr = fmt.Sprintf("%s:%d", config.Host, config.Port)
	} else {
		c.Net = "unix"
		c.Addr = config.Socket
	}
	return c.FormatDSN()
}

func registerTLSConfig(pemPath string) error {
	rootCertPool := x509.NewCertPool()
	pem, err := os.ReadFile(pemPath)
	if err != nil {
		return err
	}

	if ok := rootCertPool.AppendCertsFromPEM(pem); !ok {
		return fmt.Errorf("failed to append PEM")
	}

	return driver.RegisterTLSConfig("custom", &tls.Config{
		RootCAs: rootCertPool,
	})
}
