// This package has the database connection layer. Never deal with DDL construction.
package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sqldef/modeldef/schema"
)

type Config struct {
	DbName   string
	User     string
	Password string
	Host     string
	Port     int
	Socket   string
	SslMode  string
	SslCa    string

	// Only MySQL
	MySQLEnableCleartextPlugin bool
}

// Abstraction layer for multiple kinds of databases
type Database interface {
	Dialect() schema.Dialect
	// TableNames lists user tables in catalog order.
	TableNames(ctx context.Context, conn Conn) ([]string, error)
	// Columns describes the live columns of one table.
	Columns(ctx context.Context, conn Conn, table string) ([]schema.Column, error)
	DB() *sql.DB
	Close() error
}

// Conn is one connection borrowed for a whole run. Statements are issued
// strictly one after another.
type Conn interface {
	Execute(ctx context.Context, stmt string) error
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	// RawCommand sends text to the driver as is, e.g. USE on a session.
	RawCommand(ctx context.Context, text string) error
	Close() error
}

// Row is one result row. Values keep the driver's representation.
type Row struct {
	columns []string
	values  []any
}

func NewRow(columns []string, values []any) Row {
	return Row{columns: columns, values: values}
}

func (r Row) Columns() []string {
	return r.columns
}

func (r Row) Index(i int) any {
	return r.values[i]
}

// Get looks a column up by name, ignoring case.
func (r Row) Get(name string) (any, bool) {
	for i, c := range r.columns {
		if strings.EqualFold(c, name) {
			return r.values[i], true
		}
	}
	return nil, false
}

// String returns "" for NULL and for unknown columns.
func (r Row) String(name string) string {
	v, _ := r.Get(name)
	return AsString(v)
}

func (r Row) NullString(name string) *string {
	v, _ := r.Get(name)
	if v == nil {
		return nil
	}
	s := AsString(v)
	return &s
}

func (r Row) Int64(name string) int64 {
	v, _ := r.Get(name)
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case nil:
		return 0
	default:
		i, _ := strconv.ParseInt(strings.TrimSpace(AsString(v)), 10, 64)
		return i
	}
}

// Bool understands native booleans, numbers and the YES/NO spelling of
// information_schema.
func (r Row) Bool(name string) bool {
	v, _ := r.Get(name)
	switch b := v.(type) {
	case bool:
		return b
	case nil:
		return false
	case int64, int32, int, float64:
		return r.Int64(name) != 0
	default:
		switch strings.ToLower(strings.TrimSpace(AsString(v))) {
		case "1", "t", "true", "y", "yes":
			return true
		}
		return false
	}
}

// AsString renders a driver value as text.
func AsString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case time.Time:
		return s.Format("2006-01-02 15:04:05.999999999Z07:00")
	default:
		return fmt.Sprint(v)
	}
}

// SQLConn implements Conn over a single connection of a *sql.DB pool.
type SQLConn struct {
	conn *sql.Conn
}

var _ Conn = (*SQLConn)(nil)

// Checkout borrows one connection from the pool. The caller must Close it.
func Checkout(ctx context.Context, db *sql.DB) (*SQLConn, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check out a connection: %w", err)
	}
	return &SQLConn{conn: conn}, nil
}

func (c *SQLConn) Execute(ctx context.Context, stmt string) error {
	_, err := c.conn.ExecContext(ctx, stmt)
	return err
}

func (c *SQLConn) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var result []Row
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		result = append(result, NewRow(columns, values))
	}
	return result, rows.Err()
}

// RawCommand bypasses statement preparation where the driver allows it.
func (c *SQLConn) RawCommand(ctx context.Context, text string) error {
	err := c.conn.Raw(func(driverConn any) error {
		execer, ok := driverConn.(driver.ExecerContext)
		if !ok {
			return driver.ErrSkip
		}
		_, err := execer.ExecContext(ctx, text, nil)
		return err
	})
	if errors.Is(err, driver.ErrSkip) {
		_, err = c.conn.ExecContext(ctx, text)
	}
	return err
}

func (c *SQLConn) Close() error {
	return c.conn.Close()
}
