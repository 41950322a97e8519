package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/sqldef/modeldef/database"
	"github.com/sqldef/modeldef/schema"
	"github.com/sqldef/modeldef/util"
)

var stripHeredocRegex = regexp.MustCompilePOSIX("^\t*")

func init() {
	util.InitSlog()

	// Keep debug output of the diff out of test logs unless LOG_LEVEL asks for it.
	if os.Getenv("LOG_LEVEL") == "" {
		opts := &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}
		handler := slog.NewTextHandler(os.Stderr, opts)
		slog.SetDefault(slog.New(handler))
	}
}

// FakeConn records statements instead of running them. Queries are answered
// from canned responses keyed by the exact query text.
type FakeConn struct {
	responses map[string][]database.Row
	errors    map[string]error

	Executed []string
	Raw      []string
	Queries  []string
	Closed   bool
}

var _ database.Conn = (*FakeConn)(nil)

func NewFakeConn() *FakeConn {
	return &FakeConn{
		responses: map[string][]database.Row{},
		errors:    map[string]error{},
	}
}

// OnQuery sets the rows returned for query.
func (c *FakeConn) OnQuery(query string, rows ...database.Row) *FakeConn {
	c.responses[query] = rows
	return c
}

// FailOn makes the statement or query fail with err.
func (c *FakeConn) FailOn(stmt string, err error) *FakeConn {
	c.errors[stmt] = err
	return c
}

func (c *FakeConn) Execute(_ context.Context, stmt string) error {
	if err := c.errors[stmt]; err != nil {
		return err
	}
	c.Executed = append(c.Executed, stmt)
	return nil
}

func (c *FakeConn) Query(_ context.Context, query string, _ ...any) ([]database.Row, error) {
	c.Queries = append(c.Queries, query)
	if err := c.errors[query]; err != nil {
		return nil, err
	}
	return c.responses[query], nil
}

func (c *FakeConn) RawCommand(_ context.Context, text string) error {
	if err := c.errors[text]; err != nil {
		return err
	}
	c.Raw = append(c.Raw, text)
	return nil
}

func (c *FakeConn) Close() error {
	c.Closed = true
	return nil
}

// Count returns how many executed statements start with prefix.
func (c *FakeConn) Count(prefix string) int {
	n := 0
	for _, stmt := range c.Executed {
		if strings.HasPrefix(stmt, prefix) {
			n++
		}
	}
	return n
}

// Record is a one-row result, enough for the record-presence check.
func Record() database.Row {
	return database.NewRow([]string{"id"}, []any{int64(1)})
}

// FakeDatabase serves introspection from memory, so convergence can be
// tested without a server. Statements are not applied to it.
type FakeDatabase struct {
	dialect schema.Dialect
	order   []string
	tables  map[string][]schema.Column
}

var _ database.Database = (*FakeDatabase)(nil)

func NewFakeDatabase(d schema.Dialect) *FakeDatabase {
	return &FakeDatabase{dialect: d, tables: map[string][]schema.Column{}}
}

func (f *FakeDatabase) AddTable(name string, columns ...schema.Column) *FakeDatabase {
	if _, ok := f.tables[name]; !ok {
		f.order = append(f.order, name)
	}
	f.tables[name] = columns
	return f
}

func (f *FakeDatabase) Dialect() schema.Dialect {
	return f.dialect
}

func (f *FakeDatabase) TableNames(context.Context, database.Conn) ([]string, error) {
	return append([]string(nil), f.order...), nil
}

func (f *FakeDatabase) Columns(_ context.Context, _ database.Conn, table string) ([]schema.Column, error) {
	columns, ok := f.tables[table]
	if !ok {
		return nil, fmt.Errorf("no such table: %s", table)
	}
	return columns, nil
}

func (f *FakeDatabase) DB() *sql.DB {
	return nil
}

func (f *FakeDatabase) Close() error {
	return nil
}

// StringLogger collects what a run prints.
type StringLogger struct {
	buf strings.Builder
}

func (l *StringLogger) Print(v ...any) {
	l.buf.WriteString(fmt.Sprint(v...))
}

func (l *StringLogger) Printf(format string, v ...any) {
	l.buf.WriteString(fmt.Sprintf(format, v...))
}

func (l *StringLogger) Println(v ...any) {
	l.buf.WriteString(fmt.Sprint(v...))
	l.buf.WriteString("\n")
}

func (l *StringLogger) String() string {
	return l.buf.String()
}

// QueryRows executes a query and returns the results as a tab-separated string.
func QueryRows(t *testing.T, db *sql.DB, query string) string {
	t.Helper()
	rows, err := db.Query(query)
	if err != nil {
		t.Fatalf("failed to query `%s': %v", query, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		t.Fatal(err)
	}
	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	var result strings.Builder
	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			t.Fatal(err)
		}
		for i, val := range values {
			if i > 0 {
				result.WriteString("\t")
			}
			result.WriteString(database.AsString(val))
		}
		result.WriteString("\n")
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	return result.String()
}

func StripHeredoc(heredoc string) string {
	heredoc = strings.TrimPrefix(heredoc, "\n")
	return stripHeredocRegex.ReplaceAllLiteralString(heredoc, "")
}
