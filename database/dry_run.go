package database

import "context"

// DryRunConn forwards queries to the wrapped connection, so introspection
// still sees the live database, and records everything else instead of
// sending it.
type DryRunConn struct {
	wrapped    Conn
	statements []string
}

var _ Conn = (*DryRunConn)(nil)

func NewDryRunConn(conn Conn) *DryRunConn {
	return &DryRunConn{wrapped: conn}
}

func (c *DryRunConn) Execute(_ context.Context, stmt string) error {
	c.statements = append(c.statements, stmt)
	return nil
}

func (c *DryRunConn) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	return c.wrapped.Query(ctx, query, args...)
}

func (c *DryRunConn) RawCommand(_ context.Context, text string) error {
	c.statements = append(c.statements, text)
	return nil
}

func (c *DryRunConn) Close() error {
	return c.wrapped.Close()
}

// Statements returns what would have been sent, in order.
func (c *DryRunConn) Statements() []string {
	return c.statements
}
