package database

import (
	"context"
	"fmt"

	"github.com/sqldef/modeldef/schema"
)

// Session applies statements on one connection and prints them as they go:
// a header once, then every statement terminated by ';'.
type Session struct {
	conn     Conn
	logger   Logger
	header   string
	skipDrop bool
	started  bool
	applied  []string
	skipped  []string
}

var _ schema.Executor = (*Session)(nil)

func NewSession(conn Conn, logger Logger, dryRun, skipDrop bool) *Session {
	if logger == nil {
		logger = NullLogger{}
	}
	header := "-- Apply --"
	if dryRun {
		header = "-- dry run --"
	}
	return &Session{conn: conn, logger: logger, header: header, skipDrop: skipDrop}
}

func (s *Session) start() {
	if !s.started {
		s.logger.Println(s.header)
		s.started = true
	}
}

func (s *Session) Execute(ctx context.Context, stmt string) error {
	s.start()
	s.logger.Printf("%s;\n", stmt)
	if err := s.conn.Execute(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute `%s': %w", stmt, err)
	}
	s.applied = append(s.applied, stmt)
	return nil
}

// ExecuteDestructive executes a DROP of a table or column. With skipDrop
// the statement is only printed, and false is returned.
func (s *Session) ExecuteDestructive(ctx context.Context, stmt string) (bool, error) {
	if s.skipDrop {
		s.start()
		s.logger.Printf("-- Skipped: %s;\n", stmt)
		s.skipped = append(s.skipped, stmt)
		return false, nil
	}
	return true, s.Execute(ctx, stmt)
}

func (s *Session) RawCommand(ctx context.Context, text string) error {
	s.start()
	s.logger.Printf("%s;\n", text)
	if err := s.conn.RawCommand(ctx, text); err != nil {
		return fmt.Errorf("failed to run `%s': %w", text, err)
	}
	s.applied = append(s.applied, text)
	return nil
}

// Query is never printed.
func (s *Session) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	return s.conn.Query(ctx, query, args...)
}

func (s *Session) Conn() Conn {
	return s.conn
}

func (s *Session) SkipDrop() bool {
	return s.skipDrop
}

// Applied lists the statements executed so far.
func (s *Session) Applied() []string {
	return s.applied
}

// Skipped lists the statements suppressed by skipDrop.
func (s *Session) Skipped() []string {
	return s.skipped
}
