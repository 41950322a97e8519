package modeldef

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/sqldef/modeldef/database"
	"github.com/sqldef/modeldef/schema"
)

type Options struct {
	DryRun   bool
	SkipDrop bool
	// Reset authorizes dropping and recreating a table that holds records
	// when a required column is added to it.
	Reset bool
	// SkipTables are regular expressions matched against whole table names.
	// Matching tables are neither converged nor dropped.
	SkipTables []string
	// BeforeApply runs ahead of the first statement of a run that changes anything.
	BeforeApply string
	Logger      database.Logger
}

type TableRename struct {
	From string
	To   string
}

// Result describes what a run did, or would do under DryRun.
type Result struct {
	Statements []string
	Skipped    []string
	Created    []string
	Renamed    []TableRename
	Altered    []string
	Recreated  []string
	Dropped    []string
}

// Changed reports whether any statement was issued or skipped.
func (r *Result) Changed() bool {
	return len(r.Statements) > 0 || len(r.Skipped) > 0
}

// Converge brings the database behind db in line with models on one
// connection checked out for the whole run.
func Converge(ctx context.Context, db database.Database, models []schema.Model, options Options) (*Result, error) {
	skip, err := prepare(db.Dialect(), models, options)
	if err != nil {
		return nil, err
	}

	conn, err := database.Checkout(ctx, db.DB())
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return converge(ctx, db, conn, models, options, skip)
}

// ConvergeConn is Converge on a connection owned by the caller.
func ConvergeConn(ctx context.Context, db database.Database, conn database.Conn, models []schema.Model, options Options) (*Result, error) {
	skip, err := prepare(db.Dialect(), models, options)
	if err != nil {
		return nil, err
	}
	return converge(ctx, db, conn, models, options, skip)
}

// prepare rejects everything that would otherwise fail halfway through.
func prepare(d schema.Dialect, models []schema.Model, options Options) (*tableFilter, error) {
	if options.Reset && options.SkipDrop {
		return nil, &schema.ConfigurationError{Message: "reset cannot be combined with skip-drop"}
	}
	skip, err := newTableFilter(options.SkipTables)
	if err != nil {
		return nil, err
	}

	declared := map[string]bool{}
	for _, m := range models {
		if m.Virtual() {
			continue
		}
		if err := schema.ValidateModel(d, m); err != nil {
			return nil, err
		}
		if declared[m.TableName()] {
			return nil, &schema.ConfigurationError{Table: m.TableName(), Message: "declared more than once"}
		}
		declared[m.TableName()] = true
	}
	return skip, nil
}

func converge(ctx context.Context, db database.Database, conn database.Conn, models []schema.Model, options Options, skip *tableFilter) (*Result, error) {
	logger := options.Logger
	if logger == nil {
		logger = database.NullLogger{}
	}
	if options.DryRun {
		conn = database.NewDryRunConn(conn)
	}

	c := &converger{
		db:      db,
		dialect: db.Dialect(),
		gen:     schema.NewGenerator(db.Dialect()),
		session: database.NewSession(conn, logger, options.DryRun, options.SkipDrop),
		options: options,
		result:  &Result{},
	}
	err := c.run(ctx, models, skip)
	c.result.Statements = c.session.Applied()
	c.result.Skipped = c.session.Skipped()
	if err != nil {
		return c.result, err
	}
	if !c.result.Changed() {
		logger.Println("-- Nothing is modified --")
	}
	return c.result, nil
}

type converger struct {
	db      database.Database
	dialect schema.Dialect
	gen     *schema.Generator
	session *database.Session
	options Options
	result  *Result

	beforeApplied bool
}

var _ schema.Executor = (*converger)(nil)

func (c *converger) run(ctx context.Context, models []schema.Model, skip *tableFilter) error {
	names, err := c.db.TableNames(ctx, c.session.Conn())
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	live := schema.NewTableSet(skip.Exclude(names))

	for _, m := range models {
		if m.Virtual() {
			slog.Debug("Skipping virtual model", "table", m.TableName())
			continue
		}
		if skip.Match(m.TableName()) {
			slog.Debug("Skipping table", "table", m.TableName())
			continue
		}
		if err := c.convergeTable(ctx, m, live); err != nil {
			return err
		}
	}

	// Clean up obsoleted tables
	for _, table := range live.Remaining() {
		slog.Debug("Dropping undeclared table", "table", table)
		dropped, err := c.executeDestructive(ctx, c.gen.DropTable(table))
		if err != nil {
			return err
		}
		if dropped {
			c.result.Dropped = append(c.result.Dropped, table)
		}
	}
	return nil
}

func (c *converger) convergeTable(ctx context.Context, m schema.Model, live *schema.TableSet) error {
	table := m.TableName()
	// Under DryRun the rename is not applied, so the live table keeps its old name.
	liveName := table

	if !live.Contains(table) {
		for _, old := range m.RenamedFrom() {
			if !live.Contains(old) {
				continue
			}
			slog.Debug("Renaming table", "from", old, "to", table)
			if err := c.Execute(ctx, c.gen.RenameTable(old, table)); err != nil {
				return err
			}
			live.Rename(old, table)
			c.result.Renamed = append(c.result.Renamed, TableRename{From: old, To: table})
			if c.options.DryRun {
				liveName = old
			}
			break
		}
	}

	if !live.Contains(table) {
		slog.Debug("Creating table", "table", table)
		if err := c.Execute(ctx, c.gen.CreateTable(m)); err != nil {
			return err
		}
		c.result.Created = append(c.result.Created, table)
		return nil
	}
	live.Remove(table)

	columns, err := c.db.Columns(ctx, c.session.Conn(), liveName)
	if err != nil {
		return err
	}
	manipulations := schema.DiffColumns(c.dialect, columns, m)
	if len(manipulations) == 0 {
		return nil
	}
	slog.Debug("Table differs", "table", table, "manipulations", manipulations)

	if alter, ok := schema.FirstAlter(manipulations); ok && !c.dialect.SupportsInlineAlter() {
		return &schema.ConfigurationError{
			Table:   table,
			Column:  alter.New.Name,
			Message: fmt.Sprintf("%s cannot alter columns in place", c.dialect),
		}
	}

	if schema.HasRequiredAdd(manipulations) {
		hasRecords, err := c.hasRecords(ctx, liveName)
		if err != nil {
			return err
		}
		switch {
		case hasRecords && !c.options.Reset:
			return &schema.DataLossError{Table: table, Column: requiredColumn(manipulations)}
		case hasRecords || !c.dialect.SupportsAddRequiredColumn():
			return c.recreate(ctx, m)
		}
	}

	// Render everything first so a rejected manipulation leaves the table untouched.
	statements := make([][]string, len(manipulations))
	for i, manipulation := range manipulations {
		statements[i], err = c.gen.Manipulation(table, manipulation)
		if err != nil {
			return err
		}
	}

	for i, manipulation := range manipulations {
		if err := c.apply(ctx, table, manipulation, statements[i]); err != nil {
			return err
		}
	}
	c.result.Altered = append(c.result.Altered, table)
	return nil
}

func (c *converger) apply(ctx context.Context, table string, manipulation schema.Manipulation, statements []string) error {
	switch m := manipulation.(type) {
	case schema.RemoveColumn:
		if !c.session.SkipDrop() {
			if err := c.runAction(ctx, table, m.Name, m.Action); err != nil {
				return err
			}
		}
		for _, stmt := range statements {
			if _, err := c.executeDestructive(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	case schema.AddColumn:
		if err := c.executeAll(ctx, statements); err != nil {
			return err
		}
		return c.runAction(ctx, table, m.Column.Name, m.Action)
	case schema.AlterColumn:
		if err := c.executeAll(ctx, statements); err != nil {
			return err
		}
		return c.runAction(ctx, table, m.New.Name, m.Action)
	default:
		return c.executeAll(ctx, statements)
	}
}

// recreate drops and creates the table. Callers make sure it is empty or
// that Reset was given.
func (c *converger) recreate(ctx context.Context, m schema.Model) error {
	table := m.TableName()
	slog.Debug("Recreating table", "table", table, "reset", c.options.Reset)
	if err := c.Execute(ctx, c.gen.DropTable(table)); err != nil {
		return err
	}
	if err := c.Execute(ctx, c.gen.CreateTable(m)); err != nil {
		return err
	}
	c.result.Recreated = append(c.result.Recreated, table)
	return nil
}

func (c *converger) hasRecords(ctx context.Context, table string) (bool, error) {
	rows, err := c.session.Query(ctx, c.gen.HasRecords(table))
	if err != nil {
		return false, fmt.Errorf("failed to check records of `%s': %w", table, err)
	}
	return len(rows) > 0, nil
}

func (c *converger) runAction(ctx context.Context, table, column string, action schema.Action) error {
	if action == nil {
		return nil
	}
	slog.Debug("Running column action", "table", table, "column", column)
	if err := action.Run(ctx, c); err != nil {
		return fmt.Errorf("action on `%s'.`%s' failed: %w", table, column, err)
	}
	return nil
}

// Execute runs BeforeApply once, then stmt.
func (c *converger) Execute(ctx context.Context, stmt string) error {
	if err := c.beforeApply(ctx); err != nil {
		return err
	}
	return c.session.Execute(ctx, stmt)
}

func (c *converger) executeAll(ctx context.Context, statements []string) error {
	for _, stmt := range statements {
		if err := c.Execute(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *converger) executeDestructive(ctx context.Context, stmt string) (bool, error) {
	if err := c.beforeApply(ctx); err != nil {
		return false, err
	}
	return c.session.ExecuteDestructive(ctx, stmt)
}

func (c *converger) beforeApply(ctx context.Context) error {
	if c.beforeApplied || c.options.BeforeApply == "" {
		return nil
	}
	c.beforeApplied = true
	return c.session.RawCommand(ctx, c.options.BeforeApply)
}

func requiredColumn(manipulations []schema.Manipulation) string {
	for _, m := range manipulations {
		if add, ok := m.(schema.AddColumn); ok && add.IsRequired() {
			return add.Column.Name
		}
	}
	return ""
}

type tableFilter struct {
	patterns []*regexp.Regexp
}

func newTableFilter(patterns []string) (*tableFilter, error) {
	f := &tableFilter{}
	for _, pattern := range patterns {
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return nil, &schema.ConfigurationError{Message: fmt.Sprintf("invalid skip table pattern %q: %s", pattern, err)}
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

func (f *tableFilter) Match(table string) bool {
	for _, re := range f.patterns {
		if re.MatchString(table) {
			return true
		}
	}
	return false
}

func (f *tableFilter) Exclude(tables []string) []string {
	kept := make([]string, 0, len(tables))
	for _, table := range tables {
		if !f.Match(table) {
			kept = append(kept, table)
		}
	}
	return kept
}

// ReadFile reads path, or stdin when path is "-".
func ReadFile(path string) ([]byte, error) {
	if path == "-" {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			return nil, fmt.Errorf("stdin is not piped")
		}
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// ReadModels parses a model file, see schema.ParseModels.
func ReadModels(path string) ([]schema.Model, error) {
	buf, err := ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", path, err)
	}
	return schema.ParseModels(buf)
}

// ParseSkipTables reads one table pattern per line. A missing file means none.
func ParseSkipTables(skipFile string) []string {
	raw, err := ReadFile(skipFile)
	if err != nil {
		return []string{}
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return []string{}
	}
	return strings.Split(trimmed, "\n")
}
