package schema

import (
	"fmt"
	"strings"

	"github.com/sqldef/modeldef/util"
)

// Generator renders table and column changes as statements of one dialect.
// Statements carry no trailing semicolon.
type Generator struct {
	dialect Dialect
}

func NewGenerator(d Dialect) *Generator {
	return &Generator{dialect: d}
}

func (g *Generator) quote(name string) string {
	return g.dialect.QuoteIdent(name)
}

// CreateTable defines every column of m, the primary key and unique constraints.
func (g *Generator) CreateTable(m Model) string {
	table := m.TableName()
	columns := m.Columns()
	pk := PrimaryKey(columns)

	defs := make([]string, 0, len(columns)+1)
	for _, c := range columns {
		defs = append(defs, g.columnDefinition(table, c.Resolve(g.dialect), len(pk) == 1))
	}
	if len(pk) > 1 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(util.TransformSlice(pk, g.quote), ", ")))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", g.quote(table), strings.Join(defs, ", "))
}

func (g *Generator) DropTable(table string) string {
	return fmt.Sprintf("DROP TABLE %s", g.quote(table))
}

func (g *Generator) RenameTable(from, to string) string {
	switch g.dialect {
	case DialectMssql:
		return fmt.Sprintf("EXEC sp_rename %s, %s", nationalString(from), nationalString(to))
	case DialectMysql, DialectPostgres, DialectSQLite3:
		return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", g.quote(from), g.quote(to))
	default:
		panic(fmt.Sprintf("unexpected dialect: %d", int(g.dialect)))
	}
}

// HasRecords selects at most one row of table.
func (g *Generator) HasRecords(table string) string {
	return g.dialect.LimitOne(table)
}

// Manipulation renders one manipulation of table.
func (g *Generator) Manipulation(table string, m Manipulation) ([]string, error) {
	switch m := m.(type) {
	case AddColumn:
		return g.AddColumn(table, m)
	case AlterColumn:
		return g.AlterColumn(table, m)
	case RemoveColumn:
		return g.DropColumn(table, m.Name), nil
	case RenameColumn:
		return []string{g.RenameColumn(table, m.Old, m.New)}, nil
	default:
		return nil, fmt.Errorf("unexpected manipulation type: %T", m)
	}
}

// AddColumn adds the column with the migration default, if any, standing in
// for a missing column default. The stand-in is dropped again where the
// dialect can do so.
func (g *Generator) AddColumn(table string, m AddColumn) ([]string, error) {
	d := g.dialect
	c := m.Column.Resolve(d)
	temporaryDefault := false
	if c.Default == nil && m.Default != nil {
		literal := EncodeValue(d, *m.Default, c.Type, !c.NotNull)
		c.Default = &literal
		temporaryDefault = true
	}

	unique := false
	if d == DialectSQLite3 {
		if c.PrimaryKey {
			return nil, &ConfigurationError{Table: table, Column: c.Name, Message: "sqlite3 cannot add a primary key column to an existing table"}
		}
		// ALTER TABLE ADD COLUMN rejects UNIQUE, an index is created instead
		unique, c.UniqueKey = c.UniqueKey, false
	}

	add := "ADD COLUMN"
	if d == DialectMssql {
		add = "ADD"
	}
	ddls := []string{fmt.Sprintf("ALTER TABLE %s %s %s", g.quote(table), add, g.columnDefinition(table, c, true))}
	if unique {
		ddls = append(ddls, fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)", g.quote(uniqueIndexName(table, c.Name)), g.quote(table), g.quote(c.Name)))
	}
	if temporaryDefault && d.SupportsInlineAlter() {
		ddls = append(ddls, g.dropDefault(table, c.Name))
	}
	return ddls, nil
}

// AlterColumn changes type, nullability and default of an existing column
// in the dialect's alter style.
func (g *Generator) AlterColumn(table string, m AlterColumn) ([]string, error) {
	d := g.dialect
	old, new := m.Old, m.New.Resolve(d)
	typeChanged := new.TypeDiffers(d, old)
	defaultChanged := new.DefaultDiffers(d, old)
	nullChanged := old.NotNull != new.NotNull && !old.PrimaryKey && !new.PrimaryKey

	var ddls []string
	switch d.AlterStyle() {
	case AlterModify:
		ddls = append(ddls, fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", g.quote(table), g.columnDefinition(table, new, false)))
	case AlterClauses:
		prefix := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s", g.quote(table), g.quote(new.Name))
		if typeChanged {
			typeName := d.TypeName(new.Type)
			ddls = append(ddls, fmt.Sprintf("%s TYPE %s USING %s::%s", prefix, typeName, g.quote(new.Name), typeName))
		}
		if new.Default != nil && (old.Default == nil || defaultChanged) {
			ddls = append(ddls, fmt.Sprintf("%s SET DEFAULT %s", prefix, *new.Default))
		} else if old.Default != nil && new.Default == nil {
			ddls = append(ddls, prefix+" DROP DEFAULT")
		}
		if nullChanged {
			if new.NotNull {
				ddls = append(ddls, prefix+" SET NOT NULL")
			} else {
				ddls = append(ddls, prefix+" DROP NOT NULL")
			}
		}
	case AlterColumnClause:
		if old.Default != nil && (defaultChanged || typeChanged) {
			ddls = append(ddls, g.dropDefault(table, old.Name))
		}
		if typeChanged || nullChanged {
			ddls = append(ddls, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s %s", g.quote(table), g.quote(new.Name), d.TypeName(new.Type), g.nullability(new)))
		}
		if new.Default != nil && (defaultChanged || (typeChanged && old.Default != nil)) {
			ddls = append(ddls, fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s DEFAULT %s FOR %s",
				g.quote(table), g.quote(defaultConstraintName(table, new.Name)), *new.Default, g.quote(new.Name)))
		}
	case AlterUnsupported:
		return nil, &ConfigurationError{Table: table, Column: new.Name, Message: fmt.Sprintf("%s does not support altering columns", d)}
	default:
		panic(fmt.Sprintf("unexpected alter style: %d", int(d.AlterStyle())))
	}
	return ddls, nil
}

func (g *Generator) DropColumn(table, column string) []string {
	var ddls []string
	switch g.dialect {
	case DialectMssql:
		ddls = append(ddls, g.dropDefault(table, column))
	case DialectSQLite3:
		ddls = append(ddls, fmt.Sprintf("DROP INDEX IF EXISTS %s", g.quote(uniqueIndexName(table, column))))
	}
	return append(ddls, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", g.quote(table), g.quote(column)))
}

func (g *Generator) RenameColumn(table, from, to string) string {
	switch g.dialect {
	case DialectMssql:
		return fmt.Sprintf("EXEC sp_rename %s, %s, N'COLUMN'", nationalString(table+"."+from), nationalString(to))
	case DialectMysql, DialectPostgres, DialectSQLite3:
		return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", g.quote(table), g.quote(from), g.quote(to))
	default:
		panic(fmt.Sprintf("unexpected dialect: %d", int(g.dialect)))
	}
}

// CreateDatabase creates name unless it exists. PostgreSQL has no IF NOT
// EXISTS form, callers look the database up first.
func (g *Generator) CreateDatabase(name string) string {
	switch g.dialect {
	case DialectMysql:
		return fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", g.quote(name))
	case DialectPostgres:
		return fmt.Sprintf("CREATE DATABASE %s", g.quote(name))
	case DialectMssql:
		return fmt.Sprintf("IF DB_ID(%s) IS NULL CREATE DATABASE %s", nationalString(name), g.quote(name))
	case DialectSQLite3:
		panic("sqlite3 databases are files")
	default:
		panic(fmt.Sprintf("unexpected dialect: %d", int(g.dialect)))
	}
}

func (g *Generator) DropDatabase(name string) string {
	if g.dialect.IsFileBased() {
		panic("sqlite3 databases are files")
	}
	return fmt.Sprintf("DROP DATABASE IF EXISTS %s", g.quote(name))
}

// UseDatabase returns false for dialects that cannot switch databases within
// a session.
func (g *Generator) UseDatabase(name string) (string, bool) {
	switch g.dialect {
	case DialectMysql, DialectMssql:
		return fmt.Sprintf("USE %s", g.quote(name)), true
	case DialectPostgres, DialectSQLite3:
		return "", false
	default:
		panic(fmt.Sprintf("unexpected dialect: %d", int(g.dialect)))
	}
}

// columnDefinition renders a column for CREATE TABLE, ADD COLUMN and MODIFY
// COLUMN. Key constraints are only rendered when inlineKeys is set.
func (g *Generator) columnDefinition(table string, c Column, inlineKeys bool) string {
	d := g.dialect
	def := []string{g.quote(c.Name), d.ColumnTypeName(c)}
	if d == DialectMssql && c.AutoIncrement {
		def = append(def, "IDENTITY(1,1)")
	}
	if nullability := g.nullability(c); nullability != "" {
		def = append(def, nullability)
	}
	if c.Default != nil {
		if d == DialectMssql {
			def = append(def, "CONSTRAINT", g.quote(defaultConstraintName(table, c.Name)))
		}
		def = append(def, "DEFAULT", *c.Default)
	}
	if d == DialectMysql && c.AutoIncrement {
		def = append(def, "AUTO_INCREMENT")
	}
	if inlineKeys {
		if c.PrimaryKey {
			def = append(def, "PRIMARY KEY")
			if d == DialectSQLite3 && c.AutoIncrement {
				def = append(def, "AUTOINCREMENT")
			}
		} else if c.UniqueKey {
			def = append(def, "UNIQUE")
		}
	}
	return strings.Join(def, " ")
}

// nullability spells NULL explicitly where the server default depends on
// session settings.
func (g *Generator) nullability(c Column) string {
	if c.NotNull || c.PrimaryKey {
		return "NOT NULL"
	}
	switch g.dialect {
	case DialectMysql, DialectMssql:
		return "NULL"
	default:
		return ""
	}
}

// dropDefault removes the column default. SQL Server defaults are named
// constraints, looked up by column since the name may predate a rename.
func (g *Generator) dropDefault(table, column string) string {
	switch g.dialect {
	case DialectMssql:
		return fmt.Sprintf("DECLARE @constraint sysname; "+
			"SELECT @constraint = dc.name FROM sys.default_constraints dc "+
			"JOIN sys.columns c ON c.object_id = dc.parent_object_id AND c.column_id = dc.parent_column_id "+
			"WHERE dc.parent_object_id = OBJECT_ID(%s) AND c.name = %s; "+
			"IF @constraint IS NOT NULL EXEC(%s + QUOTENAME(@constraint))",
			nationalString(g.quote(table)), nationalString(column),
			nationalString(fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT ", g.quote(table))))
	case DialectMysql, DialectPostgres:
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", g.quote(table), g.quote(column))
	case DialectSQLite3:
		panic("sqlite3 cannot drop a column default")
	default:
		panic(fmt.Sprintf("unexpected dialect: %d", int(g.dialect)))
	}
}

func defaultConstraintName(table, column string) string {
	return util.BuildConstraintName(table, column, "df")
}

func uniqueIndexName(table, column string) string {
	return util.BuildConstraintName(table, column, "key")
}

// nationalString is a SQL Server N'...' literal.
func nationalString(s string) string {
	return "N" + StringConstant(s)
}
