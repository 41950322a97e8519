package schema

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateModel(t *testing.T) {
	for _, d := range Dialects {
		assert.NoError(t, ValidateModel(d, usersModel()), d.String())
	}
}

func TestValidateModelErrors(t *testing.T) {
	name := String("x")
	nan := Float(math.NaN())
	tests := []struct {
		name    string
		dialect Dialect
		model   *Table
		err     string
	}{
		{"no table name", DialectMysql, &Table{Cols: usersModel().Cols}, "model without table name"},
		{"no columns", DialectMysql, &Table{Name: "users"}, "no columns declared"},
		{"duplicate column", DialectMysql, &Table{Name: "users", Cols: []Column{
			{Name: "id", Type: Scalar(KindInt)},
			{Name: "ID", Type: Scalar(KindInt)},
		}}, "declared more than once"},
		{"array on mysql", DialectMysql, &Table{Name: "users", Cols: []Column{
			{Name: "tags", Type: ArrayOf(Scalar(KindString))},
		}}, "mysql does not support type"},
		{"default of wrong type", DialectPostgres, &Table{Name: "users", Cols: []Column{
			{Name: "age", Type: Scalar(KindInt), DefaultValue: &name},
		}}, "column `age' default"},
		{"non-finite default", DialectMysql, &Table{Name: "users", Cols: []Column{
			{Name: "score", Type: Scalar(KindDouble), DefaultValue: &nan},
		}}, "non-finite value NaN"},
		{"auto increment on text", DialectPostgres, &Table{Name: "users", Cols: []Column{
			{Name: "id", Type: Scalar(KindString), PrimaryKey: true, AutoIncrement: true},
		}}, "auto increment requires an integer type"},
		{"auto increment outside a key", DialectMysql, &Table{Name: "users", Cols: []Column{
			{Name: "seq", Type: Scalar(KindInt), AutoIncrement: true},
		}}, "must be a key"},
		{"sqlite3 composite key with auto increment", DialectSQLite3, &Table{Name: "users", Cols: []Column{
			{Name: "id", Type: Scalar(KindInt), PrimaryKey: true, AutoIncrement: true},
			{Name: "tenant", Type: Scalar(KindInt), PrimaryKey: true},
		}}, "single-column primary key"},
		{"renamed from a declared column", DialectMysql, &Table{Name: "users", Cols: []Column{
			{Name: "name", Type: Scalar(KindString)},
			{Name: "full_name", Type: Scalar(KindString), Migration: &ColumnMigration{RenamedFrom: "name"}},
		}}, "still declared"},
		{"drop action for a kept column", DialectPostgres, &Table{Name: "users", Cols: usersModel().Cols, DropActions: map[string]Action{
			"legacy": SQLAction("SELECT 1"),
			"name":   SQLAction("SELECT 1"),
		}}, "column `name': drop action declared"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateModel(tt.dialect, tt.model)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestValidateModelUnsupportedTypeError(t *testing.T) {
	err := ValidateModel(DialectSQLite3, &Table{Name: "users", Cols: []Column{
		{Name: "tags", Type: ArrayOf(Scalar(KindInt))},
	}})
	var typeErr *UnsupportedTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, DialectSQLite3, typeErr.Dialect)
}

type recordingExecutor struct {
	statements []string
}

func (e *recordingExecutor) Execute(_ context.Context, stmt string) error {
	e.statements = append(e.statements, stmt)
	return nil
}

func TestActions(t *testing.T) {
	exec := &recordingExecutor{}
	ctx := context.Background()

	require.NoError(t, SQLAction("UPDATE users SET a = 1").Run(ctx, exec))
	require.NoError(t, ActionFunc(func(ctx context.Context, exec Executor) error {
		return exec.Execute(ctx, "UPDATE users SET b = 2")
	}).Run(ctx, exec))

	assert.Equal(t, []string{"UPDATE users SET a = 1", "UPDATE users SET b = 2"}, exec.statements)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "table `users', column `email': boom", (&ConfigurationError{Table: "users", Column: "email", Message: "boom"}).Error())
	assert.Equal(t, "table `users': boom", (&ConfigurationError{Table: "users", Message: "boom"}).Error())
	assert.Equal(t,
		"cannot add new non null column `email', table `users' has records. Consider adding a default value or resetting the table.",
		(&DataLossError{Table: "users", Column: "email"}).Error())
}
