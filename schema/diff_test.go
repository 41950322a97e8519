package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffColumnsNothingChanged(t *testing.T) {
	live := []Column{
		{Name: "id", Type: Scalar(KindInt), PrimaryKey: true, AutoIncrement: true},
		{Name: "name", Type: Scalar(KindString), NotNull: true},
	}
	assert.Empty(t, DiffColumns(DialectSQLite3, live, usersModel()))
}

func TestDiffColumnsOrder(t *testing.T) {
	zero := Int(0)
	model := &Table{
		Name: "users",
		Cols: []Column{
			{Name: "id", Type: Scalar(KindInt), PrimaryKey: true, AutoIncrement: true},
			{Name: "email", Type: Type{Kind: KindString, Length: 64}, NotNull: true, UniqueKey: true},
			{Name: "age", Type: Scalar(KindInt), DefaultValue: &zero},
			{Name: "full_name", Type: Scalar(KindString), Migration: &ColumnMigration{RenamedFrom: "name"}},
		},
	}
	live := []Column{
		{Name: "id", Type: Scalar(KindInt), PrimaryKey: true, AutoIncrement: true, NotNull: true},
		{Name: "legacy", Type: Scalar(KindString)},
		{Name: "age", Type: Scalar(KindInt), Default: stringPtr("1")},
		{Name: "name", Type: Scalar(KindString)},
	}

	manipulations := DiffColumns(DialectMysql, live, model)
	require.Len(t, manipulations, 4)

	assert.Equal(t, RenameColumn{Old: "name", New: "full_name"}, manipulations[0])

	add, ok := manipulations[1].(AddColumn)
	require.True(t, ok)
	assert.Equal(t, "email", add.Column.Name)
	assert.True(t, add.IsRequired())

	alter, ok := manipulations[2].(AlterColumn)
	require.True(t, ok)
	assert.Equal(t, "age", alter.New.Name)
	assert.Equal(t, "0", *alter.New.Default)
	assert.Equal(t, "1", *alter.Old.Default)

	assert.Equal(t, RemoveColumn{Name: "legacy"}, manipulations[3])

	assert.True(t, HasRequiredAdd(manipulations))
	first, ok := FirstAlter(manipulations)
	require.True(t, ok)
	assert.Equal(t, alter, first)
}

func TestDiffColumnsRenameWithTypeChange(t *testing.T) {
	model := &Table{
		Name: "users",
		Cols: []Column{
			{Name: "nickname", Type: Type{Kind: KindString, Length: 32}, Migration: &ColumnMigration{RenamedFrom: "nick"}},
		},
	}
	live := []Column{{Name: "nick", Type: Scalar(KindString)}}

	manipulations := DiffColumns(DialectPostgres, live, model)
	require.Len(t, manipulations, 2)
	assert.Equal(t, RenameColumn{Old: "nick", New: "nickname"}, manipulations[0])
	alter := manipulations[1].(AlterColumn)
	assert.Equal(t, "nickname", alter.Old.Name)
}

func TestDiffColumnsRenameSourceMissing(t *testing.T) {
	model := &Table{
		Name: "users",
		Cols: []Column{
			{Name: "nickname", Type: Scalar(KindString), Migration: &ColumnMigration{RenamedFrom: "nick"}},
		},
	}
	manipulations := DiffColumns(DialectPostgres, nil, model)
	require.Len(t, manipulations, 1)
	assert.IsType(t, AddColumn{}, manipulations[0])
}

func TestDiffColumnsActions(t *testing.T) {
	active := String("active")
	model := &Table{
		Name: "accounts",
		Cols: []Column{
			{Name: "id", Type: Scalar(KindInt), PrimaryKey: true},
			{Name: "state", Type: Scalar(KindString), NotNull: true, Migration: &ColumnMigration{
				Default: &active,
				Action:  SQLAction("UPDATE accounts SET state = 'banned' WHERE id < 0"),
			}},
		},
		DropActions: map[string]Action{"status": SQLAction("UPDATE accounts SET state = status")},
	}
	live := []Column{
		{Name: "id", Type: Scalar(KindInt), PrimaryKey: true, NotNull: true},
		{Name: "status", Type: Scalar(KindString), NotNull: true},
	}

	manipulations := DiffColumns(DialectPostgres, live, model)
	require.Len(t, manipulations, 2)

	add := manipulations[0].(AddColumn)
	assert.False(t, add.IsRequired())
	assert.Equal(t, &active, add.Default)
	assert.Equal(t, SQLAction("UPDATE accounts SET state = 'banned' WHERE id < 0"), add.Action)

	remove := manipulations[1].(RemoveColumn)
	assert.Equal(t, "status", remove.Name)
	assert.Equal(t, SQLAction("UPDATE accounts SET state = status"), remove.Action)
}

func TestDiffColumnsKeepsMigrationDefault(t *testing.T) {
	active := String("active")
	model := &Table{
		Name: "accounts",
		Cols: []Column{
			{Name: "state", Type: Scalar(KindString), NotNull: true, Migration: &ColumnMigration{Default: &active}},
		},
	}
	live := []Column{{Name: "state", Type: Scalar(KindString), NotNull: true, Default: stringPtr("'active'")}}
	assert.Empty(t, DiffColumns(DialectSQLite3, live, model))

	live[0].Default = stringPtr("'inactive'")
	alter, ok := FirstAlter(DiffColumns(DialectSQLite3, live, model))
	require.True(t, ok)
	assert.Equal(t, "state", alter.New.Name)
}

func TestDiffColumnsPostgresCatalogDefaults(t *testing.T) {
	anon := String("anon")
	yes := Bool(true)
	model := &Table{
		Name: "users",
		Cols: []Column{
			{Name: "name", Type: Type{Kind: KindString, Length: 64}, NotNull: true, DefaultValue: &anon},
			{Name: "active", Type: Scalar(KindBool), DefaultValue: &yes},
		},
	}
	live := []Column{
		{Name: "name", Type: DecodeType(DialectPostgres, "character varying(64)"), NotNull: true, Default: stringPtr("'anon'::character varying")},
		{Name: "active", Type: DecodeType(DialectPostgres, "boolean"), Default: stringPtr("true")},
	}
	assert.Empty(t, DiffColumns(DialectPostgres, live, model))
}

func TestDiffColumnsPostgresDateTimeDefault(t *testing.T) {
	epoch := DateTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	model := &Table{
		Name: "events",
		Cols: []Column{
			{Name: "starts_at", Type: Scalar(KindDateTime), DefaultValue: &epoch},
		},
	}
	live := []Column{
		{Name: "starts_at", Type: DecodeType(DialectPostgres, "timestamp(3) with time zone"), Default: stringPtr("'2024-01-01 01:00:00+01'::timestamp with time zone")},
	}
	assert.Empty(t, DiffColumns(DialectPostgres, live, model))

	live[0].Default = stringPtr("'2024-01-01 01:00:00+00'::timestamp with time zone")
	_, ok := FirstAlter(DiffColumns(DialectPostgres, live, model))
	assert.True(t, ok)
}
