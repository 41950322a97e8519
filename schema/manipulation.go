package schema

import "fmt"

// Manipulation is one column-level change of an existing table. The concrete
// types are AddColumn, AlterColumn, RemoveColumn and RenameColumn.
type Manipulation interface {
	fmt.Stringer
	manipulation()
}

// AddColumn adds Column. Default, when set, fills existing rows and Action
// runs after the column exists.
type AddColumn struct {
	Column  Column
	Action  Action
	Default *Value
}

// AlterColumn changes Old, as introspected, into New.
type AlterColumn struct {
	Old    Column
	New    Column
	Action Action
}

// RemoveColumn drops Name. Action runs before the column is dropped.
type RemoveColumn struct {
	Name   string
	Action Action
}

type RenameColumn struct {
	Old string
	New string
}

func (AddColumn) manipulation()    {}
func (AlterColumn) manipulation()  {}
func (RemoveColumn) manipulation() {}
func (RenameColumn) manipulation() {}

func (m AddColumn) String() string {
	return fmt.Sprintf("add column %s %s", m.Column.Name, m.Column.Type)
}

func (m AlterColumn) String() string {
	return fmt.Sprintf("alter column %s %s -> %s", m.New.Name, m.Old.Type, m.New.Type)
}

func (m RemoveColumn) String() string {
	return fmt.Sprintf("remove column %s", m.Name)
}

func (m RenameColumn) String() string {
	return fmt.Sprintf("rename column %s -> %s", m.Old, m.New)
}

// IsRequired reports whether existing rows would have no value for the new
// column: NOT NULL without any default.
func (m AddColumn) IsRequired() bool {
	return m.Default == nil && m.Column.RequiresValue()
}

// HasRequiredAdd reports whether any manipulation adds a required column.
func HasRequiredAdd(manipulations []Manipulation) bool {
	for _, m := range manipulations {
		if add, ok := m.(AddColumn); ok && add.IsRequired() {
			return true
		}
	}
	return false
}

// FirstAlter returns the first manipulation that needs in-place column alteration.
func FirstAlter(manipulations []Manipulation) (AlterColumn, bool) {
	for _, m := range manipulations {
		if alter, ok := m.(AlterColumn); ok {
			return alter, true
		}
	}
	return AlterColumn{}, false
}
