package schema

import (
	"log/slog"
)

// DiffColumns computes the manipulations converging the live columns of a
// table into the columns m declares. They are emitted as renames, then
// adds, alters and finally removes, each group in declaration order.
func DiffColumns(d Dialect, live []Column, m Model) []Manipulation {
	liveByName := make(map[string]Column, len(live))
	for _, c := range live {
		liveByName[c.Name] = c
	}
	claimed := map[string]bool{}

	var renames, adds, alters, removes []Manipulation
	for _, desired := range m.Columns() {
		desired = desired.Resolve(d)
		current, ok := liveByName[desired.Name]
		if ok {
			claimed[desired.Name] = true
		} else if from := renamedFrom(desired); from != "" && !claimed[from] {
			if old, found := liveByName[from]; found {
				renames = append(renames, RenameColumn{Old: from, New: desired.Name})
				claimed[from] = true
				current, ok = old, true
				current.Name = desired.Name
			}
		}

		if !ok {
			add := AddColumn{Column: desired}
			if desired.Migration != nil {
				add.Action = desired.Migration.Action
				add.Default = desired.Migration.Default
			}
			adds = append(adds, add)
			continue
		}

		desired = withMigrationDefault(d, desired, current)
		if desired.Differs(d, current) {
			slog.Debug("Column differs", "table", m.TableName(), "column", desired.Name,
				"live_type", current.comparableTypeName(d), "desired_type", desired.comparableTypeName(d))
			alter := AlterColumn{Old: current, New: desired}
			if desired.Migration != nil {
				alter.Action = desired.Migration.AlterAction
			}
			alters = append(alters, alter)
		}
	}

	dropActions, _ := m.(DropActionProvider)
	for _, c := range live {
		if claimed[c.Name] {
			continue
		}
		remove := RemoveColumn{Name: c.Name}
		if dropActions != nil {
			remove.Action = dropActions.DropAction(c.Name)
		}
		removes = append(removes, remove)
	}

	manipulations := make([]Manipulation, 0, len(renames)+len(adds)+len(alters)+len(removes))
	manipulations = append(manipulations, renames...)
	manipulations = append(manipulations, adds...)
	manipulations = append(manipulations, alters...)
	manipulations = append(manipulations, removes...)
	return manipulations
}

func renamedFrom(c Column) string {
	if c.Migration == nil {
		return ""
	}
	return c.Migration.RenamedFrom
}

// withMigrationDefault treats a live default equal to the migration default
// as the declared one. The migration default stays on dialects that cannot
// drop it after the column is added.
func withMigrationDefault(d Dialect, desired, current Column) Column {
	if desired.Default != nil || current.Default == nil || desired.Migration == nil || desired.Migration.Default == nil {
		return desired
	}
	literal, err := tryEncode(d, *desired.Migration.Default, desired.Type, !desired.NotNull)
	if err != nil {
		return desired
	}
	if NormalizeDefault(d, literal, desired.Type) == NormalizeDefault(d, *current.Default, current.Type) {
		desired.Default = current.Default
	}
	return desired
}
