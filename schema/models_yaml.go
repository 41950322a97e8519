package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type modelsFile struct {
	Models []tableSpec `yaml:"models"`
}

type tableSpec struct {
	Table       string       `yaml:"table"`
	RenamedFrom []string     `yaml:"renamed_from"`
	Virtual     bool         `yaml:"virtual"`
	Columns     []columnSpec `yaml:"columns"`
	Dropped     []dropSpec   `yaml:"dropped"`
}

type columnSpec struct {
	Name          string         `yaml:"name"`
	Type          string         `yaml:"type"`
	Length        int            `yaml:"length"`
	Precision     int            `yaml:"precision"`
	Scale         int            `yaml:"scale"`
	Values        []string       `yaml:"values"`
	Of            string         `yaml:"of"`
	NotNull       bool           `yaml:"not_null"`
	PrimaryKey    bool           `yaml:"primary_key"`
	Unique        bool           `yaml:"unique"`
	AutoIncrement bool           `yaml:"auto_increment"`
	Default       any            `yaml:"default"`
	Migration     *migrationSpec `yaml:"migration"`
}

type migrationSpec struct {
	RenamedFrom string `yaml:"renamed_from"`
	Default     any    `yaml:"default"`
	Backfill    string `yaml:"backfill"`
	AfterAlter  string `yaml:"after_alter"`
}

type dropSpec struct {
	Column   string `yaml:"column"`
	Backfill string `yaml:"backfill"`
}

// LoadModels reads a models file.
func LoadModels(path string) ([]Model, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	models, err := ParseModels(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return models, nil
}

// ParseModels decodes the YAML models format. Unknown keys are rejected.
func ParseModels(buf []byte) ([]Model, error) {
	var file modelsFile
	if err := yaml.UnmarshalStrict(buf, &file); err != nil {
		return nil, err
	}

	models := make([]Model, 0, len(file.Models))
	for _, spec := range file.Models {
		table, err := spec.toTable()
		if err != nil {
			return nil, err
		}
		models = append(models, table)
	}
	return models, nil
}

func (s tableSpec) toTable() (*Table, error) {
	if s.Table == "" {
		return nil, &ConfigurationError{Message: "model without table name"}
	}
	table := &Table{
		Name:      s.Table,
		Renamed:   s.RenamedFrom,
		IsVirtual: s.Virtual,
	}
	for _, spec := range s.Columns {
		column, err := spec.toColumn()
		if err != nil {
			return nil, &ConfigurationError{Table: s.Table, Column: spec.Name, Message: err.Error()}
		}
		table.Cols = append(table.Cols, column)
	}
	for _, drop := range s.Dropped {
		if drop.Column == "" {
			return nil, &ConfigurationError{Table: s.Table, Message: "dropped entry without column"}
		}
		if drop.Backfill == "" {
			continue
		}
		if table.DropActions == nil {
			table.DropActions = map[string]Action{}
		}
		table.DropActions[drop.Column] = SQLAction(drop.Backfill)
	}
	return table, nil
}

func (s columnSpec) toColumn() (Column, error) {
	t, err := s.toType()
	if err != nil {
		return Column{}, err
	}
	column := Column{
		Name:          s.Name,
		Type:          t,
		NotNull:       s.NotNull,
		PrimaryKey:    s.PrimaryKey,
		UniqueKey:     s.Unique,
		AutoIncrement: s.AutoIncrement,
	}
	if s.Default != nil {
		v, err := CoerceValue(s.Default, t)
		if err != nil {
			return Column{}, fmt.Errorf("default: %w", err)
		}
		column.DefaultValue = &v
	}
	if s.Migration != nil {
		migration := &ColumnMigration{RenamedFrom: s.Migration.RenamedFrom}
		if s.Migration.Default != nil {
			v, err := CoerceValue(s.Migration.Default, t)
			if err != nil {
				return Column{}, fmt.Errorf("migration default: %w", err)
			}
			migration.Default = &v
		}
		if s.Migration.Backfill != "" {
			migration.Action = SQLAction(s.Migration.Backfill)
		}
		if s.Migration.AfterAlter != "" {
			migration.AlterAction = SQLAction(s.Migration.AfterAlter)
		}
		column.Migration = migration
	}
	return column, nil
}

func (s columnSpec) toType() (Type, error) {
	kind, err := ParseKind(s.Type)
	if err != nil {
		return Type{}, err
	}
	t := Type{Kind: kind, Length: s.Length, Precision: s.Precision, Scale: s.Scale}
	switch kind {
	case KindEnum:
		t.Values = s.Values
	case KindArray:
		if s.Of == "" {
			return Type{}, fmt.Errorf("array type without `of'")
		}
		elemKind, err := ParseKind(s.Of)
		if err != nil {
			return Type{}, err
		}
		elem := Type{Kind: elemKind, Length: s.Length, Precision: s.Precision, Scale: s.Scale}
		if elemKind == KindEnum {
			elem.Values = s.Values
		}
		t = ArrayOf(elem)
	}
	return t, nil
}
