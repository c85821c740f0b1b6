// Package orm provides the entity manager tasks operate through: the
// database connection, entity mapping metadata and the schema tool.
package orm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColumnType is the abstract column type used in mapping files.
type ColumnType string

const (
	TypeString   ColumnType = "string"
	TypeText     ColumnType = "text"
	TypeInt      ColumnType = "int"
	TypeFloat    ColumnType = "float"
	TypeBool     ColumnType = "bool"
	TypeDatetime ColumnType = "datetime"
)

// sqlTypes maps abstract column types to sqlite storage types.
var sqlTypes = map[ColumnType]string{
	TypeString:   "TEXT",
	TypeText:     "TEXT",
	TypeInt:      "INTEGER",
	TypeFloat:    "REAL",
	TypeBool:     "INTEGER",
	TypeDatetime: "DATETIME",
}

// Column describes one column of a mapped entity.
type Column struct {
	Name     string     `yaml:"name"`
	Type     ColumnType `yaml:"type"`
	Primary  bool       `yaml:"primary"`
	Nullable bool       `yaml:"nullable"`
	Unique   bool       `yaml:"unique"`
	Default  string     `yaml:"default"`
}

// DDL renders the column definition for a CREATE TABLE statement.
func (c Column) DDL() string {
	parts := []string{c.Name, sqlTypes[c.Type]}
	if c.Primary {
		parts = append(parts, "PRIMARY KEY")
	}
	if !c.Nullable && !c.Primary {
		parts = append(parts, "NOT NULL")
	}
	if c.Unique && !c.Primary {
		parts = append(parts, "UNIQUE")
	}
	if c.Default != "" {
		parts = append(parts, "DEFAULT "+quoteDefault(c))
	}
	return strings.Join(parts, " ")
}

// quoteDefault quotes textual defaults; numeric and keyword defaults pass
// through unchanged.
func quoteDefault(c Column) string {
	switch c.Type {
	case TypeString, TypeText, TypeDatetime:
		if strings.EqualFold(c.Default, "CURRENT_TIMESTAMP") {
			return "CURRENT_TIMESTAMP"
		}
		return "'" + strings.ReplaceAll(c.Default, "'", "''") + "'"
	default:
		return c.Default
	}
}

// Index describes a secondary index on a mapped entity.
type Index struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique"`
}

// Mapping is the metadata for one mapped entity, loaded from a YAML file.
type Mapping struct {
	Entity  string   `yaml:"entity"`
	Table   string   `yaml:"table"`
	Columns []Column `yaml:"columns"`
	Indexes []Index  `yaml:"indexes"`
}

// PrimaryColumn returns the entity's primary key column.
func (m Mapping) PrimaryColumn() Column {
	for _, c := range m.Columns {
		if c.Primary {
			return c
		}
	}
	// Validate guarantees one primary column exists.
	return Column{}
}

// validIdentifier limits table and column names to what can be spliced into
// DDL and PRAGMA statements verbatim.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Column returns the named column and whether the mapping has it.
func (m Mapping) Column(name string) (Column, bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Validate checks the mapping for the constraints the schema tool relies on.
func (m Mapping) Validate() error {
	var errs []error

	if m.Entity == "" {
		errs = append(errs, errors.New("entity name must be non-empty"))
	}
	if m.Table == "" {
		errs = append(errs, fmt.Errorf("entity %s: table must be non-empty", m.Entity))
	} else if !validIdentifier.MatchString(m.Table) {
		errs = append(errs, fmt.Errorf("entity %s: invalid table name %q", m.Entity, m.Table))
	}
	if len(m.Columns) == 0 {
		errs = append(errs, fmt.Errorf("entity %s: at least one column required", m.Entity))
	}

	primaries := 0
	seen := make(map[string]bool)
	for _, c := range m.Columns {
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("entity %s: column name must be non-empty", m.Entity))
			continue
		}
		if !validIdentifier.MatchString(c.Name) {
			errs = append(errs, fmt.Errorf("entity %s: invalid column name %q", m.Entity, c.Name))
		}
		if seen[c.Name] {
			errs = append(errs, fmt.Errorf("entity %s: duplicate column %s", m.Entity, c.Name))
		}
		seen[c.Name] = true
		if _, ok := sqlTypes[c.Type]; !ok {
			errs = append(errs, fmt.Errorf("entity %s: column %s has unknown type %q", m.Entity, c.Name, c.Type))
		}
		if c.Primary {
			primaries++
		}
	}
	if primaries != 1 {
		errs = append(errs, fmt.Errorf("entity %s: exactly one primary column required, got %d", m.Entity, primaries))
	}

	for _, idx := range m.Indexes {
		if idx.Name != "" && !validIdentifier.MatchString(idx.Name) {
			errs = append(errs, fmt.Errorf("entity %s: invalid index name %q", m.Entity, idx.Name))
		}
		for _, col := range idx.Columns {
			if !seen[col] {
				errs = append(errs, fmt.Errorf("entity %s: index %s references unknown column %s", m.Entity, idx.Name, col))
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// LoadMappingDir reads every .yaml/.yml file in dir, in lexical order, and
// returns the validated mappings. Each file holds one mapping document.
func LoadMappingDir(dir string) ([]Mapping, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mappings directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, fmt.Errorf("no mapping files found in %s", dir)
	}

	var mappings []Mapping
	tables := make(map[string]string)
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
		}

		var m Mapping
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse mapping file %s: %w", path, err)
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("invalid mapping in %s: %w", path, err)
		}
		if other, ok := tables[m.Table]; ok {
			return nil, fmt.Errorf("mapping file %s: table %s already mapped by entity %s", path, m.Table, other)
		}
		tables[m.Table] = m.Entity
		mappings = append(mappings, m)
	}
	return mappings, nil
}
