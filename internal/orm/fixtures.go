package orm

import (
	"database/sql"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/marrow/marrow/internal/log"
)

// fixtureFile is a YAML document mapping table names to row lists.
type fixtureFile map[string][]map[string]interface{}

// LoadFixtures inserts the rows from a YAML fixture file into their tables,
// in one transaction. Rows without a primary key value get a generated uuid.
// The returned map holds inserted row counts per table.
func (em *EntityManager) LoadFixtures(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var fixtures fixtureFile
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("failed to parse fixture file %s: %w", path, err)
	}

	byTable := make(map[string]Mapping, len(em.mappings))
	for _, m := range em.mappings {
		byTable[m.Table] = m
	}

	// Insert in mapping order so foreign-key targets load first.
	var tables []string
	for table := range fixtures {
		if _, ok := byTable[table]; !ok {
			return nil, fmt.Errorf("fixture references unmapped table %s", table)
		}
		tables = append(tables, table)
	}
	sort.Slice(tables, func(i, j int) bool {
		return mappingIndex(em.mappings, tables[i]) < mappingIndex(em.mappings, tables[j])
	})

	tx, err := em.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	counts := make(map[string]int)
	for _, table := range tables {
		m := byTable[table]
		pk := m.PrimaryColumn()
		for _, row := range fixtures[table] {
			if _, ok := row[pk.Name]; !ok {
				row[pk.Name] = uuid.New().String()
			}
			if err := validateFixtureRow(m, row); err != nil {
				if rbErr := tx.Rollback(); rbErr != nil {
					log.Warn("failed to roll back transaction", "error", rbErr)
				}
				return nil, err
			}
			if err := insertRow(tx, table, row); err != nil {
				if rbErr := tx.Rollback(); rbErr != nil {
					log.Warn("failed to roll back transaction", "error", rbErr)
				}
				return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
			}
			counts[table]++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit fixtures: %w", err)
	}
	return counts, nil
}

// validateFixtureRow rejects rows referencing columns the mapping does not
// declare. Type coercion is left to the driver.
func validateFixtureRow(m Mapping, row map[string]interface{}) error {
	for name := range row {
		if _, ok := m.Column(name); !ok {
			return fmt.Errorf("fixture row for %s references unknown column %s", m.Table, name)
		}
	}
	return nil
}

func insertRow(tx *sql.Tx, table string, row map[string]interface{}) error {
	columns := make([]string, 0, len(row))
	for name := range row {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	placeholders := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, name := range columns {
		placeholders[i] = "?"
		args[i] = row[name]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	_, err := tx.Exec(query, args...)
	return err
}

// mappingIndex returns the position of table in the mapping order.
func mappingIndex(mappings []Mapping, table string) int {
	for i, m := range mappings {
		if m.Table == table {
			return i
		}
	}
	return len(mappings)
}
