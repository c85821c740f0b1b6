package orm

import (
	"fmt"
	"strings"

	"github.com/marrow/marrow/internal/log"
)

// SchemaTool generates and applies DDL derived from the loaded mappings.
type SchemaTool struct {
	em *EntityManager
}

// CreateSQL returns the statements that build the mapped schema from
// scratch: one CREATE TABLE per entity plus its indexes.
func (st *SchemaTool) CreateSQL() ([]string, error) {
	if len(st.em.mappings) == 0 {
		return nil, ErrNoMappings
	}

	var stmts []string
	for _, m := range st.em.mappings {
		stmts = append(stmts, createTableSQL(m))
		stmts = append(stmts, indexSQL(m)...)
	}
	return stmts, nil
}

// DropSQL returns the statements that remove every mapped table. Indexes go
// with their table.
func (st *SchemaTool) DropSQL() ([]string, error) {
	if len(st.em.mappings) == 0 {
		return nil, ErrNoMappings
	}

	var stmts []string
	// Reverse mapping order so later entities referencing earlier ones drop
	// first under enforced foreign keys.
	for i := len(st.em.mappings) - 1; i >= 0; i-- {
		stmts = append(stmts, fmt.Sprintf("DROP TABLE IF EXISTS %s", st.em.mappings[i].Table))
	}
	return stmts, nil
}

// UpdateSQL returns the statements that bring the live schema up to the
// mappings: CREATE TABLE for missing tables, ALTER TABLE ADD COLUMN for
// missing columns. Nothing is ever dropped here; destructive changes only
// happen through DropSQL. An empty slice means the schema is current.
func (st *SchemaTool) UpdateSQL() ([]string, error) {
	if len(st.em.mappings) == 0 {
		return nil, ErrNoMappings
	}

	var stmts []string
	for _, m := range st.em.mappings {
		exists, err := st.em.TableExists(m.Table)
		if err != nil {
			return nil, err
		}
		if !exists {
			stmts = append(stmts, createTableSQL(m))
			stmts = append(stmts, indexSQL(m)...)
			continue
		}

		have, err := st.em.TableColumns(m.Table)
		if err != nil {
			return nil, err
		}
		existing := make(map[string]bool, len(have))
		for _, name := range have {
			existing[name] = true
		}
		for _, c := range m.Columns {
			if existing[c.Name] {
				continue
			}
			// sqlite refuses ALTER TABLE ADD COLUMN for a NOT NULL column
			// without a default when the table already holds rows. Catch it
			// here with a message that names the fix.
			if !c.Nullable && !c.Primary && c.Default == "" {
				populated, err := st.em.tableHasRows(m.Table)
				if err != nil {
					return nil, err
				}
				if populated {
					return nil, fmt.Errorf(
						"cannot add NOT NULL column %s to populated table %s: set a default in the mapping or mark the column nullable",
						c.Name, m.Table)
				}
			}
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", m.Table, c.DDL()))
		}
		for _, name := range have {
			if _, ok := m.Column(name); !ok {
				log.Warn("column exists in database but not in mappings",
					"table", m.Table, "column", name)
			}
		}
	}
	return stmts, nil
}

// Create applies CreateSQL in a single transaction.
func (st *SchemaTool) Create() error {
	stmts, err := st.CreateSQL()
	if err != nil {
		return err
	}
	return st.apply(stmts)
}

// Drop applies DropSQL in a single transaction.
func (st *SchemaTool) Drop() error {
	stmts, err := st.DropSQL()
	if err != nil {
		return err
	}
	return st.apply(stmts)
}

// Update applies UpdateSQL in a single transaction. It returns the number
// of statements applied.
func (st *SchemaTool) Update() (int, error) {
	stmts, err := st.UpdateSQL()
	if err != nil {
		return 0, err
	}
	if len(stmts) == 0 {
		return 0, nil
	}
	return len(stmts), st.apply(stmts)
}

// apply runs the statements inside one transaction.
func (st *SchemaTool) apply(stmts []string) error {
	tx, err := st.em.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Warn("failed to roll back transaction", "error", rbErr)
			}
			return fmt.Errorf("failed to execute %q: %w", firstLine(stmt), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema changes: %w", err)
	}
	return nil
}

// createTableSQL renders the CREATE TABLE statement for a mapping.
func createTableSQL(m Mapping) string {
	defs := make([]string, 0, len(m.Columns))
	for _, c := range m.Columns {
		defs = append(defs, "    "+c.DDL())
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", m.Table, strings.Join(defs, ",\n"))
}

// indexSQL renders the CREATE INDEX statements for a mapping.
func indexSQL(m Mapping) []string {
	stmts := make([]string, 0, len(m.Indexes))
	for _, idx := range m.Indexes {
		name := idx.Name
		if name == "" {
			name = fmt.Sprintf("idx_%s_%s", m.Table, strings.Join(idx.Columns, "_"))
		}
		unique := ""
		if idx.Unique {
			unique = "UNIQUE "
		}
		stmts = append(stmts, fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s(%s)",
			unique, name, m.Table, strings.Join(idx.Columns, ", ")))
	}
	return stmts
}

// firstLine trims a multi-line statement for error messages.
func firstLine(s string) string {
	line, _, found := strings.Cut(s, "\n")
	if found {
		return line + " ..."
	}
	return line
}
