package orm

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/marrow/marrow/internal/config"
	"github.com/marrow/marrow/internal/log"
)

// ErrNoMappings is returned when a schema operation runs before mappings
// have been loaded.
var ErrNoMappings = errors.New("no entity mappings loaded")

// EntityManager is the shared database handle tasks operate through.
type EntityManager struct {
	conn        *sql.DB
	mappingsDir string
	mappings    []Mapping
}

// Open connects to the configured database. The parent directory is created
// for file databases; ":memory:" opens a throwaway in-memory database.
func Open(cfg *config.Config) (*EntityManager, error) {
	path := cfg.DatabasePath
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		log.CloseError("database", conn.Close())
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		log.CloseError("database", conn.Close())
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &EntityManager{conn: conn, mappingsDir: cfg.MappingsDir}, nil
}

// Close closes the database connection.
func (em *EntityManager) Close() error {
	if em.conn != nil {
		return em.conn.Close()
	}
	return nil
}

// Conn exposes the underlying connection.
func (em *EntityManager) Conn() *sql.DB {
	return em.conn
}

// MappingsDir returns the configured mappings directory.
func (em *EntityManager) MappingsDir() string {
	return em.mappingsDir
}

// LoadMappings loads and validates the entity mappings from the configured
// directory. Calling it again is a no-op once mappings are loaded.
func (em *EntityManager) LoadMappings() error {
	if len(em.mappings) > 0 {
		return nil
	}
	mappings, err := LoadMappingDir(em.mappingsDir)
	if err != nil {
		return err
	}
	em.mappings = mappings
	return nil
}

// Mappings returns the loaded entity mappings.
func (em *EntityManager) Mappings() []Mapping {
	return em.mappings
}

// SchemaTool returns the schema tool bound to this entity manager.
func (em *EntityManager) SchemaTool() *SchemaTool {
	return &SchemaTool{em: em}
}

// =============================================================================
// Introspection
// =============================================================================

// TableExists reports whether the named table exists in the database.
func (em *EntityManager) TableExists(name string) (bool, error) {
	var count int
	err := em.conn.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return count > 0, nil
}

// TableColumns returns the column names of an existing table via PRAGMA
// table_info, in declaration order.
func (em *EntityManager) TableColumns(table string) ([]string, error) {
	rows, err := em.conn.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer func() {
		log.CloseError("rows", rows.Close())
	}()

	var columns []string
	for rows.Next() {
		var cid, notnull, pk int
		var name, ctype string
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

// tableHasRows reports whether an existing table holds at least one row. The
// table name comes from a validated mapping.
func (em *EntityManager) tableHasRows(table string) (bool, error) {
	var count int
	err := em.conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return count > 0, nil
}

// =============================================================================
// Ad-hoc SQL
// =============================================================================

// Result holds the outcome of RunSQL. HasRows distinguishes row-returning
// statements from DML; Affected is only meaningful when HasRows is false.
type Result struct {
	Columns  []string
	Rows     [][]string
	Affected int64
	HasRows  bool
}

// RunSQL executes an ad-hoc statement. SELECT-like statements return their
// result set rendered to strings; everything else returns the affected row
// count.
func (em *EntityManager) RunSQL(query string) (*Result, error) {
	if returnsRows(query) {
		return em.querySQL(query)
	}

	res, err := em.conn.Exec(query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute statement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	return &Result{Affected: affected}, nil
}

func (em *EntityManager) querySQL(query string) (*Result, error) {
	rows, err := em.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		log.CloseError("rows", rows.Close())
	}()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Result{Columns: columns, HasRows: true}
	values := make([]interface{}, len(columns))
	scan := make([]interface{}, len(columns))
	for i := range values {
		scan[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}
		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = renderValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}

// returnsRows reports whether the statement produces a result set.
func returnsRows(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	return strings.HasPrefix(q, "select") ||
		strings.HasPrefix(q, "with") ||
		strings.HasPrefix(q, "pragma") ||
		strings.HasPrefix(q, "explain")
}

// renderValue formats a scanned value for table output.
func renderValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
