package tasks

import (
	"fmt"
	"os"
	"sort"

	"github.com/marrow/marrow/internal/doc"
	"github.com/marrow/marrow/internal/task"
)

// LoadFixtures inserts rows from a YAML fixture file into the mapped tables.
type LoadFixtures struct {
	*task.Base
}

// NewLoadFixtures creates the load-fixtures task on the given base.
func NewLoadFixtures(b *task.Base) *LoadFixtures {
	return &LoadFixtures{Base: b}
}

// BuildDocumentation adds the load-fixtures help content.
func (t *LoadFixtures) BuildDocumentation() {
	d := t.Documentation()
	d.SetDescription(
		"Load fixture rows from a YAML file.\n\n" +
			"The file maps table names to row lists. Rows without a primary key\n" +
			"value get a generated uuid. All inserts run in one transaction.")
	d.AddOptionGroup(doc.NewOptionGroup(doc.Required, doc.Option{
		Name:        optFile,
		Value:       "<path>",
		Description: "The fixture file to load",
	}))
}

// Validate demands --file naming an existing file.
func (t *LoadFixtures) Validate() error {
	path, ok := t.Arguments().Option(optFile)
	if !ok {
		return fmt.Errorf("load-fixtures requires --%s", optFile)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot read fixture file %s: %w", path, err)
	}
	return checkMappingsDir(t)
}

// Run loads the fixtures and prints per-table counts.
func (t *LoadFixtures) Run() error {
	em := t.EntityManager()
	if err := em.LoadMappings(); err != nil {
		return err
	}

	path, _ := t.Arguments().Option(optFile)
	counts, err := em.LoadFixtures(path)
	if err != nil {
		return err
	}

	tables := make([]string, 0, len(counts))
	total := 0
	for table, n := range counts {
		tables = append(tables, table)
		total += n
	}
	sort.Strings(tables)

	p := t.Printer()
	for _, table := range tables {
		p.Printf("  %s: %d rows\n", table, counts[table])
	}
	p.OK(fmt.Sprintf("loaded %d rows into %d tables", total, len(tables)))
	return nil
}
