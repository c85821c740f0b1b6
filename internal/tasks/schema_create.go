package tasks

import (
	"fmt"
	"os"

	"github.com/marrow/marrow/internal/doc"
	"github.com/marrow/marrow/internal/printer"
	"github.com/marrow/marrow/internal/task"
)

const optDumpSQL = "dump-sql"

// SchemaCreate builds the mapped schema in the database.
type SchemaCreate struct {
	*task.Base
}

// NewSchemaCreate creates the schema-create task on the given base.
func NewSchemaCreate(b *task.Base) *SchemaCreate {
	return &SchemaCreate{Base: b}
}

// BuildDocumentation adds the schema-create help content.
func (t *SchemaCreate) BuildDocumentation() {
	d := t.Documentation()
	d.SetDescription(
		"Create the database schema from the entity mappings.\n\n" +
			"Reads every mapping file from the configured mappings directory and\n" +
			"executes the resulting CREATE TABLE and CREATE INDEX statements in\n" +
			"one transaction.")
	d.AddOptionGroup(doc.NewOptionGroup(doc.Optional, doc.Option{
		Name:        optDumpSQL,
		Description: "Print the DDL instead of executing it",
	}))
}

// Validate checks that the mappings directory exists.
func (t *SchemaCreate) Validate() error {
	return checkMappingsDir(t)
}

// Run loads the mappings and creates or dumps the schema.
func (t *SchemaCreate) Run() error {
	em := t.EntityManager()
	if err := em.LoadMappings(); err != nil {
		return err
	}

	if t.Arguments().Has(optDumpSQL) {
		stmts, err := em.SchemaTool().CreateSQL()
		if err != nil {
			return err
		}
		dumpStatements(t.Printer(), stmts)
		return nil
	}

	if err := em.SchemaTool().Create(); err != nil {
		return err
	}
	t.Printer().OK(fmt.Sprintf("created schema for %d entities", len(em.Mappings())))
	return nil
}

// checkMappingsDir verifies the entity manager's mappings directory exists.
// Shared by the schema tasks.
func checkMappingsDir(t task.Task) error {
	dir := t.EntityManager().MappingsDir()
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("mappings directory does not exist: %s", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to check mappings directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("mappings path is not a directory: %s", dir)
	}
	return nil
}

// dumpStatements prints DDL statements terminated by semicolons.
func dumpStatements(p *printer.Printer, stmts []string) {
	for _, stmt := range stmts {
		p.Printf("%s;\n", stmt)
	}
}
