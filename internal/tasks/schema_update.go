package tasks

import (
	"fmt"

	"github.com/marrow/marrow/internal/doc"
	"github.com/marrow/marrow/internal/printer"
	"github.com/marrow/marrow/internal/task"
)

// SchemaUpdate brings the live schema up to the entity mappings.
type SchemaUpdate struct {
	*task.Base
}

// NewSchemaUpdate creates the schema-update task on the given base.
func NewSchemaUpdate(b *task.Base) *SchemaUpdate {
	return &SchemaUpdate{Base: b}
}

// BuildDocumentation adds the schema-update help content.
func (t *SchemaUpdate) BuildDocumentation() {
	d := t.Documentation()
	d.SetDescription(
		"Update the database schema to match the entity mappings.\n\n" +
			"Creates missing tables and adds missing columns. Never drops\n" +
			"anything; destructive changes go through schema-drop.")
	d.AddOptionGroup(doc.NewOptionGroup(doc.Optional, doc.Option{
		Name:        optDumpSQL,
		Description: "Print the DDL instead of executing it",
	}))
}

// Validate checks that the mappings directory exists.
func (t *SchemaUpdate) Validate() error {
	return checkMappingsDir(t)
}

// Run applies or dumps the schema diff.
func (t *SchemaUpdate) Run() error {
	em := t.EntityManager()
	if err := em.LoadMappings(); err != nil {
		return err
	}

	if t.Arguments().Has(optDumpSQL) {
		stmts, err := em.SchemaTool().UpdateSQL()
		if err != nil {
			return err
		}
		if len(stmts) == 0 {
			printNothingToUpdate(t.Printer())
			return nil
		}
		dumpStatements(t.Printer(), stmts)
		return nil
	}

	applied, err := em.SchemaTool().Update()
	if err != nil {
		return err
	}
	if applied == 0 {
		printNothingToUpdate(t.Printer())
		return nil
	}
	t.Printer().OK(fmt.Sprintf("applied %d schema changes", applied))
	return nil
}

func printNothingToUpdate(p *printer.Printer) {
	p.Writeln("nothing to update, schema matches the mappings", printer.StyleComment)
}
