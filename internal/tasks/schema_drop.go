package tasks

import (
	"fmt"

	"github.com/marrow/marrow/internal/doc"
	"github.com/marrow/marrow/internal/task"
)

const optForce = "force"

// SchemaDrop removes every mapped table from the database.
type SchemaDrop struct {
	*task.Base
}

// NewSchemaDrop creates the schema-drop task on the given base.
func NewSchemaDrop(b *task.Base) *SchemaDrop {
	return &SchemaDrop{Base: b}
}

// BuildDocumentation adds the schema-drop help content.
func (t *SchemaDrop) BuildDocumentation() {
	d := t.Documentation()
	d.SetDescription(
		"Drop every mapped table from the database.\n\n" +
			"Destructive. Execution requires --force; --dump-sql prints the DDL\n" +
			"without touching the database.")
	d.AddOptionGroup(doc.NewOptionGroup(doc.Required,
		doc.Option{
			Name:        optForce,
			Description: "Actually drop the tables",
		},
		doc.Option{
			Name:        optDumpSQL,
			Description: "Print the DDL instead of executing it",
		},
	))
}

// Validate demands exactly one of --force and --dump-sql.
func (t *SchemaDrop) Validate() error {
	force := t.Arguments().Has(optForce)
	dump := t.Arguments().Has(optDumpSQL)
	if force == dump {
		return fmt.Errorf("schema-drop requires exactly one of --%s and --%s", optForce, optDumpSQL)
	}
	return checkMappingsDir(t)
}

// Run drops or dumps the schema removal DDL.
func (t *SchemaDrop) Run() error {
	em := t.EntityManager()
	if err := em.LoadMappings(); err != nil {
		return err
	}

	if t.Arguments().Has(optDumpSQL) {
		stmts, err := em.SchemaTool().DropSQL()
		if err != nil {
			return err
		}
		dumpStatements(t.Printer(), stmts)
		return nil
	}

	if err := em.SchemaTool().Drop(); err != nil {
		return err
	}
	t.Printer().OK(fmt.Sprintf("dropped %d tables", len(em.Mappings())))
	return nil
}
