package tasks

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/marrow/marrow/internal/doc"
	"github.com/marrow/marrow/internal/task"
)

const (
	optSQL  = "sql"
	optFile = "file"
)

// RunSQL executes an ad-hoc SQL statement against the database.
type RunSQL struct {
	*task.Base
}

// NewRunSQL creates the run-sql task on the given base.
func NewRunSQL(b *task.Base) *RunSQL {
	return &RunSQL{Base: b}
}

// BuildDocumentation adds the run-sql help content.
func (t *RunSQL) BuildDocumentation() {
	d := t.Documentation()
	d.SetDescription(
		"Execute an ad-hoc SQL statement.\n\n" +
			"Row-returning statements print their result set as a table;\n" +
			"everything else prints the affected row count.")
	d.AddOptionGroup(doc.NewOptionGroup(doc.Required,
		doc.Option{
			Name:        optSQL,
			Value:       "<query>",
			Description: "The SQL statement to execute",
		},
		doc.Option{
			Name:        optFile,
			Value:       "<path>",
			Description: "File containing the SQL statement to execute",
		},
	))
}

// Validate demands exactly one of --sql and --file; a given file must exist.
func (t *RunSQL) Validate() error {
	query, hasSQL := t.Arguments().Option(optSQL)
	path, hasFile := t.Arguments().Option(optFile)

	if hasSQL == hasFile {
		return fmt.Errorf("run-sql requires exactly one of --%s and --%s", optSQL, optFile)
	}
	if hasSQL && query == "" {
		return fmt.Errorf("--%s must not be empty", optSQL)
	}
	if hasFile {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("cannot read SQL file %s: %w", path, err)
		}
	}
	return nil
}

// Run executes the statement and prints the outcome.
func (t *RunSQL) Run() error {
	query, err := t.query()
	if err != nil {
		return err
	}

	result, err := t.EntityManager().RunSQL(query)
	if err != nil {
		return err
	}

	p := t.Printer()
	if !result.HasRows {
		p.OK(fmt.Sprintf("%d rows affected", result.Affected))
		return nil
	}

	table := tablewriter.NewWriter(p.Writer())
	header := make([]interface{}, len(result.Columns))
	for i, c := range result.Columns {
		header[i] = c
	}
	table.Header(header...)
	for _, row := range result.Rows {
		table.Append(row)
	}
	table.Render()
	p.Printf("%d rows\n", len(result.Rows))
	return nil
}

// query returns the statement from --sql or the --file contents.
func (t *RunSQL) query() (string, error) {
	if q, ok := t.Arguments().Option(optSQL); ok {
		return q, nil
	}
	path, _ := t.Arguments().Option(optFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read SQL file: %w", err)
	}
	return string(data), nil
}
