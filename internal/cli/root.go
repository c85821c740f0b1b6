package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marrow/marrow/internal/printer"
	"github.com/marrow/marrow/internal/task"
	"github.com/marrow/marrow/internal/tasks"
)

// NewRoot assembles the root command with every bundled task registered.
func NewRoot(version string) *cobra.Command {
	p := printer.New(os.Stdout)
	ctrl := NewController()

	var cfgPath string

	root := &cobra.Command{
		Use:   "marrow",
		Short: "Schema and data toolkit for SQL databases",
		Long: `marrow manages a database schema described by YAML entity mappings:
it creates, updates and drops tables, loads fixture data, and runs
ad-hoc SQL through a shared entity-manager handle.`,
		Version: version,
		// Errors are reported once in main, usage noise suppressed.
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "",
		"Path to the bootstrap configuration file")

	register := func(name string, build func(b *task.Base) task.Task) {
		b := task.NewBase(name, p)
		t := build(b)
		// The task adds its own help content on top of the base's
		// --config group.
		t.BuildDocumentation()
		ctrl.Register(name, t)
	}

	register("help", func(b *task.Base) task.Task { return tasks.NewHelp(b) })
	register("version", func(b *task.Base) task.Task { return tasks.NewVersion(b, version) })
	register("schema-create", func(b *task.Base) task.Task { return tasks.NewSchemaCreate(b) })
	register("schema-update", func(b *task.Base) task.Task { return tasks.NewSchemaUpdate(b) })
	register("schema-drop", func(b *task.Base) task.Task { return tasks.NewSchemaDrop(b) })
	register("run-sql", func(b *task.Base) task.Task { return tasks.NewRunSQL(b) })
	register("load-fixtures", func(b *task.Base) task.Task { return tasks.NewLoadFixtures(b) })

	for _, name := range ctrl.Names() {
		// Names() only reports registered tasks, so Command cannot fail here.
		cmd, _ := ctrl.Command(name, &cfgPath)
		root.AddCommand(cmd)
	}
	return root
}
