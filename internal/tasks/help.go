// Package tasks holds the tasks bundled with the marrow CLI.
package tasks

import (
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/marrow/marrow/internal/task"
)

// Help prints task documentation. With a task name it prints that task's
// extended help; without one it lists every registered task.
type Help struct {
	*task.Base
}

// NewHelp creates the help task on the given base.
func NewHelp(b *task.Base) *Help {
	return &Help{Base: b}
}

// NeedsEntityManager is false: help only reads sibling documentation.
func (t *Help) NeedsEntityManager() bool { return false }

// BuildDocumentation adds the help task's own help content.
func (t *Help) BuildDocumentation() {
	t.Documentation().SetDescription(
		"Show help for the available tasks.\n\n" +
			"Without arguments, lists every task with its synopsis. With a task\n" +
			"name as argument, prints that task's full documentation.")
}

// Validate accepts at most one positional argument naming a known task.
func (t *Help) Validate() error {
	args := t.Arguments()
	if len(args.Positional) > 1 {
		return fmt.Errorf("help takes at most one task name, got %d arguments", len(args.Positional))
	}
	if len(args.Positional) == 1 {
		name := args.Positional[0]
		if _, ok := t.AvailableTasks()[name]; !ok {
			return fmt.Errorf("%w: %s", task.ErrUnknownTask, name)
		}
	}
	return nil
}

// Run prints the requested help to the printer.
func (t *Help) Run() error {
	p := t.Printer()
	args := t.Arguments()

	if len(args.Positional) == 1 {
		sibling := t.AvailableTasks()[args.Positional[0]]
		sibling.ExtendedHelp(p.Writer())
		return nil
	}

	names := make([]string, 0, len(t.AvailableTasks()))
	for name := range t.AvailableTasks() {
		names = append(names, name)
	}
	sort.Strings(names)

	p.Header("Available tasks")
	table := tablewriter.NewWriter(p.Writer())
	table.Header("Task", "Synopsis", "Description")
	for _, name := range names {
		d := t.AvailableTasks()[name].Documentation()
		table.Append(name, d.Synopsis(), d.ShortDescription())
	}
	table.Render()
	return nil
}
