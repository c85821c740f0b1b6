// Package doc describes a task's options and renders its help text.
package doc

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// GroupMode states how many options of a group a single invocation may carry.
type GroupMode string

const (
	// Optional allows zero or one of the group's options.
	Optional GroupMode = "optional"
	// Required demands exactly one of the group's options.
	Required GroupMode = "required"
)

// Option describes a single command-line option.
type Option struct {
	// Name is the long flag name without the leading dashes.
	Name string
	// Value is the placeholder shown in help, e.g. "<path>".
	// Empty means the option is a boolean switch.
	Value string
	// Description is the one-line help text.
	Description string
}

// Flag returns the option as it appears on the command line.
func (o Option) Flag() string {
	if o.Value == "" {
		return "--" + o.Name
	}
	return "--" + o.Name + "=" + o.Value
}

// OptionGroup bundles options that share a cardinality rule.
type OptionGroup struct {
	Mode    GroupMode
	Options []Option
}

// NewOptionGroup creates a group over the given options.
func NewOptionGroup(mode GroupMode, options ...Option) OptionGroup {
	return OptionGroup{Mode: mode, Options: options}
}

// Synopsis renders the group for a usage line: "[--a=<x> | --b]" for
// optional groups, "(--a | --b)" for required ones.
func (g OptionGroup) Synopsis() string {
	flags := make([]string, 0, len(g.Options))
	for _, o := range g.Options {
		flags = append(flags, o.Flag())
	}
	joined := strings.Join(flags, " | ")
	if g.Mode == Required {
		return "(" + joined + ")"
	}
	return "[" + joined + "]"
}

// Documentation is the help descriptor built once per task at construction
// and extended by the task's own BuildDocumentation.
type Documentation struct {
	taskName    string
	description string
	groups      []OptionGroup
}

// New creates Documentation for the named task.
func New(taskName string) *Documentation {
	return &Documentation{taskName: taskName}
}

// TaskName returns the task name the documentation belongs to.
func (d *Documentation) TaskName() string {
	return d.taskName
}

// SetDescription replaces the task description.
func (d *Documentation) SetDescription(desc string) {
	d.description = desc
}

// Description returns the task description.
func (d *Documentation) Description() string {
	return d.description
}

// ShortDescription returns the first line of the description.
func (d *Documentation) ShortDescription() string {
	line, _, _ := strings.Cut(d.description, "\n")
	return line
}

// AddOptionGroup registers an option group.
func (d *Documentation) AddOptionGroup(g OptionGroup) {
	d.groups = append(d.groups, g)
}

// Groups returns the registered option groups in registration order.
func (d *Documentation) Groups() []OptionGroup {
	return d.groups
}

// Options returns all options across all groups in registration order.
func (d *Documentation) Options() []Option {
	var opts []Option
	for _, g := range d.groups {
		opts = append(opts, g.Options...)
	}
	return opts
}

// Synopsis returns the one-line usage string for the task.
func (d *Documentation) Synopsis() string {
	parts := []string{"marrow", d.taskName}
	for _, g := range d.groups {
		parts = append(parts, g.Synopsis())
	}
	return strings.Join(parts, " ")
}

// RenderBasic writes the synopsis line plus the short description.
func (d *Documentation) RenderBasic(w io.Writer) {
	fmt.Fprintln(w, d.Synopsis())
	if d.description != "" {
		fmt.Fprintln(w, "  "+d.ShortDescription())
	}
}

// RenderExtended writes the full help text: name, synopsis, description and
// a table of every option.
func (d *Documentation) RenderExtended(w io.Writer) {
	fmt.Fprintf(w, "%s\n\n", d.taskName)
	fmt.Fprintf(w, "Usage:\n  %s\n", d.Synopsis())
	if d.description != "" {
		fmt.Fprintf(w, "\n%s\n", d.description)
	}
	if len(d.groups) == 0 {
		return
	}
	fmt.Fprintf(w, "\nOptions:\n")
	table := tablewriter.NewWriter(w)
	table.Header("Option", "Value", "Description", "Cardinality")
	for _, g := range d.groups {
		card := "zero or one"
		if g.Mode == Required {
			card = "exactly one of group"
		}
		for _, o := range g.Options {
			hint := o.Value
			if hint == "" {
				hint = "-"
			}
			table.Append("--"+o.Name, hint, o.Description, card)
		}
	}
	table.Render()
}
