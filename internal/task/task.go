// Package task defines the contract every marrow CLI task implements and the
// shared base every task embeds.
//
// A task owns nothing but references: a printer to write to, a
// documentation descriptor assembled at construction, the arguments the CLI
// layer parsed for it, the set of sibling tasks, and the entity manager it
// operates through. The three behaviors a task must supply itself are
// argument validation, execution, and its own help content.
package task

import (
	"errors"
	"io"

	"github.com/marrow/marrow/internal/doc"
	"github.com/marrow/marrow/internal/orm"
	"github.com/marrow/marrow/internal/printer"
)

// ConfigOption is the name of the bootstrap option every task recognizes.
const ConfigOption = "config"

// ErrUnknownTask is returned when a task name has no registration.
var ErrUnknownTask = errors.New("unknown task")

// Task is a single CLI subcommand.
type Task interface {
	// Validate checks the assigned arguments. A nil return means the task
	// may run.
	Validate() error

	// Run executes the task.
	Run() error

	// BuildDocumentation adds task-specific help content to the
	// documentation created at construction.
	BuildDocumentation()

	// Accessors is the store/retrieve surface provided by Base.
	Accessors
}

// Accessors is the collaborator plumbing shared by all tasks.
type Accessors interface {
	Printer() *printer.Printer
	SetPrinter(p *printer.Printer)
	Arguments() Arguments
	SetArguments(args Arguments)
	AvailableTasks() map[string]Task
	SetAvailableTasks(tasks map[string]Task)
	EntityManager() *orm.EntityManager
	SetEntityManager(em *orm.EntityManager)
	Documentation() *doc.Documentation
	NeedsEntityManager() bool
	BasicHelp(w io.Writer)
	ExtendedHelp(w io.Writer)
}

// Arguments is the parsed input assigned to a task wholesale by the CLI
// layer. The base performs no validation on it; Validate does.
type Arguments struct {
	// Options maps long option names to their values. Boolean switches
	// are present with the value "true".
	Options map[string]string
	// Positional holds the non-option arguments in order.
	Positional []string
}

// Option returns the named option value and whether it was set.
func (a Arguments) Option(name string) (string, bool) {
	v, ok := a.Options[name]
	return v, ok
}

// Has reports whether the named option was set.
func (a Arguments) Has(name string) bool {
	_, ok := a.Options[name]
	return ok
}

// Base carries the collaborator references and help delegation for a task.
// Concrete tasks embed *Base and implement Validate, Run and
// BuildDocumentation themselves.
type Base struct {
	printer *printer.Printer
	doc     *doc.Documentation
	args    Arguments
	tasks   map[string]Task
	em      *orm.EntityManager
}

// NewBase creates the shared state for the named task. The documentation is
// created here with the one option group every task recognizes: a single
// optional --config=<path> flag. The CLI layer calls the concrete task's
// BuildDocumentation right after construction.
func NewBase(name string, p *printer.Printer) *Base {
	d := doc.New(name)
	d.AddOptionGroup(doc.NewOptionGroup(doc.Optional, doc.Option{
		Name:        ConfigOption,
		Value:       "<path>",
		Description: "Path to the bootstrap configuration file",
	}))
	return &Base{printer: p, doc: d}
}

// Printer returns the output printer.
func (b *Base) Printer() *printer.Printer { return b.printer }

// SetPrinter replaces the output printer.
func (b *Base) SetPrinter(p *printer.Printer) { b.printer = p }

// Arguments returns the assigned arguments.
func (b *Base) Arguments() Arguments { return b.args }

// SetArguments replaces the assigned arguments wholesale.
func (b *Base) SetArguments(args Arguments) { b.args = args }

// AvailableTasks returns the sibling task set keyed by task name.
func (b *Base) AvailableTasks() map[string]Task { return b.tasks }

// SetAvailableTasks replaces the sibling task set.
func (b *Base) SetAvailableTasks(tasks map[string]Task) { b.tasks = tasks }

// EntityManager returns the entity manager handle.
func (b *Base) EntityManager() *orm.EntityManager { return b.em }

// SetEntityManager replaces the entity manager handle.
func (b *Base) SetEntityManager(em *orm.EntityManager) { b.em = em }

// Documentation returns the task's documentation descriptor.
func (b *Base) Documentation() *doc.Documentation { return b.doc }

// NeedsEntityManager reports whether the CLI layer must open the entity
// manager before running the task. Tasks that only read their siblings'
// documentation override this to return false.
func (b *Base) NeedsEntityManager() bool { return true }

// BasicHelp writes the one-line synopsis plus description to w.
func (b *Base) BasicHelp(w io.Writer) {
	b.doc.RenderBasic(w)
}

// ExtendedHelp writes the documentation's full text to w.
func (b *Base) ExtendedHelp(w io.Writer) {
	b.doc.RenderExtended(w)
}
