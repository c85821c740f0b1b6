package tasks

import (
	"fmt"

	"github.com/marrow/marrow/internal/task"
)

// Version prints the marrow version.
type Version struct {
	*task.Base

	version string
}

// NewVersion creates the version task. The version string is set at build
// time via -ldflags in cmd/marrow.
func NewVersion(b *task.Base, version string) *Version {
	return &Version{Base: b, version: version}
}

// NeedsEntityManager is false: version touches no database.
func (t *Version) NeedsEntityManager() bool { return false }

// BuildDocumentation adds the version task's help content.
func (t *Version) BuildDocumentation() {
	t.Documentation().SetDescription("Print the marrow version.")
}

// Validate rejects any arguments.
func (t *Version) Validate() error {
	if n := len(t.Arguments().Positional); n > 0 {
		return fmt.Errorf("version takes no arguments, got %d", n)
	}
	return nil
}

// Run prints the version.
func (t *Version) Run() error {
	t.Printer().Printf("marrow %s\n", t.version)
	return nil
}
