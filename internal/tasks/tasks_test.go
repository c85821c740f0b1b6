package tasks

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marrow/marrow/internal/config"
	"github.com/marrow/marrow/internal/orm"
	"github.com/marrow/marrow/internal/printer"
	"github.com/marrow/marrow/internal/task"
)

const testMapping = `entity: User
table: users
columns:
  - name: id
    type: string
    primary: true
  - name: email
    type: string
    unique: true
`

// env bundles a task's collaborators for tests: a buffer-backed printer and
// an in-memory entity manager.
type env struct {
	out *bytes.Buffer
	em  *orm.EntityManager
	dir string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "user.yaml"), []byte(testMapping), 0644); err != nil {
		t.Fatalf("failed to write mapping: %v", err)
	}

	em, err := orm.Open(&config.Config{
		DatabasePath: ":memory:",
		MappingsDir:  dir,
		LogLevel:     "info",
	})
	if err != nil {
		t.Fatalf("failed to open entity manager: %v", err)
	}
	t.Cleanup(func() {
		_ = em.Close()
	})

	return &env{out: &bytes.Buffer{}, em: em, dir: dir}
}

// prepare wires a task's base with the env's printer and entity manager.
func (e *env) prepare(t task.Task, args task.Arguments) {
	t.SetPrinter(printer.New(e.out))
	t.SetEntityManager(e.em)
	t.SetArguments(args)
}

func opts(pairs ...string) task.Arguments {
	a := task.Arguments{Options: make(map[string]string)}
	for i := 0; i+1 < len(pairs); i += 2 {
		a.Options[pairs[i]] = pairs[i+1]
	}
	return a
}

func newTask[T task.Task](name string, build func(b *task.Base) T) T {
	t := build(task.NewBase(name, printer.New(&bytes.Buffer{})))
	t.BuildDocumentation()
	return t
}

// =============================================================================
// help
// =============================================================================

func TestHelp_ListsAllTasks(t *testing.T) {
	e := newEnv(t)
	help := newTask("help", NewHelp)
	version := newTask("version", func(b *task.Base) *Version { return NewVersion(b, "dev") })
	siblings := map[string]task.Task{"help": help, "version": version}
	help.SetAvailableTasks(siblings)
	e.prepare(help, task.Arguments{})

	if err := help.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if err := help.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	out := e.out.String()
	for _, want := range []string{"help", "version", "Print"} {
		if !strings.Contains(out, want) {
			t.Errorf("help listing missing %q, got:\n%s", want, out)
		}
	}
}

func TestHelp_NamedTaskPrintsExtendedHelp(t *testing.T) {
	e := newEnv(t)
	help := newTask("help", NewHelp)
	version := newTask("version", func(b *task.Base) *Version { return NewVersion(b, "dev") })
	help.SetAvailableTasks(map[string]task.Task{"help": help, "version": version})
	e.prepare(help, task.Arguments{Positional: []string{"version"}})

	if err := help.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if err := help.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	out := e.out.String()
	if !strings.Contains(out, "marrow version") || !strings.Contains(out, "Usage:") {
		t.Errorf("expected extended help for version task, got:\n%s", out)
	}
}

func TestHelp_ValidateRejectsUnknownTask(t *testing.T) {
	help := newTask("help", NewHelp)
	help.SetAvailableTasks(map[string]task.Task{"help": help})
	help.SetArguments(task.Arguments{Positional: []string{"ghost"}})

	err := help.Validate()
	if !errors.Is(err, task.ErrUnknownTask) {
		t.Errorf("Validate() = %v, want ErrUnknownTask", err)
	}
}

func TestHelp_ValidateRejectsExtraArgs(t *testing.T) {
	help := newTask("help", NewHelp)
	help.SetArguments(task.Arguments{Positional: []string{"a", "b"}})

	if err := help.Validate(); err == nil {
		t.Error("Validate() accepted two positional arguments")
	}
}

func TestHelp_NeedsNoEntityManager(t *testing.T) {
	help := newTask("help", NewHelp)
	if help.NeedsEntityManager() {
		t.Error("help task should not request an entity manager")
	}
}

// =============================================================================
// version
// =============================================================================

func TestVersion_Run(t *testing.T) {
	e := newEnv(t)
	v := newTask("version", func(b *task.Base) *Version { return NewVersion(b, "1.2.3") })
	e.prepare(v, task.Arguments{})

	if err := v.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if err := v.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if got := e.out.String(); got != "marrow 1.2.3\n" {
		t.Errorf("version output = %q", got)
	}
}

func TestVersion_ValidateRejectsArgs(t *testing.T) {
	v := newTask("version", func(b *task.Base) *Version { return NewVersion(b, "dev") })
	v.SetArguments(task.Arguments{Positional: []string{"x"}})

	if err := v.Validate(); err == nil {
		t.Error("Validate() accepted positional arguments")
	}
}

// =============================================================================
// schema-create
// =============================================================================

func TestSchemaCreate_DumpSQL(t *testing.T) {
	e := newEnv(t)
	sc := newTask("schema-create", NewSchemaCreate)
	e.prepare(sc, opts(optDumpSQL, "true"))

	if err := sc.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if err := sc.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	out := e.out.String()
	if !strings.Contains(out, "CREATE TABLE IF NOT EXISTS users") {
		t.Errorf("dump output missing CREATE TABLE, got:\n%s", out)
	}

	// Dump must not touch the database.
	exists, err := e.em.TableExists("users")
	if err != nil {
		t.Fatalf("TableExists: %v", err)
	}
	if exists {
		t.Error("--dump-sql created the table")
	}
}

func TestSchemaCreate_Execute(t *testing.T) {
	e := newEnv(t)
	sc := newTask("schema-create", NewSchemaCreate)
	e.prepare(sc, task.Arguments{})

	if err := sc.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if err := sc.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	exists, err := e.em.TableExists("users")
	if err != nil {
		t.Fatalf("TableExists: %v", err)
	}
	if !exists {
		t.Error("schema-create did not create the users table")
	}
	if !strings.Contains(e.out.String(), "created schema for 1 entities") {
		t.Errorf("missing summary line, got:\n%s", e.out.String())
	}
}

func TestSchemaCreate_ValidateMissingMappingsDir(t *testing.T) {
	e := newEnv(t)
	sc := newTask("schema-create", NewSchemaCreate)
	e.prepare(sc, task.Arguments{})
	if err := os.RemoveAll(e.dir); err != nil {
		t.Fatalf("failed to remove mappings dir: %v", err)
	}

	if err := sc.Validate(); err == nil {
		t.Error("Validate() accepted a missing mappings directory")
	}
}

// =============================================================================
// schema-drop
// =============================================================================

func TestSchemaDrop_ValidateExclusive(t *testing.T) {
	sd := newTask("schema-drop", NewSchemaDrop)

	sd.SetArguments(task.Arguments{Options: map[string]string{}})
	if err := sd.Validate(); err == nil {
		t.Error("Validate() accepted neither --force nor --dump-sql")
	}

	sd.SetArguments(opts(optForce, "true", optDumpSQL, "true"))
	if err := sd.Validate(); err == nil {
		t.Error("Validate() accepted both --force and --dump-sql")
	}
}

func TestSchemaDrop_Force(t *testing.T) {
	e := newEnv(t)
	sc := newTask("schema-create", NewSchemaCreate)
	e.prepare(sc, task.Arguments{})
	if err := sc.Run(); err != nil {
		t.Fatalf("schema-create failed: %v", err)
	}

	sd := newTask("schema-drop", NewSchemaDrop)
	e.prepare(sd, opts(optForce, "true"))
	if err := sd.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if err := sd.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	exists, err := e.em.TableExists("users")
	if err != nil {
		t.Fatalf("TableExists: %v", err)
	}
	if exists {
		t.Error("schema-drop --force left the users table behind")
	}
}

func TestSchemaDrop_DumpSQL(t *testing.T) {
	e := newEnv(t)
	sd := newTask("schema-drop", NewSchemaDrop)
	e.prepare(sd, opts(optDumpSQL, "true"))

	if err := sd.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if err := sd.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if !strings.Contains(e.out.String(), "DROP TABLE IF EXISTS users;") {
		t.Errorf("dump output missing DROP TABLE, got:\n%s", e.out.String())
	}
}

// =============================================================================
// schema-update
// =============================================================================

func TestSchemaUpdate_NothingToUpdate(t *testing.T) {
	e := newEnv(t)
	sc := newTask("schema-create", NewSchemaCreate)
	e.prepare(sc, task.Arguments{})
	if err := sc.Run(); err != nil {
		t.Fatalf("schema-create failed: %v", err)
	}

	su := newTask("schema-update", NewSchemaUpdate)
	e.prepare(su, task.Arguments{})
	if err := su.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if err := su.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if !strings.Contains(e.out.String(), "nothing to update") {
		t.Errorf("missing nothing-to-update line, got:\n%s", e.out.String())
	}
}

func TestSchemaUpdate_CreatesMissingTable(t *testing.T) {
	e := newEnv(t)
	su := newTask("schema-update", NewSchemaUpdate)
	e.prepare(su, task.Arguments{})

	if err := su.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if err := su.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	exists, err := e.em.TableExists("users")
	if err != nil {
		t.Fatalf("TableExists: %v", err)
	}
	if !exists {
		t.Error("schema-update did not create the missing table")
	}
}

// =============================================================================
// run-sql
// =============================================================================

func TestRunSQL_ValidateExclusive(t *testing.T) {
	rs := newTask("run-sql", NewRunSQL)

	rs.SetArguments(task.Arguments{Options: map[string]string{}})
	if err := rs.Validate(); err == nil {
		t.Error("Validate() accepted neither --sql nor --file")
	}

	rs.SetArguments(opts(optSQL, "SELECT 1", optFile, "x.sql"))
	if err := rs.Validate(); err == nil {
		t.Error("Validate() accepted both --sql and --file")
	}

	rs.SetArguments(opts(optSQL, ""))
	if err := rs.Validate(); err == nil {
		t.Error("Validate() accepted an empty --sql")
	}

	rs.SetArguments(opts(optFile, "/nonexistent/query.sql"))
	if err := rs.Validate(); err == nil {
		t.Error("Validate() accepted a missing --file")
	}
}

func TestRunSQL_Select(t *testing.T) {
	e := newEnv(t)
	rs := newTask("run-sql", NewRunSQL)
	e.prepare(rs, opts(optSQL, "SELECT 1 AS one, 2 AS two"))

	if err := rs.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if err := rs.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	out := e.out.String()
	for _, want := range []string{"one", "two", "1 rows"} {
		if !strings.Contains(out, want) {
			t.Errorf("run-sql output missing %q, got:\n%s", want, out)
		}
	}
}

func TestRunSQL_Exec(t *testing.T) {
	e := newEnv(t)
	rs := newTask("run-sql", NewRunSQL)
	e.prepare(rs, opts(optSQL, "CREATE TABLE t (id INTEGER PRIMARY KEY)"))

	if err := rs.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if !strings.Contains(e.out.String(), "rows affected") {
		t.Errorf("run-sql output missing affected count, got:\n%s", e.out.String())
	}
}

func TestRunSQL_FromFile(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(t.TempDir(), "query.sql")
	if err := os.WriteFile(path, []byte("SELECT 42 AS answer"), 0644); err != nil {
		t.Fatalf("failed to write query file: %v", err)
	}

	rs := newTask("run-sql", NewRunSQL)
	e.prepare(rs, opts(optFile, path))

	if err := rs.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if err := rs.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if !strings.Contains(e.out.String(), "42") {
		t.Errorf("run-sql output missing query result, got:\n%s", e.out.String())
	}
}

// =============================================================================
// load-fixtures
// =============================================================================

func TestLoadFixtures_Validate(t *testing.T) {
	lf := newTask("load-fixtures", NewLoadFixtures)

	lf.SetArguments(task.Arguments{Options: map[string]string{}})
	if err := lf.Validate(); err == nil {
		t.Error("Validate() accepted a missing --file")
	}

	lf.SetArguments(opts(optFile, "/nonexistent/fixtures.yaml"))
	if err := lf.Validate(); err == nil {
		t.Error("Validate() accepted a nonexistent fixture file")
	}
}

func TestLoadFixtures_Run(t *testing.T) {
	e := newEnv(t)
	sc := newTask("schema-create", NewSchemaCreate)
	e.prepare(sc, task.Arguments{})
	if err := sc.Run(); err != nil {
		t.Fatalf("schema-create failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	fixture := "users:\n  - id: u1\n    email: a@example.com\n  - email: b@example.com\n"
	if err := os.WriteFile(path, []byte(fixture), 0644); err != nil {
		t.Fatalf("failed to write fixture file: %v", err)
	}

	lf := newTask("load-fixtures", NewLoadFixtures)
	e.prepare(lf, opts(optFile, path))

	if err := lf.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if err := lf.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	out := e.out.String()
	if !strings.Contains(out, "users: 2 rows") {
		t.Errorf("missing per-table count, got:\n%s", out)
	}
	if !strings.Contains(out, "loaded 2 rows into 1 tables") {
		t.Errorf("missing summary line, got:\n%s", out)
	}
}
