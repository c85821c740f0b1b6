package doc

import (
	"bytes"
	"strings"
	"testing"
)

func TestOption_Flag(t *testing.T) {
	withValue := Option{Name: "sql", Value: "<query>"}
	if got := withValue.Flag(); got != "--sql=<query>" {
		t.Errorf("Flag() = %q, want %q", got, "--sql=<query>")
	}

	boolSwitch := Option{Name: "force"}
	if got := boolSwitch.Flag(); got != "--force" {
		t.Errorf("Flag() = %q, want %q", got, "--force")
	}
}

func TestOptionGroup_Synopsis(t *testing.T) {
	optional := NewOptionGroup(Optional, Option{Name: "config", Value: "<path>"})
	if got := optional.Synopsis(); got != "[--config=<path>]" {
		t.Errorf("optional synopsis = %q, want %q", got, "[--config=<path>]")
	}

	required := NewOptionGroup(Required,
		Option{Name: "force"},
		Option{Name: "dump-sql"},
	)
	if got := required.Synopsis(); got != "(--force | --dump-sql)" {
		t.Errorf("required synopsis = %q, want %q", got, "(--force | --dump-sql)")
	}
}

func TestDocumentation_Synopsis(t *testing.T) {
	d := New("schema-drop")
	d.AddOptionGroup(NewOptionGroup(Optional, Option{Name: "config", Value: "<path>"}))
	d.AddOptionGroup(NewOptionGroup(Required, Option{Name: "force"}, Option{Name: "dump-sql"}))

	want := "marrow schema-drop [--config=<path>] (--force | --dump-sql)"
	if got := d.Synopsis(); got != want {
		t.Errorf("Synopsis() = %q, want %q", got, want)
	}
}

func TestDocumentation_ShortDescription(t *testing.T) {
	d := New("x")
	d.SetDescription("first line\nrest of the story")
	if got := d.ShortDescription(); got != "first line" {
		t.Errorf("ShortDescription() = %q, want %q", got, "first line")
	}
}

func TestDocumentation_RenderBasic(t *testing.T) {
	d := New("version")
	d.SetDescription("Print the version.\nMore detail here.")

	var buf bytes.Buffer
	d.RenderBasic(&buf)

	out := buf.String()
	if !strings.Contains(out, "marrow version") {
		t.Errorf("RenderBasic missing synopsis, got:\n%s", out)
	}
	if !strings.Contains(out, "Print the version.") {
		t.Errorf("RenderBasic missing description, got:\n%s", out)
	}
	if strings.Contains(out, "More detail here.") {
		t.Errorf("RenderBasic should not include the full description, got:\n%s", out)
	}
}

func TestDocumentation_RenderExtended(t *testing.T) {
	d := New("run-sql")
	d.SetDescription("Execute SQL.")
	d.AddOptionGroup(NewOptionGroup(Required,
		Option{Name: "sql", Value: "<query>", Description: "The statement"},
		Option{Name: "file", Value: "<path>", Description: "Statement file"},
	))

	var buf bytes.Buffer
	d.RenderExtended(&buf)

	out := buf.String()
	for _, want := range []string{"run-sql", "Usage:", "Execute SQL.", "Options:", "--sql", "--file", "statement", "exactly"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderExtended missing %q, got:\n%s", want, out)
		}
	}
}

func TestDocumentation_RenderExtendedNoOptions(t *testing.T) {
	d := New("bare")
	d.SetDescription("No options at all.")

	var buf bytes.Buffer
	d.RenderExtended(&buf)

	if strings.Contains(buf.String(), "Options:") {
		t.Errorf("RenderExtended printed an options section without options:\n%s", buf.String())
	}
}

func TestDocumentation_Options(t *testing.T) {
	d := New("x")
	d.AddOptionGroup(NewOptionGroup(Optional, Option{Name: "a"}))
	d.AddOptionGroup(NewOptionGroup(Required, Option{Name: "b"}, Option{Name: "c"}))

	opts := d.Options()
	if len(opts) != 3 {
		t.Fatalf("Options() returned %d options, want 3", len(opts))
	}
	for i, want := range []string{"a", "b", "c"} {
		if opts[i].Name != want {
			t.Errorf("Options()[%d].Name = %q, want %q", i, opts[i].Name, want)
		}
	}
}
