// Package cli wires the task registry into cobra commands.
package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marrow/marrow/internal/config"
	"github.com/marrow/marrow/internal/log"
	"github.com/marrow/marrow/internal/orm"
	"github.com/marrow/marrow/internal/task"
)

// Controller holds the registered tasks. All tasks share one live sibling
// map, so every task sees the full set regardless of registration order.
type Controller struct {
	tasks map[string]task.Task
	order []string
}

// NewController creates an empty controller.
func NewController() *Controller {
	return &Controller{tasks: make(map[string]task.Task)}
}

// Register adds a task under the given name and hands it the shared sibling
// map.
func (c *Controller) Register(name string, t task.Task) {
	c.tasks[name] = t
	c.order = append(c.order, name)
	t.SetAvailableTasks(c.tasks)
}

// Task returns the named task.
func (c *Controller) Task(name string) (task.Task, error) {
	t, ok := c.tasks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", task.ErrUnknownTask, name)
	}
	return t, nil
}

// Names returns the task names in registration order.
func (c *Controller) Names() []string {
	return c.order
}

// Command adapts the named task into a cobra command. Flags come from the
// task's documented options; --config is the root's persistent flag and
// arrives through cfgPath at execution time.
func (c *Controller) Command(name string, cfgPath *string) (*cobra.Command, error) {
	t, err := c.Task(name)
	if err != nil {
		return nil, err
	}
	d := t.Documentation()

	var long bytes.Buffer
	d.RenderExtended(&long)

	cmd := &cobra.Command{
		Use:   name,
		Short: d.ShortDescription(),
		Long:  long.String(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.execute(t, cmd, args, *cfgPath)
		},
	}

	for _, o := range d.Options() {
		if o.Name == task.ConfigOption {
			continue
		}
		if o.Value == "" {
			cmd.Flags().Bool(o.Name, false, o.Description)
		} else {
			cmd.Flags().String(o.Name, "", o.Description)
		}
	}
	return cmd, nil
}

// execute runs one task: assign the parsed arguments wholesale, bootstrap
// the entity manager when the task wants one, validate, run.
func (c *Controller) execute(t task.Task, cmd *cobra.Command, args []string, cfgPath string) error {
	parsed := task.Arguments{
		Options:    make(map[string]string),
		Positional: args,
	}
	if cfgPath != "" {
		parsed.Options[task.ConfigOption] = cfgPath
	}
	for _, o := range t.Documentation().Options() {
		if o.Name == task.ConfigOption || !cmd.Flags().Changed(o.Name) {
			continue
		}
		if o.Value == "" {
			// --flag=false is a changed flag too; only a true value
			// counts as the switch being given.
			set, flagErr := cmd.Flags().GetBool(o.Name)
			if flagErr != nil {
				return flagErr
			}
			if set {
				parsed.Options[o.Name] = "true"
			}
		} else {
			value, flagErr := cmd.Flags().GetString(o.Name)
			if flagErr != nil {
				return flagErr
			}
			parsed.Options[o.Name] = value
		}
	}
	t.SetArguments(parsed)

	if t.NeedsEntityManager() {
		cfg, cfgErr := config.Load(cfgPath)
		if cfgErr != nil {
			return cfgErr
		}
		log.SetLevel(cfg.LogLevel)

		em, openErr := orm.Open(cfg)
		if openErr != nil {
			return openErr
		}
		defer func() {
			log.CloseError("entity manager", em.Close())
		}()
		t.SetEntityManager(em)
	}

	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return t.Run()
}
