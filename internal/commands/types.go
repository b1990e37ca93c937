// Package commands implements the command layer shared by the
// interactive shell and the headless CLI. Each command validates its
// arguments, drives the service layer, and returns a formatted result;
// the frontends only display.
package commands

import (
	"sort"

	apperrors "github.com/stencilhq/stencil/internal/errors"
	"github.com/stencilhq/stencil/internal/service"
)

// Context carries the collaborators a command may need.
type Context struct {
	Svc *service.Service
	// Confirm resolves a yes/no prompt before a destructive step. It
	// must be answered before any mutation happens; a nil Confirm
	// declines. An aborted prompt therefore leaves every persisted file
	// untouched.
	Confirm func(prompt string) bool
}

// Result is the outcome of one command.
type Result struct {
	// Message is a one-line status ("Loaded: reports/monthly").
	Message string
	// Output is multi-line payload (rendered template, tables).
	Output string
	// Exit asks the frontend to terminate the session.
	Exit bool
}

// Command binds a name to its handler and help text.
type Command struct {
	Name        string
	Usage       string
	Description string
	Run         func(ctx *Context, args []string) (*Result, error)
}

// Registry holds the available commands.
type Registry struct {
	commands map[string]*Command
}

// NewRegistry builds the registry with every built-in command.
func NewRegistry() *Registry {
	r := &Registry{commands: map[string]*Command{}}
	for _, cmd := range builtinCommands() {
		r.commands[cmd.Name] = cmd
	}
	return r
}

// Get looks up a command by canonical name.
func (r *Registry) Get(name string) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns all command names, sorted. Used by help and completion.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute dispatches a resolved command name with its arguments.
func (r *Registry) Execute(ctx *Context, name string, args []string) (*Result, error) {
	cmd, ok := r.Get(name)
	if !ok {
		return nil, apperrors.CommandNotFoundError(name)
	}
	return cmd.Run(ctx, args)
}
