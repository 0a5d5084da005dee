// ABOUTME: Command invocation context passed to command handlers
// ABOUTME: Carries invocation metadata and dispatches to other commands
package command

import "fmt"

// Command is a named, invocable entry in the dispatcher. Handler is the
// canonical entry point, run with a full context; Callback is the raw
// function behind it, run with bare keyword arguments.
type Command struct {
	Name     string
	Handler  func(*Context) error
	Callback func(kwargs map[string]interface{}) error
}

// Context describes the circumstances a command is being invoked under. It
// is built by the dispatcher and handed to the handler; handlers never
// construct one themselves.
type Context struct {
	Message interface{} // the inbound message that triggered the command
	Bot     interface{} // the bot owning the command

	Args   []string
	Kwargs map[string]interface{}

	Prefix            string
	Command           *Command
	InvokedWith       string // the name or alias the command was called by
	InvokedSubcommand *Command
	SubcommandPassed  string
}

// Invoke runs another command from within this context. With no kwargs the
// command's canonical Handler runs with this context; with kwargs the raw
// Callback is called directly with them instead, bypassing the handler.
// The two paths have different semantics and callers must pick knowingly.
func (c *Context) Invoke(cmd *Command, kwargs map[string]interface{}) error {
	if cmd == nil {
		return fmt.Errorf("command: invoke of nil command")
	}

	if len(kwargs) == 0 {
		if cmd.Handler == nil {
			return fmt.Errorf("command: %s has no handler", cmd.Name)
		}
		return cmd.Handler(c)
	}

	if cmd.Callback == nil {
		return fmt.Errorf("command: %s has no callback", cmd.Name)
	}
	return cmd.Callback(kwargs)
}
