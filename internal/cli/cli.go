package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/stencilhq/stencil/internal/commands"
	"github.com/stencilhq/stencil/internal/config"
	apperrors "github.com/stencilhq/stencil/internal/errors"
	"github.com/stencilhq/stencil/internal/history"
	"github.com/stencilhq/stencil/internal/service"
)

// CLI runs commands headlessly, without the interactive shell. Output
// goes to the writer; confirmation prompts read from the reader.
type CLI struct {
	service  *service.Service
	registry *commands.Registry
	logger   *history.Logger
	out      io.Writer
	in       io.Reader
}

// NewCLI creates a headless executor over the given service.
func NewCLI(svc *service.Service, logger *history.Logger) *CLI {
	return &CLI{
		service:  svc,
		registry: commands.NewRegistry(),
		logger:   logger,
		out:      os.Stdout,
		in:       os.Stdin,
	}
}

// SetOutput redirects command output, mainly for tests.
func (c *CLI) SetOutput(w io.Writer) { c.out = w }

// SetInput redirects confirmation prompts, mainly for tests.
func (c *CLI) SetInput(r io.Reader) { c.in = r }

// ExecuteLine tokenizes and runs a single command line.
func (c *CLI) ExecuteLine(line string) error {
	args, err := SplitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	return c.Execute(args)
}

// Execute runs a command with already-split arguments. The command
// name is alias-resolved before dispatch.
func (c *CLI) Execute(args []string) error {
	name := config.ResolveAlias(args[0])
	if c.logger != nil {
		line := strings.Join(append([]string{name}, args[1:]...), " ")
		if err := c.logger.LogCommand(line); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to log command: %v\n", err)
		}
	}

	ctx := &commands.Context{
		Svc:     c.service,
		Confirm: c.promptConfirm,
	}
	result, err := c.registry.Execute(ctx, name, args[1:])
	if err != nil {
		return err
	}
	if result.Message != "" {
		fmt.Fprintln(c.out, result.Message)
	}
	if result.Output != "" {
		fmt.Fprintln(c.out, result.Output)
	}
	return nil
}

func (c *CLI) promptConfirm(question string) bool {
	fmt.Fprintf(c.out, "%s [y/N]: ", question)
	reader := bufio.NewReader(c.in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// FormatError renders an error for terminal display. Application
// errors show their code; anything else prints as-is.
func FormatError(err error) string {
	appErr := apperrors.GetAppError(err)
	switch appErr.Code {
	case apperrors.ErrCodeInvalidInput:
		return appErr.Message
	case apperrors.ErrCodeInternalError:
		return fmt.Sprintf("Error: %s", appErr.Message)
	default:
		return fmt.Sprintf("Error [%s]: %s", appErr.Code, appErr.Message)
	}
}

// SplitArgs splits a command line into fields, honoring single and
// double quotes so values with spaces survive as one argument.
func SplitArgs(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	inArg := false
	var quote rune

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidInput, "Unterminated quote in command")
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}
