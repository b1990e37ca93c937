package commands

import (
	"fmt"
	"strings"

	"github.com/stencilhq/stencil/internal/clipboard"
	apperrors "github.com/stencilhq/stencil/internal/errors"
	"github.com/stencilhq/stencil/internal/savefile"
)

func builtinCommands() []*Command {
	return []*Command{
		{
			Name:        "use",
			Usage:       "use <template> [save]",
			Description: "Load a template, optionally with a save file (auto-renders)",
			Run:         runUse,
		},
		{
			Name:        "load",
			Usage:       "load <save>",
			Description: "Load variables for the current template from a save file",
			Run:         runLoad,
		},
		{
			Name:        "set",
			Usage:       "set <variable> <value>",
			Description: "Set a session variable",
			Run:         runSet,
		},
		{
			Name:        "unset",
			Usage:       "unset <variable>",
			Description: "Remove a session variable",
			Run:         runUnset,
		},
		{
			Name:        "save",
			Usage:       "save <path> [general|globals]",
			Description: "Save session variables into a save file section",
			Run:         runSave,
		},
		{
			Name:        "render",
			Usage:       "render [markdown]",
			Description: "Render the current template with resolved variables",
			Run:         runRender,
		},
		{
			Name:        "copy",
			Usage:       "copy",
			Description: "Copy the last rendered output to the clipboard",
			Run:         runCopy,
		},
		{
			Name:        "ls",
			Usage:       "ls",
			Description: "List the template's variables with values and provenance",
			Run:         runList,
		},
		{
			Name:        "revert",
			Usage:       "revert",
			Description: "Revert to the previous template state (again to toggle back)",
			Run:         runRevert,
		},
		{
			Name:        "backup",
			Usage:       "backup",
			Description: "Copy the persisted session state to the backup file",
			Run:         runBackup,
		},
		{
			Name:        "restore",
			Usage:       "restore",
			Description: "Replace the live session with the backup document",
			Run:         runRestore,
		},
		{
			Name:        "setglobal",
			Usage:       "setglobal <variable> <value>",
			Description: "Set a cross-session global variable",
			Run:         runSetGlobal,
		},
		{
			Name:        "unsetglobal",
			Usage:       "unsetglobal <variable>",
			Description: "Remove a cross-session global variable",
			Run:         runUnsetGlobal,
		},
		{
			Name:        "globals",
			Usage:       "globals",
			Description: "List cross-session global variables",
			Run:         runGlobals,
		},
		{
			Name:        "templates",
			Usage:       "templates",
			Description: "List available templates",
			Run:         runTemplates,
		},
		{
			Name:        "saves",
			Usage:       "saves",
			Description: "List available save files",
			Run:         runSaves,
		},
		{
			Name:        "sections",
			Usage:       "sections <save>",
			Description: "List the template sections inside a save file",
			Run:         runSections,
		},
		{
			Name:        "clear",
			Usage:       "clear",
			Description: "Clear all session variables (keeps the template)",
			Run:         runClear,
		},
		{
			Name:        "help",
			Usage:       "help",
			Description: "Show available commands",
			Run:         runHelp,
		},
		{
			Name:        "exit",
			Usage:       "exit",
			Description: "Exit the shell",
			Run: func(ctx *Context, args []string) (*Result, error) {
				return &Result{Message: "Goodbye!", Exit: true}, nil
			},
		},
	}
}

func runUse(ctx *Context, args []string) (*Result, error) {
	if len(args) < 1 {
		return nil, usageError("use <template> [save]")
	}
	tmpl, err := ctx.Svc.UseTemplate(args[0])
	if err != nil {
		return nil, err
	}
	result := &Result{Message: fmt.Sprintf("Loaded: %s", tmpl.RelativePath)}

	if len(args) > 1 {
		count, err := ctx.Svc.LoadSave(args[1])
		if err != nil {
			return nil, err
		}
		result.Message += fmt.Sprintf(" (with %d variable(s) from %s)", count, args[1])

		render, err := ctx.Svc.Render()
		if err != nil {
			return nil, err
		}
		result.Output = renderOutput(ctx, render)
	}
	return result, nil
}

func runLoad(ctx *Context, args []string) (*Result, error) {
	if len(args) != 1 {
		return nil, usageError("load <save>")
	}
	count, err := ctx.Svc.LoadSave(args[0])
	if err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Loaded %d variable(s) from: %s", count, args[0])}, nil
}

func runSet(ctx *Context, args []string) (*Result, error) {
	if len(args) < 2 {
		return nil, usageError("set <variable> <value>")
	}
	name := args[0]
	raw := strings.Join(args[1:], " ")
	value, err := ctx.Svc.SetVariable(name, raw)
	if err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Set %s = %s", name, savefile.FormatValue(value))}, nil
}

func runUnset(ctx *Context, args []string) (*Result, error) {
	if len(args) != 1 {
		return nil, usageError("unset <variable>")
	}
	if err := ctx.Svc.UnsetVariable(args[0]); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Unset %s", args[0])}, nil
}

func runSave(ctx *Context, args []string) (*Result, error) {
	if len(args) < 1 {
		return nil, usageError("save <path> [general|globals]")
	}
	savePath := args[0]
	toGeneral, toGlobals := false, false
	if len(args) > 1 {
		switch args[1] {
		case "general":
			toGeneral = true
		case "globals":
			toGlobals = true
		default:
			return nil, usageError("save <path> [general|globals]")
		}
	}

	// The overwrite prompt resolves before any mutation; declining
	// leaves the save file byte-for-byte unchanged.
	if ctx.Svc.SaveExists(savePath) {
		if ctx.Confirm == nil || !ctx.Confirm(fmt.Sprintf("Save file '%s' exists. Merge variables into it?", savePath)) {
			return &Result{Message: "Save cancelled."}, nil
		}
	}

	if err := ctx.Svc.SaveVariables(savePath, toGeneral, toGlobals); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Saved variables to: %s", savePath)}, nil
}

func runRender(ctx *Context, args []string) (*Result, error) {
	asMarkdown := len(args) > 0 && args[0] == "markdown"
	render, err := ctx.Svc.Render()
	if err != nil {
		return nil, err
	}
	result := &Result{Output: renderOutput(ctx, render)}
	if asMarkdown && render.Success {
		if md, err := ctx.Svc.RenderMarkdown(render.Output, 0); err == nil {
			result.Output = md
		}
	}
	return result, nil
}

func runCopy(ctx *Context, args []string) (*Result, error) {
	render := ctx.Svc.LastRender()
	if render == nil || !render.Success {
		return nil, apperrors.ValidationError("Nothing rendered yet; run 'render' first")
	}
	if !clipboard.Available() {
		return nil, apperrors.NewAppError(apperrors.ErrCodeCommandFailed, "No clipboard utility available").
			WithDetails("install xclip, xsel, or wl-clipboard")
	}
	if err := clipboard.Copy(render.Output); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCommandFailed, "Failed to copy to clipboard")
	}
	return &Result{Message: "Copied to clipboard!"}, nil
}

func runList(ctx *Context, args []string) (*Result, error) {
	tmpl := ctx.Svc.CurrentTemplate()
	if tmpl == nil {
		return nil, apperrors.ValidationError("Load a template first with 'use'")
	}
	if len(tmpl.VariableOrder) == 0 {
		return &Result{Message: "No variables defined in template."}, nil
	}
	return &Result{Output: formatVariableTable(tmpl, ctx.Svc.ResolveAll())}, nil
}

func runRevert(ctx *Context, args []string) (*Result, error) {
	ok, templateID, err := ctx.Svc.Revert()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ValidationError("No previous state to revert to")
	}
	if templateID == "" {
		return &Result{Message: "Reverted to empty state"}, nil
	}
	return &Result{Message: fmt.Sprintf("Reverted to: %s", templateID)}, nil
}

func runBackup(ctx *Context, args []string) (*Result, error) {
	if err := ctx.Svc.BackupState(); err != nil {
		return nil, err
	}
	return &Result{Message: "Session state backed up."}, nil
}

func runRestore(ctx *Context, args []string) (*Result, error) {
	ok, err := ctx.Svc.RestoreFromBackup()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ValidationError("No backup to restore from")
	}
	msg := "Restored session from backup"
	if tmpl := ctx.Svc.CurrentTemplate(); tmpl != nil {
		msg += ": " + tmpl.RelativePath
	}
	return &Result{Message: msg}, nil
}

func runSetGlobal(ctx *Context, args []string) (*Result, error) {
	if len(args) < 2 {
		return nil, usageError("setglobal <variable> <value>")
	}
	name := args[0]
	value, err := ctx.Svc.SetGlobalVariable(name, strings.Join(args[1:], " "))
	if err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Set global %s = %s", name, savefile.FormatValue(value))}, nil
}

func runUnsetGlobal(ctx *Context, args []string) (*Result, error) {
	if len(args) != 1 {
		return nil, usageError("unsetglobal <variable>")
	}
	if err := ctx.Svc.Manager().UnsetGlobalVariable(args[0]); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Unset global %s", args[0])}, nil
}

func runGlobals(ctx *Context, args []string) (*Result, error) {
	globals := ctx.Svc.Manager().AllGlobalVariables()
	if len(globals) == 0 {
		return &Result{Message: "No global variables set."}, nil
	}
	return &Result{Output: formatGlobalsTable(globals)}, nil
}

func runTemplates(ctx *Context, args []string) (*Result, error) {
	templates, err := ctx.Svc.Templates()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCommandFailed, "Failed to list templates")
	}
	if len(templates) == 0 {
		return &Result{Message: "No templates found."}, nil
	}
	return &Result{Output: strings.Join(templates, "\n")}, nil
}

func runSaves(ctx *Context, args []string) (*Result, error) {
	saves, err := ctx.Svc.Saves()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCommandFailed, "Failed to list save files")
	}
	if len(saves) == 0 {
		return &Result{Message: "No save files found."}, nil
	}
	return &Result{Output: strings.Join(saves, "\n")}, nil
}

func runSections(ctx *Context, args []string) (*Result, error) {
	if len(args) != 1 {
		return nil, usageError("sections <save>")
	}
	sections, err := ctx.Svc.SaveSections(args[0])
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return &Result{Message: "No template sections in " + args[0]}, nil
	}
	return &Result{Output: strings.Join(sections, "\n")}, nil
}

func runClear(ctx *Context, args []string) (*Result, error) {
	if err := ctx.Svc.Manager().ClearVariables(); err != nil {
		return nil, err
	}
	return &Result{Message: "Cleared session variables."}, nil
}

func runHelp(ctx *Context, args []string) (*Result, error) {
	registry := NewRegistry()
	var sb strings.Builder
	sb.WriteString("Commands:\n")
	for _, name := range registry.Names() {
		cmd, _ := registry.Get(name)
		sb.WriteString(fmt.Sprintf("  %-28s %s\n", cmd.Usage, cmd.Description))
	}
	return &Result{Output: strings.TrimRight(sb.String(), "\n")}, nil
}

func usageError(usage string) error {
	return apperrors.NewAppError(apperrors.ErrCodeInvalidInput, "Usage: "+usage)
}
