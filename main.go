package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/stencilhq/stencil/internal/cli"
	"github.com/stencilhq/stencil/internal/config"
	"github.com/stencilhq/stencil/internal/history"
	"github.com/stencilhq/stencil/internal/service"
	"github.com/stencilhq/stencil/internal/ui"
	"github.com/stencilhq/stencil/internal/validation"
)

func printHelp() {
	fmt.Printf(`stencil - Session-based template filling

USAGE:
    stencil [OPTIONS] [TEMPLATE [SAVE]]

OPTIONS:
    --help       Show this help information
    --version    Print version information
    --restore    Restore session state from the backup file at startup
    -c <line>    Run one command headlessly and exit

ARGUMENTS:
    (none)              Start the interactive shell
    TEMPLATE            Load the template and start the shell
    TEMPLATE SAVE       Load the template with a save file, render, exit

COMMANDS (interactive or via -c):
    use <template> [save]    Load a template, optionally with a save file
    load <save>              Load variables from a save file
    set <variable> <value>   Set a session variable
    unset <variable>         Remove a session variable
    save <path> [section]    Write session variables to a save file
    render [markdown]        Render the current template
    copy                     Copy the last render to the clipboard
    ls                       List variables with resolved values
    revert                   Return to the previous session state
    backup / restore         Snapshot or restore the session state
    setglobal / unsetglobal  Manage global variables
    templates / saves        List available files
    help                     Full command list

ENVIRONMENT:
    STENCIL_TEMPLATES    Templates directory
    STENCIL_SAVES        Save files directory
    STENCIL_STATE        Session state file
`)
}

func main() {
	var showVersion bool
	var showHelp bool
	var restoreBackup bool
	var commandLine string

	flag.BoolVar(&showVersion, "version", false, "Print version information")
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.BoolVar(&restoreBackup, "restore", false, "Restore session state from backup at startup")
	flag.StringVar(&commandLine, "c", "", "Run one command headlessly and exit")
	flag.Parse()

	if showHelp {
		printHelp()
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("%s version %s\n", config.AppName, config.Version)
		os.Exit(0)
	}

	cfg := config.New()
	svc := service.New(cfg)
	logger := history.NewLogger(cfg.HistoryFile)

	// Either roll back to the last backup or take a fresh one, never both.
	if restoreBackup {
		ok, err := svc.RestoreFromBackup()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error restoring backup: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "No backup to restore from.")
			os.Exit(1)
		}
	} else if err := svc.BackupState(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to back up session state: %v\n", err)
	}

	warnOnDuplicates(cfg)
	svc.RestoreSession()

	if commandLine != "" {
		runner := cli.NewCLI(svc, logger)
		if err := runner.ExecuteLine(commandLine); err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err))
			os.Exit(1)
		}
		return
	}

	args := flag.Args()
	if len(args) >= 2 {
		// Quick launch: load template with save, render and exit.
		runner := cli.NewCLI(svc, logger)
		if err := runner.Execute([]string{"use", args[0], args[1]}); err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err))
			os.Exit(1)
		}
		return
	}
	if len(args) == 1 {
		runner := cli.NewCLI(svc, logger)
		if err := runner.Execute([]string{"use", args[0]}); err != nil {
			fmt.Fprintln(os.Stderr, cli.FormatError(err))
			os.Exit(1)
		}
	}

	if err := ui.Run(svc, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func warnOnDuplicates(cfg *config.Config) {
	validator := validation.NewValidator(cfg.TemplatesDir, cfg.SavesDir)
	result, err := validator.Validate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: validation failed: %v\n", err)
		return
	}
	if result.HasDuplicates() {
		fmt.Fprintln(os.Stderr, "Warning: "+result.Summary())
		for _, group := range result.Duplicates {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", group.Directory, group.Files)
		}
	}
}
