package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/stencilhq/stencil/internal/cli"
	"github.com/stencilhq/stencil/internal/commands"
	"github.com/stencilhq/stencil/internal/config"
	"github.com/stencilhq/stencil/internal/history"
	"github.com/stencilhq/stencil/internal/service"
)

const maxScrollback = 500

// pendingConfirm holds a command paused on a yes/no question. The
// command re-runs with confirmation granted when the user answers yes.
type pendingConfirm struct {
	question string
	name     string
	args     []string
}

// Model is the interactive shell: a prompt with fuzzy tab completion
// over a scrollback of command output.
type Model struct {
	svc      *service.Service
	registry *commands.Registry
	logger   *history.Logger

	input   textinput.Model
	lines   []string
	pending *pendingConfirm

	histIndex int
	histDraft string

	width  int
	height int
}

// NewModel builds the shell around an initialized service.
func NewModel(svc *service.Service, logger *history.Logger) *Model {
	initializeStyles()

	input := textinput.New()
	input.Placeholder = "type a command, tab to complete, 'help' for a list"
	input.CharLimit = 500
	input.Focus()

	m := &Model{
		svc:       svc,
		registry:  commands.NewRegistry(),
		logger:    logger,
		input:     input,
		histIndex: -1,
	}
	m.showBanner()
	return m
}

// Run starts the bubbletea program and blocks until the user exits.
func Run(svc *service.Service, logger *history.Logger) error {
	p := tea.NewProgram(NewModel(svc, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - len(m.promptText()) - 2
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleEnter()
		case tea.KeyTab:
			m.completeInput()
			return m, nil
		case tea.KeyUp:
			m.recallHistory(-1)
			return m, nil
		case tea.KeyDown:
			m.recallHistory(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	visible := m.lines
	// Leave room for the prompt line and a spacer.
	if m.height > 2 && len(visible) > m.height-2 {
		visible = visible[len(visible)-(m.height-2):]
	}

	var sb strings.Builder
	for _, line := range visible {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString(promptStyle.Render(m.promptText()))
	sb.WriteString(m.input.View())
	return sb.String()
}

func (m *Model) promptText() string {
	current := ""
	if tmpl := m.svc.CurrentTemplate(); tmpl != nil {
		current = " (" + tmpl.RelativePath + ")"
	}
	return fmt.Sprintf(m.svc.Config().Prompt, current)
}

func (m *Model) handleEnter() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	m.histIndex = -1

	if m.pending != nil {
		return m.resolveConfirm(line)
	}
	if line == "" {
		return m, nil
	}
	m.appendLine(echoStyle.Render(m.promptText() + line))
	return m.execute(line)
}

// execute runs one command line. A command that asks for confirmation
// is parked until the next enter keypress answers it.
func (m *Model) execute(line string) (tea.Model, tea.Cmd) {
	args, err := cli.SplitArgs(line)
	if err != nil {
		m.appendLine(errorStyle.Render(cli.FormatError(err)))
		return m, nil
	}
	if len(args) == 0 {
		return m, nil
	}
	name := config.ResolveAlias(args[0])
	if m.logger != nil {
		logged := strings.Join(append([]string{name}, args[1:]...), " ")
		_ = m.logger.LogCommand(logged)
	}

	asked := ""
	ctx := &commands.Context{
		Svc: m.svc,
		Confirm: func(question string) bool {
			asked = question
			return false
		},
	}
	result, err := m.registry.Execute(ctx, name, args[1:])
	if asked != "" {
		m.pending = &pendingConfirm{question: asked, name: name, args: args[1:]}
		m.appendLine(confirmStyle.Render(asked + " [y/N]"))
		return m, nil
	}
	return m.finish(result, err)
}

func (m *Model) resolveConfirm(answer string) (tea.Model, tea.Cmd) {
	pending := m.pending
	m.pending = nil
	m.appendLine(echoStyle.Render(m.promptText() + answer))

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
	default:
		m.appendLine(messageStyle.Render("Cancelled."))
		return m, nil
	}

	ctx := &commands.Context{
		Svc:     m.svc,
		Confirm: func(string) bool { return true },
	}
	result, err := m.registry.Execute(ctx, pending.name, pending.args)
	return m.finish(result, err)
}

func (m *Model) finish(result *commands.Result, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.appendLine(errorStyle.Render(cli.FormatError(err)))
		return m, nil
	}
	if result.Message != "" {
		m.appendLine(messageStyle.Render(result.Message))
	}
	if result.Output != "" {
		m.appendLines(strings.Split(result.Output, "\n"))
	}
	if result.Exit {
		return m, tea.Quit
	}
	return m, nil
}

// completeInput fuzzy-completes the token under the cursor: command
// names in the first position, then templates, saves, or variables
// depending on the command.
func (m *Model) completeInput() {
	value := m.input.Value()
	tokens := strings.Fields(value)
	completingFirst := len(tokens) <= 1 && !strings.HasSuffix(value, " ")

	var prefix string
	var candidates []string
	if completingFirst {
		if len(tokens) == 1 {
			prefix = tokens[0]
		}
		candidates = m.registry.Names()
	} else {
		if !strings.HasSuffix(value, " ") {
			prefix = tokens[len(tokens)-1]
			tokens = tokens[:len(tokens)-1]
		}
		candidates = m.argumentCandidates(config.ResolveAlias(tokens[0]))
	}
	if len(candidates) == 0 {
		return
	}

	completion := ""
	if prefix == "" {
		completion = candidates[0]
	} else {
		matches := fuzzy.Find(prefix, candidates)
		if len(matches) == 0 {
			return
		}
		completion = candidates[matches[0].Index]
		if len(matches) > 1 {
			var rest []string
			for _, match := range matches[1:] {
				rest = append(rest, candidates[match.Index])
			}
			m.appendLine(suggestionStyle.Render("also: " + strings.Join(rest, "  ")))
		}
	}

	rebuilt := strings.Join(append(tokens, completion), " ")
	m.input.SetValue(rebuilt)
	m.input.CursorEnd()
}

func (m *Model) argumentCandidates(command string) []string {
	switch command {
	case "use":
		templates, _ := m.svc.Templates()
		return templates
	case "load", "save", "sections":
		saves, _ := m.svc.Saves()
		return saves
	case "set", "unset":
		if tmpl := m.svc.CurrentTemplate(); tmpl != nil {
			return tmpl.VariableOrder
		}
	case "unsetglobal":
		var names []string
		for name := range m.svc.Manager().AllGlobalVariables() {
			names = append(names, name)
		}
		return names
	case "render":
		return []string{"markdown"}
	}
	return nil
}

// recallHistory walks the persisted command log with the arrow keys.
func (m *Model) recallHistory(direction int) {
	if m.logger == nil {
		return
	}
	entries := m.logger.RecentCommands(100)
	if len(entries) == 0 {
		return
	}

	if m.histIndex == -1 {
		if direction > 0 {
			return
		}
		m.histDraft = m.input.Value()
		m.histIndex = len(entries) - 1
	} else {
		m.histIndex += direction
	}

	if m.histIndex >= len(entries) {
		m.histIndex = -1
		m.input.SetValue(m.histDraft)
		m.input.CursorEnd()
		return
	}
	if m.histIndex < 0 {
		m.histIndex = 0
	}
	m.input.SetValue(entries[m.histIndex].Command)
	m.input.CursorEnd()
}

func (m *Model) showBanner() {
	m.appendLine(bannerStyle.Render(config.AppName + " " + config.Version + " — template sessions"))
	cfg := m.svc.Config()
	if cfg.ShowConfigOnStartup {
		m.appendLine(echoStyle.Render("templates: " + cfg.TemplatesDir))
		m.appendLine(echoStyle.Render("saves:     " + cfg.SavesDir))
		m.appendLine(echoStyle.Render("state:     " + cfg.StateFile))
	}
	if tmpl := m.svc.CurrentTemplate(); tmpl != nil {
		m.appendLine(messageStyle.Render("Restored session: " + tmpl.RelativePath))
	}
	m.appendLine("")
}

func (m *Model) appendLine(line string) {
	m.appendLines([]string{line})
}

func (m *Model) appendLines(lines []string) {
	m.lines = append(m.lines, lines...)
	if len(m.lines) > maxScrollback {
		m.lines = m.lines[len(m.lines)-maxScrollback:]
	}
}
