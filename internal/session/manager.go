// Package session owns the live session state: the selected template, the
// variable assignments, a bounded history stack for revert, a one-slot
// toggle for undo-of-undo, and cross-session global variables. Every
// mutation persists atomically to the state file so a crash never loses
// more than the in-flight operation.
package session

import (
	"fmt"
	"os"

	"github.com/stencilhq/stencil/internal/errors"
	"github.com/stencilhq/stencil/internal/storage"
)

// MaxHistorySize bounds the revert history; the oldest entries are
// dropped on overflow.
const MaxHistorySize = 50

// stateEntry is the wire form of a single snapshot.
type stateEntry struct {
	Template  *string        `json:"template"`
	Variables map[string]any `json:"variables"`
	Timestamp string         `json:"timestamp"`
}

// stateDocument is the persisted state-file schema.
type stateDocument struct {
	CurrentTemplate *string        `json:"current_template"`
	Variables       map[string]any `json:"variables"`
	Timestamp       string         `json:"timestamp"`
	History         []stateEntry   `json:"history"`
	RevertToggle    *stateEntry    `json:"revert_toggle_state,omitempty"`
}

// globalsDocument is the persisted cross-session globals schema.
type globalsDocument struct {
	Variables map[string]any `json:"variables"`
}

// Manager manages session state persistence, history tracking, and revert.
//
// The revert behavior is deliberately duplicate-aware: consecutive loads
// of the same template collapse into one step, and a second revert with
// no intervening mutation toggles back to the pre-revert state.
type Manager struct {
	stateStore   *storage.DocumentStore
	globalsStore *storage.DocumentStore
	backupPath   string

	current *State // nil until the first mutation of an empty session
	history []State
	toggle  *State // armed only immediately after a successful revert
	globals map[string]any
}

// NewManager constructs a Manager bound to the given state, globals and
// backup paths, loading any prior session. A corrupt or unreadable
// document is treated as no prior state so the process can always start.
func NewManager(statePath, globalsPath, backupPath string) *Manager {
	m := &Manager{
		stateStore:   storage.NewDocumentStore(statePath),
		globalsStore: storage.NewDocumentStore(globalsPath),
		backupPath:   backupPath,
		globals:      map[string]any{},
	}
	if err := m.loadState(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: starting with fresh session state: %v\n", err)
		m.current = nil
		m.history = nil
		m.toggle = nil
	}
	if err := m.loadGlobals(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: starting with empty global variables: %v\n", err)
		m.globals = map[string]any{}
	}
	return m
}

func (m *Manager) loadState() error {
	var doc stateDocument
	if err := m.stateStore.Read(&doc); err != nil {
		if os.IsNotExist(err) {
			return nil // fresh session
		}
		return errors.StateLoadError(err)
	}

	if doc.CurrentTemplate != nil || len(doc.Variables) > 0 {
		st := State{
			Template:  derefTemplate(doc.CurrentTemplate),
			Variables: storage.NormalizeVariables(doc.Variables),
			Timestamp: doc.Timestamp,
		}
		m.current = &st
	}
	m.history = make([]State, 0, len(doc.History))
	for _, entry := range doc.History {
		m.history = append(m.history, entryToState(entry))
	}
	if doc.RevertToggle != nil {
		st := entryToState(*doc.RevertToggle)
		m.toggle = &st
	}
	return nil
}

func (m *Manager) loadGlobals() error {
	var doc globalsDocument
	if err := m.globalsStore.Read(&doc); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.StateLoadError(err)
	}
	m.globals = storage.NormalizeVariables(doc.Variables)
	return nil
}

// persist writes the full state document atomically. A write failure is
// fatal only to the triggering operation; the previously persisted file
// is untouched.
func (m *Manager) persist() error {
	doc := stateDocument{
		Variables: map[string]any{},
		History:   make([]stateEntry, 0, len(m.history)),
	}
	if m.current != nil {
		doc.CurrentTemplate = refTemplate(m.current.Template)
		doc.Variables = m.current.Variables
		doc.Timestamp = m.current.Timestamp
	}
	for _, st := range m.history {
		doc.History = append(doc.History, stateToEntry(st))
	}
	if m.toggle != nil {
		entry := stateToEntry(*m.toggle)
		doc.RevertToggle = &entry
	}
	if err := m.stateStore.Write(doc); err != nil {
		return errors.StateSaveError(err)
	}
	return nil
}

// SetTemplate selects a template, pushing the previous state onto history.
// The push happens even when the new template equals the current one; the
// revert algorithm collapses such runs. The previous variable map carries
// over to the new state.
func (m *Manager) SetTemplate(template string) error {
	m.pushToHistory()
	m.toggle = nil

	var next State
	if m.current == nil {
		next = NewState(template, nil)
	} else {
		next = m.current.WithTemplate(template)
	}
	m.current = &next
	return m.persist()
}

// SetVariable assigns one variable in the current session. No history push.
func (m *Manager) SetVariable(name string, value any) error {
	m.toggle = nil
	vars := m.currentVariables()
	vars[name] = value
	return m.replaceVariables(vars)
}

// SetVariables merges the given assignments into the current session.
func (m *Manager) SetVariables(variables map[string]any) error {
	m.toggle = nil
	vars := m.currentVariables()
	for k, v := range variables {
		vars[k] = v
	}
	return m.replaceVariables(vars)
}

// UnsetVariable removes a variable. Removing an absent variable is a
// no-op that still clears the toggle slot and persists.
func (m *Manager) UnsetVariable(name string) error {
	m.toggle = nil
	vars := m.currentVariables()
	delete(vars, name)
	return m.replaceVariables(vars)
}

// ClearVariables drops every session variable while keeping the template.
func (m *Manager) ClearVariables() error {
	m.toggle = nil
	if m.current == nil {
		return m.persist()
	}
	return m.replaceVariables(map[string]any{})
}

func (m *Manager) currentVariables() map[string]any {
	if m.current == nil {
		return map[string]any{}
	}
	return cloneVariables(m.current.Variables)
}

func (m *Manager) replaceVariables(vars map[string]any) error {
	var next State
	if m.current == nil {
		next = NewState("", vars)
	} else {
		next = m.current.WithVariables(vars)
	}
	m.current = &next
	return m.persist()
}

// GetVariable returns the session value for name, if assigned.
func (m *Manager) GetVariable(name string) (any, bool) {
	if m.current == nil {
		return nil, false
	}
	v, ok := m.current.Variables[name]
	return v, ok
}

// AllVariables returns a copy of the session's variable assignments.
func (m *Manager) AllVariables() map[string]any {
	if m.current == nil {
		return map[string]any{}
	}
	return cloneVariables(m.current.Variables)
}

// CurrentTemplate returns the selected template identifier, empty if none.
func (m *Manager) CurrentTemplate() string {
	if m.current == nil {
		return ""
	}
	return m.current.Template
}

// HasTemplate reports whether a template is selected.
func (m *Manager) HasTemplate() bool {
	return m.current != nil && m.current.Template != ""
}

// HistoryLen returns the number of entries on the revert history stack.
func (m *Manager) HistoryLen() int {
	return len(m.history)
}

// Revert steps back to the previous meaningfully different state.
//
// The algorithm:
//  1. If the toggle slot is armed, it becomes current, the slot is
//     cleared and success is reported. This undoes the immediately
//     preceding revert; with both slot and history exhausted the next
//     revert fails.
//  2. Otherwise walk history from the end. If the trailing entry has the
//     same template as the current state, there is nothing meaningful to
//     revert to.
//  3. Trailing runs of the same template with length > 1 are dropped
//     whole, so A, B, B, C reverts from C straight to A while A, B, C
//     still reverts from C to B.
//  4. The pre-revert state is stored in the toggle slot; the target is
//     removed from history and becomes current.
func (m *Manager) Revert() (bool, error) {
	if m.current == nil {
		return false, nil
	}

	// Toggle path takes absolute priority.
	if m.toggle != nil {
		m.current = m.toggle
		m.toggle = nil
		if err := m.persist(); err != nil {
			return false, err
		}
		return true, nil
	}

	if len(m.history) == 0 {
		return false, nil
	}

	prevTemplate := m.history[len(m.history)-1].Template
	if prevTemplate == m.current.Template {
		return false, nil
	}

	// Count the trailing run of prevTemplate and collapse it when longer
	// than one entry.
	i := len(m.history) - 1
	run := 0
	for i >= 0 && m.history[i].Template == prevTemplate {
		run++
		i--
	}
	if run > 1 {
		m.history = m.history[:i+1]
	}

	// First entry from the end whose template differs from current.
	targetIdx := -1
	for j := len(m.history) - 1; j >= 0; j-- {
		if m.history[j].Template != m.current.Template {
			targetIdx = j
			break
		}
	}
	if targetIdx < 0 {
		return false, nil
	}

	target := m.history[targetIdx]
	m.history = append(m.history[:targetIdx], m.history[targetIdx+1:]...)
	previous := *m.current
	m.toggle = &previous
	m.current = &target

	if err := m.persist(); err != nil {
		return false, err
	}
	return true, nil
}

// BackupState copies the persisted state document verbatim to the backup
// path. Called once at process start unless restore mode is requested.
// With no state file yet there is nothing to back up.
func (m *Manager) BackupState() error {
	if !m.stateStore.Exists() {
		return nil
	}
	if err := storage.CopyFile(m.stateStore.Path(), m.backupPath); err != nil {
		return errors.StateSaveError(err)
	}
	return nil
}

// RestoreFromBackup loads the backup document and makes it the live state,
// including its history and toggle slot. Returns false when no backup
// exists.
func (m *Manager) RestoreFromBackup() (bool, error) {
	backup := storage.NewDocumentStore(m.backupPath)
	var doc stateDocument
	if err := backup.Read(&doc); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.StateLoadError(err)
	}

	m.current = nil
	if doc.CurrentTemplate != nil || len(doc.Variables) > 0 {
		st := State{
			Template:  derefTemplate(doc.CurrentTemplate),
			Variables: storage.NormalizeVariables(doc.Variables),
			Timestamp: doc.Timestamp,
		}
		m.current = &st
	}
	m.history = make([]State, 0, len(doc.History))
	for _, entry := range doc.History {
		m.history = append(m.history, entryToState(entry))
	}
	m.toggle = nil
	if doc.RevertToggle != nil {
		st := entryToState(*doc.RevertToggle)
		m.toggle = &st
	}
	if err := m.persist(); err != nil {
		return false, err
	}
	return true, nil
}

// SetGlobalVariable assigns a cross-session global variable, independent
// of any save file, and persists the globals document.
func (m *Manager) SetGlobalVariable(name string, value any) error {
	m.globals[name] = value
	return m.persistGlobals()
}

// UnsetGlobalVariable removes a cross-session global variable.
func (m *Manager) UnsetGlobalVariable(name string) error {
	delete(m.globals, name)
	return m.persistGlobals()
}

// GlobalVariable returns the cross-session global value for name.
func (m *Manager) GlobalVariable(name string) (any, bool) {
	v, ok := m.globals[name]
	return v, ok
}

// AllGlobalVariables returns a copy of the cross-session global set.
func (m *Manager) AllGlobalVariables() map[string]any {
	return cloneVariables(m.globals)
}

func (m *Manager) persistGlobals() error {
	if err := m.globalsStore.Write(globalsDocument{Variables: m.globals}); err != nil {
		return errors.StateSaveError(err)
	}
	return nil
}

func (m *Manager) pushToHistory() {
	if m.current == nil {
		return
	}
	m.history = append(m.history, m.current.Clone())
	if len(m.history) > MaxHistorySize {
		m.history = m.history[len(m.history)-MaxHistorySize:]
	}
}

func entryToState(entry stateEntry) State {
	return State{
		Template:  derefTemplate(entry.Template),
		Variables: storage.NormalizeVariables(entry.Variables),
		Timestamp: entry.Timestamp,
	}
}

func stateToEntry(st State) stateEntry {
	return stateEntry{
		Template:  refTemplate(st.Template),
		Variables: st.Variables,
		Timestamp: st.Timestamp,
	}
}

func derefTemplate(t *string) string {
	if t == nil {
		return ""
	}
	return *t
}

func refTemplate(t string) *string {
	if t == "" {
		return nil
	}
	return &t
}
