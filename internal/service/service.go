// Package service provides the business logic tying the session manager,
// save-file store, template parser and renderer together for the command
// layer. All collaborators are constructed explicitly here and passed
// down; there are no package-level singletons.
package service

import (
	"fmt"
	"os"

	"github.com/stencilhq/stencil/internal/config"
	apperrors "github.com/stencilhq/stencil/internal/errors"
	"github.com/stencilhq/stencil/internal/models"
	"github.com/stencilhq/stencil/internal/renderer"
	"github.com/stencilhq/stencil/internal/resolver"
	"github.com/stencilhq/stencil/internal/savefile"
	"github.com/stencilhq/stencil/internal/session"
	"github.com/stencilhq/stencil/internal/template"
)

// Service owns the engine components for one process.
type Service struct {
	cfg      *config.Config
	manager  *session.Manager
	saves    *savefile.Store
	parser   *template.Parser
	renderer *renderer.Renderer
	resolver *resolver.Resolver

	currentTemplate *models.TemplateDefinition
	currentSavePath string
	lastRender      *renderer.Result
}

// New constructs the service and its collaborators from config.
func New(cfg *config.Config) *Service {
	manager := session.NewManager(cfg.StateFile, cfg.GlobalsFile, cfg.BackupFile)
	return &Service{
		cfg:      cfg,
		manager:  manager,
		saves:    savefile.NewStore(cfg.SavesDir),
		parser:   template.NewParser(cfg.TemplatesDir),
		renderer: renderer.New(),
		resolver: resolver.New(manager),
	}
}

// Manager exposes the session manager for read paths (listings, prompts).
func (s *Service) Manager() *session.Manager {
	return s.manager
}

// Config returns the active configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// RestoreSession re-parses the template recorded in the persisted session,
// if any. A template that no longer parses is ignored so startup never
// fails on stale state.
func (s *Service) RestoreSession() (string, bool) {
	if !s.manager.HasTemplate() {
		return "", false
	}
	templateID := s.manager.CurrentTemplate()
	tmpl, err := s.parser.Parse(templateID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to restore template %s: %v\n", templateID, err)
		return "", false
	}
	s.currentTemplate = tmpl
	return templateID, true
}

// CurrentTemplate returns the active parsed template, nil when none.
func (s *Service) CurrentTemplate() *models.TemplateDefinition {
	return s.currentTemplate
}

// CurrentSavePath returns the active save file path, empty when none.
func (s *Service) CurrentSavePath() string {
	return s.currentSavePath
}

// LastRender returns the most recent render result, nil before the first.
func (s *Service) LastRender() *renderer.Result {
	return s.lastRender
}

// UseTemplate parses and selects a template. The previous session state
// is pushed onto the revert history.
func (s *Service) UseTemplate(templatePath string) (*models.TemplateDefinition, error) {
	tmpl, err := s.parser.Parse(templatePath)
	if err != nil {
		return nil, err
	}
	if err := s.manager.SetTemplate(tmpl.RelativePath); err != nil {
		return nil, err
	}
	s.currentTemplate = tmpl
	return tmpl, nil
}

// LoadSave loads the merged cascade for the current template from a save
// file into the session, and marks the save file active.
func (s *Service) LoadSave(savePath string) (int, error) {
	if s.currentTemplate == nil {
		return 0, apperrors.ValidationError("Load a template first with 'use'")
	}
	vars, err := s.saves.VariablesForTemplate(savePath, s.currentTemplate.RelativePath)
	if err != nil {
		return 0, err
	}
	if err := s.manager.SetVariables(vars); err != nil {
		return 0, err
	}
	s.currentSavePath = savePath
	return len(vars), nil
}

// SetVariable validates the name against the template's declarations,
// coerces the raw string to a scalar, and assigns it in the session.
func (s *Service) SetVariable(name, raw string) (any, error) {
	if s.currentTemplate == nil {
		return nil, apperrors.ValidationError("Load a template first with 'use'")
	}
	if !s.currentTemplate.HasVariable(name) {
		return nil, apperrors.ValidationError(fmt.Sprintf("Unknown variable: %s", name))
	}
	value := savefile.CoerceScalar(raw)
	if err := s.manager.SetVariable(name, value); err != nil {
		return nil, err
	}
	return value, nil
}

// UnsetVariable removes a session variable. Unsetting an absent variable
// is not an error.
func (s *Service) UnsetVariable(name string) error {
	if s.currentTemplate == nil {
		return apperrors.ValidationError("Load a template first with 'use'")
	}
	if !s.currentTemplate.HasVariable(name) {
		return apperrors.ValidationError(fmt.Sprintf("Unknown variable: %s", name))
	}
	return s.manager.UnsetVariable(name)
}

// SaveExists reports whether a save file already exists, so the shell can
// confirm before overwriting. The check happens before any mutation.
func (s *Service) SaveExists(savePath string) bool {
	_, err := s.saves.Load(savePath)
	return err == nil
}

// SaveVariables writes the session's variables into a save file: the
// current template's section by default, or [general] / [globals] on
// request. Existing keys in other sections survive.
func (s *Service) SaveVariables(savePath string, toGeneral, toGlobals bool) error {
	if s.currentTemplate == nil {
		return apperrors.ValidationError("Load a template first with 'use'")
	}
	vars := s.manager.AllVariables()
	templateKey := ""
	if !toGeneral && !toGlobals {
		templateKey = s.currentTemplate.RelativePath
	}
	if err := s.saves.SaveVariables(savePath, vars, templateKey, toGlobals); err != nil {
		return err
	}
	s.currentSavePath = savePath
	return nil
}

// activeDocument loads the active save file, or nil when none is active
// or it cannot be read. Resolution treats an unreadable save file as
// absent layers.
func (s *Service) activeDocument() *savefile.Document {
	if s.currentSavePath == "" {
		return nil
	}
	doc, err := s.saves.Load(s.currentSavePath)
	if err != nil {
		return nil
	}
	return doc
}

// Resolve determines one variable's effective value and provenance.
func (s *Service) Resolve(name string) resolver.Resolution {
	return s.resolver.Resolve(name, s.currentTemplate, s.activeDocument())
}

// ResolveAll resolves every declared variable of the current template.
func (s *Service) ResolveAll() []resolver.Resolution {
	return s.resolver.ResolveAll(s.currentTemplate, s.activeDocument())
}

// Render fills the current template with the resolved cascade.
func (s *Service) Render() (*renderer.Result, error) {
	if s.currentTemplate == nil {
		return nil, apperrors.ValidationError("Load a template first with 'use'")
	}
	result := s.renderer.Render(s.currentTemplate, s.ResolveAll())
	s.lastRender = result
	return result, nil
}

// RenderMarkdown renders text as terminal-styled markdown.
func (s *Service) RenderMarkdown(output string, width int) (string, error) {
	return s.renderer.RenderMarkdown(output, width)
}

// Revert steps the session back one meaningful template switch, or
// toggles the previous revert. The re-parsed template is returned when
// one is selected after the revert.
func (s *Service) Revert() (bool, string, error) {
	ok, err := s.manager.Revert()
	if err != nil || !ok {
		return ok, "", err
	}
	templateID := s.manager.CurrentTemplate()
	if templateID == "" {
		s.currentTemplate = nil
		return true, "", nil
	}
	tmpl, parseErr := s.parser.Parse(templateID)
	if parseErr != nil {
		s.currentTemplate = nil
		return true, templateID, parseErr
	}
	s.currentTemplate = tmpl
	return true, templateID, nil
}

// BackupState copies the persisted session document to the backup path.
func (s *Service) BackupState() error {
	return s.manager.BackupState()
}

// RestoreFromBackup replaces the live session with the backup document
// and re-parses its template.
func (s *Service) RestoreFromBackup() (bool, error) {
	ok, err := s.manager.RestoreFromBackup()
	if err != nil || !ok {
		return ok, err
	}
	s.currentTemplate = nil
	s.RestoreSession()
	return true, nil
}

// SetGlobalVariable assigns a cross-session global, coercing the raw
// string to a scalar.
func (s *Service) SetGlobalVariable(name, raw string) (any, error) {
	value := savefile.CoerceScalar(raw)
	if err := s.manager.SetGlobalVariable(name, value); err != nil {
		return nil, err
	}
	return value, nil
}

// Templates lists template paths for completion and listings.
func (s *Service) Templates() ([]string, error) {
	return s.parser.List()
}

// Saves lists save-file paths for completion and listings.
func (s *Service) Saves() ([]string, error) {
	return s.saves.List()
}

// SaveSections lists the template sections of a save file.
func (s *Service) SaveSections(savePath string) ([]string, error) {
	return s.saves.TemplateSections(savePath)
}
