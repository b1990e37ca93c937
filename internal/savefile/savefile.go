// Package savefile manages named INI-format save files holding variable
// values across sessions. Each file carries three layers: [globals],
// [general], and one section per template. Template sections override
// [general], which overrides [globals]. Sections are merged, not
// replaced, on every write.
package savefile

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-ini/ini"

	apperrors "github.com/stencilhq/stencil/internal/errors"
	"github.com/stencilhq/stencil/internal/storage"
)

const (
	globalsSection = "globals"
	generalSection = "general"
)

// Document is the parsed form of one save file.
type Document struct {
	// Path is the full filesystem path the document was loaded from.
	Path string
	// Globals holds the [globals] section.
	Globals map[string]any
	// General holds the [general] section.
	General map[string]any
	// TemplateSections maps section keys (as stored, which may be either
	// normalized or legacy extension-included) to their variables.
	TemplateSections map[string]map[string]any
}

// NewDocument creates an empty document for path.
func NewDocument(path string) *Document {
	return &Document{
		Path:             path,
		Globals:          map[string]any{},
		General:          map[string]any{},
		TemplateSections: map[string]map[string]any{},
	}
}

// NormalizeTemplateKey strips the file-extension suffix from a template
// identifier: "reports/monthly.template" becomes "reports/monthly".
// Section keys are normalized on write; lookups also accept the legacy
// extension-included form for files written by older versions.
func NormalizeTemplateKey(templateID string) string {
	if ext := path.Ext(templateID); ext != "" {
		return strings.TrimSuffix(templateID, ext)
	}
	return templateID
}

// TemplateSection returns the section for templateID, matching the
// normalized key first and falling back to the legacy raw key. The
// normalized key wins when both exist.
func (d *Document) TemplateSection(templateID string) (map[string]any, bool) {
	normalized := NormalizeTemplateKey(templateID)
	if sec, ok := d.TemplateSections[normalized]; ok {
		return sec, true
	}
	if sec, ok := d.TemplateSections[templateID]; ok {
		return sec, true
	}
	return nil, false
}

// VariablesForTemplate returns globals overlaid by general overlaid by the
// template's own section, later layers overriding earlier ones key by key.
func (d *Document) VariablesForTemplate(templateID string) map[string]any {
	result := make(map[string]any, len(d.Globals)+len(d.General))
	for k, v := range d.Globals {
		result[k] = v
	}
	for k, v := range d.General {
		result[k] = v
	}
	if sec, ok := d.TemplateSection(templateID); ok {
		for k, v := range sec {
			result[k] = v
		}
	}
	return result
}

// SectionKeys lists the template-section keys present, sorted.
func (d *Document) SectionKeys() []string {
	keys := make([]string, 0, len(d.TemplateSections))
	for k := range d.TemplateSections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store loads and writes save files beneath a saves directory.
type Store struct {
	savesDir string
}

// NewStore creates a store rooted at savesDir.
func NewStore(savesDir string) *Store {
	return &Store{savesDir: savesDir}
}

// SavesDir returns the store's root directory.
func (s *Store) SavesDir() string {
	return s.savesDir
}

func (s *Store) fullPath(savePath string) string {
	return filepath.Clean(filepath.Join(s.savesDir, savePath))
}

// Load parses the save file at the given path (relative to the saves
// directory). A missing file yields a FILE_NOT_FOUND error, malformed
// INI an INVALID_FORMAT error.
func (s *Store) Load(savePath string) (*Document, error) {
	full := s.fullPath(savePath)
	if _, err := os.Stat(full); os.IsNotExist(err) {
		return nil, apperrors.NotFoundError("save file " + savePath)
	}

	cfg, err := ini.Load(full)
	if err != nil {
		return nil, apperrors.FormatError(savePath, err)
	}

	doc := NewDocument(full)
	for _, sec := range cfg.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection {
			continue
		}
		values := coerceValues(sec.KeysHash())
		switch name {
		case globalsSection:
			doc.Globals = values
		case generalSection:
			doc.General = values
		default:
			doc.TemplateSections[name] = values
		}
	}
	return doc, nil
}

// Save writes the document atomically to the given path.
func (s *Store) Save(savePath string, doc *Document) error {
	full := s.fullPath(savePath)
	cfg := ini.Empty()

	if len(doc.Globals) > 0 {
		writeSection(cfg, globalsSection, doc.Globals)
	}
	if len(doc.General) > 0 {
		writeSection(cfg, generalSection, doc.General)
	}
	for _, key := range doc.SectionKeys() {
		writeSection(cfg, key, doc.TemplateSections[key])
	}

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return apperrors.WriteError(savePath, err)
	}
	if err := storage.AtomicWriteFile(full, buf.Bytes(), 0644); err != nil {
		return apperrors.WriteError(savePath, err)
	}
	return nil
}

// SaveVariables merges vars into one section of the save file: the
// [globals] section when global is set, the template's extension-
// normalized section when templateKey is non-empty, otherwise [general].
// Existing keys not present in vars survive; the rest of the document is
// carried over untouched.
func (s *Store) SaveVariables(savePath string, vars map[string]any, templateKey string, global bool) error {
	doc, err := s.Load(savePath)
	if err != nil {
		if !apperrors.IsCode(err, apperrors.ErrCodeFileNotFound) {
			return err
		}
		doc = NewDocument(s.fullPath(savePath))
	}

	switch {
	case global:
		mergeInto(doc.Globals, vars)
	case templateKey != "":
		normalized := NormalizeTemplateKey(templateKey)
		section, ok := doc.TemplateSections[normalized]
		if !ok {
			section = map[string]any{}
			// A legacy extension-included section seeds the normalized
			// one so its keys are not shadowed by the new section.
			if legacy, exists := doc.TemplateSections[templateKey]; exists {
				mergeInto(section, legacy)
			}
			doc.TemplateSections[normalized] = section
		}
		mergeInto(section, vars)
	default:
		mergeInto(doc.General, vars)
	}

	return s.Save(savePath, doc)
}

// VariablesForTemplate loads the save file and returns the merged cascade
// for templateID.
func (s *Store) VariablesForTemplate(savePath, templateID string) (map[string]any, error) {
	doc, err := s.Load(savePath)
	if err != nil {
		return nil, err
	}
	return doc.VariablesForTemplate(templateID), nil
}

// TemplateSections loads the save file and lists its template-section keys.
func (s *Store) TemplateSections(savePath string) ([]string, error) {
	doc, err := s.Load(savePath)
	if err != nil {
		return nil, err
	}
	return doc.SectionKeys(), nil
}

// List returns the save-file paths beneath the saves directory, relative
// to it. Used by completion and the saves listing command.
func (s *Store) List() ([]string, error) {
	var saves []string
	err := filepath.Walk(s.savesDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(s.savesDir, p)
		if err != nil {
			return err
		}
		saves = append(saves, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	sort.Strings(saves)
	return saves, nil
}

func writeSection(cfg *ini.File, name string, values map[string]any) {
	sec := cfg.Section(name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sec.Key(k).SetValue(FormatValue(values[k]))
	}
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}
