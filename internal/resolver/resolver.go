// Package resolver determines a variable's effective value by cascading
// through the session, save-file and template layers, reporting which
// layer supplied the value so listings can color-code provenance.
package resolver

import (
	"github.com/stencilhq/stencil/internal/models"
	"github.com/stencilhq/stencil/internal/savefile"
	"github.com/stencilhq/stencil/internal/session"
)

// Source identifies the cascade layer a value came from.
type Source string

const (
	// SourceUserSet: explicitly assigned in the current session.
	SourceUserSet Source = "user_set"
	// SourceTemplate: the save file's template-specific section.
	SourceTemplate Source = "template"
	// SourceDefault: the template declaration's default value.
	SourceDefault Source = "default"
	// SourceGeneral: the save file's [general] section.
	SourceGeneral Source = "general"
	// SourceSaveGlobal: the save file's [globals] section.
	SourceSaveGlobal Source = "save_global"
	// SourceGlobal: the cross-session global-variable set.
	SourceGlobal Source = "global"
	// SourceUnset: no layer supplies a value.
	SourceUnset Source = "unset"
)

// Resolution is a variable's effective value plus its provenance.
type Resolution struct {
	Name   string
	Value  any
	Source Source
}

// IsSet reports whether any layer supplied a value.
func (r Resolution) IsSet() bool {
	return r.Source != SourceUnset
}

// Resolver resolves variables against the session manager and an
// optional active save-file document.
type Resolver struct {
	manager *session.Manager
}

// New creates a resolver reading from manager.
func New(manager *session.Manager) *Resolver {
	return &Resolver{manager: manager}
}

// Resolve determines the effective value of one variable. The precedence
// order, first match wins:
//
//	user_set > template > default > general > save_global > global > unset
//
// The template declaration's default deliberately ranks above the save
// file's [general] and [globals] sections even though those are lower
// layers on the write side: a save file only overrides a declared
// default through the template's own section.
//
// tmpl and doc may be nil (no template selected, no save file active);
// the corresponding layers are then skipped.
func (r *Resolver) Resolve(name string, tmpl *models.TemplateDefinition, doc *savefile.Document) Resolution {
	if v, ok := r.manager.GetVariable(name); ok {
		return Resolution{Name: name, Value: v, Source: SourceUserSet}
	}

	if doc != nil && tmpl != nil {
		if sec, ok := doc.TemplateSection(tmpl.RelativePath); ok {
			if v, exists := sec[name]; exists {
				return Resolution{Name: name, Value: v, Source: SourceTemplate}
			}
		}
	}

	if def := tmpl.GetVariable(name); def != nil && def.Default != nil {
		return Resolution{Name: name, Value: def.Default, Source: SourceDefault}
	}

	if doc != nil {
		if v, ok := doc.General[name]; ok {
			return Resolution{Name: name, Value: v, Source: SourceGeneral}
		}
		if v, ok := doc.Globals[name]; ok {
			return Resolution{Name: name, Value: v, Source: SourceSaveGlobal}
		}
	}

	if v, ok := r.manager.GlobalVariable(name); ok {
		return Resolution{Name: name, Value: v, Source: SourceGlobal}
	}

	return Resolution{Name: name, Source: SourceUnset}
}

// ResolveAll resolves every variable the template declares, in
// declaration order.
func (r *Resolver) ResolveAll(tmpl *models.TemplateDefinition, doc *savefile.Document) []Resolution {
	if tmpl == nil {
		return nil
	}
	resolutions := make([]Resolution, 0, len(tmpl.VariableOrder))
	for _, name := range tmpl.VariableOrder {
		resolutions = append(resolutions, r.Resolve(name, tmpl, doc))
	}
	return resolutions
}
