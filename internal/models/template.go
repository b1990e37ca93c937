package models

// TemplateDefinition represents a complete parsed template: the variable
// declarations from the VARS section plus the template body.
type TemplateDefinition struct {
	// Path is the full filesystem path to the template file.
	Path string
	// Name is the template filename without directories.
	Name string
	// RelativePath is the path used to load the template, relative to the
	// templates directory. This is the session's template identifier.
	RelativePath string
	// Variables maps variable names to their declarations, in declaration order.
	Variables map[string]*VariableDefinition
	// VariableOrder preserves the declaration order for listings.
	VariableOrder []string
	// Content is the raw template body following the section marker.
	Content string
}

// VariableDefinition represents a single variable declared in the VARS section.
type VariableDefinition struct {
	Name        string `yaml:"-"`
	Description string `yaml:"description,omitempty"`
	Default     any    `yaml:"default,omitempty"`
	Options     []any  `yaml:"options,omitempty"`
}

// GetVariable returns the declaration for name, or nil if not declared.
func (t *TemplateDefinition) GetVariable(name string) *VariableDefinition {
	if t == nil {
		return nil
	}
	return t.Variables[name]
}

// HasVariable reports whether name is declared by the template.
func (t *TemplateDefinition) HasVariable(name string) bool {
	return t.GetVariable(name) != nil
}
