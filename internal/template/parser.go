// Package template parses .template files. A template has two sections:
// a VARS: header followed by YAML variable declarations, then a
// "### TEMPLATE ###" marker followed by the template body.
//
//	VARS:
//	- client_name:
//	    description: Client to bill
//	    default: Acme Corp
//	- project_id
//	### TEMPLATE ###
//	Dear {{.client_name}}, ...
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/stencilhq/stencil/internal/errors"
	"github.com/stencilhq/stencil/internal/models"
)

// Ext is the canonical template file extension.
const Ext = ".template"

var markerPattern = regexp.MustCompile(`(?i)###\s*TEMPLATE\s*###`)

// Parser loads and parses template files beneath a templates directory.
type Parser struct {
	templatesDir string
}

// NewParser creates a parser rooted at templatesDir.
func NewParser(templatesDir string) *Parser {
	return &Parser{templatesDir: templatesDir}
}

// TemplatesDir returns the parser's root directory.
func (p *Parser) TemplatesDir() string {
	return p.templatesDir
}

// Parse loads the template at templatePath (relative to the templates
// directory). The .template extension is optional: "invoice" resolves
// "invoice.template" first, then "invoice" as given.
func (p *Parser) Parse(templatePath string) (*models.TemplateDefinition, error) {
	var candidates []string
	if strings.HasSuffix(templatePath, Ext) {
		candidates = []string{templatePath}
	} else {
		candidates = []string{templatePath + Ext, templatePath}
	}

	var fullPath, actualPath string
	for _, candidate := range candidates {
		test := filepath.Clean(filepath.Join(p.templatesDir, candidate))
		if _, err := os.Stat(test); err == nil {
			fullPath = test
			actualPath = candidate
			break
		}
	}
	if fullPath == "" {
		return nil, apperrors.NewAppError(apperrors.ErrCodeTemplateNotFound,
			fmt.Sprintf("Template not found: %s (tried %s)", templatePath, strings.Join(candidates, ", ")))
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeTemplateFormat,
			fmt.Sprintf("Error reading template %s", templatePath))
	}

	varsSection, body, err := splitSections(string(content), actualPath)
	if err != nil {
		return nil, err
	}

	variables, order, err := parseVarsSection(varsSection, actualPath)
	if err != nil {
		return nil, err
	}

	return &models.TemplateDefinition{
		Path:          fullPath,
		Name:          filepath.Base(actualPath),
		RelativePath:  filepath.ToSlash(actualPath),
		Variables:     variables,
		VariableOrder: order,
		Content:       body,
	}, nil
}

// List returns the template paths beneath the templates directory,
// relative to it. Used by completion and the templates listing command.
func (p *Parser) List() ([]string, error) {
	var templates []string
	err := filepath.Walk(p.templatesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, Ext) {
			return nil
		}
		rel, err := filepath.Rel(p.templatesDir, path)
		if err != nil {
			return err
		}
		templates = append(templates, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	sort.Strings(templates)
	return templates, nil
}

// splitSections separates the VARS section from the template body.
// Everything before the marker and after a VARS: header line is YAML;
// the body keeps its whitespace exactly as authored.
func splitSections(content, templatePath string) (string, string, error) {
	matches := markerPattern.FindAllStringIndex(content, -1)
	if len(matches) == 0 {
		return "", "", apperrors.NewAppError(apperrors.ErrCodeTemplateFormat,
			fmt.Sprintf("Missing '### TEMPLATE ###' section marker in %s", templatePath))
	}
	if len(matches) > 1 {
		return "", "", apperrors.NewAppError(apperrors.ErrCodeTemplateFormat,
			fmt.Sprintf("Multiple '### TEMPLATE ###' markers in %s", templatePath))
	}

	head := content[:matches[0][0]]
	body := content[matches[0][1]:]
	body = strings.TrimPrefix(body, "\r\n")
	body = strings.TrimPrefix(body, "\n")

	// Only lines after an explicit VARS: header parse as YAML; arbitrary
	// pre-marker text is not variable declarations.
	var varsLines []string
	found := false
	for _, line := range strings.Split(head, "\n") {
		if !found {
			if strings.TrimSpace(line) == "VARS:" {
				found = true
			}
			continue
		}
		varsLines = append(varsLines, line)
	}
	if !found {
		return "", body, nil
	}
	return strings.Join(varsLines, "\n"), body, nil
}

// parseVarsSection parses the YAML declarations: a sequence whose items
// are either a bare variable name or a single-key mapping of name to
// {description, default, options}.
func parseVarsSection(varsContent, templatePath string) (map[string]*models.VariableDefinition, []string, error) {
	variables := map[string]*models.VariableDefinition{}
	var order []string

	if strings.TrimSpace(varsContent) == "" {
		return variables, order, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(varsContent), &root); err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrCodeVariableDef,
			fmt.Sprintf("YAML syntax error in VARS section of %s", templatePath))
	}
	if len(root.Content) == 0 {
		return variables, order, nil
	}

	seq := root.Content[0]
	if seq.Kind != yaml.SequenceNode {
		return nil, nil, apperrors.NewAppError(apperrors.ErrCodeVariableDef,
			fmt.Sprintf("Invalid VARS structure in %s: expected a list of variable definitions (line %d)", templatePath, seq.Line))
	}

	for idx, item := range seq.Content {
		name, def, err := parseVarItem(item, idx+1, templatePath)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := variables[name]; dup {
			return nil, nil, apperrors.NewAppError(apperrors.ErrCodeVariableDef,
				fmt.Sprintf("Duplicate variable definition for '%s' in %s (line %d)", name, templatePath, item.Line))
		}
		variables[name] = def
		order = append(order, name)
	}
	return variables, order, nil
}

func parseVarItem(item *yaml.Node, position int, templatePath string) (string, *models.VariableDefinition, error) {
	switch item.Kind {
	case yaml.ScalarNode:
		// Minimal declaration: just the variable name.
		return item.Value, &models.VariableDefinition{Name: item.Value}, nil
	case yaml.MappingNode:
		if len(item.Content) != 2 {
			return "", nil, apperrors.NewAppError(apperrors.ErrCodeVariableDef,
				fmt.Sprintf("Invalid variable definition at position %d in %s: expected exactly one variable name (line %d)",
					position, templatePath, item.Line))
		}
		name := item.Content[0].Value
		valueNode := item.Content[1]

		def := &models.VariableDefinition{Name: name}
		if valueNode.Kind == yaml.ScalarNode && valueNode.Tag == "!!null" {
			return name, def, nil
		}
		if valueNode.Kind != yaml.MappingNode {
			return "", nil, apperrors.NewAppError(apperrors.ErrCodeVariableDef,
				fmt.Sprintf("Invalid variable definition for '%s' in %s: expected a mapping (line %d)",
					name, templatePath, valueNode.Line))
		}
		if err := checkVarKeys(valueNode, name, templatePath); err != nil {
			return "", nil, err
		}
		if err := valueNode.Decode(def); err != nil {
			return "", nil, apperrors.Wrap(err, apperrors.ErrCodeVariableDef,
				fmt.Sprintf("Invalid variable definition for '%s' in %s", name, templatePath))
		}
		def.Name = name
		return name, def, nil
	default:
		return "", nil, apperrors.NewAppError(apperrors.ErrCodeVariableDef,
			fmt.Sprintf("Invalid variable definition at position %d in %s (line %d)", position, templatePath, item.Line))
	}
}

func checkVarKeys(mapping *yaml.Node, name, templatePath string) error {
	for i := 0; i < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		switch key {
		case "description", "default", "options":
		default:
			return apperrors.NewAppError(apperrors.ErrCodeVariableDef,
				fmt.Sprintf("Unknown key '%s' in variable '%s' in %s (line %d)",
					key, name, templatePath, mapping.Content[i].Line))
		}
	}
	return nil
}
