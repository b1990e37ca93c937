// Package renderer fills a template body with resolved variable values.
// Undefined variables do not abort a render: they appear as <<name>>
// markers in the output and are reported so the shell can summarize them.
package renderer

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"

	"github.com/charmbracelet/glamour"

	"github.com/stencilhq/stencil/internal/models"
	"github.com/stencilhq/stencil/internal/resolver"
)

// Result is the outcome of one render.
type Result struct {
	// Output is the rendered text (present even when undefined variables
	// were encountered).
	Output string
	// UndefinedVariables lists declared variables no cascade layer
	// supplied, sorted.
	UndefinedVariables []string
	// Success is false only when the template itself failed to parse or
	// execute.
	Success bool
	// Err carries the parse/execute failure when Success is false.
	Err error
}

// Renderer renders template definitions with resolved variables.
type Renderer struct{}

// New creates a renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render executes the template body against the given resolutions.
// Unset variables render as "<<name>>" and are collected in the result
// rather than failing the render.
func (r *Renderer) Render(tmpl *models.TemplateDefinition, resolutions []resolver.Resolution) *Result {
	data := make(map[string]any, len(resolutions))
	var undefined []string
	for _, res := range resolutions {
		if res.IsSet() {
			data[res.Name] = res.Value
		} else {
			data[res.Name] = fmt.Sprintf("<<%s>>", res.Name)
			undefined = append(undefined, res.Name)
		}
	}
	sort.Strings(undefined)

	parsed, err := template.New(tmpl.Name).Parse(tmpl.Content)
	if err != nil {
		return &Result{
			UndefinedVariables: undefined,
			Success:            false,
			Err:                fmt.Errorf("failed to parse template: %w", err),
		}
	}

	var buf bytes.Buffer
	if err := parsed.Execute(&buf, data); err != nil {
		return &Result{
			UndefinedVariables: undefined,
			Success:            false,
			Err:                fmt.Errorf("failed to execute template: %w", err),
		}
	}

	return &Result{
		Output:             buf.String(),
		UndefinedVariables: undefined,
		Success:            true,
	}
}

// RenderMarkdown renders output as terminal-styled markdown for preview.
func (r *Renderer) RenderMarkdown(output string, width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(output)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return rendered, nil
}
