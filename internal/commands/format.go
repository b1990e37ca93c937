package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stencilhq/stencil/internal/models"
	"github.com/stencilhq/stencil/internal/renderer"
	"github.com/stencilhq/stencil/internal/resolver"
	"github.com/stencilhq/stencil/internal/savefile"
)

// Provenance colors: one per cascade layer, so a glance at the listing
// shows where each value came from.
var sourceStyles = map[resolver.Source]lipgloss.Style{
	resolver.SourceUserSet:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),  // green
	resolver.SourceTemplate:   lipgloss.NewStyle().Foreground(lipgloss.Color("33")),  // blue
	resolver.SourceDefault:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")), // gray
	resolver.SourceGeneral:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // orange
	resolver.SourceSaveGlobal: lipgloss.NewStyle().Foreground(lipgloss.Color("208")), // dark orange
	resolver.SourceGlobal:     lipgloss.NewStyle().Foreground(lipgloss.Color("205")), // magenta
	resolver.SourceUnset:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")), // red
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

const maxCellWidth = 40

// formatVariableTable lays out the ls listing: name, resolved value,
// provenance, description, default, options.
func formatVariableTable(tmpl *models.TemplateDefinition, resolutions []resolver.Resolution) string {
	headers := []string{"Name", "Value", "Source", "Description", "Default", "Options"}
	rows := make([][]string, 0, len(resolutions))
	styles := make([]lipgloss.Style, 0, len(resolutions))

	for _, res := range resolutions {
		def := tmpl.GetVariable(res.Name)
		value := "-"
		if res.IsSet() {
			value = savefile.FormatValue(res.Value)
		}
		description, defaultValue, options := "-", "-", "-"
		if def != nil {
			if def.Description != "" {
				description = def.Description
			}
			if def.Default != nil {
				defaultValue = savefile.FormatValue(def.Default)
			}
			if len(def.Options) > 0 {
				opts := make([]string, len(def.Options))
				for i, opt := range def.Options {
					opts[i] = savefile.FormatValue(opt)
				}
				options = strings.Join(opts, ", ")
			}
		}
		rows = append(rows, []string{res.Name, value, string(res.Source), description, defaultValue, options})
		styles = append(styles, sourceStyles[res.Source])
	}

	return renderTable(headers, rows, styles) + "\n" + provenanceLegend(resolutions)
}

func formatGlobalsTable(globals map[string]any) string {
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	styles := make([]lipgloss.Style, 0, len(names))
	globalStyle := sourceStyles[resolver.SourceGlobal]
	for _, name := range names {
		rows = append(rows, []string{name, savefile.FormatValue(globals[name])})
		styles = append(styles, globalStyle)
	}
	return renderTable([]string{"Name", "Value"}, rows, styles)
}

// renderTable aligns columns with plain padding, then colors each row.
// Cells are truncated to keep the table readable on narrow terminals.
func renderTable(headers []string, rows [][]string, rowStyles []lipgloss.Style) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	truncated := make([][]string, len(rows))
	for r, row := range rows {
		truncated[r] = make([]string, len(row))
		for c, cell := range row {
			cell = strings.ReplaceAll(cell, "\n", " ")
			if len(cell) > maxCellWidth {
				cell = cell[:maxCellWidth-3] + "..."
			}
			truncated[r][c] = cell
			if len(cell) > widths[c] {
				widths[c] = len(cell)
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(padRow(headers, widths)))
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(separatorRow(widths)))
	for r, row := range truncated {
		sb.WriteString("\n")
		sb.WriteString(rowStyles[r].Render(padRow(row, widths)))
	}
	return sb.String()
}

func padRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

func separatorRow(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	return strings.Join(parts, "  ")
}

// provenanceLegend shows only the layers actually present in the listing.
func provenanceLegend(resolutions []resolver.Resolution) string {
	seen := map[resolver.Source]bool{}
	ordered := []resolver.Source{
		resolver.SourceUserSet, resolver.SourceTemplate, resolver.SourceDefault,
		resolver.SourceGeneral, resolver.SourceSaveGlobal, resolver.SourceGlobal,
		resolver.SourceUnset,
	}
	for _, res := range resolutions {
		seen[res.Source] = true
	}
	var parts []string
	for _, src := range ordered {
		if seen[src] {
			parts = append(parts, sourceStyles[src].Render(string(src)))
		}
	}
	return dimStyle.Render("sources: ") + strings.Join(parts, dimStyle.Render(" | "))
}

// renderOutput formats a render result: the output itself, a parse or
// execute failure, and the undefined-variable summary when enabled.
func renderOutput(ctx *Context, render *renderer.Result) string {
	var sb strings.Builder
	if !render.Success {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("Render failed: %v", render.Err)))
	} else {
		sb.WriteString(render.Output)
	}
	if len(render.UndefinedVariables) > 0 && ctx.Svc.Config().ShowUndefinedSummary {
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render("Undefined variables: " + strings.Join(render.UndefinedVariables, ", ")))
	}
	return sb.String()
}
