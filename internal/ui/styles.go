package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive colors picked at startup based on terminal background.
var (
	ColorPrimary   lipgloss.Color
	ColorSecondary lipgloss.Color
	ColorAccent    lipgloss.Color

	ColorSuccess lipgloss.Color
	ColorWarning lipgloss.Color
	ColorError   lipgloss.Color

	ColorText      lipgloss.Color
	ColorTextMuted lipgloss.Color
	ColorBorder    lipgloss.Color
)

var (
	promptStyle     lipgloss.Style
	bannerStyle     lipgloss.Style
	errorStyle      lipgloss.Style
	messageStyle    lipgloss.Style
	suggestionStyle lipgloss.Style
	confirmStyle    lipgloss.Style
	echoStyle       lipgloss.Style
)

func initializeStyles() {
	// GLAMOUR_STYLE forces a theme; otherwise auto-detect.
	switch os.Getenv("GLAMOUR_STYLE") {
	case "light":
		setLightThemeColors()
	case "dark":
		setDarkThemeColors()
	default:
		if lipgloss.HasDarkBackground() {
			setDarkThemeColors()
		} else {
			setLightThemeColors()
		}
	}

	promptStyle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	bannerStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 2)
	errorStyle = lipgloss.NewStyle().Foreground(ColorError)
	messageStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	suggestionStyle = lipgloss.NewStyle().Foreground(ColorTextMuted).Italic(true)
	confirmStyle = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	echoStyle = lipgloss.NewStyle().Foreground(ColorTextMuted)
}

func setDarkThemeColors() {
	ColorPrimary = lipgloss.Color("205")
	ColorSecondary = lipgloss.Color("33")
	ColorAccent = lipgloss.Color("214")

	ColorSuccess = lipgloss.Color("10")
	ColorWarning = lipgloss.Color("11")
	ColorError = lipgloss.Color("9")

	ColorText = lipgloss.Color("252")
	ColorTextMuted = lipgloss.Color("244")
	ColorBorder = lipgloss.Color("238")
}

func setLightThemeColors() {
	ColorPrimary = lipgloss.Color("125")
	ColorSecondary = lipgloss.Color("26")
	ColorAccent = lipgloss.Color("130")

	ColorSuccess = lipgloss.Color("28")
	ColorWarning = lipgloss.Color("94")
	ColorError = lipgloss.Color("124")

	ColorText = lipgloss.Color("235")
	ColorTextMuted = lipgloss.Color("242")
	ColorBorder = lipgloss.Color("250")
}
