package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// FooterViewState holds the strings needed to render the footer section.
type FooterViewState struct {
	InnerW      int
	FooterH     int
	OptionsLine string
	PromptLine  string
	StatusLine  string
	HelpLine    string
	VAlign      lipgloss.Position
	Bg          lipgloss.Color
}

// RenderFooter renders the options, prompt, status and help lines.
// The prompt line is only shown while a value is being typed.
func RenderFooter(state FooterViewState) string {
	if state.FooterH <= 0 {
		return ""
	}

	lines := []string{state.OptionsLine}
	if state.PromptLine != "" {
		lines = append(lines, state.PromptLine)
	}
	lines = append(lines, state.StatusLine, state.HelpLine)

	return PlaceBox(state.InnerW, state.FooterH, state.VAlign, strings.Join(lines, "\n"), state.Bg)
}
