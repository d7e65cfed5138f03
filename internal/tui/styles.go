package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/msto63/vaani/internal/pipeline"
	"github.com/msto63/vaani/internal/speech"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorGreen   = lipgloss.Color("#10B981")
	colorAmber   = lipgloss.Color("#F59E0B")
	colorRed     = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorBar     = lipgloss.Color("#374151")
	colorFg      = lipgloss.Color("#F9FAFB")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	hintStyle   = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	noticeStyle = lipgloss.NewStyle().Foreground(colorAmber).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	modeStyle   = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1)
	barStyle    = lipgloss.NewStyle().Background(colorBar).Foreground(colorFg).Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(colorPrimary).
			Foreground(colorPrimary).
			Bold(true).
			PaddingLeft(1)

	sourceBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(1, 2)

	resultBoxStyle = sourceBoxStyle.BorderForeground(colorPrimary)

	pathInputStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)
)

// stateColors tints the state badge: waiting on the user is green,
// working is amber, speaking is purple
var stateColors = map[pipeline.State]lipgloss.Color{
	pipeline.StateReady:       colorGreen,
	pipeline.StatePageSelect:  colorGreen,
	pipeline.StateChoosing:    colorGreen,
	pipeline.StateScanning:    colorAmber,
	pipeline.StateTranslating: colorAmber,
	pipeline.StatePlaying:     colorPrimary,
}

func stateBadge(s pipeline.State) string {
	color, ok := stateColors[s]
	if !ok {
		color = colorMuted
	}
	return barStyle.Foreground(color).Bold(true).Render(s.Icon() + " " + s.String())
}

func audioBadge(s speech.Status, spin string) string {
	label := "audio: " + string(s)
	switch s {
	case speech.StatusRequestingAudio:
		return barStyle.Foreground(colorAmber).Render(spin + " " + label)
	case speech.StatusPlaying:
		return barStyle.Foreground(colorPrimary).Render("♪ " + label)
	default:
		return barStyle.Render(label)
	}
}

func renderError(err error) string {
	return errorStyle.Render("Error: " + err.Error())
}
