package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	PrimaryColor = lipgloss.Color("#2E86AB")
	SuccessColor = lipgloss.Color("#4ECDC4")
	WarningColor = lipgloss.Color("#FFE66D")
	ErrorColor   = lipgloss.Color("#FF6B6B")
	InfoColor    = lipgloss.Color("#95E1D3")
	SubtleColor  = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// HeaderStyle formats table header cells.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))
)

// Success, Warning and Failure prefix a status line with its marker.
func Success(msg string) string {
	return SuccessStyle.Render("✓ " + msg)
}

func Warning(msg string) string {
	return WarningStyle.Render("⚠ " + msg)
}

func Failure(msg string) string {
	return ErrorStyle.Render("✗ " + msg)
}
