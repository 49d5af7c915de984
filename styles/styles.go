// Package styles centralizes terminal styling for the CLI.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primary   = lipgloss.Color("#7D56F4") // Purple
	secondary = lipgloss.Color("#00F5FF") // Cyan
	success   = lipgloss.Color("#00E680") // Green
	warning   = lipgloss.Color("#FFB800") // Yellow
	errColor  = lipgloss.Color("#FF4D4D") // Red
	muted     = lipgloss.Color("#6B7280") // Gray

	successStyle   = lipgloss.NewStyle().Foreground(success)
	warningStyle   = lipgloss.NewStyle().Foreground(warning)
	errorStyle     = lipgloss.NewStyle().Foreground(errColor)
	highlightStyle = lipgloss.NewStyle().Foreground(secondary)
	mutedStyle     = lipgloss.NewStyle().Foreground(muted)

	// TitleStyle heads sections in status output and forms.
	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(primary).
			Padding(0, 1).
			Bold(true)

	// FocusedStyle and BlurredStyle mark the active form input.
	FocusedStyle = lipgloss.NewStyle().Foreground(primary)
	BlurredStyle = lipgloss.NewStyle().Foreground(muted)

	verificationBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondary).
			Padding(1, 2).
			Margin(1, 0).
			Align(lipgloss.Center)

	codeStyle = lipgloss.NewStyle().
			Foreground(secondary).
			Bold(true)
)

func Success(s string) string   { return successStyle.Render(s) }
func Warning(s string) string   { return warningStyle.Render(s) }
func Error(s string) string     { return errorStyle.Render(s) }
func Highlight(s string) string { return highlightStyle.Render(s) }
func Muted(s string) string     { return mutedStyle.Render(s) }

// Code renders a user code the operator has to type into the browser.
func Code(s string) string { return codeStyle.Render(s) }

// VerificationBox frames the device-flow instructions.
func VerificationBox(s string) string { return verificationBox.Render(s) }
