// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Jake-Brewer/auto-commit/internal/model"
)

var (
	// AccentColor is the main theme color.
	AccentColor = lipgloss.Color("#7AA2F7") // Blue
	// SuccessColor indicates successful operations and included files.
	SuccessColor = lipgloss.Color("#9ECE6A") // Green
	// WarningColor indicates warnings and files parked for review.
	WarningColor = lipgloss.Color("#E0AF68") // Amber
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#F7768E") // Red
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#565F89") // Gray

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("#333"))

	// TableCellStyle formats table cells with appropriate padding.
	TableCellStyle = lipgloss.NewStyle().
			PaddingRight(2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "!"
	PendingIcon = "●"
	WatchIcon   = "◉"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatTitle formats a section title.
func FormatTitle(title string) string {
	return TitleStyle.Render(WatchIcon + " " + title)
}

// FormatSubtle formats de-emphasized text.
func FormatSubtle(text string) string {
	return SubtleStyle.Render(text)
}

// FormatAction renders a classification action in its signal color:
// green for include, gray for ignore, amber for review.
func FormatAction(action model.Action) string {
	switch action {
	case model.ActionInclude:
		return SuccessStyle.Render(string(action))
	case model.ActionIgnore:
		return SubtleStyle.Render(string(action))
	case model.ActionReview:
		return WarningStyle.Render(string(action))
	default:
		return string(action)
	}
}

// FormatStatus renders a review item status.
func FormatStatus(status model.ReviewStatus) string {
	switch status {
	case model.StatusPending:
		return WarningStyle.Render(PendingIcon + " " + string(status))
	case model.StatusResolved:
		return SuccessStyle.Render(SuccessIcon + " " + string(status))
	default:
		return string(status)
	}
}
