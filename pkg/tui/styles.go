package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	// Styling
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)
	questionLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	answerLabelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("35"))
	questionStyle      = lipgloss.NewStyle().PaddingLeft(2)
	answerStyle        = lipgloss.NewStyle().PaddingLeft(2)
	pendingStyle       = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("#888888")).Italic(true)
	emptyStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).PaddingLeft(2)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	suggestionTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#AFAFAF")).PaddingLeft(2)
	suggestionStyle         = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("#AFAFAF"))
	selectedSuggestionStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Foreground(lipgloss.Color("#FFFDF5")).
				Background(lipgloss.Color("62"))
)

// Glamour standard style names.
const (
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
)

// DetectStyle picks the glamour style for the current terminal.
func DetectStyle() string {
	if termenv.EnvColorProfile() == termenv.Ascii {
		return StyleNoTTY
	}
	if termenv.HasDarkBackground() {
		return StyleDark
	}
	return StyleLight
}
