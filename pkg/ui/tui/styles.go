package tui

import "github.com/charmbracelet/lipgloss"

// TikTok brand palette on a near-black background
var (
	brandCyan   = lipgloss.Color("#25F4EE")
	brandPink   = lipgloss.Color("#FE2C55")
	okGreen     = lipgloss.Color("#3DDC84")
	valueYellow = lipgloss.Color("#FFD166")
	warnOrange  = lipgloss.Color("#FF9F1C")
	failRed     = lipgloss.Color("#FF3B30")
	inkBg       = lipgloss.Color("#010101")
	panelBg     = lipgloss.Color("#161823")
	mutedGray   = lipgloss.Color("#A8A8B3")
	faintGray   = lipgloss.Color("#5C5C66")
)

var (
	baseStyle = lipgloss.NewStyle().Background(inkBg).Foreground(mutedGray)
	logoStyle = lipgloss.NewStyle().Foreground(brandCyan).Bold(true).Padding(1, 0).Align(lipgloss.Center)
	helpStyle = lipgloss.NewStyle().Foreground(faintGray).Padding(1, 0, 0, 2)
	dimStyle  = lipgloss.NewStyle().Foreground(mutedGray)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(brandPink).
			Background(panelBg).
			Padding(1, 2)
	titleStyle = lipgloss.NewStyle().
			Background(brandPink).
			Foreground(inkBg).
			Bold(true).
			Padding(0, 1)

	statsLabelStyle   = lipgloss.NewStyle().Foreground(brandCyan).Bold(true)
	statsValueStyle   = lipgloss.NewStyle().Foreground(valueYellow)
	successStyle      = lipgloss.NewStyle().Foreground(okGreen).Bold(true)
	errorStyle        = lipgloss.NewStyle().Foreground(failRed).Bold(true)
	warningStyle      = lipgloss.NewStyle().Foreground(warnOrange).Bold(true)
	logTimestampStyle = lipgloss.NewStyle().Foreground(faintGray)
)

// EngagementStyle colours an engagement rate: green from 10%, yellow from 3%
func EngagementStyle(rate float64) lipgloss.Style {
	switch {
	case rate >= 10:
		return successStyle
	case rate >= 3:
		return statsValueStyle
	default:
		return dimStyle
	}
}
