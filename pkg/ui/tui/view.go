package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderLogo())

	half := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(half),
		m.renderVideosPanel(half),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderRunPanel(half),
		m.renderLogsPanel(half),
	)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) renderLogo() string {
	logo := `
╔═════════════════════════════════════════════╗
║  ▀█▀ █▄▀ █▀ █▀▀ █▀█ ▄▀█ █▀█ █▀▀ █▀█         ║
║   █  █ █ ▄█ █▄▄ █▀▄ █▀█ █▀▀ ██▄ █▀▄         ║
║      CREATOR DISCOVERY CRAWLER              ║
╚═════════════════════════════════════════════╝`
	return logoStyle.Width(m.width).Render(logo)
}

func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" CRAWL STATS ")

	bar := m.bar
	bar.Width = max(width-12, 10)

	line := func(label, value string) string {
		return fmt.Sprintf("%s %s", statsLabelStyle.Render(label), statsValueStyle.Render(value))
	}

	stats := []string{
		line("Keyword:", m.keyword),
		line("Creators:", fmt.Sprintf("%d/%d", m.stats.Dispatched, m.target)),
		bar.ViewAs(m.Progress()),
		line("Pages:", fmt.Sprintf("%d", m.stats.Pages)),
		line("Records:", fmt.Sprintf("%d", m.stats.Records)),
		line("Comments:", fmt.Sprintf("%s (+%s replies)", FormatCount(m.stats.Comments), FormatCount(m.stats.Replies))),
		line("Discarded:", fmt.Sprintf("%d", m.stats.Discarded)),
		line("Profile misses:", fmt.Sprintf("%d", m.stats.ProfileMisses)),
	}

	failures := m.stats.ItemFailures + m.stats.Malformed + m.stats.SinkFailures
	if failures > 0 {
		stats = append(stats, errorStyle.Render(fmt.Sprintf("✗ %d failed (%d malformed, %d not delivered)",
			failures, m.stats.Malformed, m.stats.SinkFailures)))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, stats...)),
	)
}

func (m *Model) renderVideosPanel(width int) string {
	title := titleStyle.Render(" RECENT VIDEOS ")

	if len(m.recent) == 0 {
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, dimStyle.Render("No videos yet")),
		)
	}

	rows := []string{
		successStyle.Render(fmt.Sprintf("✓ %d delivered", m.delivered)),
	}
	if m.failed > 0 {
		rows[0] += "  " + errorStyle.Render(fmt.Sprintf("✗ %d failed", m.failed))
	}

	for i := len(m.recent) - 1; i >= 0; i-- {
		rows = append(rows, m.renderVideoRow(m.recent[i], width-6))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, rows...)),
	)
}

func (m *Model) renderVideoRow(row VideoRow, width int) string {
	mark := successStyle.Render("✓")
	if row.Failed() {
		mark = errorStyle.Render("✗")
	}

	followers := "?"
	if row.Followers != nil {
		followers = FormatCount(*row.Followers)
	}

	text := fmt.Sprintf("@%s %s", row.Creator, dimStyle.Render(row.ID))
	if len(text) > width-30 && width > 33 {
		text = text[:width-33] + "..."
	}

	return fmt.Sprintf("%s %s %s %s %s",
		mark,
		text,
		EngagementStyle(row.Engagement).Render(fmt.Sprintf("%.2f%%", row.Engagement)),
		dimStyle.Render(fmt.Sprintf("%dc", row.Comments)),
		dimStyle.Render(followers+" followers"),
	)
}

func (m *Model) renderRunPanel(width int) string {
	title := titleStyle.Render(" SUPERVISOR ")

	line := func(label, value string) string {
		return fmt.Sprintf("%s %s", statsLabelStyle.Render(label), statsValueStyle.Render(value))
	}

	runID := m.runID
	if runID == "" {
		runID = "-"
	}

	content := []string{
		line("Run:", runID),
		line("Pass:", fmt.Sprintf("%d", m.pass)),
	}

	switch {
	case !m.nextRunAt.IsZero():
		if m.lastErr != nil {
			content = append(content, errorStyle.Render("Last run failed"))
		}
		content = append(content, warningStyle.Render("Next run in "+formatDuration(time.Until(m.nextRunAt))))
	case m.lastErr != nil:
		content = append(content, errorStyle.Render("Stopped: "+m.lastErr.Error()))
	case m.runID != "":
		content = append(content, m.spinner.View()+" crawling for "+formatDuration(time.Since(m.runStart)))
	default:
		content = append(content, m.spinner.View()+" starting")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(content, "\n")),
	)
}

func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOGS ")

	start := max(len(m.logMessages)-10, 0)
	maxMsgLen := width - 25

	var logs []string
	for _, entry := range m.logMessages[start:] {
		message := entry.Message
		if maxMsgLen > 3 && len(message) > maxMsgLen {
			message = message[:maxMsgLen-3] + "..."
		}
		logs = append(logs, fmt.Sprintf("%s %s %s",
			logTimestampStyle.Render(entry.Time.Format("15:04:05")),
			lipgloss.NewStyle().Foreground(entry.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", entry.Level)),
			message,
		))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = dimStyle.Render("No logs yet...")
	}

	return panelStyle.Width(width).Height(max(m.height-30, 5)).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Stop the crawl and quit
    ctrl+l   - Clear logs
    ?        - Toggle this help

  Engagement:
    ` + successStyle.Render("Green") + `    - 10% and above
    ` + statsValueStyle.Render("Yellow") + `   - 3% and above
    ` + warningStyle.Render("Orange") + `   - Waiting for the next run
    ` + errorStyle.Render("Red") + `      - Failed item or run
`
	return panelStyle.Width(m.width).Render(help)
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
