package internal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cubetimer/internal/chart"
	"cubetimer/internal/record"
)

const listRows = 12

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true).
			Align(lipgloss.Center)

	timerDisplayStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("69")).
				Bold(true).
				Padding(1, 2)

	timerRunningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82")).
				Bold(true).
				Padding(1, 2)

	itemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	itemSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	chartStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("111"))

	inactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

func (m *Model) mainView() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Width(80).Render("Cube Timer"))
	sb.WriteString("\n\n")

	display := timerDisplayStyle.Render(m.Display)
	if m.Session.Running() {
		display = timerRunningStyle.Render(m.Display)
	}
	sb.WriteString(lipgloss.PlaceHorizontal(80, lipgloss.Center, display))
	sb.WriteString("\n")
	sb.WriteString(lipgloss.PlaceHorizontal(80, lipgloss.Center, helpStyle.Render(m.Status)))
	sb.WriteString("\n\n")

	panels := []string{m.timesListView()}
	if m.ShowChart {
		panels = append(panels, "  ", m.chartView())
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panels...))
	sb.WriteString("\n")

	if m.Notice != "" {
		sb.WriteString(noticeStyle.Render(m.Notice))
	}
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("Start/Stop: Space | Navigate: Up/Down | Delete: d | Chart: c | Refresh: r | Quit: q"))

	return sb.String()
}

func (m *Model) timesListView() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Times (%d)\n\n", len(m.Records)))

	if len(m.Records) == 0 {
		sb.WriteString(inactiveStyle.Render("No times yet."))
		return boxStyle.Width(24).Height(listRows + 2).Render(sb.String())
	}

	start, end := visibleRange(len(m.Records), m.SelectedIndex, listRows)
	for i := start; i < end; i++ {
		sb.WriteString(m.formatRecord(i, m.Records[i]))
		sb.WriteString("\n")
	}

	return boxStyle.Width(24).Height(listRows + 2).Render(sb.String())
}

func (m *Model) formatRecord(i int, rec record.Record) string {
	line := fmt.Sprintf("%3d. %s", len(m.Records)-i, rec.Time)
	if m.PendingDeletes[rec.ID] {
		line += " …"
	}
	if i == m.SelectedIndex {
		return itemSelectedStyle.Render(line)
	}
	return itemStyle.Render(line)
}

func (m *Model) chartView() string {
	width := 40
	if m.Width > 0 {
		width = max(m.Width-40, 20)
	}
	plot := chart.Render(m.ChartSeries, chart.Options{Width: width, Height: listRows - 2})

	style := chartStyle
	if m.ChartFading {
		style = inactiveStyle
	}
	return boxStyle.Render("History\n\n" + style.Render(plot))
}

// visibleRange keeps the selected row inside a window of rows.
func visibleRange(total, selected, rows int) (int, int) {
	if total <= rows {
		return 0, total
	}
	start := selected - rows/2
	start = max(start, 0)
	start = min(start, total-rows)
	return start, start + rows
}
