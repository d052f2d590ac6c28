package tui

import (
	"context"
	"fmt"
	"strings"

	"velowatt/internal/analysis"
	"velowatt/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
)

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	query   *service.QueryService
	data    *service.DashboardData
	loading bool
	err     error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(qs *service.QueryService) DashboardModel {
	return DashboardModel{
		query:   qs,
		loading: true,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

type dashboardDataMsg struct {
	data *service.DashboardData
	err  error
}

func (m DashboardModel) loadData() tea.Msg {
	data, err := m.query.Dashboard(context.Background())
	return dashboardDataMsg{data: data, err: err}
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading dashboard..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if m.data == nil || m.data.TotalRides == 0 {
		return "\n  No rides yet. Press 's' to sync with Strava, or add rides from the command line."
	}

	var sections []string

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, m.renderFitnessCard(), "  ", m.renderWeekCard())
	sections = append(sections, topRow)

	if len(m.data.ChartCTL) > 2 {
		sections = append(sections, m.renderChart())
	}
	if len(m.data.Weeks) > 0 {
		sections = append(sections, m.renderWeeks())
	}
	sections = append(sections, m.renderRecentRides())

	footer := "Press 'r' to refresh, 's' to sync, '2' for all rides"
	if !m.data.LastSync.IsZero() {
		footer = "Last synced " + humanize.Time(m.data.LastSync) + " - " + footer
	}
	sections = append(sections, statusStyle.Render(footer))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderFitnessCard() string {
	d := m.data
	title := cardTitleStyle.Render("Training Load")

	lines := []string{
		RenderMetric("Fitness (CTL)", fmt.Sprintf("%.1f", d.CurrentFitness), fmt.Sprintf("peak %.1f", d.PeakFitness)),
		RenderMetric("Fatigue (ATL)", fmt.Sprintf("%.1f", d.CurrentFatigue), ""),
		RenderMetric("Form (TSB)", RenderSigned(d.CurrentForm, fmt.Sprintf("%+.1f", d.CurrentForm)), ""),
		"",
		mutedStyle.Render(d.FormDescription),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(44).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderWeekCard() string {
	d := m.data
	title := cardTitleStyle.Render("This Week")

	wkg := "-"
	if d.WattsPerKG > 0 {
		wkg = fmt.Sprintf("%.2f W/kg", d.WattsPerKG)
	}

	lines := []string{
		RenderMetric("Rides", fmt.Sprintf("%d", d.WeekRides), ""),
		RenderMetric("TSS", fmt.Sprintf("%.0f", d.WeekTSS), ""),
		RenderMetric("FTP", fmt.Sprintf("%.0f W", d.FTP), wkg),
		RenderMetric("Total rides", humanize.Comma(int64(d.TotalRides)), ""),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderChart() string {
	d := m.data
	title := cardTitleStyle.Render(fmt.Sprintf("Fitness / Fatigue / Form - last %d days", len(d.ChartCTL)))

	graph := asciigraph.PlotMany(
		[][]float64{d.ChartCTL, d.ChartATL, d.ChartTSB},
		asciigraph.Height(10),
		asciigraph.Width(70),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(fitnessColor, fatigueColor, formColor),
		asciigraph.SeriesLegends("CTL", "ATL", "TSB"),
	)

	parts := []string{title, graph}
	if n := len(d.Forecast); n > 0 {
		last := d.Forecast[n-1]
		parts = append(parts, "", mutedStyle.Render(fmt.Sprintf(
			"Resting %d days: CTL %.1f, ATL %.1f, TSB %+.1f by %s",
			n, last.CTL, last.ATL, last.TSB, last.Date.Format("Jan 02"))))
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m DashboardModel) renderWeeks() string {
	title := cardTitleStyle.Render("Weekly TSS")

	var peak float64
	for _, w := range m.data.Weeks {
		peak = max(peak, w.TSS)
	}

	var lines []string
	for _, w := range m.data.Weeks {
		frac := 0.0
		if peak > 0 {
			frac = w.TSS / peak
		}
		lines = append(lines, fmt.Sprintf("%s  %s %5.0f  (%d)",
			w.WeekStart.Format("Jan 02"), RenderProgressBar(frac, 30), w.TSS, w.Rides))
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")))
}

func (m DashboardModel) renderRecentRides() string {
	title := cardTitleStyle.Render("Recent Rides")

	header := tableHeaderStyle.Render(fmt.Sprintf("%-8s  %-24s  %8s  %5s  %5s  %6s  %5s",
		"Date", "Title", "Time", "Avg", "NP", "TSS", "IF"))

	rows := []string{header}
	for i, r := range m.data.RecentRides {
		if i >= 5 {
			break
		}
		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-8s  %-24s  %8s  %5.0f  %5.0f  %6.1f  %5.2f",
			r.RideDate.Format("Jan 02"),
			truncateName(r.Title, 24),
			analysis.FormatDuration(r.DurationSeconds),
			r.AvgPower,
			r.NormalizedPower,
			r.TSS,
			r.IntensityFactor,
		)))
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n")))
}
