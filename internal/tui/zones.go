package tui

import (
	"context"
	"fmt"
	"strings"

	"velowatt/internal/analysis"
	"velowatt/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ZonesModel shows the power zones for the configured FTP and an FTP
// estimate from ride history
type ZonesModel struct {
	query    *service.QueryService
	estimate *analysis.FTPEstimate
	err      error
}

// NewZonesModel creates a new zones model
func NewZonesModel(qs *service.QueryService) ZonesModel {
	return ZonesModel{query: qs}
}

// Init starts loading the FTP estimate
func (m ZonesModel) Init() tea.Cmd {
	return m.loadEstimate
}

type ftpEstimateMsg struct {
	estimate analysis.FTPEstimate
	err      error
}

func (m ZonesModel) loadEstimate() tea.Msg {
	est, err := m.query.EstimateFTP(context.Background())
	return ftpEstimateMsg{estimate: est, err: err}
}

// Update handles messages
func (m ZonesModel) Update(msg tea.Msg) (ZonesModel, tea.Cmd) {
	if msg, ok := msg.(ftpEstimateMsg); ok {
		m.err = msg.err
		m.estimate = &msg.estimate
	}
	return m, nil
}

// View renders the zones table
func (m ZonesModel) View() string {
	athlete := m.query.Athlete()
	if athlete.FTP <= 0 {
		return "\n  Set athlete.ftp in the config file to see power zones."
	}

	var sections []string

	title := fmt.Sprintf("Power Zones (FTP %.0f W", athlete.FTP)
	if athlete.WeightKG > 0 {
		title += fmt.Sprintf(", %.2f W/kg", athlete.FTP/athlete.WeightKG)
	}
	sections = append(sections, cardTitleStyle.Render(title+")"))

	header := tableHeaderStyle.Render(fmt.Sprintf("%-4s %-16s %-12s %-10s", "Zone", "Name", "Watts", "% FTP"))
	rows := []string{header}
	for _, z := range m.query.Zones() {
		watts := fmt.Sprintf("%d-%d", z.MinWatts, derefInt(z.MaxWatts))
		pct := fmt.Sprintf("%d-%d%%", z.MinPct, derefInt(z.MaxPct))
		if z.MaxWatts == nil {
			watts = fmt.Sprintf(">%d", z.MinWatts)
			pct = fmt.Sprintf(">%d%%", z.MinPct)
		}
		color := zoneColors[(z.Zone-1)%len(zoneColors)]
		rows = append(rows, tableRowStyle.Render(
			lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("Z%-3d", z.Zone))+
				fmt.Sprintf(" %-16s %-12s %-10s", z.Name, watts, pct)))
	}
	sections = append(sections, cardStyle.Render(strings.Join(rows, "\n")))

	sections = append(sections, m.renderEstimate(athlete.FTP))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ZonesModel) renderEstimate(ftp float64) string {
	title := sectionStyle.Render("FTP Estimate")
	switch {
	case m.err != nil:
		return title + "\n" + errorStyle.Render(fmt.Sprintf("  Error: %v", m.err))
	case m.estimate == nil:
		return title + "\n  Estimating..."
	case m.estimate.Watts == nil:
		return title + "\n" + mutedStyle.Render("  Not enough rides with power")
	}

	est := *m.estimate.Watts
	diff := est - ftp
	line := fmt.Sprintf("  %.0f W  %s  ", est, mutedStyle.Render("("+m.estimate.Method+")"))
	line += RenderSigned(diff, fmt.Sprintf("%+.0f W vs configured", diff))
	return title + "\n" + line + "\n" + statusStyle.Render("  Run 'velowatt recalc' after changing athlete.ftp to rescore rides")
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
