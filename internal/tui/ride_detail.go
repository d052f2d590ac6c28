package tui

import (
	"context"
	"fmt"
	"strings"

	"velowatt/internal/analysis"
	"velowatt/internal/service"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// chrome is the height taken by the header, nav and footer
const chrome = 6

// RideDetailModel shows one ride in a scrollable viewport
type RideDetailModel struct {
	query    *service.QueryService
	rideID   int64
	detail   *service.RideDetail
	viewport viewport.Model
	loading  bool
	err      error
	ready    bool
}

// NewRideDetailModel creates a ride detail model
func NewRideDetailModel(qs *service.QueryService, rideID int64, width, height int) RideDetailModel {
	m := RideDetailModel{
		query:   qs,
		rideID:  rideID,
		loading: true,
	}
	if width > 0 && height > chrome {
		m.viewport = viewport.New(width, height-chrome)
		m.ready = true
	}
	return m
}

// Init initializes the ride detail screen
func (m RideDetailModel) Init() tea.Cmd {
	return m.loadDetail
}

type rideDetailLoadedMsg struct {
	detail *service.RideDetail
	err    error
}

func (m RideDetailModel) loadDetail() tea.Msg {
	detail, err := m.query.RideDetail(context.Background(), m.rideID)
	return rideDetailLoadedMsg{detail: detail, err: err}
}

// Update handles messages
func (m RideDetailModel) Update(msg tea.Msg) (RideDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case rideDetailLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.detail = msg.detail
		if m.ready && m.detail != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-chrome)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - chrome
		}
		if m.detail != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.loadDetail
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the ride detail screen
func (m RideDetailModel) View() string {
	if m.loading {
		return "\n  Loading ride..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  esc: back to list  j/k or arrows: scroll  r: refresh")
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m RideDetailModel) renderContent() string {
	sections := []string{m.renderHeader(), m.renderSummary()}

	if len(m.detail.Peaks) > 0 {
		sections = append(sections, m.renderPeaks())
	}
	if len(m.detail.Zones) > 0 {
		sections = append(sections, m.renderZones())
	}
	if len(m.detail.Power) > 5 {
		sections = append(sections, renderSeriesChart("Power (W)", m.detail.Power))
	}
	if analysis.AverageHeartRate(m.detail.HeartRate) > 0 {
		sections = append(sections, renderSeriesChart("Heart Rate (bpm)", m.detail.HeartRate))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m RideDetailModel) renderHeader() string {
	r := m.detail.Ride
	title := cardTitleStyle.Render(r.Title)
	date := mutedStyle.Render(r.RideDate.Format("Monday, January 2, 2006 at 3:04 PM") + "  •  " + r.Source)

	stats := []string{analysis.FormatDuration(r.DurationSeconds)}
	if r.DistanceKM != nil {
		stats = append(stats, fmt.Sprintf("%.1f km", *r.DistanceKM))
	}
	if r.ElevationGainM != nil {
		stats = append(stats, fmt.Sprintf("%.0f m", *r.ElevationGainM))
	}
	if r.AvgSpeedKMH != nil {
		stats = append(stats, fmt.Sprintf("%.1f km/h", *r.AvgSpeedKMH))
	}
	statsLine := lipgloss.NewStyle().Foreground(textColor).Bold(true).Render(strings.Join(stats, "  •  "))

	lines := []string{"", title, date, statsLine}
	if r.Description != "" {
		lines = append(lines, mutedStyle.Render(r.Description))
	}
	return lipgloss.JoinVertical(lipgloss.Left, append(lines, "")...)
}

func (m RideDetailModel) renderSummary() string {
	r, met := m.detail.Ride, m.detail.Metrics

	lines := []string{sectionStyle.Render("Summary")}
	add := func(label, value string) {
		lines = append(lines, fmt.Sprintf("  %-22s%s", label, value))
	}

	add("Average Power:", fmt.Sprintf("%.0f W", met.AvgPower))
	add("Normalized Power:", fmt.Sprintf("%.0f W (%s)", met.NormalizedPower, met.NPSource))
	if r.MaxPower != nil {
		add("Max Power:", fmt.Sprintf("%.0f W", *r.MaxPower))
	}
	add("Intensity Factor:", fmt.Sprintf("%.3f  %s", met.IntensityFactor, met.IntensityLabel))
	add("Training Stress:", fmt.Sprintf("%.1f TSS", met.TSS))
	if met.NPSource != analysis.NPFromAverage {
		add("TSS at Avg Power:", fmt.Sprintf("%.1f TSS", m.detail.AvgPowerTSS))
	}
	add("Variability Index:", fmt.Sprintf("%.2f", met.VariabilityIndex))
	add("Recovery:", met.RecoveryLabel)
	add("Scored at FTP:", fmt.Sprintf("%.0f W", met.FTP))

	if met.AvgHeartRate != nil {
		hr := fmt.Sprintf("%.0f bpm", *met.AvgHeartRate)
		if r.MaxHeartRate != nil {
			hr += fmt.Sprintf(" (max %.0f)", *r.MaxHeartRate)
		}
		add("Heart Rate:", hr)
	}
	if met.EfficiencyFactor != nil {
		add("Efficiency Factor:", fmt.Sprintf("%.2f", *met.EfficiencyFactor))
	}
	if m.detail.Decoupling != nil {
		add("Power:HR Decoupling:", fmt.Sprintf("%.1f%%", *m.detail.Decoupling))
	}
	if r.AvgCadence != nil {
		add("Cadence:", fmt.Sprintf("%.0f rpm", *r.AvgCadence))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m RideDetailModel) renderPeaks() string {
	lines := []string{sectionStyle.Render("Peak Power")}

	ftp := m.detail.Metrics.FTP
	for _, p := range m.detail.Peaks {
		line := fmt.Sprintf("  %-6s %5.0f W", analysis.PeakLabel(p.DurationSeconds), p.Watts)
		if ftp > 0 {
			line += mutedStyle.Render(fmt.Sprintf("  %3.0f%% FTP", p.Watts/ftp*100))
		}
		lines = append(lines, line)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m RideDetailModel) renderZones() string {
	lines := []string{sectionStyle.Render(fmt.Sprintf("Time in Zones (FTP %.0f W)", m.detail.Metrics.FTP))}

	for _, z := range m.detail.Zones {
		label := fmt.Sprintf("  Z%d %-16s", z.Zone.Zone, z.Zone.Name)
		bar := RenderZoneBar(z.Zone.Zone, z.Percent, 30)
		lines = append(lines, fmt.Sprintf("%s%s %5.1f%% (%s)", label, bar, z.Percent, analysis.FormatDuration(z.Seconds)))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func renderSeriesChart(title string, data []float64) string {
	data = downsample(data, 70)

	lines := []string{sectionStyle.Render(title)}
	if len(data) > 2 {
		lines = append(lines, asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Precision(0),
		))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}
