package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (HelpModel, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	sections := []string{
		cardTitleStyle.Render("Keyboard Shortcuts"),
		renderKeySection("Navigation", []keyHelp{
			{"1", "Dashboard"},
			{"2", "Rides list"},
			{"3", "Power zones"},
			{"4 or s", "Sync screen"},
			{"?", "Help (this screen)"},
			{"esc", "Back / close help"},
			{"q", "Quit"},
		}),
		renderKeySection("Rides", []keyHelp{
			{"j / down", "Move cursor down"},
			{"k / up", "Move cursor up"},
			{"pgdn / pgup", "Next / previous page"},
			{"enter", "Open ride"},
			{"r", "Refresh"},
		}),
		renderKeySection("Sync", []keyHelp{
			{"s / enter", "Start sync"},
		}),
		renderMetricsHelp(),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func renderKeySection(title string, keys []keyHelp) string {
	lines := []string{"", sectionStyle.Render(title)}
	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}
	return strings.Join(lines, "\n")
}

func renderMetricsHelp() string {
	lines := []string{"", sectionStyle.Render("Metrics"), ""}

	metrics := []struct {
		name string
		desc string
	}{
		{"NP (Normalized Power)", "4th-power mean of 30s rolling power. What the effort cost."},
		{"IF (Intensity Factor)", "NP / FTP. 1.0 is a threshold effort."},
		{"TSS (Training Stress)", "One hour at FTP scores 100."},
		{"VI (Variability Index)", "NP / average power. 1.0 is perfectly steady."},
		{"EF (Efficiency Factor)", "NP / average heart rate. Rising EF means a better aerobic engine."},
		{"CTL (Fitness)", "42 day exponentially weighted average of daily TSS."},
		{"ATL (Fatigue)", "7 day exponentially weighted average of daily TSS."},
		{"TSB (Form)", "CTL - ATL. Positive is fresh, very negative is overreaching."},
	}

	for _, metric := range metrics {
		lines = append(lines, "  "+helpKeyStyle.Render(metric.name))
		lines = append(lines, "  "+mutedStyle.Render(metric.desc))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
