package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// Colors
var (
	primaryColor   = lipgloss.Color("#F97316") // Orange
	secondaryColor = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	textColor      = lipgloss.Color("#F9FAFB") // Light gray
)

// Chart series colors, matched to the asciigraph palette
var (
	fitnessColor = asciigraph.Blue
	fatigueColor = asciigraph.Red
	formColor    = asciigraph.Green
)

// zoneColors run from easy to hard, one per power zone
var zoneColors = []lipgloss.Color{
	lipgloss.Color("#9CA3AF"), // Z1 - Gray (active recovery)
	lipgloss.Color("#3B82F6"), // Z2 - Blue (endurance)
	lipgloss.Color("#10B981"), // Z3 - Green (tempo)
	lipgloss.Color("#F59E0B"), // Z4 - Amber (threshold)
	lipgloss.Color("#F97316"), // Z5 - Orange (VO2max)
	lipgloss.Color("#EF4444"), // Z6 - Red (anaerobic)
	lipgloss.Color("#9333EA"), // Z7 - Purple (neuromuscular)
}

// Styles
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor).
			Background(primaryColor).
			Padding(0, 1).
			MarginBottom(1)

	navStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginBottom(1)

	navActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	navInactiveStyle = lipgloss.NewStyle().
				Foreground(mutedColor)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	cardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor)

	metricLabelStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Width(18)

	metricValueStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(textColor)

	positiveStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	negativeStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(primaryColor).
				Padding(0, 1)

	tableRowStyle = lipgloss.NewStyle().
			Padding(0, 1)

	tableSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Background(primaryColor).
				Foreground(textColor).
				Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	successStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	warningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	progressFullStyle = lipgloss.NewStyle().
				Foreground(secondaryColor)

	progressEmptyStyle = lipgloss.NewStyle().
				Foreground(mutedColor)
)

// RenderMetric renders a labelled value with an optional note
func RenderMetric(label, value, note string) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		metricLabelStyle.Render(label),
		metricValueStyle.Render(value),
		mutedStyle.Render(" "+note),
	)
}

// RenderSigned colors a value green when positive and red when negative
func RenderSigned(v float64, text string) string {
	switch {
	case v > 0:
		return positiveStyle.Render(text)
	case v < 0:
		return negativeStyle.Render(text)
	default:
		return text
	}
}

// RenderProgressBar renders an ASCII progress bar
func RenderProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	filled = max(0, min(filled, width))

	var b strings.Builder
	b.WriteString(progressFullStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(progressEmptyStyle.Render(strings.Repeat("░", width-filled)))
	return b.String()
}

// RenderZoneBar renders a horizontal bar for a share of time in a zone
func RenderZoneBar(zone int, percent float64, width int) string {
	n := int(percent / 100 * float64(width))
	if n < 1 && percent > 0 {
		n = 1
	}
	color := zoneColors[(zone-1+len(zoneColors))%len(zoneColors)]
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", n))
}

// RenderKeyHelp renders a key binding help item
func RenderKeyHelp(key, desc string) string {
	return helpKeyStyle.Render(key) + " " + helpDescStyle.Render(desc)
}

func truncateName(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// downsample averages data into at most target buckets, skipping zeros
func downsample(data []float64, target int) []float64 {
	if len(data) <= target {
		return data
	}

	out := make([]float64, target)
	ratio := float64(len(data)) / float64(target)
	for i := range out {
		start := int(float64(i) * ratio)
		end := min(int(float64(i+1)*ratio), len(data))

		var sum float64
		var count int
		for _, v := range data[start:end] {
			if v > 0 {
				sum += v
				count++
			}
		}
		if count > 0 {
			out[i] = sum / float64(count)
		}
	}
	return out
}
