package analysis

import "fmt"

// Breakpoint maps every value strictly below Below to Label
type Breakpoint struct {
	Below float64
	Label string
}

// LabelTable is a step function: breakpoints are checked in ascending
// order and the first one the value is below wins. Values at or above the
// last breakpoint get Otherwise.
type LabelTable struct {
	Breakpoints []Breakpoint
	Otherwise   string
}

// Label returns the label for v
func (t LabelTable) Label(v float64) string {
	for _, b := range t.Breakpoints {
		if v < b.Below {
			return b.Label
		}
	}
	return t.Otherwise
}

// intensityLabels classifies a ride by its IF
var intensityLabels = LabelTable{
	Breakpoints: []Breakpoint{
		{Below: 0.75, Label: "Recovery"},
		{Below: 0.85, Label: "Endurance"},
		{Below: 0.95, Label: "Tempo"},
		{Below: 1.05, Label: "Threshold"},
		{Below: 1.15, Label: "VO2max"},
	},
	Otherwise: "Anaerobic",
}

// coachZoneLabels follows the power zone edges rather than the ride IF
// bands. Used only when describing efforts in coach reports.
var coachZoneLabels = LabelTable{
	Breakpoints: []Breakpoint{
		{Below: 0.55, Label: "Recovery"},
		{Below: 0.75, Label: "Endurance"},
		{Below: 0.90, Label: "Tempo"},
		{Below: 1.05, Label: "Threshold"},
		{Below: 1.20, Label: "VO2max"},
	},
	Otherwise: "Anaerobic",
}

// recoveryLabels estimates recovery time from TSS
var recoveryLabels = LabelTable{
	Breakpoints: []Breakpoint{
		{Below: 150, Label: "Low — recovery within 24h"},
		{Below: 300, Label: "Medium — some fatigue next day"},
		{Below: 450, Label: "High — fatigue for ~2 days"},
	},
	Otherwise: "Very high — fatigue for several days",
}

// IntensityLabel returns a human-readable label for a ride's IF
func IntensityLabel(intensityFactor float64) string {
	return intensityLabels.Label(intensityFactor)
}

// CoachZoneLabel returns the zone-aligned label for an IF
func CoachZoneLabel(intensityFactor float64) string {
	return coachZoneLabels.Label(intensityFactor)
}

// RecoveryLabel returns the estimated recovery time for a TSS
func RecoveryLabel(tss float64) string {
	return recoveryLabels.Label(tss)
}

// FormDescription returns a human-readable description of TSB
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh (possibly losing fitness)"
	case tsb > 5:
		return "Fresh and ready to race"
	case tsb >= -10:
		return "Neutral - optimal for training"
	case tsb > -30:
		return "Fatigued but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}

// FormatDuration formats seconds as H:MM:SS, or M:SS under an hour
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
