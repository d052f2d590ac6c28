package analysis

import "fmt"

// Standard peak power durations in seconds
const (
	Peak5s  = 5
	Peak1m  = 60
	Peak5m  = 300
	Peak20m = 1200
	Peak60m = 3600
)

// PeakDurations defines the peak power durations to track
var PeakDurations = []int{Peak5s, Peak1m, Peak5m, Peak20m, Peak60m}

// PeakPower is the best average power held for a duration
type PeakPower struct {
	DurationSeconds int
	Watts           float64
}

// BestPower finds the highest average power over any window of the given
// duration. Uses a running sum, O(n).
// Returns 0 if the ride is shorter than the window.
func BestPower(samples []float64, intervalSeconds, durationSeconds int) float64 {
	window := windowLength(durationSeconds, intervalSeconds)
	rolling := rollingAverages(samples, window)
	if len(rolling) == 0 {
		return 0
	}

	best := rolling[0]
	for _, avg := range rolling[1:] {
		if avg > best {
			best = avg
		}
	}
	return round(best, 1)
}

// PeakPowers returns the best power for each duration in PeakDurations
// that fits within the ride
func PeakPowers(samples []float64, intervalSeconds int) []PeakPower {
	var peaks []PeakPower
	for _, d := range PeakDurations {
		w := BestPower(samples, intervalSeconds, d)
		if w == 0 {
			continue
		}
		peaks = append(peaks, PeakPower{DurationSeconds: d, Watts: w})
	}
	return peaks
}

// PeakLabel returns a short label for a peak duration
func PeakLabel(durationSeconds int) string {
	switch {
	case durationSeconds < 60:
		return fmt.Sprintf("%ds", durationSeconds)
	case durationSeconds%3600 == 0:
		return fmt.Sprintf("%dh", durationSeconds/3600)
	default:
		return fmt.Sprintf("%dmin", durationSeconds/60)
	}
}
