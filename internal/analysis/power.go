package analysis

import "math"

const (
	// NPWindowSeconds is the elapsed time covered by each rolling average
	NPWindowSeconds = 30
	// MinSamplesForNP is the minimum number of samples (not seconds) needed for NP
	MinSamplesForNP = 30
	// DefaultSampleInterval is the assumed recording cadence in seconds
	DefaultSampleInterval = 1
)

// NormalizedPower calculates NP from an ordered power sequence.
//
// A rolling average spanning 30 seconds of elapsed time is taken over every
// full window, each average is raised to the 4th power, the 4th powers are
// averaged and the 4th root of that mean is returned, rounded to 0.1 W.
// A steady effort converges to its average power; surges push NP above it.
// Returns 0 when there are fewer than 30 samples.
func NormalizedPower(samples []float64, intervalSeconds int) float64 {
	if len(samples) < MinSamplesForNP {
		return 0
	}

	window := windowLength(NPWindowSeconds, intervalSeconds)
	if window > len(samples) {
		return 0
	}

	rolling := rollingAverages(samples, window)
	if len(rolling) == 0 {
		return 0
	}

	var fourthPowerTotal float64
	for _, avg := range rolling {
		fourthPowerTotal += math.Pow(avg, 4)
	}

	return round(math.Pow(fourthPowerTotal/float64(len(rolling)), 0.25), 1)
}

// windowLength converts a duration into a sample count for the given cadence.
// Non-positive intervals are treated as 1 s.
func windowLength(seconds, intervalSeconds int) int {
	if intervalSeconds <= 0 {
		intervalSeconds = DefaultSampleInterval
	}
	window := seconds / intervalSeconds
	if window < 1 {
		window = 1
	}
	return window
}

// rollingAverages returns the simple moving average of every full window.
// The first window-1 samples produce no point.
func rollingAverages(samples []float64, window int) []float64 {
	if window <= 0 || window > len(samples) {
		return nil
	}

	out := make([]float64, 0, len(samples)-window+1)
	var sum float64
	for i, p := range samples {
		sum += p
		if i >= window {
			sum -= samples[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}
