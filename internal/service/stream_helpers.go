package service

import (
	"sort"

	"velowatt/internal/analysis"
	"velowatt/internal/store"
	"velowatt/internal/strava"
)

// convertStreams converts Strava streams to stored samples.
// Samples without a time offset are dropped.
func convertStreams(s *strava.Streams) []store.Sample {
	n := s.Len()
	if n == 0 || !s.HasWatts() {
		return nil
	}

	samples := make([]store.Sample, 0, n)
	for i := 0; i < n; i++ {
		p := store.Sample{TimeOffset: s.Time.Data[i]}
		if i < len(s.Watts.Data) {
			p.Power = s.Watts.Data[i]
		}
		if s.HasHeartrate() && i < len(s.Heartrate.Data) {
			p.HeartRate = validHeartrate(s.Heartrate.Data[i])
		}
		samples = append(samples, p)
	}
	return samples
}

// sampleInterval is the median spacing of the samples, at least 1s
func sampleInterval(samples []store.Sample) int {
	var steps []int
	for i := 1; i < len(samples); i++ {
		if d := samples[i].TimeOffset - samples[i-1].TimeOffset; d > 0 {
			steps = append(steps, d)
		}
	}
	if len(steps) == 0 {
		return analysis.DefaultSampleInterval
	}
	sort.Ints(steps)
	return max(analysis.DefaultSampleInterval, steps[len(steps)/2])
}

// validHeartrate returns nil for readings outside the plausible range
func validHeartrate(hr float64) *float64 {
	if hr <= MinValidHeartrate || hr >= MaxValidHeartrate {
		return nil
	}
	return &hr
}

// positivePtr returns nil for zero and negative values
func positivePtr(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}

// rideLoads turns rides into per-ride loads keyed by their calendar day
func rideLoads(rides []store.Ride) []analysis.DailyLoad {
	loads := make([]analysis.DailyLoad, len(rides))
	for i, r := range rides {
		loads[i] = analysis.DailyLoad{Date: analysis.Day(r.RideDate), TSS: r.TSS}
	}
	return loads
}

// dailyLoads converts per-day sums from the store
func dailyLoads(days []store.DayTSS) []analysis.DailyLoad {
	loads := make([]analysis.DailyLoad, len(days))
	for i, d := range days {
		loads[i] = analysis.DailyLoad{Date: d.Date, TSS: d.TSS}
	}
	return loads
}
