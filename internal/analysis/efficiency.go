package analysis

import "math"

const secondsPerHour = 3600

// IntensityFactor calculates NP as a fraction of FTP (3 decimals)
// Returns 0 when FTP is not set
func IntensityFactor(normalizedPower, ftp float64) float64 {
	if ftp <= 0 {
		return 0
	}
	return round(normalizedPower/ftp, 3)
}

// TrainingStressScore calculates TSS for a ride
// TSS = (duration * NP * IF) / (FTP * 3600) * 100
// One hour at exactly FTP scores 100.
func TrainingStressScore(normalizedPower, intensityFactor float64, durationSeconds int, ftp float64) float64 {
	if ftp <= 0 || durationSeconds <= 0 {
		return 0
	}
	tss := (float64(durationSeconds) * normalizedPower * intensityFactor) / (ftp * secondsPerHour) * 100
	return round(tss, 1)
}

// SimpleTSS approximates TSS from average power alone, for manually
// entered rides where no NP is known.
// TSS ~ (duration * (avg/FTP)^2) / 3600 * 100
func SimpleTSS(avgPower float64, durationSeconds int, ftp float64) float64 {
	if ftp <= 0 || durationSeconds <= 0 {
		return 0
	}
	intensity := avgPower / ftp
	tss := (float64(durationSeconds) * math.Pow(intensity, 2)) / secondsPerHour * 100
	return round(tss, 1)
}

// VariabilityIndex calculates NP / average power (2 decimals)
// 1.0 is a perfectly steady ride; surging pushes it up
func VariabilityIndex(normalizedPower, avgPower float64) float64 {
	if avgPower <= 0 {
		return 0
	}
	return round(normalizedPower/avgPower, 2)
}

// EfficiencyFactor calculates NP / average heart rate (2 decimals)
// Tracked over time at similar intensities, a rising EF means better
// aerobic fitness.
func EfficiencyFactor(normalizedPower, avgHeartRate float64) float64 {
	if avgHeartRate <= 0 {
		return 0
	}
	return round(normalizedPower/avgHeartRate, 2)
}
