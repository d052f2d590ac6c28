package analysis

// MinPairsForDecoupling is the minimum number of paired power/HR samples
const MinPairsForDecoupling = 120

// PowerHRDecoupling calculates the power:HR drift between the first and
// second half of a ride.
// Returns percentage - positive means the second half was less efficient.
// < 5% on long endurance rides indicates a good aerobic base.
func PowerHRDecoupling(power, heartrate []float64) float64 {
	n := len(power)
	if len(heartrate) < n {
		n = len(heartrate)
	}
	if n < MinPairsForDecoupling {
		return 0
	}

	mid := n / 2
	firstEF := halfEF(power[:mid], heartrate[:mid])
	secondEF := halfEF(power[mid:n], heartrate[mid:n])

	if firstEF == 0 || secondEF == 0 {
		return 0
	}

	// ((first / second) - 1) * 100
	return round((firstEF/secondEF-1)*100, 1)
}

// halfEF calculates power:HR for one half of a ride, ignoring coasting
// and implausible heart rates
func halfEF(power, heartrate []float64) float64 {
	var totalPower, totalHR float64
	var count int

	for i := range power {
		p, hr := power[i], heartrate[i]
		if p > 0 && hr > 40 && hr < 230 {
			totalPower += p
			totalHR += hr
			count++
		}
	}

	if count == 0 || totalHR == 0 {
		return 0
	}
	return totalPower / totalHR
}

// AverageHeartRate returns the mean of the positive heart rate samples
func AverageHeartRate(heartrate []float64) float64 {
	var valid []float64
	for _, hr := range heartrate {
		if hr > 0 {
			valid = append(valid, hr)
		}
	}
	return average(valid)
}
