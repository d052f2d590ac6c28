package analysis

// RideInput holds everything known about a single ride.
// Optional values are nil when the source did not provide them.
type RideInput struct {
	DurationSeconds       int
	AvgPower              float64
	FTP                   float64
	NormalizedPower       *float64  // pre-computed NP, e.g. from a head unit
	AvgHeartRate          *float64
	PowerSamples          []float64 // raw power at a fixed cadence
	SampleIntervalSeconds int       // cadence of PowerSamples; 1 when unset
}

// RideMetrics is the full metric bundle for one ride
type RideMetrics struct {
	DurationSeconds   int
	DurationFormatted string
	AvgPower          float64
	NormalizedPower   float64
	NPSource          NPSource
	FTP               float64
	IntensityFactor   float64
	TSS               float64
	VariabilityIndex  float64
	AvgHeartRate      *float64 // nil when no heart rate was recorded
	EfficiencyFactor  *float64 // nil when no heart rate was recorded
	IntensityLabel    string
	RecoveryLabel     string
}

// NPSource records where a ride's NP came from
type NPSource int

const (
	NPFromAverage NPSource = iota // average power used as an approximation
	NPSupplied                    // pre-computed value passed in by the caller
	NPFromSamples                 // computed from the raw power samples
)

func (s NPSource) String() string {
	switch s {
	case NPFromSamples:
		return "samples"
	case NPSupplied:
		return "supplied"
	default:
		return "average"
	}
}

// npRule is one row of the NP source decision table
type npRule struct {
	source  NPSource
	applies func(RideInput) bool
	value   func(RideInput) float64
}

// npRules are tried in order; the first rule that applies wins.
var npRules = []npRule{
	{
		source:  NPFromSamples,
		applies: func(in RideInput) bool { return len(in.PowerSamples) >= MinSamplesForNP },
		value: func(in RideInput) float64 {
			return NormalizedPower(in.PowerSamples, in.SampleIntervalSeconds)
		},
	},
	{
		source:  NPSupplied,
		applies: func(in RideInput) bool { return in.NormalizedPower != nil && *in.NormalizedPower != 0 },
		value:   func(in RideInput) float64 { return *in.NormalizedPower },
	},
	{
		source:  NPFromAverage,
		applies: func(RideInput) bool { return true },
		value:   func(in RideInput) float64 { return in.AvgPower },
	},
}

// ResolveNP picks the NP for a ride: raw samples when there are enough of
// them, else a supplied non-zero NP, else the average power.
func ResolveNP(in RideInput) (float64, NPSource) {
	for _, rule := range npRules {
		if rule.applies(in) {
			return rule.value(in), rule.source
		}
	}
	return in.AvgPower, NPFromAverage
}

// ComputeRideMetrics calculates all metrics for a single ride.
// It never fails: a missing FTP, zero duration or too few samples
// degrade to zero values so batch recomputation always completes.
func ComputeRideMetrics(in RideInput) RideMetrics {
	np, source := ResolveNP(in)

	intensity := IntensityFactor(np, in.FTP)
	tss := TrainingStressScore(np, intensity, in.DurationSeconds, in.FTP)

	metrics := RideMetrics{
		DurationSeconds:   in.DurationSeconds,
		DurationFormatted: FormatDuration(in.DurationSeconds),
		AvgPower:          round(in.AvgPower, 1),
		NormalizedPower:   np,
		NPSource:          source,
		FTP:               in.FTP,
		IntensityFactor:   intensity,
		TSS:               tss,
		VariabilityIndex:  VariabilityIndex(np, in.AvgPower),
		IntensityLabel:    IntensityLabel(intensity),
		RecoveryLabel:     RecoveryLabel(tss),
	}

	if in.AvgHeartRate != nil && *in.AvgHeartRate > 0 {
		hr := round(*in.AvgHeartRate, 1)
		ef := EfficiencyFactor(np, *in.AvgHeartRate)
		metrics.AvgHeartRate = &hr
		metrics.EfficiencyFactor = &ef
	}

	return metrics
}
