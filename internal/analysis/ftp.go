package analysis

// FTP estimation factors
const (
	LongRideSeconds    = 2400 // 40 min
	LongRideFTPFactor  = 0.95
	ShortRideFTPFactor = 0.90
)

// Estimation methods reported with an FTPEstimate
const (
	MethodLongRide  = "95% of best 40min+ NP"
	MethodShortRide = "90% of best NP (short rides)"
	MethodNoData    = "no data"
)

// FTPCandidate is a ride considered for FTP estimation
type FTPCandidate struct {
	DurationSeconds int
	NormalizedPower float64
}

// FTPEstimate is an FTP estimate and how it was derived.
// Watts is nil when there was nothing to estimate from.
type FTPEstimate struct {
	Watts  *float64
	Method string
}

// EstimateFTP estimates FTP from ride history.
// A 40 minute or longer ride is the best proxy for a threshold effort,
// so 95% of the best NP among those rides is used. Without one, 90% of
// the best NP of any ride is used instead.
func EstimateFTP(rides []FTPCandidate) FTPEstimate {
	var bestLong, bestAny float64
	for _, r := range rides {
		if r.NormalizedPower <= 0 {
			continue
		}
		if r.NormalizedPower > bestAny {
			bestAny = r.NormalizedPower
		}
		if r.DurationSeconds >= LongRideSeconds && r.NormalizedPower > bestLong {
			bestLong = r.NormalizedPower
		}
	}

	switch {
	case bestLong > 0:
		w := round(bestLong*LongRideFTPFactor, 0)
		return FTPEstimate{Watts: &w, Method: MethodLongRide}
	case bestAny > 0:
		w := round(bestAny*ShortRideFTPFactor, 0)
		return FTPEstimate{Watts: &w, Method: MethodShortRide}
	default:
		return FTPEstimate{Method: MethodNoData}
	}
}
