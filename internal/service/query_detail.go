package service

import (
	"context"

	"velowatt/internal/analysis"
	"velowatt/internal/store"
)

// RideDetail contains everything shown for a single ride
type RideDetail struct {
	Ride        store.Ride
	Metrics     analysis.RideMetrics
	AvgPowerTSS float64              // TSS the ride would score on average power alone
	Zones       []analysis.ZoneTime  // nil without samples
	Peaks       []analysis.PeakPower // nil without samples
	Decoupling  *float64             // power:HR drift in percent, nil without paired samples
	Power       []float64            // raw samples for charting
	HeartRate   []float64
}

// HasSamples reports whether the ride has recorded power samples
func (d *RideDetail) HasSamples() bool {
	return len(d.Power) > 0
}

// RideDetail loads a ride and recomputes its metrics against the FTP it
// was scored with
func (q *QueryService) RideDetail(ctx context.Context, id int64) (*RideDetail, error) {
	ride, err := q.store.GetRide(ctx, id)
	if err != nil {
		return nil, err
	}

	samples, err := q.store.GetRideSamples(ctx, id)
	if err != nil {
		return nil, err
	}
	power, hr := store.PowerSeries(samples)

	ftp := ride.FTPAtTime
	if ftp <= 0 {
		ftp = q.athlete.FTP
	}

	in := analysis.RideInput{
		DurationSeconds:       ride.DurationSeconds,
		AvgPower:              ride.AvgPower,
		FTP:                   ftp,
		AvgHeartRate:          ride.AvgHeartRate,
		PowerSamples:          power,
		SampleIntervalSeconds: ride.SampleIntervalSeconds,
	}
	if ride.NPSource != analysis.NPFromAverage.String() {
		in.NormalizedPower = positivePtr(ride.NormalizedPower)
	}

	detail := &RideDetail{
		Ride:        *ride,
		Metrics:     analysis.ComputeRideMetrics(in),
		AvgPowerTSS: analysis.SimpleTSS(ride.AvgPower, ride.DurationSeconds, ftp),
		Power:       power,
		HeartRate:   hr,
	}

	if len(power) > 0 {
		detail.Zones = analysis.TimeInZones(power, ride.SampleIntervalSeconds, ftp)
		detail.Peaks = analysis.PeakPowers(power, ride.SampleIntervalSeconds)
		if len(power) >= analysis.MinPairsForDecoupling && analysis.AverageHeartRate(hr) > 0 {
			d := analysis.PowerHRDecoupling(power, hr)
			detail.Decoupling = &d
		}
	}

	return detail, nil
}
