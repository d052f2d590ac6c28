package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"velowatt/internal/analysis"
	"velowatt/internal/config"
	"velowatt/internal/fitfile"
	"velowatt/internal/logging"
	"velowatt/internal/store"
)

// ErrInvalidRide is returned for rides that cannot be scored
var ErrInvalidRide = errors.New("invalid ride")

// RideService creates, imports and rescores rides
type RideService struct {
	store   *store.DB
	athlete config.AthleteConfig
	log     *logrus.Entry
}

// NewRideService creates a ride service scoring rides against the athlete's FTP
func NewRideService(db *store.DB, athlete config.AthleteConfig, logger *logrus.Logger) *RideService {
	return &RideService{
		store:   db,
		athlete: athlete,
		log:     logging.WithComponent(logger, "rides"),
	}
}

// RideCreate is a manually entered ride
type RideCreate struct {
	Title           string
	RideDate        time.Time
	Description     string
	DurationSeconds int
	AvgPower        float64
	NormalizedPower *float64
	MaxPower        *float64
	AvgHeartRate    *float64
	MaxHeartRate    *float64
	DistanceKM      *float64
	ElevationGainM  *float64
	AvgSpeedKMH     *float64
	AvgCadence      *float64
}

// RideResult is a stored ride together with its full metric bundle
type RideResult struct {
	Ride    store.Ride
	Metrics analysis.RideMetrics
}

// RecalcResult summarizes a recalculation run
type RecalcResult struct {
	RidesUpdated int
	FTPUsed      float64
}

// FTP returns the FTP new rides are scored against
func (s *RideService) FTP() float64 {
	return s.athlete.FTP
}

// AddRide scores and stores a manually entered ride
func (s *RideService) AddRide(ctx context.Context, in RideCreate) (*RideResult, error) {
	if in.DurationSeconds <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidRide)
	}
	if in.AvgPower < 0 {
		return nil, fmt.Errorf("%w: average power must not be negative", ErrInvalidRide)
	}
	if in.Title == "" {
		in.Title = "Ride"
	}
	if in.RideDate.IsZero() {
		in.RideDate = time.Now()
	}

	ride := &store.Ride{
		Source:          store.SourceManual,
		ExternalID:      ManualIDPrefix + uuid.NewString(),
		Title:           in.Title,
		RideDate:        in.RideDate,
		Description:     in.Description,
		DurationSeconds: in.DurationSeconds,
		AvgPower:        in.AvgPower,
		MaxPower:        in.MaxPower,
		AvgHeartRate:    in.AvgHeartRate,
		MaxHeartRate:    in.MaxHeartRate,
		DistanceKM:      in.DistanceKM,
		ElevationGainM:  in.ElevationGainM,
		AvgSpeedKMH:     in.AvgSpeedKMH,
		AvgCadence:      in.AvgCadence,
	}

	input := analysis.RideInput{
		DurationSeconds: in.DurationSeconds,
		AvgPower:        in.AvgPower,
		FTP:             s.athlete.FTP,
		NormalizedPower: in.NormalizedPower,
		AvgHeartRate:    in.AvgHeartRate,
	}

	return s.save(ctx, ride, input, nil)
}

// ImportFIT decodes a FIT file and stores the ride with its samples.
// Importing the same file twice updates the existing ride.
func (s *RideService) ImportFIT(ctx context.Context, path string) (*RideResult, error) {
	a, err := fitfile.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}
	return s.ImportActivity(ctx, a)
}

// ImportActivity stores an already decoded FIT activity
func (s *RideService) ImportActivity(ctx context.Context, a *fitfile.Activity) (*RideResult, error) {
	device := a.Manufacturer
	if device == "" {
		device = "FIT"
	}

	ride := &store.Ride{
		Source:                store.SourceFIT,
		ExternalID:            FITIDPrefix + strconv.FormatInt(a.StartTime.Unix(), 10),
		Title:                 fmt.Sprintf("%s - %s", a.StartTime.Format("Jan 02"), device),
		RideDate:              a.StartTime,
		Description:           "fit_import | " + device,
		DurationSeconds:       a.DurationSeconds,
		AvgPower:              a.AvgPower,
		MaxPower:              a.MaxPower,
		AvgHeartRate:          a.AvgHeartRate,
		MaxHeartRate:          a.MaxHeartRate,
		DistanceKM:            a.DistanceKM,
		ElevationGainM:        a.ElevationGainM,
		AvgSpeedKMH:           a.AvgSpeedKMH,
		AvgCadence:            a.AvgCadence,
		SampleIntervalSeconds: a.IntervalSeconds,
	}

	samples := make([]store.Sample, len(a.Samples))
	for i, p := range a.Samples {
		samples[i] = store.Sample{TimeOffset: p.Offset, Power: p.Power, HeartRate: validHeartrate(p.HeartRate)}
	}

	input := analysis.RideInput{
		DurationSeconds:       a.DurationSeconds,
		AvgPower:              a.AvgPower,
		FTP:                   s.athlete.FTP,
		NormalizedPower:       a.NormalizedPower,
		AvgHeartRate:          a.AvgHeartRate,
		PowerSamples:          a.PowerSeries(),
		SampleIntervalSeconds: a.IntervalSeconds,
	}

	result, err := s.save(ctx, ride, input, samples)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"ride_id": result.Ride.ID,
		"samples": len(samples),
		"np":      result.Metrics.NormalizedPower,
	}).Info("imported FIT ride")
	return result, nil
}

// save scores the ride, stores it and replaces its samples
func (s *RideService) save(ctx context.Context, ride *store.Ride, in analysis.RideInput, samples []store.Sample) (*RideResult, error) {
	metrics := analysis.ComputeRideMetrics(in)
	applyMetrics(ride, metrics)
	ride.Best20MinPower = best20(in.PowerSamples, in.SampleIntervalSeconds)

	if _, err := s.store.SaveRide(ctx, ride); err != nil {
		return nil, err
	}
	if len(samples) > 0 {
		if err := s.store.SaveRideSamples(ctx, ride.ID, samples); err != nil {
			return nil, err
		}
	}

	s.log.WithFields(logrus.Fields{
		"ride_id":   ride.ID,
		"source":    ride.Source,
		"tss":       ride.TSS,
		"np_source": ride.NPSource,
	}).Debug("saved ride")

	return &RideResult{Ride: *ride, Metrics: metrics}, nil
}

// Recalculate rescores every ride against the current FTP. Rides keep
// their NP: samples when stored, else the stored NP, else average power.
func (s *RideService) Recalculate(ctx context.Context) (*RecalcResult, error) {
	rides, err := s.store.AllRides(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading rides: %w", err)
	}

	result := &RecalcResult{FTPUsed: s.athlete.FTP}
	for _, r := range rides {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		samples, err := s.store.GetRideSamples(ctx, r.ID)
		if err != nil {
			return result, fmt.Errorf("loading samples for ride %d: %w", r.ID, err)
		}
		power, _ := store.PowerSeries(samples)

		in := analysis.RideInput{
			DurationSeconds:       r.DurationSeconds,
			AvgPower:              r.AvgPower,
			FTP:                   s.athlete.FTP,
			AvgHeartRate:          r.AvgHeartRate,
			PowerSamples:          power,
			SampleIntervalSeconds: r.SampleIntervalSeconds,
		}
		if r.NPSource != analysis.NPFromAverage.String() && r.NormalizedPower > 0 {
			np := r.NormalizedPower
			in.NormalizedPower = &np
		}

		m := analysis.ComputeRideMetrics(in)
		update := store.RideMetrics{
			NormalizedPower:  m.NormalizedPower,
			NPSource:         m.NPSource.String(),
			FTPAtTime:        m.FTP,
			TSS:              m.TSS,
			IntensityFactor:  m.IntensityFactor,
			VariabilityIndex: m.VariabilityIndex,
			EfficiencyFactor: m.EfficiencyFactor,
			Best20MinPower:   r.Best20MinPower,
		}
		if len(power) > 0 {
			update.Best20MinPower = best20(power, r.SampleIntervalSeconds)
		}

		if err := s.store.UpdateRideMetrics(ctx, r.ID, update); err != nil {
			return result, err
		}
		result.RidesUpdated++
	}

	s.log.WithFields(logrus.Fields{
		"rides": result.RidesUpdated,
		"ftp":   result.FTPUsed,
	}).Info("recalculated rides")
	return result, nil
}

// DeleteRide removes a ride and its samples
func (s *RideService) DeleteRide(ctx context.Context, id int64) error {
	if err := s.store.DeleteRide(ctx, id); err != nil {
		return err
	}
	s.log.WithField("ride_id", id).Info("deleted ride")
	return nil
}

// applyMetrics copies the computed metrics onto the stored ride
func applyMetrics(r *store.Ride, m analysis.RideMetrics) {
	r.NormalizedPower = m.NormalizedPower
	r.NPSource = m.NPSource.String()
	r.FTPAtTime = m.FTP
	r.TSS = m.TSS
	r.IntensityFactor = m.IntensityFactor
	r.VariabilityIndex = m.VariabilityIndex
	r.EfficiencyFactor = m.EfficiencyFactor
}

// best20 is the best 20 minute power, nil when the ride is shorter
func best20(power []float64, interval int) *float64 {
	w := analysis.BestPower(power, interval, analysis.Peak20m)
	if w <= 0 {
		return nil
	}
	return &w
}
