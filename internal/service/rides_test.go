package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velowatt/internal/analysis"
	"velowatt/internal/config"
	"velowatt/internal/fitfile"
	"velowatt/internal/logging"
	"velowatt/internal/store"
)

var testAthlete = config.AthleteConfig{Name: "Test", FTP: 200, WeightKG: 80}

func setupTestDB(t *testing.T) *store.DB {
	t.Helper()

	db, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func floatPtr(f float64) *float64 {
	return &f
}

// steadyActivity is a decoded FIT ride at constant power and heart rate
func steadyActivity(start time.Time, seconds int, watts, hr float64) *fitfile.Activity {
	a := &fitfile.Activity{
		StartTime:       start,
		Manufacturer:    "garmin",
		DurationSeconds: seconds,
		AvgPower:        watts,
		MaxPower:        floatPtr(watts),
		AvgHeartRate:    floatPtr(hr),
		IntervalSeconds: 1,
	}
	for i := 0; i < seconds; i++ {
		a.Samples = append(a.Samples, fitfile.Sample{Offset: i, Power: watts, HeartRate: hr})
	}
	return a
}

func TestAddRide_OneHourAtFTP(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRideService(db, testAthlete, logging.Discard())
	ctx := context.Background()

	res, err := svc.AddRide(ctx, RideCreate{
		RideDate:        time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC),
		DurationSeconds: 3600,
		AvgPower:        200,
	})
	require.NoError(t, err)

	assert.Equal(t, "Ride", res.Ride.Title)
	assert.True(t, strings.HasPrefix(res.Ride.ExternalID, ManualIDPrefix))
	assert.Equal(t, analysis.NPFromAverage, res.Metrics.NPSource)
	assert.InDelta(t, 1.0, res.Metrics.IntensityFactor, 1e-9)
	assert.InDelta(t, 100.0, res.Metrics.TSS, 1e-9)
	assert.Nil(t, res.Ride.Best20MinPower)

	stored, err := db.GetRide(ctx, res.Ride.ID)
	require.NoError(t, err)
	assert.Equal(t, store.SourceManual, stored.Source)
	assert.Equal(t, "average", stored.NPSource)
	assert.InDelta(t, 100.0, stored.TSS, 1e-9)
	assert.InDelta(t, 200.0, stored.FTPAtTime, 1e-9)
}

func TestAddRide_SuppliedNP(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRideService(db, testAthlete, logging.Discard())

	res, err := svc.AddRide(context.Background(), RideCreate{
		Title:           "Intervals",
		RideDate:        time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC),
		DurationSeconds: 3600,
		AvgPower:        200,
		NormalizedPower: floatPtr(240),
		AvgHeartRate:    floatPtr(150),
	})
	require.NoError(t, err)

	assert.Equal(t, analysis.NPSupplied, res.Metrics.NPSource)
	assert.InDelta(t, 1.2, res.Metrics.IntensityFactor, 1e-9)
	assert.InDelta(t, 144.0, res.Metrics.TSS, 1e-9)
	assert.InDelta(t, 1.2, res.Metrics.VariabilityIndex, 1e-9)
	require.NotNil(t, res.Ride.EfficiencyFactor)
	assert.InDelta(t, 1.6, *res.Ride.EfficiencyFactor, 1e-9)
}

func TestAddRide_Invalid(t *testing.T) {
	svc := NewRideService(setupTestDB(t), testAthlete, logging.Discard())

	tests := []struct {
		name string
		in   RideCreate
	}{
		{"zero duration", RideCreate{DurationSeconds: 0, AvgPower: 200}},
		{"negative duration", RideCreate{DurationSeconds: -60, AvgPower: 200}},
		{"negative power", RideCreate{DurationSeconds: 3600, AvgPower: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddRide(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrInvalidRide)
		})
	}
}

func TestImportActivity_StoresSamples(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRideService(db, testAthlete, logging.Discard())
	ctx := context.Background()

	start := time.Date(2024, 5, 11, 7, 30, 0, 0, time.UTC)
	res, err := svc.ImportActivity(ctx, steadyActivity(start, 3600, 200, 140))
	require.NoError(t, err)

	assert.Equal(t, "fit:1715412600", res.Ride.ExternalID)
	assert.Equal(t, "May 11 - garmin", res.Ride.Title)
	assert.Equal(t, store.SourceFIT, res.Ride.Source)
	assert.Equal(t, analysis.NPFromSamples, res.Metrics.NPSource)
	assert.InDelta(t, 200.0, res.Metrics.NormalizedPower, 0.1)
	assert.InDelta(t, 100.0, res.Metrics.TSS, 0.2)
	require.NotNil(t, res.Ride.Best20MinPower)
	assert.InDelta(t, 200.0, *res.Ride.Best20MinPower, 1e-9)

	samples, err := db.GetRideSamples(ctx, res.Ride.ID)
	require.NoError(t, err)
	assert.Len(t, samples, 3600)
	require.NotNil(t, samples[0].HeartRate)
	assert.InDelta(t, 140.0, *samples[0].HeartRate, 1e-9)
}

func TestImportActivity_ReimportUpdates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRideService(db, testAthlete, logging.Discard())
	ctx := context.Background()

	start := time.Date(2024, 5, 11, 7, 30, 0, 0, time.UTC)
	first, err := svc.ImportActivity(ctx, steadyActivity(start, 600, 180, 130))
	require.NoError(t, err)
	second, err := svc.ImportActivity(ctx, steadyActivity(start, 600, 190, 130))
	require.NoError(t, err)

	assert.Equal(t, first.Ride.ID, second.Ride.ID)
	count, err := db.CountRides(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := db.GetRide(ctx, first.Ride.ID)
	require.NoError(t, err)
	assert.InDelta(t, 190.0, stored.AvgPower, 1e-9)
}

func TestImportActivity_DropsImplausibleHeartRate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRideService(db, testAthlete, logging.Discard())
	ctx := context.Background()

	a := steadyActivity(time.Date(2024, 5, 12, 7, 0, 0, 0, time.UTC), 60, 150, 0)
	a.AvgHeartRate = nil
	res, err := svc.ImportActivity(ctx, a)
	require.NoError(t, err)
	assert.Nil(t, res.Metrics.EfficiencyFactor)

	samples, err := db.GetRideSamples(ctx, res.Ride.ID)
	require.NoError(t, err)
	for _, s := range samples {
		assert.Nil(t, s.HeartRate)
	}
}

func TestRecalculate_NewFTP(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	old := NewRideService(db, testAthlete, logging.Discard())
	manual, err := old.AddRide(ctx, RideCreate{
		RideDate:        time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC),
		DurationSeconds: 3600,
		AvgPower:        200,
	})
	require.NoError(t, err)
	supplied, err := old.AddRide(ctx, RideCreate{
		RideDate:        time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC),
		DurationSeconds: 3600,
		AvgPower:        200,
		NormalizedPower: floatPtr(250),
	})
	require.NoError(t, err)

	athlete := testAthlete
	athlete.FTP = 250
	svc := NewRideService(db, athlete, logging.Discard())
	res, err := svc.Recalculate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RidesUpdated)
	assert.InDelta(t, 250.0, res.FTPUsed, 1e-9)

	got, err := db.GetRide(ctx, manual.Ride.ID)
	require.NoError(t, err)
	assert.Equal(t, "average", got.NPSource)
	assert.InDelta(t, 0.8, got.IntensityFactor, 1e-9)
	assert.InDelta(t, 64.0, got.TSS, 1e-9)
	assert.InDelta(t, 250.0, got.FTPAtTime, 1e-9)

	got, err = db.GetRide(ctx, supplied.Ride.ID)
	require.NoError(t, err)
	assert.Equal(t, "supplied", got.NPSource)
	assert.InDelta(t, 250.0, got.NormalizedPower, 1e-9)
	assert.InDelta(t, 1.0, got.IntensityFactor, 1e-9)
	assert.InDelta(t, 100.0, got.TSS, 1e-9)
}

func TestRecalculate_Cancelled(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRideService(db, testAthlete, logging.Discard())

	_, err := svc.AddRide(context.Background(), RideCreate{DurationSeconds: 600, AvgPower: 150})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Recalculate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeleteRide(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRideService(db, testAthlete, logging.Discard())
	ctx := context.Background()

	res, err := svc.ImportActivity(ctx, steadyActivity(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), 120, 180, 120))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRide(ctx, res.Ride.ID))

	_, err = db.GetRide(ctx, res.Ride.ID)
	assert.ErrorIs(t, err, store.ErrRideNotFound)
	samples, err := db.GetRideSamples(ctx, res.Ride.ID)
	require.NoError(t, err)
	assert.Empty(t, samples)
}
