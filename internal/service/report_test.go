package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velowatt/internal/config"
	"velowatt/internal/logging"
	"velowatt/internal/store"
)

func TestCoachContext(t *testing.T) {
	db := setupTestDB(t)
	today := time.Date(2024, 3, 6, 18, 0, 0, 0, time.UTC)
	seedRides(t, db, 200,
		time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC),
	)

	q := NewQueryService(db, testAthlete, config.TrainingConfig{}).WithClock(fixedClock(today))
	report, err := NewReportService(q).CoachContext(context.Background())
	require.NoError(t, err)

	for _, section := range []string{
		"ATHLETE PROFILE:",
		"CURRENT FITNESS:",
		"RECENT RIDES:",
		"WEEKLY TSS:",
		"POWER ZONES (FTP=200W):",
	} {
		assert.Contains(t, report, section)
	}

	assert.Contains(t, report, "Training summary for Test.")
	assert.Contains(t, report, "FTP: 200W | Weight: 80.0kg | W/kg: 2.50")
	assert.Contains(t, report, "Total rides: 2")
	assert.Contains(t, report, "2024-03-05 | Seed | 60min | Avg 200W | NP 200W | TSS 100.0 | IF 1.000")
	assert.Contains(t, report, "Week of 2024-03-04: TSS 200 (2 rides)")
	assert.Contains(t, report, "Z1 Active Recovery (Recovery): 0-110W")
	assert.Contains(t, report, "Z4 Threshold (Threshold): 180-210W")
	assert.Contains(t, report, "Z7 Neuromuscular (Anaerobic): >300W")

	// newest ride first
	assert.Less(t, strings.Index(report, "2024-03-05 |"), strings.Index(report, "2024-03-04 |"))
}

func TestCoachContext_SkipsWeeksWithoutRides(t *testing.T) {
	db := setupTestDB(t)
	seedRides(t, db, 200,
		time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 6, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC),
	)

	q := NewQueryService(db, testAthlete, config.TrainingConfig{}).WithClock(fixedClock(time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)))
	report, err := NewReportService(q).CoachContext(context.Background())
	require.NoError(t, err)

	assert.Contains(t, report, "Week of 2024-03-04: TSS 100 (1 rides)")
	assert.Contains(t, report, "Week of 2024-02-05: TSS 100 (1 rides)")
	assert.Contains(t, report, "Week of 2024-01-01: TSS 100 (1 rides)")
	assert.NotContains(t, report, "Week of 2024-02-26")
	assert.NotContains(t, report, "TSS 0 (0 rides)")
}

func TestCoachContext_NoRides(t *testing.T) {
	athlete := testAthlete
	athlete.Name = ""
	athlete.WeightKG = 0
	q := NewQueryService(setupTestDB(t), athlete, config.TrainingConfig{})

	report, err := NewReportService(q).CoachContext(context.Background())
	require.NoError(t, err)
	assert.Contains(t, report, "Training summary for the athlete.")
	assert.Contains(t, report, "No rides yet")
	assert.Contains(t, report, "No data")
	assert.NotContains(t, report, "W/kg")
}

func TestRideBrief(t *testing.T) {
	db := setupTestDB(t)
	rides := NewRideService(db, testAthlete, logging.Discard())
	ctx := context.Background()

	res, err := rides.ImportActivity(ctx, steadyActivity(time.Date(2024, 5, 11, 7, 30, 0, 0, time.UTC), 1800, 160, 130))
	require.NoError(t, err)

	q := NewQueryService(db, testAthlete, config.TrainingConfig{})
	brief, err := NewReportService(q).RideBrief(ctx, res.Ride.ID)
	require.NoError(t, err)

	assert.Contains(t, brief, "Title: May 11 - garmin")
	assert.Contains(t, brief, "Date: 2024-05-11")
	assert.Contains(t, brief, "NP: 160W (samples)")
	assert.Contains(t, brief, "Zone: Tempo")
	assert.Contains(t, brief, "Peaks: 5s 160W | 1min 160W | 5min 160W | 20min 160W")
	assert.Contains(t, brief, "Power:HR decoupling: 0.0%")
	assert.Contains(t, brief, "Distance: N/A")

	_, err = NewReportService(q).RideBrief(ctx, res.Ride.ID+1)
	assert.ErrorIs(t, err, store.ErrRideNotFound)
}
