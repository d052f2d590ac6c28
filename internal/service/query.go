package service

import (
	"context"
	"fmt"
	"time"

	"velowatt/internal/analysis"
	"velowatt/internal/config"
	"velowatt/internal/store"
)

// QueryService provides read-only queries for the TUI and CLI
type QueryService struct {
	store   *store.DB
	athlete config.AthleteConfig
	load    analysis.LoadConfig
	now     func() time.Time
}

// NewQueryService creates a new query service
func NewQueryService(db *store.DB, athlete config.AthleteConfig, training config.TrainingConfig) *QueryService {
	return &QueryService{
		store:   db,
		athlete: athlete,
		load:    training.LoadConfig(),
		now:     time.Now,
	}
}

// WithClock replaces the clock used for "today"
func (q *QueryService) WithClock(now func() time.Time) *QueryService {
	q.now = now
	return q
}

// Athlete returns the configured athlete
func (q *QueryService) Athlete() config.AthleteConfig {
	return q.athlete
}

// Fitness simulates CTL/ATL/TSB over the whole ride history up to today
func (q *QueryService) Fitness(ctx context.Context) (analysis.TrainingLoad, error) {
	days, err := q.store.DailyTSS(ctx)
	if err != nil {
		return analysis.TrainingLoad{}, fmt.Errorf("loading daily TSS: %w", err)
	}
	return analysis.SimulateTrainingLoad(dailyLoads(days), q.now(), q.load), nil
}

// Zones returns the power zones for the configured FTP
func (q *QueryService) Zones() []analysis.PowerZone {
	return analysis.PowerZones(q.athlete.FTP)
}

// EstimateFTP estimates FTP from every ride with an NP
func (q *QueryService) EstimateFTP(ctx context.Context) (analysis.FTPEstimate, error) {
	rides, err := q.store.RidesWithNP(ctx)
	if err != nil {
		return analysis.FTPEstimate{}, fmt.Errorf("loading rides: %w", err)
	}

	candidates := make([]analysis.FTPCandidate, len(rides))
	for i, r := range rides {
		candidates[i] = analysis.FTPCandidate{
			DurationSeconds: r.DurationSeconds,
			NormalizedPower: r.NormalizedPower,
		}
	}
	return analysis.EstimateFTP(candidates), nil
}

// WeeklyLoad returns TSS per Monday-start week, newest first
func (q *QueryService) WeeklyLoad(ctx context.Context, weeks int) ([]analysis.WeekLoad, error) {
	rides, err := q.store.AllRides(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading rides: %w", err)
	}
	return analysis.WeeklyTSS(rideLoads(rides), weeks), nil
}

// TrainedWeeks returns the n most recent weeks that have rides, newest first
func (q *QueryService) TrainedWeeks(ctx context.Context, n int) ([]analysis.WeekLoad, error) {
	rides, err := q.store.AllRides(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading rides: %w", err)
	}
	return analysis.TrainedWeeks(rideLoads(rides), n), nil
}

// RecentRides returns the n most recent rides, newest first
func (q *QueryService) RecentRides(ctx context.Context, n int) ([]store.Ride, error) {
	return q.store.ListRides(ctx, n, 0)
}

// Rides returns a page of rides, newest first
func (q *QueryService) Rides(ctx context.Context, limit, offset int) ([]store.Ride, error) {
	return q.store.ListRides(ctx, limit, offset)
}

// LastSync returns when Strava was last synced, zero if never
func (q *QueryService) LastSync(ctx context.Context) (time.Time, string, error) {
	value, err := q.store.GetSyncState(ctx, store.SyncKeyLastSync)
	if err != nil || value == "" {
		return time.Time{}, "", err
	}
	last, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("parsing last sync %q: %w", value, err)
	}
	summary, err := q.store.GetSyncState(ctx, store.SyncKeyLastResult)
	if err != nil {
		return last, "", err
	}
	return last, summary, nil
}
