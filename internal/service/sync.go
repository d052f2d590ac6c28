package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"velowatt/internal/analysis"
	"velowatt/internal/logging"
	"velowatt/internal/store"
	"velowatt/internal/strava"
)

// ActivitySource is the part of the Strava client the sync needs
type ActivitySource interface {
	GetAllActivities(ctx context.Context, after time.Time, onProgress func(fetched int)) ([]strava.Activity, error)
	GetActivityStreams(ctx context.Context, activityID int64) (*strava.Streams, error)
}

// rateLimiter is implemented by sources that track API quota
type rateLimiter interface {
	RateLimitStatus() (shortRemaining, dailyRemaining int)
}

// Reasons an activity is not imported
const (
	SkipNotARide        = "not a ride"
	SkipNoPower         = "no power data"
	SkipAlreadyImported = "already imported"
)

// SyncService orchestrates syncing rides from Strava
type SyncService struct {
	source ActivitySource
	store  *store.DB
	rides  *RideService
	log    *logrus.Entry
	now    func() time.Time
}

// NewSyncService creates a new sync service
func NewSyncService(source ActivitySource, db *store.DB, rides *RideService, logger *logrus.Logger) *SyncService {
	return &SyncService{
		source: source,
		store:  db,
		rides:  rides,
		log:    logging.WithComponent(logger, "sync"),
		now:    time.Now,
	}
}

// RateLimitStatus returns the remaining API quota. ok is false when the
// source does not report one.
func (s *SyncService) RateLimitStatus() (short, daily int, ok bool) {
	rl, ok := s.source.(rateLimiter)
	if !ok {
		return 0, 0, false
	}
	short, daily = rl.RateLimitStatus()
	return short, daily, true
}

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase           string // "activities", "rides"
	Total           int
	Completed       int
	CurrentActivity string
}

// SkippedActivity is an activity the sync did not import
type SkippedActivity struct {
	ID     int64
	Name   string
	Reason string
}

// SyncResult contains the results of a sync operation
type SyncResult struct {
	ActivitiesFetched int
	RidesImported     int
	StreamsFetched    int
	Skipped           []SkippedActivity
	Errors            []error
}

// Summary is a one-line description of the result
func (r *SyncResult) Summary() string {
	return fmt.Sprintf("%d fetched, %d imported, %d skipped, %d errors",
		r.ActivitiesFetched, r.RidesImported, len(r.Skipped), len(r.Errors))
}

// SyncAll pulls activities since the last sync and imports the rides with
// power. Failures of single activities are collected in the result; only
// listing failures abort the sync.
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	result := &SyncResult{}
	started := s.now()

	after, err := s.lastSync(ctx)
	if err != nil {
		return result, err
	}

	send(ctx, progress, SyncProgress{Phase: "activities"})
	activities, err := s.source.GetAllActivities(ctx, after, func(fetched int) {
		send(ctx, progress, SyncProgress{Phase: "activities", Total: fetched, Completed: fetched})
	})
	if err != nil {
		return result, fmt.Errorf("fetching activities: %w", err)
	}
	result.ActivitiesFetched = len(activities)
	s.log.WithFields(logrus.Fields{"after": after, "fetched": len(activities)}).Info("fetched activities")

	for i, a := range activities {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		send(ctx, progress, SyncProgress{
			Phase:           "rides",
			Total:           len(activities),
			Completed:       i,
			CurrentActivity: a.Name,
		})

		if reason, skip := s.skipReason(ctx, a); skip {
			s.log.WithFields(logrus.Fields{"activity_id": a.ID, "reason": reason}).Debug("skipped activity")
			result.Skipped = append(result.Skipped, SkippedActivity{ID: a.ID, Name: a.Name, Reason: reason})
			continue
		}

		if err := s.importActivity(ctx, a, result); err != nil {
			s.log.WithError(err).WithField("activity_id", a.ID).Warn("import failed")
			result.Errors = append(result.Errors, fmt.Errorf("activity %d (%s): %w", a.ID, a.Name, err))
			continue
		}
		result.RidesImported++
	}
	send(ctx, progress, SyncProgress{Phase: "rides", Total: len(activities), Completed: len(activities)})

	if err := s.store.SetSyncState(ctx, store.SyncKeyLastSync, started.UTC().Format(time.RFC3339)); err != nil {
		return result, fmt.Errorf("saving sync time: %w", err)
	}
	if err := s.store.SetSyncState(ctx, store.SyncKeyLastResult, result.Summary()); err != nil {
		return result, fmt.Errorf("saving sync result: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"imported": result.RidesImported,
		"skipped":  len(result.Skipped),
		"errors":   len(result.Errors),
	}).Info("sync complete")
	return result, nil
}

func (s *SyncService) lastSync(ctx context.Context) (time.Time, error) {
	value, err := s.store.GetSyncState(ctx, store.SyncKeyLastSync)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading last sync: %w", err)
	}
	if value == "" {
		return time.Time{}, nil
	}
	after, err := time.Parse(time.RFC3339, value)
	if err != nil {
		s.log.WithField("value", value).Warn("ignoring unparseable last sync time")
		return time.Time{}, nil
	}
	return after, nil
}

func (s *SyncService) skipReason(ctx context.Context, a strava.Activity) (string, bool) {
	if !strava.IsRide(a.Type) && !strava.IsRide(a.SportType) {
		return SkipNotARide, true
	}
	if !a.DeviceWatts || a.AverageWatts <= 0 {
		return SkipNoPower, true
	}
	if exists, err := s.store.HasExternalID(ctx, stravaExternalID(a.ID)); err == nil && exists {
		return SkipAlreadyImported, true
	}
	return "", false
}

// importActivity fetches the power stream and stores the ride. A missing
// stream is not an error: the ride is scored from the supplied NP.
func (s *SyncService) importActivity(ctx context.Context, a strava.Activity, result *SyncResult) error {
	var samples []store.Sample
	streams, err := s.source.GetActivityStreams(ctx, a.ID)
	switch {
	case errors.Is(err, strava.ErrNotFound):
		s.log.WithField("activity_id", a.ID).Debug("no streams")
	case err != nil:
		s.log.WithError(err).WithField("activity_id", a.ID).Warn("fetching streams failed")
	default:
		samples = convertStreams(streams)
		if len(samples) > 0 {
			result.StreamsFetched++
		}
	}

	ride := convertActivity(a)
	power, hr := store.PowerSeries(samples)
	ride.SampleIntervalSeconds = sampleInterval(samples)
	if ride.AvgHeartRate == nil {
		ride.AvgHeartRate = positivePtr(math.Round(analysis.AverageHeartRate(hr)*10) / 10)
	}

	in := analysis.RideInput{
		DurationSeconds:       ride.DurationSeconds,
		AvgPower:              ride.AvgPower,
		FTP:                   s.rides.FTP(),
		NormalizedPower:       positivePtr(a.WeightedAverageWatts),
		AvgHeartRate:          ride.AvgHeartRate,
		PowerSamples:          power,
		SampleIntervalSeconds: ride.SampleIntervalSeconds,
	}

	_, err = s.rides.save(ctx, ride, in, samples)
	return err
}

// convertActivity converts a Strava activity to a stored ride without metrics
func convertActivity(a strava.Activity) *store.Ride {
	ride := &store.Ride{
		Source:          store.SourceStrava,
		ExternalID:      stravaExternalID(a.ID),
		Title:           a.Name,
		RideDate:        a.StartDateLocal,
		Description:     a.Description,
		DurationSeconds: a.MovingTime,
		AvgPower:        a.AverageWatts,
		MaxPower:        positivePtr(a.MaxWatts),
		AvgHeartRate:    positivePtr(a.AverageHeartrate),
		MaxHeartRate:    positivePtr(a.MaxHeartrate),
		ElevationGainM:  positivePtr(a.TotalElevationGain),
		AvgCadence:      positivePtr(a.AverageCadence),
	}
	if ride.Title == "" {
		ride.Title = "Ride"
	}
	if ride.RideDate.IsZero() {
		ride.RideDate = a.StartDate
	}
	if a.Distance > 0 {
		km := math.Round(a.Distance/MetersPerKM*100) / 100
		ride.DistanceKM = &km
	}
	if a.AverageSpeed > 0 {
		kmh := math.Round(a.AverageSpeed*MPSToKMH*10) / 10
		ride.AvgSpeedKMH = &kmh
	}
	return ride
}

func stravaExternalID(id int64) string {
	return StravaIDPrefix + strconv.FormatInt(id, 10)
}

// send delivers progress unless the sync was cancelled
func send(ctx context.Context, progress chan<- SyncProgress, p SyncProgress) {
	if progress == nil {
		return
	}
	select {
	case progress <- p:
	case <-ctx.Done():
	}
}
