package store

import "time"

// Ride sources
const (
	SourceManual = "manual"
	SourceFIT    = "fit"
	SourceStrava = "strava"
)

// Auth represents OAuth tokens for Strava API access
type Auth struct {
	AthleteID    int64     `db:"athlete_id"`
	Scope        string    `db:"scope"` // as granted, e.g. "read,activity:read_all"
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
}

// Ride represents a stored ride and its metrics
type Ride struct {
	ID                    int64     `db:"id"`
	Source                string    `db:"source"`      // manual, fit, strava
	ExternalID            string    `db:"external_id"` // unique per source, e.g. "strava:123"
	Title                 string    `db:"title"`
	RideDate              time.Time `db:"ride_date"`
	Description           string    `db:"description"`
	DurationSeconds       int       `db:"duration_seconds"`
	AvgPower              float64   `db:"avg_power"`
	NormalizedPower       float64   `db:"normalized_power"`
	NPSource              string    `db:"np_source"` // samples, supplied, average
	MaxPower              *float64  `db:"max_power"`
	FTPAtTime             float64   `db:"ftp_at_time"`
	AvgHeartRate          *float64  `db:"avg_heart_rate"`
	MaxHeartRate          *float64  `db:"max_heart_rate"`
	TSS                   float64   `db:"tss"`
	IntensityFactor       float64   `db:"intensity_factor"`
	VariabilityIndex      float64   `db:"variability_index"`
	EfficiencyFactor      *float64  `db:"efficiency_factor"`
	DistanceKM            *float64  `db:"distance_km"`
	ElevationGainM        *float64  `db:"elevation_gain_m"`
	AvgSpeedKMH           *float64  `db:"avg_speed_kmh"`
	AvgCadence            *float64  `db:"avg_cadence"`
	SampleIntervalSeconds int       `db:"sample_interval_seconds"`
	Best20MinPower        *float64  `db:"best_20min_power"`
}

// RideMetrics are the columns rewritten when metrics are recalculated
type RideMetrics struct {
	NormalizedPower  float64
	NPSource         string
	FTPAtTime        float64
	TSS              float64
	IntensityFactor  float64
	VariabilityIndex float64
	EfficiencyFactor *float64
	Best20MinPower   *float64
}

// Sample is one recorded data point of a ride
type Sample struct {
	TimeOffset int      `db:"time_offset"` // seconds from start
	Power      float64  `db:"power"`       // watts
	HeartRate  *float64 `db:"heartrate"`   // bpm, nullable
}

// DayTSS is the summed stress of all rides on one calendar day
type DayTSS struct {
	Date  time.Time
	TSS   float64
	Rides int
}
