package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const dayFormat = "2006-01-02"

const rideColumns = `id, source, external_id, title, ride_date, description,
	duration_seconds, avg_power, normalized_power, np_source, max_power,
	ftp_at_time, avg_heart_rate, max_heart_rate, tss, intensity_factor,
	variability_index, efficiency_factor, distance_km, elevation_gain_m,
	avg_speed_kmh, avg_cadence, sample_interval_seconds, best_20min_power`

// SaveRide inserts a ride, or updates the ride with the same external ID.
// Returns the ride's ID.
func (db *DB) SaveRide(ctx context.Context, r *Ride) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO rides (
			source, external_id, title, ride_date, description,
			duration_seconds, avg_power, normalized_power, np_source, max_power,
			ftp_at_time, avg_heart_rate, max_heart_rate, tss, intensity_factor,
			variability_index, efficiency_factor, distance_km, elevation_gain_m,
			avg_speed_kmh, avg_cadence, sample_interval_seconds, best_20min_power,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(external_id) DO UPDATE SET
			source = excluded.source,
			title = excluded.title,
			ride_date = excluded.ride_date,
			description = excluded.description,
			duration_seconds = excluded.duration_seconds,
			avg_power = excluded.avg_power,
			normalized_power = excluded.normalized_power,
			np_source = excluded.np_source,
			max_power = excluded.max_power,
			ftp_at_time = excluded.ftp_at_time,
			avg_heart_rate = excluded.avg_heart_rate,
			max_heart_rate = excluded.max_heart_rate,
			tss = excluded.tss,
			intensity_factor = excluded.intensity_factor,
			variability_index = excluded.variability_index,
			efficiency_factor = excluded.efficiency_factor,
			distance_km = excluded.distance_km,
			elevation_gain_m = excluded.elevation_gain_m,
			avg_speed_kmh = excluded.avg_speed_kmh,
			avg_cadence = excluded.avg_cadence,
			sample_interval_seconds = excluded.sample_interval_seconds,
			best_20min_power = excluded.best_20min_power,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`,
		r.Source, r.ExternalID, r.Title, r.RideDate.Format(time.RFC3339), r.Description,
		r.DurationSeconds, r.AvgPower, r.NormalizedPower, r.NPSource, r.MaxPower,
		r.FTPAtTime, r.AvgHeartRate, r.MaxHeartRate, r.TSS, r.IntensityFactor,
		r.VariabilityIndex, r.EfficiencyFactor, r.DistanceKM, r.ElevationGainM,
		r.AvgSpeedKMH, r.AvgCadence, r.SampleIntervalSeconds, r.Best20MinPower,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("saving ride %q: %w", r.ExternalID, err)
	}

	r.ID = id
	return id, nil
}

// GetRide retrieves a ride by ID
func (db *DB) GetRide(ctx context.Context, id int64) (*Ride, error) {
	row := db.QueryRowContext(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = ?`, id)
	return scanRide(row)
}

// ListRides returns rides ordered by date descending
func (db *DB) ListRides(ctx context.Context, limit, offset int) ([]Ride, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		ORDER BY ride_date DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRides(rows)
}

// AllRides returns every ride ordered by date ascending
func (db *DB) AllRides(ctx context.Context) ([]Ride, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		ORDER BY ride_date ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRides(rows)
}

// RidesWithNP returns rides with a positive NP, for FTP estimation
func (db *DB) RidesWithNP(ctx context.Context) ([]Ride, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		WHERE normalized_power > 0
		ORDER BY ride_date DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRides(rows)
}

// DeleteRide removes a ride and its samples
func (db *DB) DeleteRide(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, "DELETE FROM rides WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRideNotFound
	}
	return nil
}

// UpdateRideMetrics rewrites the computed metrics of a ride
func (db *DB) UpdateRideMetrics(ctx context.Context, id int64, m RideMetrics) error {
	result, err := db.ExecContext(ctx, `
		UPDATE rides
		SET normalized_power = ?, np_source = ?, ftp_at_time = ?, tss = ?,
			intensity_factor = ?, variability_index = ?, efficiency_factor = ?,
			best_20min_power = COALESCE(?, best_20min_power),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, m.NormalizedPower, m.NPSource, m.FTPAtTime, m.TSS,
		m.IntensityFactor, m.VariabilityIndex, m.EfficiencyFactor,
		m.Best20MinPower, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRideNotFound
	}
	return nil
}

// CountRides returns the total number of rides
func (db *DB) CountRides(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rides").Scan(&count)
	return count, err
}

// HasExternalID reports whether a ride with the external ID is stored
func (db *DB) HasExternalID(ctx context.Context, externalID string) (bool, error) {
	var exists int
	err := db.QueryRowContext(ctx, `
		SELECT 1 FROM rides WHERE external_id = ? LIMIT 1
	`, externalID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DailyTSS returns the summed TSS per calendar day, oldest first.
// The day is the ride's own local date.
func (db *DB) DailyTSS(ctx context.Context) ([]DayTSS, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT substr(ride_date, 1, 10) AS day, SUM(tss), COUNT(*)
		FROM rides
		GROUP BY day
		ORDER BY day
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []DayTSS
	for rows.Next() {
		var d DayTSS
		var day string
		if err := rows.Scan(&day, &d.TSS, &d.Rides); err != nil {
			return nil, err
		}
		d.Date, err = time.Parse(dayFormat, day)
		if err != nil {
			return nil, fmt.Errorf("parsing ride day %q: %w", day, err)
		}
		days = append(days, d)
	}

	return days, rows.Err()
}

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRide scans a single ride from a row
func scanRide(row *sql.Row) (*Ride, error) {
	r, err := scanRideFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRideNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// scanRides scans multiple rides from rows
func scanRides(rows *sql.Rows) ([]Ride, error) {
	var rides []Ride
	for rows.Next() {
		r, err := scanRideFields(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, *r)
	}
	return rides, rows.Err()
}

func scanRideFields(s rowScanner) (*Ride, error) {
	var r Ride
	var rideDate string

	err := s.Scan(
		&r.ID, &r.Source, &r.ExternalID, &r.Title, &rideDate, &r.Description,
		&r.DurationSeconds, &r.AvgPower, &r.NormalizedPower, &r.NPSource, &r.MaxPower,
		&r.FTPAtTime, &r.AvgHeartRate, &r.MaxHeartRate, &r.TSS, &r.IntensityFactor,
		&r.VariabilityIndex, &r.EfficiencyFactor, &r.DistanceKM, &r.ElevationGainM,
		&r.AvgSpeedKMH, &r.AvgCadence, &r.SampleIntervalSeconds, &r.Best20MinPower,
	)
	if err != nil {
		return nil, err
	}

	r.RideDate, err = time.Parse(time.RFC3339, rideDate)
	if err != nil {
		return nil, fmt.Errorf("parsing ride_date %q: %w", rideDate, err)
	}

	return &r, nil
}
