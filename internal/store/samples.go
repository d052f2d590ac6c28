package store

import (
	"context"
	"fmt"
)

// SaveRideSamples saves the samples of a ride
// It replaces any existing samples for the ride
func (db *DB) SaveRideSamples(ctx context.Context, rideID int64, samples []Sample) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Delete existing samples for this ride
	if _, err := tx.ExecContext(ctx, "DELETE FROM ride_samples WHERE ride_id = ?", rideID); err != nil {
		return fmt.Errorf("deleting existing samples: %w", err)
	}

	// Prepare insert statement
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ride_samples (ride_id, time_offset, power, heartrate)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	// Insert all samples
	for _, s := range samples {
		if _, err := stmt.ExecContext(ctx, rideID, s.TimeOffset, s.Power, s.HeartRate); err != nil {
			return fmt.Errorf("inserting sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// GetRideSamples retrieves all samples for a ride in time order
func (db *DB) GetRideSamples(ctx context.Context, rideID int64) ([]Sample, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT time_offset, power, heartrate
		FROM ride_samples
		WHERE ride_id = ?
		ORDER BY time_offset
	`, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		if err := rows.Scan(&s.TimeOffset, &s.Power, &s.HeartRate); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	return samples, rows.Err()
}

// PowerSeries splits samples into power and heart rate slices.
// Missing heart rate is 0.
func PowerSeries(samples []Sample) (power, heartrate []float64) {
	power = make([]float64, len(samples))
	heartrate = make([]float64, len(samples))
	for i, s := range samples {
		power[i] = s.Power
		if s.HeartRate != nil {
			heartrate[i] = *s.HeartRate
		}
	}
	return power, heartrate
}
