package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			athlete_id INTEGER NOT NULL,
			scope TEXT NOT NULL DEFAULT '',
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Rides with the metrics computed at the FTP in force when stored
		`CREATE TABLE IF NOT EXISTS rides (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			external_id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			ride_date TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			duration_seconds INTEGER NOT NULL,
			avg_power REAL NOT NULL,
			normalized_power REAL NOT NULL,
			np_source TEXT NOT NULL,
			max_power REAL,
			ftp_at_time REAL NOT NULL,
			avg_heart_rate REAL,
			max_heart_rate REAL,
			tss REAL NOT NULL,
			intensity_factor REAL NOT NULL,
			variability_index REAL NOT NULL,
			efficiency_factor REAL,
			distance_km REAL,
			elevation_gain_m REAL,
			avg_speed_kmh REAL,
			avg_cadence REAL,
			sample_interval_seconds INTEGER NOT NULL DEFAULT 1,
			best_20min_power REAL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_rides_date ON rides(ride_date)`,
		`CREATE INDEX IF NOT EXISTS idx_rides_source ON rides(source)`,

		// Raw samples at the ride's sample interval
		`CREATE TABLE IF NOT EXISTS ride_samples (
			ride_id INTEGER NOT NULL,
			time_offset INTEGER NOT NULL,
			power REAL NOT NULL,
			heartrate REAL,
			PRIMARY KEY (ride_id, time_offset),
			FOREIGN KEY (ride_id) REFERENCES rides(id) ON DELETE CASCADE
		)`,

		// Sync State (key-value store for sync tracking)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
