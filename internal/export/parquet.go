// Package export writes the training load series and ride history as
// Parquet files for notebooks and other offline analysis.
package export

import (
	"fmt"
	"io"
	"time"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"velowatt/internal/analysis"
	"velowatt/internal/store"
)

const writerParallelism = 4

type loadRow struct {
	Date     string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Forecast bool    `parquet:"name=forecast, type=BOOLEAN"`
	TSS      float64 `parquet:"name=tss, type=DOUBLE"`
	CTL      float64 `parquet:"name=ctl, type=DOUBLE"`
	ATL      float64 `parquet:"name=atl, type=DOUBLE"`
	TSB      float64 `parquet:"name=tsb, type=DOUBLE"`
}

type rideRow struct {
	ID               int64    `parquet:"name=id, type=INT64"`
	Source           string   `parquet:"name=source, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ExternalID       string   `parquet:"name=external_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Title            string   `parquet:"name=title, type=BYTE_ARRAY, convertedtype=UTF8"`
	RideDate         string   `parquet:"name=ride_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	DurationSeconds  int64    `parquet:"name=duration_s, type=INT64"`
	AvgPower         float64  `parquet:"name=avg_power_w, type=DOUBLE"`
	NormalizedPower  float64  `parquet:"name=np_w, type=DOUBLE"`
	NPSource         string   `parquet:"name=np_source, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	FTPAtTime        float64  `parquet:"name=ftp_w, type=DOUBLE"`
	IntensityFactor  float64  `parquet:"name=intensity_factor, type=DOUBLE"`
	TSS              float64  `parquet:"name=tss, type=DOUBLE"`
	VariabilityIndex float64  `parquet:"name=variability_index, type=DOUBLE"`
	EfficiencyFactor *float64 `parquet:"name=efficiency_factor, type=DOUBLE, repetitiontype=OPTIONAL"`
	AvgHeartRate     *float64 `parquet:"name=avg_hr_bpm, type=DOUBLE, repetitiontype=OPTIONAL"`
	DistanceKM       *float64 `parquet:"name=distance_km, type=DOUBLE, repetitiontype=OPTIONAL"`
	Best20MinPower   *float64 `parquet:"name=best_20min_w, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// WriteLoadSeries writes the simulated history followed by the forecast
func WriteLoadSeries(w io.Writer, load analysis.TrainingLoad) error {
	return writeBuffered(w, new(loadRow), loadRows(load))
}

// WriteLoadSeriesFile is WriteLoadSeries to a file at path
func WriteLoadSeriesFile(path string, load analysis.TrainingLoad) error {
	return writeFile(path, new(loadRow), loadRows(load))
}

// WriteRides writes one row per ride
func WriteRides(w io.Writer, rides []store.Ride) error {
	return writeBuffered(w, new(rideRow), rideRows(rides))
}

// WriteRidesFile is WriteRides to a file at path
func WriteRidesFile(path string, rides []store.Ride) error {
	return writeFile(path, new(rideRow), rideRows(rides))
}

func loadRows(load analysis.TrainingLoad) []any {
	rows := make([]any, 0, len(load.History)+len(load.Forecast))
	add := func(entries []analysis.LoadEntry, forecast bool) {
		for _, e := range entries {
			rows = append(rows, loadRow{
				Date:     analysis.DayKey(e.Date),
				Forecast: forecast,
				TSS:      e.TSS,
				CTL:      e.CTL,
				ATL:      e.ATL,
				TSB:      e.TSB,
			})
		}
	}
	add(load.History, false)
	add(load.Forecast, true)
	return rows
}

func rideRows(rides []store.Ride) []any {
	rows := make([]any, 0, len(rides))
	for _, r := range rides {
		rows = append(rows, rideRow{
			ID:               r.ID,
			Source:           r.Source,
			ExternalID:       r.ExternalID,
			Title:            r.Title,
			RideDate:         r.RideDate.Format(time.RFC3339),
			DurationSeconds:  int64(r.DurationSeconds),
			AvgPower:         r.AvgPower,
			NormalizedPower:  r.NormalizedPower,
			NPSource:         r.NPSource,
			FTPAtTime:        r.FTPAtTime,
			IntensityFactor:  r.IntensityFactor,
			TSS:              r.TSS,
			VariabilityIndex: r.VariabilityIndex,
			EfficiencyFactor: r.EfficiencyFactor,
			AvgHeartRate:     r.AvgHeartRate,
			DistanceKM:       r.DistanceKM,
			Best20MinPower:   r.Best20MinPower,
		})
	}
	return rows
}

func writeBuffered(w io.Writer, schema any, rows []any) error {
	fw := parquetbuffer.NewBufferFile()
	if err := writeRows(fw, schema, rows); err != nil {
		return err
	}
	if _, err := w.Write(fw.Bytes()); err != nil {
		return fmt.Errorf("writing parquet: %w", err)
	}
	return nil
}

func writeFile(path string, schema any, rows []any) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return writeRows(fw, schema, rows)
}

// writeRows writes rows with SNAPPY compression and closes fw
func writeRows(fw source.ParquetFile, schema any, rows []any) error {
	pw, err := writer.NewParquetWriter(fw, schema, writerParallelism)
	if err != nil {
		fw.Close()
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			fw.Close()
			return fmt.Errorf("writing row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finishing parquet: %w", err)
	}
	return fw.Close()
}
