package service

import (
	"context"
	"fmt"
	"time"

	"velowatt/internal/analysis"
	"velowatt/internal/store"
)

// DashboardData contains all data needed for the dashboard
type DashboardData struct {
	// Current fitness
	CurrentFitness  float64 // CTL
	CurrentFatigue  float64 // ATL
	CurrentForm     float64 // TSB
	PeakFitness     float64
	FormDescription string

	// Athlete
	FTP        float64
	WattsPerKG float64

	// Totals
	TotalRides int
	WeekTSS    float64
	WeekRides  int

	// Recent rides
	RecentRides []store.Ride

	// For charts, oldest first
	ChartDates []time.Time
	ChartCTL   []float64
	ChartATL   []float64
	ChartTSB   []float64
	Forecast   []analysis.LoadEntry

	Weeks []analysis.WeekLoad

	LastSync time.Time // zero when never synced
}

// Dashboard fetches all data needed for the dashboard
func (q *QueryService) Dashboard(ctx context.Context) (*DashboardData, error) {
	data := &DashboardData{FTP: q.athlete.FTP}
	if q.athlete.WeightKG > 0 {
		data.WattsPerKG = q.athlete.FTP / q.athlete.WeightKG
	}

	load, err := q.Fitness(ctx)
	if err != nil {
		return nil, err
	}
	data.CurrentFitness = load.CurrentCTL
	data.CurrentFatigue = load.CurrentATL
	data.CurrentForm = load.CurrentTSB
	data.PeakFitness = load.PeakCTL
	data.FormDescription = analysis.FormDescription(load.CurrentTSB)
	data.Forecast = load.Forecast

	history := load.History
	if len(history) > DashboardChartDays {
		history = history[len(history)-DashboardChartDays:]
	}
	for _, e := range history {
		data.ChartDates = append(data.ChartDates, e.Date)
		data.ChartCTL = append(data.ChartCTL, e.CTL)
		data.ChartATL = append(data.ChartATL, e.ATL)
		data.ChartTSB = append(data.ChartTSB, e.TSB)
	}

	if data.RecentRides, err = q.RecentRides(ctx, RecentRidesLimit); err != nil {
		return nil, fmt.Errorf("loading recent rides: %w", err)
	}
	if data.TotalRides, err = q.store.CountRides(ctx); err != nil {
		return nil, fmt.Errorf("counting rides: %w", err)
	}

	if data.Weeks, err = q.WeeklyLoad(ctx, DashboardWeeks); err != nil {
		return nil, err
	}
	thisWeek := weekOf(q.now())
	for _, w := range data.Weeks {
		if w.WeekStart.Equal(thisWeek) {
			data.WeekTSS = w.TSS
			data.WeekRides = w.Rides
		}
	}

	// A broken sync state only hides the "last synced" line
	data.LastSync, _, _ = q.LastSync(ctx)

	return data, nil
}

// weekOf returns the Monday of the week containing t as a calendar day
func weekOf(t time.Time) time.Time {
	d := analysis.Day(t)
	daysFromMonday := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -daysFromMonday)
}
