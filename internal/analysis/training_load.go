package analysis

import (
	"sort"
	"time"
)

const dayKeyFormat = "2006-01-02"

// LoadConfig holds the time constants of the fitness model
type LoadConfig struct {
	CTLDays      float64 // Chronic Training Load time constant - "Fitness"
	ATLDays      float64 // Acute Training Load time constant - "Fatigue"
	ForecastDays int     // zero-load days projected past the last day
}

// DefaultLoadConfig returns the standard 42/7 day model with a 30 day forecast
func DefaultLoadConfig() LoadConfig {
	return LoadConfig{
		CTLDays:      42,
		ATLDays:      7,
		ForecastDays: 30,
	}
}

// withDefaults replaces non-positive fields with the defaults
func (c LoadConfig) withDefaults() LoadConfig {
	def := DefaultLoadConfig()
	if c.CTLDays <= 0 {
		c.CTLDays = def.CTLDays
	}
	if c.ATLDays <= 0 {
		c.ATLDays = def.ATLDays
	}
	if c.ForecastDays <= 0 {
		c.ForecastDays = def.ForecastDays
	}
	return c
}

// DailyLoad represents training stress for a single day (or a single ride
// on that day; rides on the same day are summed)
type DailyLoad struct {
	Date time.Time
	TSS  float64
}

// LoadEntry represents CTL/ATL/TSB at the end of a day
type LoadEntry struct {
	Date time.Time
	TSS  float64 // stress applied that day, 0 on rest and forecast days
	CTL  float64
	ATL  float64
	TSB  float64 // Training Stress Balance (CTL - ATL) - "Form"
}

// TrainingLoad is the full simulation result
type TrainingLoad struct {
	CurrentCTL float64
	CurrentATL float64
	CurrentTSB float64
	PeakCTL    float64
	History    []LoadEntry
	Forecast   []LoadEntry
}

// Day returns the calendar date of t as UTC midnight
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey returns the map key used for a calendar day
func DayKey(t time.Time) string {
	return Day(t).Format(dayKeyFormat)
}

// AggregateDaily sums TSS per calendar day
func AggregateDaily(loads []DailyLoad) map[string]float64 {
	totals := make(map[string]float64, len(loads))
	for _, l := range loads {
		totals[DayKey(l.Date)] += l.TSS
	}
	return totals
}

// SimulateTrainingLoad walks every day from the first ride to asOf (or the
// last ride, whichever is later), applying each day's TSS to the CTL and
// ATL averages. Days without rides decay both with zero load. A forecast
// of cfg.ForecastDays further zero-load days follows.
func SimulateTrainingLoad(loads []DailyLoad, asOf time.Time, cfg LoadConfig) TrainingLoad {
	cfg = cfg.withDefaults()
	if len(loads) == 0 {
		return TrainingLoad{
			History:  []LoadEntry{},
			Forecast: []LoadEntry{},
		}
	}

	sorted := make([]DailyLoad, len(loads))
	copy(sorted, loads)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	daily := AggregateDaily(sorted)
	startDate := Day(sorted[0].Date)
	endDate := Day(sorted[len(sorted)-1].Date)
	if today := Day(asOf); today.After(endDate) {
		endDate = today
	}

	var ctl, atl, peak float64
	history := make([]LoadEntry, 0, int(endDate.Sub(startDate).Hours()/24)+1)

	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		tss := daily[d.Format(dayKeyFormat)] // 0 if no ride
		ctl, atl = step(ctl, atl, tss, cfg)
		if ctl > peak {
			peak = ctl
		}
		history = append(history, entry(d, tss, ctl, atl))
	}

	return TrainingLoad{
		CurrentCTL: round(ctl, 1),
		CurrentATL: round(atl, 1),
		CurrentTSB: round(ctl-atl, 1),
		PeakCTL:    round(peak, 1),
		History:    history,
		Forecast:   ProjectLoad(ctl, atl, endDate, cfg),
	}
}

// ProjectLoad projects CTL/ATL forward from a day with no further training,
// dated from the day after from. Pass unrounded values for continuity with
// a simulated history.
func ProjectLoad(ctl, atl float64, from time.Time, cfg LoadConfig) []LoadEntry {
	cfg = cfg.withDefaults()
	forecast := make([]LoadEntry, 0, cfg.ForecastDays)
	d := Day(from)
	for i := 0; i < cfg.ForecastDays; i++ {
		d = d.AddDate(0, 0, 1)
		ctl, atl = step(ctl, atl, 0, cfg)
		forecast = append(forecast, entry(d, 0, ctl, atl))
	}
	return forecast
}

// step applies one day of load to both exponentially weighted averages
func step(ctl, atl, tss float64, cfg LoadConfig) (float64, float64) {
	ctl += (tss - ctl) / cfg.CTLDays
	atl += (tss - atl) / cfg.ATLDays
	return ctl, atl
}

func entry(d time.Time, tss, ctl, atl float64) LoadEntry {
	return LoadEntry{
		Date: d,
		TSS:  round(tss, 1),
		CTL:  round(ctl, 1),
		ATL:  round(atl, 1),
		TSB:  round(ctl-atl, 1),
	}
}

// WeekLoad is the training stress of one Monday-start week
type WeekLoad struct {
	WeekStart time.Time
	TSS       float64
	Rides     int
}

// WeeklyTSS sums TSS into the most recent weeks, newest first.
// Weeks are anchored on the week of the latest load.
func WeeklyTSS(loads []DailyLoad, weeks int) []WeekLoad {
	if len(loads) == 0 || weeks <= 0 {
		return nil
	}

	latest := loads[0].Date
	for _, l := range loads[1:] {
		if l.Date.After(latest) {
			latest = l.Date
		}
	}

	current := weekStart(latest)
	out := make([]WeekLoad, weeks)
	index := make(map[string]int, weeks)
	for i := range out {
		start := current.AddDate(0, 0, -7*i)
		out[i].WeekStart = start
		index[start.Format(dayKeyFormat)] = i
	}

	for _, l := range loads {
		i, ok := index[weekStart(l.Date).Format(dayKeyFormat)]
		if !ok {
			continue
		}
		out[i].TSS += l.TSS
		out[i].Rides++
	}
	for i := range out {
		out[i].TSS = round(out[i].TSS, 1)
	}
	return out
}

// TrainedWeeks returns the n most recent weeks with at least one load,
// newest first. Weeks without training are skipped.
func TrainedWeeks(loads []DailyLoad, n int) []WeekLoad {
	if n <= 0 {
		return nil
	}

	byWeek := make(map[string]*WeekLoad)
	for _, l := range loads {
		start := weekStart(l.Date)
		key := start.Format(dayKeyFormat)
		w, ok := byWeek[key]
		if !ok {
			w = &WeekLoad{WeekStart: start}
			byWeek[key] = w
		}
		w.TSS += l.TSS
		w.Rides++
	}

	out := make([]WeekLoad, 0, len(byWeek))
	for _, w := range byWeek {
		w.TSS = round(w.TSS, 1)
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// weekStart returns the Monday of t's week
func weekStart(t time.Time) time.Time {
	d := Day(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -offset)
}
