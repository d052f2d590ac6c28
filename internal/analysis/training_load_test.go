package analysis

import (
	"math"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDefaultLoadConfig(t *testing.T) {
	cfg := DefaultLoadConfig()

	if cfg.CTLDays != 42 {
		t.Errorf("DefaultLoadConfig().CTLDays = %v, want 42", cfg.CTLDays)
	}
	if cfg.ATLDays != 7 {
		t.Errorf("DefaultLoadConfig().ATLDays = %v, want 7", cfg.ATLDays)
	}
	if cfg.ForecastDays != 30 {
		t.Errorf("DefaultLoadConfig().ForecastDays = %v, want 30", cfg.ForecastDays)
	}
	if (LoadConfig{ATLDays: -1}).withDefaults() != cfg {
		t.Error("non-positive fields should fall back to defaults")
	}
}

func TestSimulateTrainingLoad_Empty(t *testing.T) {
	result := SimulateTrainingLoad(nil, date(2024, 6, 1), DefaultLoadConfig())

	if result.CurrentCTL != 0 || result.CurrentATL != 0 || result.CurrentTSB != 0 || result.PeakCTL != 0 {
		t.Errorf("empty history should give zeros, got %+v", result)
	}
	if result.History == nil || len(result.History) != 0 {
		t.Errorf("History = %v, want empty slice", result.History)
	}
	if result.Forecast == nil || len(result.Forecast) != 0 {
		t.Errorf("Forecast = %v, want empty slice", result.Forecast)
	}
}

func TestSimulateTrainingLoad_SingleRide(t *testing.T) {
	day := date(2024, 6, 1)
	result := SimulateTrainingLoad([]DailyLoad{{Date: day, TSS: 100}}, day, DefaultLoadConfig())

	// CTL = 100/42, ATL = 100/7
	if result.CurrentCTL != 2.4 {
		t.Errorf("CurrentCTL = %v, want 2.4", result.CurrentCTL)
	}
	if result.CurrentATL != 14.3 {
		t.Errorf("CurrentATL = %v, want 14.3", result.CurrentATL)
	}
	if result.CurrentTSB != -11.9 {
		t.Errorf("CurrentTSB = %v, want -11.9", result.CurrentTSB)
	}
	if len(result.History) != 1 {
		t.Fatalf("History has %d days, want 1", len(result.History))
	}
	if result.History[0].TSS != 100 {
		t.Errorf("History[0].TSS = %v, want 100", result.History[0].TSS)
	}
	if len(result.Forecast) != 30 {
		t.Fatalf("Forecast has %d days, want 30", len(result.Forecast))
	}
	if !result.Forecast[0].Date.Equal(date(2024, 6, 2)) {
		t.Errorf("Forecast[0].Date = %v, want 2024-06-02", result.Forecast[0].Date)
	}
	if !result.Forecast[29].Date.Equal(date(2024, 7, 1)) {
		t.Errorf("Forecast[29].Date = %v, want 2024-07-01", result.Forecast[29].Date)
	}
}

func TestSimulateTrainingLoad_GapFilling(t *testing.T) {
	start := date(2024, 1, 1)
	asOf := start.AddDate(0, 0, 10)
	result := SimulateTrainingLoad([]DailyLoad{{Date: start, TSS: 100}}, asOf, DefaultLoadConfig())

	if len(result.History) != 11 {
		t.Fatalf("History has %d days, want 11", len(result.History))
	}
	for i := 1; i < len(result.History); i++ {
		prev, cur := result.History[i-1], result.History[i]
		if !cur.Date.Equal(prev.Date.AddDate(0, 0, 1)) {
			t.Errorf("History[%d].Date = %v, not the day after %v", i, cur.Date, prev.Date)
		}
		if cur.CTL > prev.CTL || cur.ATL > prev.ATL {
			t.Errorf("day %d: load increased without training", i)
		}
	}

	// CTL after 10 rest days = 100/42 * (41/42)^10
	want := 100.0 / 42 * math.Pow(41.0/42, 10)
	if math.Abs(result.CurrentCTL-want) > 0.05 {
		t.Errorf("CurrentCTL = %v, want ~%v", result.CurrentCTL, want)
	}
}

func TestSimulateTrainingLoad_ForecastDecays(t *testing.T) {
	var loads []DailyLoad
	start := date(2024, 3, 1)
	for i := 0; i < 60; i++ {
		loads = append(loads, DailyLoad{Date: start.AddDate(0, 0, i), TSS: 80})
	}
	result := SimulateTrainingLoad(loads, start.AddDate(0, 0, 59), DefaultLoadConfig())

	prevCTL, prevATL := result.CurrentCTL, result.CurrentATL
	for i, f := range result.Forecast {
		if f.CTL > prevCTL || f.ATL > prevATL {
			t.Errorf("Forecast[%d] increased: CTL %v -> %v, ATL %v -> %v", i, prevCTL, f.CTL, prevATL, f.ATL)
		}
		if f.TSS != 0 {
			t.Errorf("Forecast[%d].TSS = %v, want 0", i, f.TSS)
		}
		prevCTL, prevATL = f.CTL, f.ATL
	}

	last := result.Forecast[len(result.Forecast)-1]
	if last.TSB <= result.CurrentTSB {
		t.Errorf("form should recover with rest: TSB %v -> %v", result.CurrentTSB, last.TSB)
	}
}

func TestSimulateTrainingLoad_PeakTracking(t *testing.T) {
	var loads []DailyLoad
	start := date(2024, 1, 1)
	for i := 0; i < 30; i++ {
		loads = append(loads, DailyLoad{Date: start.AddDate(0, 0, i), TSS: 120})
	}
	result := SimulateTrainingLoad(loads, start.AddDate(0, 0, 60), DefaultLoadConfig())

	var maxCTL float64
	for _, h := range result.History {
		if h.CTL > maxCTL {
			maxCTL = h.CTL
		}
	}
	if result.PeakCTL != maxCTL {
		t.Errorf("PeakCTL = %v, want history max %v", result.PeakCTL, maxCTL)
	}
	if result.PeakCTL <= result.CurrentCTL {
		t.Errorf("PeakCTL %v should exceed CurrentCTL %v after a month off", result.PeakCTL, result.CurrentCTL)
	}
	if !result.History[len(result.History)-1].Date.Equal(start.AddDate(0, 0, 60)) {
		t.Errorf("History should end at asOf")
	}
}

func TestSimulateTrainingLoad_SameDayRidesSum(t *testing.T) {
	day := time.Date(2024, 5, 5, 7, 0, 0, 0, time.UTC)
	split := SimulateTrainingLoad([]DailyLoad{
		{Date: day, TSS: 60},
		{Date: day.Add(9 * time.Hour), TSS: 40},
	}, day, DefaultLoadConfig())
	single := SimulateTrainingLoad([]DailyLoad{{Date: day, TSS: 100}}, day, DefaultLoadConfig())

	if split.CurrentCTL != single.CurrentCTL || split.CurrentATL != single.CurrentATL {
		t.Errorf("two rides = %+v, one ride = %+v", split, single)
	}
	if len(split.History) != 1 {
		t.Errorf("History has %d days, want 1", len(split.History))
	}
}

func TestSimulateTrainingLoad_AsOfBeforeLastRide(t *testing.T) {
	loads := []DailyLoad{
		{Date: date(2024, 2, 10), TSS: 50},
		{Date: date(2024, 2, 1), TSS: 50},
	}
	result := SimulateTrainingLoad(loads, date(2024, 2, 5), DefaultLoadConfig())

	if len(result.History) != 10 {
		t.Fatalf("History has %d days, want 10", len(result.History))
	}
	if !result.History[0].Date.Equal(date(2024, 2, 1)) {
		t.Errorf("History should start at the earliest ride, got %v", result.History[0].Date)
	}
}

func TestSimulateTrainingLoad_CustomConfig(t *testing.T) {
	day := date(2024, 6, 1)
	cfg := LoadConfig{CTLDays: 10, ATLDays: 2, ForecastDays: 5}
	result := SimulateTrainingLoad([]DailyLoad{{Date: day, TSS: 100}}, day, cfg)

	if result.CurrentCTL != 10 {
		t.Errorf("CurrentCTL = %v, want 10", result.CurrentCTL)
	}
	if result.CurrentATL != 50 {
		t.Errorf("CurrentATL = %v, want 50", result.CurrentATL)
	}
	if len(result.Forecast) != 5 {
		t.Errorf("Forecast has %d days, want 5", len(result.Forecast))
	}
}

func TestDay(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	late := time.Date(2024, 3, 10, 23, 30, 0, 0, est)

	if got := Day(late); !got.Equal(date(2024, 3, 10)) {
		t.Errorf("Day() = %v, want 2024-03-10 UTC", got)
	}
	if got := DayKey(late); got != "2024-03-10" {
		t.Errorf("DayKey() = %q, want 2024-03-10", got)
	}
}

func TestAggregateDaily(t *testing.T) {
	totals := AggregateDaily([]DailyLoad{
		{Date: time.Date(2024, 4, 1, 6, 0, 0, 0, time.UTC), TSS: 40},
		{Date: time.Date(2024, 4, 1, 18, 0, 0, 0, time.UTC), TSS: 35.5},
		{Date: time.Date(2024, 4, 3, 6, 0, 0, 0, time.UTC), TSS: 90},
	})

	if len(totals) != 2 {
		t.Fatalf("AggregateDaily() has %d days, want 2", len(totals))
	}
	if totals["2024-04-01"] != 75.5 {
		t.Errorf("2024-04-01 = %v, want 75.5", totals["2024-04-01"])
	}
	if totals["2024-04-03"] != 90 {
		t.Errorf("2024-04-03 = %v, want 90", totals["2024-04-03"])
	}
}

func TestWeeklyTSS(t *testing.T) {
	// 2024-01-01 is a Monday
	loads := []DailyLoad{
		{Date: date(2024, 1, 1), TSS: 50},
		{Date: date(2024, 1, 3), TSS: 70},
		{Date: date(2024, 1, 8), TSS: 100},
		{Date: date(2023, 12, 1), TSS: 500}, // outside the window
	}
	weeks := WeeklyTSS(loads, 2)

	if len(weeks) != 2 {
		t.Fatalf("WeeklyTSS() returned %d weeks, want 2", len(weeks))
	}
	if !weeks[0].WeekStart.Equal(date(2024, 1, 8)) || weeks[0].TSS != 100 || weeks[0].Rides != 1 {
		t.Errorf("weeks[0] = %+v, want week of 2024-01-08 with 100 TSS in 1 ride", weeks[0])
	}
	if !weeks[1].WeekStart.Equal(date(2024, 1, 1)) || weeks[1].TSS != 120 || weeks[1].Rides != 2 {
		t.Errorf("weeks[1] = %+v, want week of 2024-01-01 with 120 TSS in 2 rides", weeks[1])
	}

	if got := WeeklyTSS(nil, 4); got != nil {
		t.Errorf("WeeklyTSS(nil) = %v, want nil", got)
	}
}

func TestTrainedWeeks(t *testing.T) {
	loads := []DailyLoad{
		{Date: date(2024, 1, 1), TSS: 50},
		{Date: date(2024, 1, 3), TSS: 70},
		{Date: date(2024, 1, 22), TSS: 100}, // two empty weeks before this one
		{Date: date(2023, 12, 1), TSS: 500},
		{Date: date(2023, 11, 1), TSS: 40},
	}
	weeks := TrainedWeeks(loads, 3)

	want := []struct {
		start time.Time
		tss   float64
		rides int
	}{
		{date(2024, 1, 22), 100, 1},
		{date(2024, 1, 1), 120, 2},
		{date(2023, 11, 27), 500, 1},
	}
	if len(weeks) != len(want) {
		t.Fatalf("TrainedWeeks() returned %d weeks, want %d", len(weeks), len(want))
	}
	for i, w := range want {
		if !weeks[i].WeekStart.Equal(w.start) || weeks[i].TSS != w.tss || weeks[i].Rides != w.rides {
			t.Errorf("weeks[%d] = %+v, want week of %s with %v TSS in %d rides", i, weeks[i], w.start.Format(dayKeyFormat), w.tss, w.rides)
		}
	}

	if got := TrainedWeeks(nil, 4); len(got) != 0 {
		t.Errorf("TrainedWeeks(nil) = %v, want empty", got)
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		day      time.Time
		expected time.Time
	}{
		{date(2024, 1, 1), date(2024, 1, 1)},
		{date(2024, 1, 7), date(2024, 1, 1)}, // Sunday
		{date(2024, 1, 10), date(2024, 1, 8)},
	}
	for _, tt := range tests {
		if got := weekStart(tt.day); !got.Equal(tt.expected) {
			t.Errorf("weekStart(%v) = %v, want %v", tt.day, got, tt.expected)
		}
	}
}
