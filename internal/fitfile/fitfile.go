// Package fitfile decodes Garmin FIT activity files into ride summaries
// and fixed-cadence power and heart rate samples.
package fitfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/tormoder/fit"
)

// MaxGapFillSeconds is the longest recording gap that is back-filled with
// the previous sample. Longer gaps are treated as pauses.
const MaxGapFillSeconds = 30

var (
	ErrNoSession = errors.New("fit: activity has no session message")
	ErrNoPower   = errors.New("fit: no power data")
)

// Sample is one recorded point. HeartRate is 0 when not recorded.
type Sample struct {
	Offset    int // seconds since the first record
	Power     float64
	HeartRate float64
}

// Activity is the decoded content of a FIT activity file
type Activity struct {
	StartTime       time.Time
	Sport           string
	Manufacturer    string
	DurationSeconds int
	DistanceKM      *float64
	ElevationGainM  *float64
	AvgSpeedKMH     *float64
	AvgCadence      *float64
	AvgPower        float64
	MaxPower        *float64
	NormalizedPower *float64 // device-computed, when present
	AvgHeartRate    *float64
	MaxHeartRate    *float64
	IntervalSeconds int
	Samples         []Sample
}

// PowerSeries returns the power samples in order
func (a *Activity) PowerSeries() []float64 {
	out := make([]float64, len(a.Samples))
	for i, s := range a.Samples {
		out[i] = s.Power
	}
	return out
}

// HeartRateSeries returns the heart rate samples aligned with PowerSeries
func (a *Activity) HeartRateSeries() []float64 {
	out := make([]float64, len(a.Samples))
	for i, s := range a.Samples {
		out[i] = s.HeartRate
	}
	return out
}

// DecodeFile decodes the FIT file at path
func DecodeFile(path string) (*Activity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads a FIT activity. It fails with ErrNoSession when the file
// carries no session summary and ErrNoPower when no record has power.
func Decode(r io.Reader) (*Activity, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}

	file, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}
	if len(file.Sessions) == 0 {
		return nil, ErrNoSession
	}

	a := fromSession(file.Sessions[0])
	if m := decoded.FileId.Manufacturer; uint16(m) != math.MaxUint16 {
		a.Manufacturer = fmt.Sprint(m)
	}

	points := collectPoints(file.Records)
	a.IntervalSeconds = medianStep(points)
	a.Samples = resample(points, a.IntervalSeconds)

	if !hasPower(a.Samples) {
		return nil, ErrNoPower
	}
	fillFromSamples(a, points)

	return a, nil
}

func fromSession(s *fit.SessionMsg) *Activity {
	a := &Activity{
		StartTime: validTime(s.StartTime),
		Sport:     fmt.Sprint(s.Sport),
	}

	if v, ok := positive(s.GetTotalTimerTimeScaled()); ok {
		a.DurationSeconds = int(v)
	}
	if v, ok := positive(s.GetTotalDistanceScaled()); ok {
		a.DistanceKM = ptr(math.Round(v/1000*100) / 100)
	}
	if s.TotalAscent != math.MaxUint16 && s.TotalAscent > 0 {
		a.ElevationGainM = ptr(float64(s.TotalAscent))
	}
	speed, ok := positive(s.GetEnhancedAvgSpeedScaled())
	if !ok {
		speed, ok = positive(s.GetAvgSpeedScaled())
	}
	if ok {
		a.AvgSpeedKMH = ptr(math.Round(speed*3.6*10) / 10)
	}
	if s.AvgCadence != math.MaxUint8 && s.AvgCadence > 0 {
		a.AvgCadence = ptr(float64(s.AvgCadence))
	}

	if s.AvgPower != math.MaxUint16 {
		a.AvgPower = float64(s.AvgPower)
	}
	if s.MaxPower != math.MaxUint16 && s.MaxPower > 0 {
		a.MaxPower = ptr(float64(s.MaxPower))
	}
	if s.NormalizedPower != math.MaxUint16 && s.NormalizedPower > 0 {
		a.NormalizedPower = ptr(float64(s.NormalizedPower))
	}
	if s.AvgHeartRate != math.MaxUint8 && s.AvgHeartRate > 0 {
		a.AvgHeartRate = ptr(float64(s.AvgHeartRate))
	}
	if s.MaxHeartRate != math.MaxUint8 && s.MaxHeartRate > 0 {
		a.MaxHeartRate = ptr(float64(s.MaxHeartRate))
	}
	return a
}

// fillFromSamples derives the totals a device left out of the session
func fillFromSamples(a *Activity, points []point) {
	if a.StartTime.IsZero() && len(points) > 0 {
		a.StartTime = points[0].ts
	}
	if a.DurationSeconds == 0 && len(points) > 1 {
		a.DurationSeconds = int(points[len(points)-1].ts.Sub(points[0].ts).Seconds())
	}

	var (
		powerSum, maxPower float64
		powerN             int
		hrSum, maxHR       float64
		hrN                int
	)
	for _, s := range a.Samples {
		if s.Power > 0 {
			powerSum += s.Power
			powerN++
		}
		maxPower = math.Max(maxPower, s.Power)
		if s.HeartRate > 0 {
			hrSum += s.HeartRate
			hrN++
		}
		maxHR = math.Max(maxHR, s.HeartRate)
	}

	if a.AvgPower == 0 && powerN > 0 {
		a.AvgPower = math.Round(powerSum/float64(powerN)*10) / 10
	}
	if a.MaxPower == nil {
		a.MaxPower = ptr(maxPower)
	}
	if a.AvgHeartRate == nil && hrN > 0 {
		a.AvgHeartRate = ptr(math.Round(hrSum/float64(hrN)*10) / 10)
	}
	if a.MaxHeartRate == nil && maxHR > 0 {
		a.MaxHeartRate = ptr(maxHR)
	}
}

type point struct {
	ts    time.Time
	power float64
	hr    float64
}

// collectPoints keeps timestamped records in time order. Invalid power
// reads as 0 so the series stays aligned with time.
func collectPoints(records []*fit.RecordMsg) []point {
	points := make([]point, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		ts := validTime(rec.Timestamp)
		if ts.IsZero() {
			continue
		}
		p := point{ts: ts}
		if rec.Power != math.MaxUint16 {
			p.power = float64(rec.Power)
		}
		if rec.HeartRate != math.MaxUint8 {
			p.hr = float64(rec.HeartRate)
		}
		points = append(points, p)
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].ts.Before(points[j].ts)
	})
	return points
}

// medianStep is the typical spacing between records, at least one second
func medianStep(points []point) int {
	var steps []int
	for i := 1; i < len(points); i++ {
		if d := int(points[i].ts.Sub(points[i-1].ts).Seconds()); d > 0 {
			steps = append(steps, d)
		}
	}
	if len(steps) == 0 {
		return 1
	}
	sort.Ints(steps)
	return max(1, steps[len(steps)/2])
}

// resample converts points to samples spaced by interval, repeating the
// previous sample across short dropouts
func resample(points []point, interval int) []Sample {
	if len(points) == 0 {
		return nil
	}

	start := points[0].ts
	samples := make([]Sample, 0, len(points))
	for i, p := range points {
		offset := int(p.ts.Sub(start).Seconds())
		if i > 0 {
			prev := samples[len(samples)-1]
			gap := offset - prev.Offset
			if gap == 0 {
				continue
			}
			if gap > interval && gap <= MaxGapFillSeconds {
				for t := prev.Offset + interval; t < offset; t += interval {
					filled := prev
					filled.Offset = t
					samples = append(samples, filled)
				}
			}
		}
		samples = append(samples, Sample{Offset: offset, Power: p.power, HeartRate: p.hr})
	}
	return samples
}

func hasPower(samples []Sample) bool {
	for _, s := range samples {
		if s.Power > 0 {
			return true
		}
	}
	return false
}

func validTime(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t.UTC()
}

func positive(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

func ptr(v float64) *float64 { return &v }
