package fitfile

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tormoder/fit"
)

var rideStart = time.Date(2024, 6, 2, 7, 30, 0, 0, time.UTC)

type recordSpec struct {
	offset int
	power  uint16
	hr     uint8
}

func steadyRecords(n int, power uint16, hr uint8) []recordSpec {
	out := make([]recordSpec, n)
	for i := range out {
		out[i] = recordSpec{offset: i, power: power, hr: hr}
	}
	return out
}

func buildFIT(t *testing.T, withSession bool, records []recordSpec) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	require.NoError(t, err)

	activity, err := file.Activity()
	require.NoError(t, err)

	if withSession {
		s := fit.NewSessionMsg()
		s.Timestamp = rideStart.Add(time.Hour)
		s.StartTime = rideStart
		s.Sport = fit.SportCycling
		s.TotalTimerTime = 3600 * 1000
		s.TotalDistance = 3550000 // 35.5 km, scale 100
		s.TotalAscent = 420
		s.AvgPower = 205
		s.NormalizedPower = 218
		s.AvgHeartRate = 142
		s.MaxHeartRate = 171
		s.AvgCadence = 88
		activity.Sessions = append(activity.Sessions, s)
	}

	for _, r := range records {
		rec := fit.NewRecordMsg()
		rec.Timestamp = rideStart.Add(time.Duration(r.offset) * time.Second)
		if r.power > 0 {
			rec.Power = r.power
		}
		if r.hr > 0 {
			rec.HeartRate = r.hr
		}
		activity.Records = append(activity.Records, rec)
	}

	var buf bytes.Buffer
	require.NoError(t, fit.Encode(&buf, file, binary.LittleEndian))
	return buf.Bytes()
}

func TestDecode_SessionTotals(t *testing.T) {
	data := buildFIT(t, true, steadyRecords(60, 200, 140))

	a, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)

	assert.True(t, a.StartTime.Equal(rideStart))
	assert.Equal(t, 3600, a.DurationSeconds)
	assert.Equal(t, 205.0, a.AvgPower)
	require.NotNil(t, a.NormalizedPower)
	assert.Equal(t, 218.0, *a.NormalizedPower)
	require.NotNil(t, a.DistanceKM)
	assert.InDelta(t, 35.5, *a.DistanceKM, 0.001)
	require.NotNil(t, a.ElevationGainM)
	assert.Equal(t, 420.0, *a.ElevationGainM)
	require.NotNil(t, a.AvgHeartRate)
	assert.Equal(t, 142.0, *a.AvgHeartRate)
	require.NotNil(t, a.AvgCadence)
	assert.Equal(t, 88.0, *a.AvgCadence)

	assert.Equal(t, 1, a.IntervalSeconds)
	assert.Len(t, a.Samples, 60)
	assert.Equal(t, 200.0, a.PowerSeries()[10])
	assert.Equal(t, 140.0, a.HeartRateSeries()[10])
}

func TestDecode_BackfillsShortGaps(t *testing.T) {
	var records []recordSpec
	for i := 0; i < 20; i++ {
		records = append(records, recordSpec{offset: i, power: 180, hr: 130})
	}
	// 5 s dropout, then a 2 minute pause
	records = append(records, recordSpec{offset: 25, power: 250, hr: 135})
	records = append(records, recordSpec{offset: 145, power: 190, hr: 128})

	a, err := Decode(bytes.NewReader(buildFIT(t, true, records)))
	require.NoError(t, err)

	// 20 originals + 5 filled + 2
	require.Len(t, a.Samples, 27)
	for i := 20; i < 25; i++ {
		assert.Equal(t, i, a.Samples[i].Offset)
		assert.Equal(t, 180.0, a.Samples[i].Power, "filled sample %d", i)
	}
	assert.Equal(t, 250.0, a.Samples[25].Power)
	assert.Equal(t, 145, a.Samples[26].Offset)
}

func TestDecode_SparseRecordingInterval(t *testing.T) {
	var records []recordSpec
	for i := 0; i < 40; i++ {
		records = append(records, recordSpec{offset: i * 5, power: 220})
	}

	a, err := Decode(bytes.NewReader(buildFIT(t, true, records)))
	require.NoError(t, err)
	assert.Equal(t, 5, a.IntervalSeconds)
	assert.Len(t, a.Samples, 40)
}

func TestDecode_FallsBackToRecords(t *testing.T) {
	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	require.NoError(t, err)
	activity, err := file.Activity()
	require.NoError(t, err)

	s := fit.NewSessionMsg()
	s.Timestamp = rideStart
	s.Sport = fit.SportCycling
	activity.Sessions = append(activity.Sessions, s)

	for i, p := range []uint16{100, 0, 300, 200} {
		rec := fit.NewRecordMsg()
		rec.Timestamp = rideStart.Add(time.Duration(i) * time.Second)
		rec.Power = p
		rec.HeartRate = 150
		activity.Records = append(activity.Records, rec)
	}

	var buf bytes.Buffer
	require.NoError(t, fit.Encode(&buf, file, binary.LittleEndian))

	a, err := Decode(&buf)
	require.NoError(t, err)

	assert.True(t, a.StartTime.Equal(rideStart))
	assert.Equal(t, 3, a.DurationSeconds)
	assert.Equal(t, 200.0, a.AvgPower) // zeros excluded
	require.NotNil(t, a.MaxPower)
	assert.Equal(t, 300.0, *a.MaxPower)
	require.NotNil(t, a.AvgHeartRate)
	assert.Equal(t, 150.0, *a.AvgHeartRate)
	assert.Nil(t, a.NormalizedPower)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(bytes.NewReader(buildFIT(t, false, steadyRecords(10, 200, 0))))
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = Decode(bytes.NewReader(buildFIT(t, true, steadyRecords(10, 0, 120))))
	assert.ErrorIs(t, err, ErrNoPower)

	_, err = Decode(bytes.NewReader([]byte("not a fit file")))
	assert.Error(t, err)
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ride.fit")
	require.NoError(t, os.WriteFile(path, buildFIT(t, true, steadyRecords(30, 250, 0)), 0o644))

	a, err := DecodeFile(path)
	require.NoError(t, err)
	assert.Len(t, a.Samples, 30)
	for _, hr := range a.HeartRateSeries() {
		assert.Zero(t, hr)
	}

	_, err = DecodeFile(filepath.Join(t.TempDir(), "missing.fit"))
	assert.Error(t, err)
}

func TestMedianStep(t *testing.T) {
	pts := func(offsets ...int) []point {
		out := make([]point, len(offsets))
		for i, o := range offsets {
			out[i] = point{ts: rideStart.Add(time.Duration(o) * time.Second)}
		}
		return out
	}

	assert.Equal(t, 1, medianStep(nil))
	assert.Equal(t, 1, medianStep(pts(0)))
	assert.Equal(t, 1, medianStep(pts(0, 1, 2, 3, 60)))
	assert.Equal(t, 2, medianStep(pts(0, 2, 4, 6, 7)))
}
