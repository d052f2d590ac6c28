package analysis

import (
	"math"
	"testing"
)

func TestComputeRideMetrics(t *testing.T) {
	tests := []struct {
		name    string
		input   RideInput
		checkFn func(t *testing.T, m RideMetrics)
	}{
		{
			name: "one hour at FTP from average power",
			input: RideInput{
				DurationSeconds: 3600,
				AvgPower:        200,
				FTP:             200,
			},
			checkFn: func(t *testing.T, m RideMetrics) {
				if m.NormalizedPower != 200 {
					t.Errorf("NormalizedPower = %v, want 200", m.NormalizedPower)
				}
				if m.NPSource != NPFromAverage {
					t.Errorf("NPSource = %v, want %v", m.NPSource, NPFromAverage)
				}
				if m.IntensityFactor != 1.0 {
					t.Errorf("IntensityFactor = %v, want 1.0", m.IntensityFactor)
				}
				if m.TSS != 100.0 {
					t.Errorf("TSS = %v, want 100.0", m.TSS)
				}
				if m.VariabilityIndex != 1.0 {
					t.Errorf("VariabilityIndex = %v, want 1.0", m.VariabilityIndex)
				}
				if m.IntensityLabel != "Threshold" {
					t.Errorf("IntensityLabel = %q, want Threshold", m.IntensityLabel)
				}
				if m.RecoveryLabel != "Low — recovery within 24h" {
					t.Errorf("RecoveryLabel = %q", m.RecoveryLabel)
				}
				if m.DurationFormatted != "1:00:00" {
					t.Errorf("DurationFormatted = %q, want 1:00:00", m.DurationFormatted)
				}
				if m.AvgHeartRate != nil || m.EfficiencyFactor != nil {
					t.Error("heart rate metrics should be nil without heart rate")
				}
			},
		},
		{
			name: "heart rate adds efficiency factor",
			input: RideInput{
				DurationSeconds: 3600,
				AvgPower:        200,
				FTP:             250,
				AvgHeartRate:    floatPtr(150),
			},
			checkFn: func(t *testing.T, m RideMetrics) {
				if m.AvgHeartRate == nil || *m.AvgHeartRate != 150 {
					t.Fatalf("AvgHeartRate = %v, want 150", m.AvgHeartRate)
				}
				if m.EfficiencyFactor == nil || *m.EfficiencyFactor != 1.33 {
					t.Errorf("EfficiencyFactor = %v, want 1.33", m.EfficiencyFactor)
				}
			},
		},
		{
			name: "zero heart rate is treated as missing",
			input: RideInput{
				DurationSeconds: 1800,
				AvgPower:        180,
				FTP:             250,
				AvgHeartRate:    floatPtr(0),
			},
			checkFn: func(t *testing.T, m RideMetrics) {
				if m.AvgHeartRate != nil || m.EfficiencyFactor != nil {
					t.Error("heart rate metrics should be nil for zero heart rate")
				}
			},
		},
		{
			name: "no FTP degrades to zero",
			input: RideInput{
				DurationSeconds: 3600,
				AvgPower:        200,
			},
			checkFn: func(t *testing.T, m RideMetrics) {
				if m.IntensityFactor != 0 || m.TSS != 0 {
					t.Errorf("IF/TSS = %v/%v, want 0/0", m.IntensityFactor, m.TSS)
				}
				if m.IntensityLabel != "Recovery" {
					t.Errorf("IntensityLabel = %q, want Recovery", m.IntensityLabel)
				}
			},
		},
		{
			name: "supplied NP raises VI",
			input: RideInput{
				DurationSeconds: 5400,
				AvgPower:        200,
				FTP:             280,
				NormalizedPower: floatPtr(230),
			},
			checkFn: func(t *testing.T, m RideMetrics) {
				if m.NPSource != NPSupplied {
					t.Errorf("NPSource = %v, want %v", m.NPSource, NPSupplied)
				}
				if m.VariabilityIndex != 1.15 {
					t.Errorf("VariabilityIndex = %v, want 1.15", m.VariabilityIndex)
				}
				// IF = 230/280 = 0.821, TSS = 5400*230*0.821/(280*3600)*100 = 101.2
				if math.Abs(m.TSS-101.2) > 0.1 {
					t.Errorf("TSS = %v, want ~101.2", m.TSS)
				}
				if m.IntensityLabel != "Endurance" {
					t.Errorf("IntensityLabel = %q, want Endurance", m.IntensityLabel)
				}
			},
		},
		{
			name: "avg power rounded to 1 decimal",
			input: RideInput{
				DurationSeconds: 600,
				AvgPower:        187.46,
				FTP:             250,
			},
			checkFn: func(t *testing.T, m RideMetrics) {
				if m.AvgPower != 187.5 {
					t.Errorf("AvgPower = %v, want 187.5", m.AvgPower)
				}
				if m.DurationFormatted != "10:00" {
					t.Errorf("DurationFormatted = %q, want 10:00", m.DurationFormatted)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checkFn(t, ComputeRideMetrics(tt.input))
		})
	}
}

func TestResolveNP(t *testing.T) {
	tests := []struct {
		name       string
		input      RideInput
		expectedNP float64
		source     NPSource
	}{
		{
			name: "samples win over supplied NP",
			input: RideInput{
				AvgPower:        150,
				NormalizedPower: floatPtr(300),
				PowerSamples:    constantPower(210, 60),
			},
			expectedNP: 210,
			source:     NPFromSamples,
		},
		{
			name: "too few samples falls back to supplied NP",
			input: RideInput{
				AvgPower:        150,
				NormalizedPower: floatPtr(175.5),
				PowerSamples:    constantPower(210, 29),
			},
			expectedNP: 175.5,
			source:     NPSupplied,
		},
		{
			name: "supplied zero NP falls back to average",
			input: RideInput{
				AvgPower:        150,
				NormalizedPower: floatPtr(0),
			},
			expectedNP: 150,
			source:     NPFromAverage,
		},
		{
			name: "too few samples and no NP uses average",
			input: RideInput{
				AvgPower:     150,
				PowerSamples: constantPower(400, 10),
			},
			expectedNP: 150,
			source:     NPFromAverage,
		},
		{
			name: "supplied NP used verbatim",
			input: RideInput{
				AvgPower:        150,
				NormalizedPower: floatPtr(201.234),
			},
			expectedNP: 201.234,
			source:     NPSupplied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			np, source := ResolveNP(tt.input)
			if np != tt.expectedNP {
				t.Errorf("ResolveNP() np = %v, want %v", np, tt.expectedNP)
			}
			if source != tt.source {
				t.Errorf("ResolveNP() source = %v, want %v", source, tt.source)
			}
		})
	}
}

func TestNPSourceString(t *testing.T) {
	tests := map[NPSource]string{
		NPFromSamples: "samples",
		NPSupplied:    "supplied",
		NPFromAverage: "average",
	}
	for source, want := range tests {
		if got := source.String(); got != want {
			t.Errorf("NPSource(%d).String() = %q, want %q", source, got, want)
		}
	}
}

func TestComputeRideMetrics_AveragePowerTie(t *testing.T) {
	m := ComputeRideMetrics(RideInput{DurationSeconds: 3600, AvgPower: 200.25, FTP: 250})

	if m.AvgPower != 200.2 {
		t.Errorf("AvgPower = %v, want 200.2", m.AvgPower)
	}
	if m.NPSource != NPFromAverage {
		t.Errorf("NPSource = %v, want %v", m.NPSource, NPFromAverage)
	}
}
