package analysis

import "testing"

func TestEstimateFTP(t *testing.T) {
	tests := []struct {
		name     string
		rides    []FTPCandidate
		expected float64 // 0 means no estimate
		method   string
	}{
		{
			name:   "no rides",
			rides:  nil,
			method: MethodNoData,
		},
		{
			name: "rides without NP",
			rides: []FTPCandidate{
				{DurationSeconds: 3600, NormalizedPower: 0},
			},
			method: MethodNoData,
		},
		{
			name: "long ride uses 95%",
			rides: []FTPCandidate{
				{DurationSeconds: 3600, NormalizedPower: 300},
				{DurationSeconds: 5400, NormalizedPower: 220},
			},
			expected: 285,
			method:   MethodLongRide,
		},
		{
			name: "exactly 40 minutes counts as long",
			rides: []FTPCandidate{
				{DurationSeconds: 2400, NormalizedPower: 260},
			},
			expected: 247,
			method:   MethodLongRide,
		},
		{
			name: "long ride preferred over harder short ride",
			rides: []FTPCandidate{
				{DurationSeconds: 1200, NormalizedPower: 320},
				{DurationSeconds: 4000, NormalizedPower: 260},
			},
			expected: 247,
			method:   MethodLongRide,
		},
		{
			name: "short rides only use 90%",
			rides: []FTPCandidate{
				{DurationSeconds: 1800, NormalizedPower: 300},
				{DurationSeconds: 900, NormalizedPower: 250},
			},
			expected: 270,
			method:   MethodShortRide,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EstimateFTP(tt.rides)
			if result.Method != tt.method {
				t.Errorf("Method = %q, want %q", result.Method, tt.method)
			}
			if tt.expected == 0 {
				if result.Watts != nil {
					t.Errorf("Watts = %v, want nil", *result.Watts)
				}
				return
			}
			if result.Watts == nil || *result.Watts != tt.expected {
				t.Errorf("Watts = %v, want %v", result.Watts, tt.expected)
			}
		})
	}
}
