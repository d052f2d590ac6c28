package service

const (
	// HR stream validation thresholds
	MinValidHeartrate = 40
	MaxValidHeartrate = 230

	// Unit conversions
	MetersPerKM      = 1000.0
	MPSToKMH         = 3.6
	SecondsPerMinute = 60

	// Pagination limits
	RecentRidesLimit = 10
	ReportRideLimit  = 15
	ReportWeeks      = 4
	DashboardWeeks   = 8

	// Chart window for the dashboard CTL/ATL/TSB plot
	DashboardChartDays = 90

	// External ID prefixes, one namespace per source
	ManualIDPrefix = "manual:"
	FITIDPrefix    = "fit:"
	StravaIDPrefix = "strava:"
)
