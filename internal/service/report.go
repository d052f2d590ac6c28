package service

import (
	"context"
	"fmt"
	"strings"

	"velowatt/internal/analysis"
	"velowatt/internal/store"
)

// ReportService renders plain-text training summaries for a coach or an
// external advisor
type ReportService struct {
	query *QueryService
}

// NewReportService creates a report service on top of the queries
func NewReportService(query *QueryService) *ReportService {
	return &ReportService{query: query}
}

// CoachContext describes the athlete, current form, recent rides, weekly
// load and power zones
func (r *ReportService) CoachContext(ctx context.Context) (string, error) {
	athlete := r.query.Athlete()

	load, err := r.query.Fitness(ctx)
	if err != nil {
		return "", err
	}
	recent, err := r.query.RecentRides(ctx, ReportRideLimit)
	if err != nil {
		return "", fmt.Errorf("loading recent rides: %w", err)
	}
	weeks, err := r.query.TrainedWeeks(ctx, ReportWeeks)
	if err != nil {
		return "", err
	}
	total, err := r.query.store.CountRides(ctx)
	if err != nil {
		return "", fmt.Errorf("counting rides: %w", err)
	}

	var b strings.Builder
	name := athlete.Name
	if name == "" {
		name = "the athlete"
	}
	fmt.Fprintf(&b, "Training summary for %s.\n\n", name)

	b.WriteString("ATHLETE PROFILE:\n")
	fmt.Fprintf(&b, "  FTP: %.0fW | Weight: %.1fkg", athlete.FTP, athlete.WeightKG)
	if athlete.WeightKG > 0 {
		fmt.Fprintf(&b, " | W/kg: %.2f", athlete.FTP/athlete.WeightKG)
	}
	b.WriteString("\n\n")

	b.WriteString("CURRENT FITNESS:\n")
	fmt.Fprintf(&b, "  CTL (Fitness): %.1f\n", load.CurrentCTL)
	fmt.Fprintf(&b, "  ATL (Fatigue): %.1f\n", load.CurrentATL)
	fmt.Fprintf(&b, "  TSB (Form): %.1f - %s\n", load.CurrentTSB, analysis.FormDescription(load.CurrentTSB))
	fmt.Fprintf(&b, "  Peak CTL: %.1f\n", load.PeakCTL)
	fmt.Fprintf(&b, "  Total rides: %d\n\n", total)

	b.WriteString("RECENT RIDES:\n")
	if len(recent) == 0 {
		b.WriteString("  No rides yet\n")
	}
	for _, ride := range recent {
		b.WriteString("  " + rideLine(ride) + "\n")
	}
	b.WriteString("\n")

	b.WriteString("WEEKLY TSS:\n")
	if len(weeks) == 0 {
		b.WriteString("  No data\n")
	}
	for _, w := range weeks {
		fmt.Fprintf(&b, "  Week of %s: TSS %.0f (%d rides)\n", analysis.DayKey(w.WeekStart), w.TSS, w.Rides)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "POWER ZONES (FTP=%.0fW):\n", athlete.FTP)
	for _, z := range r.query.Zones() {
		b.WriteString("  " + zoneLine(z) + "\n")
	}

	return b.String(), nil
}

// RideBrief describes one ride in the context of current fitness
func (r *ReportService) RideBrief(ctx context.Context, id int64) (string, error) {
	detail, err := r.query.RideDetail(ctx, id)
	if err != nil {
		return "", err
	}
	load, err := r.query.Fitness(ctx)
	if err != nil {
		return "", err
	}

	ride, m := detail.Ride, detail.Metrics

	var b strings.Builder
	b.WriteString("RIDE:\n")
	fmt.Fprintf(&b, "  Title: %s\n", ride.Title)
	fmt.Fprintf(&b, "  Date: %s\n", analysis.DayKey(ride.RideDate))
	fmt.Fprintf(&b, "  Duration: %s\n", m.DurationFormatted)
	fmt.Fprintf(&b, "  Avg Power: %.0fW | NP: %.0fW (%s) | Max: %s\n",
		ride.AvgPower, m.NormalizedPower, m.NPSource, optional(ride.MaxPower, "%.0fW"))
	fmt.Fprintf(&b, "  TSS: %.1f | IF: %.3f | Zone: %s | %s\n",
		m.TSS, m.IntensityFactor, analysis.CoachZoneLabel(m.IntensityFactor), m.IntensityLabel)
	fmt.Fprintf(&b, "  Recovery: %s\n", m.RecoveryLabel)
	fmt.Fprintf(&b, "  HR: avg %s / max %s | EF: %s\n",
		optional(ride.AvgHeartRate, "%.0f"), optional(ride.MaxHeartRate, "%.0f"), optional(m.EfficiencyFactor, "%.2f"))
	fmt.Fprintf(&b, "  Distance: %s | Elevation: %s\n",
		optional(ride.DistanceKM, "%.1fkm"), optional(ride.ElevationGainM, "%.0fm"))
	fmt.Fprintf(&b, "  FTP: %.0fW\n", m.FTP)

	if len(detail.Peaks) > 0 {
		peaks := make([]string, len(detail.Peaks))
		for i, p := range detail.Peaks {
			peaks[i] = fmt.Sprintf("%s %.0fW", analysis.PeakLabel(p.DurationSeconds), p.Watts)
		}
		fmt.Fprintf(&b, "  Peaks: %s\n", strings.Join(peaks, " | "))
	}
	if detail.Decoupling != nil {
		fmt.Fprintf(&b, "  Power:HR decoupling: %.1f%%\n", *detail.Decoupling)
	}

	b.WriteString("\nCURRENT FITNESS:\n")
	fmt.Fprintf(&b, "  CTL: %.1f | ATL: %.1f | TSB: %.1f\n", load.CurrentCTL, load.CurrentATL, load.CurrentTSB)

	return b.String(), nil
}

func rideLine(r store.Ride) string {
	return fmt.Sprintf("%s | %s | %dmin | Avg %.0fW | NP %.0fW | TSS %.1f | IF %.3f",
		analysis.DayKey(r.RideDate), r.Title, r.DurationSeconds/SecondsPerMinute,
		r.AvgPower, r.NormalizedPower, r.TSS, r.IntensityFactor)
}

func zoneLine(z analysis.PowerZone) string {
	label := analysis.CoachZoneLabel(float64(z.MinPct) / 100)
	if z.MaxWatts == nil {
		return fmt.Sprintf("Z%d %s (%s): >%dW", z.Zone, z.Name, label, z.MinWatts)
	}
	return fmt.Sprintf("Z%d %s (%s): %d-%dW", z.Zone, z.Name, label, z.MinWatts, *z.MaxWatts)
}

func optional(v *float64, format string) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf(format, *v)
}
