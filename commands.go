package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize/english"

	"velowatt/internal/analysis"
	"velowatt/internal/config"
	"velowatt/internal/export"
	"velowatt/internal/service"
	"velowatt/internal/store"
)

// command is one CLI subcommand
type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"add":     {"score and store a manual ride", cmdAdd},
	"import":  {"import one or more FIT files", cmdImport},
	"rides":   {"list recent rides", cmdRides},
	"fitness": {"show CTL/ATL/TSB and the rest forecast", cmdFitness},
	"zones":   {"show power zones for the configured FTP", cmdZones},
	"ftp":     {"estimate FTP from ride history (-apply to save it)", cmdFTP},
	"recalc":  {"rescore every ride against the configured FTP", cmdRecalc},
	"report":  {"print a plain-text coaching report", cmdReport},
	"export":  {"write the load series and rides as Parquet", cmdExport},
	"delete":  {"delete a ride by id", cmdDelete},
	"sync":    {"import rides from Strava (-disconnect to forget tokens)", cmdSync},
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: velowatt [command] [flags]")
	fmt.Fprintln(w, "\nWithout a command the interactive dashboard starts.")
	fmt.Fprintln(w, "\nCommands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
}

// optional returns nil for an unset (zero) numeric flag
func optional(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

// parseRideDate accepts a calendar date or a full timestamp
func parseRideDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD[ HH:MM] or RFC3339", s)
	}
	return t, nil
}

func cmdAdd(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	title := fs.String("title", "", "ride title")
	date := fs.String("date", "", "ride date, YYYY-MM-DD[ HH:MM] (default now)")
	duration := fs.Duration("duration", 0, "moving time, e.g. 1h30m")
	power := fs.Float64("power", 0, "average power in watts")
	np := fs.Float64("np", 0, "normalized power from a head unit")
	maxPower := fs.Float64("max-power", 0, "max power in watts")
	hr := fs.Float64("hr", 0, "average heart rate")
	maxHR := fs.Float64("max-hr", 0, "max heart rate")
	distance := fs.Float64("distance", 0, "distance in km")
	elevation := fs.Float64("elevation", 0, "elevation gain in m")
	cadence := fs.Float64("cadence", 0, "average cadence in rpm")
	description := fs.String("description", "", "notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rideDate, err := parseRideDate(*date)
	if err != nil {
		return err
	}

	in := service.RideCreate{
		Title:           *title,
		RideDate:        rideDate,
		Description:     *description,
		DurationSeconds: int(duration.Seconds()),
		AvgPower:        *power,
		NormalizedPower: optional(*np),
		MaxPower:        optional(*maxPower),
		AvgHeartRate:    optional(*hr),
		MaxHeartRate:    optional(*maxHR),
		DistanceKM:      optional(*distance),
		ElevationGainM:  optional(*elevation),
		AvgCadence:      optional(*cadence),
	}
	if in.DistanceKM != nil && in.DurationSeconds > 0 {
		speed := *in.DistanceKM / duration.Hours()
		in.AvgSpeedKMH = &speed
	}

	res, err := e.rides.AddRide(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Saved ride %d: %s\n", res.Ride.ID, res.Ride.Title)
	printMetrics(e.out, res.Metrics)
	return nil
}

func cmdImport(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: velowatt import FILE.fit [FILE.fit ...]")
	}

	var failed int
	for _, path := range args {
		res, err := e.rides.ImportFIT(ctx, path)
		if err != nil {
			failed++
			fmt.Fprintf(e.out, "%s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(e.out, "%s: ride %d, %s, NP %.0fW (%s), TSS %.1f\n",
			path, res.Ride.ID, res.Metrics.DurationFormatted,
			res.Metrics.NormalizedPower, res.Metrics.NPSource, res.Metrics.TSS)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func cmdRides(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("rides", flag.ContinueOnError)
	n := fs.Int("n", service.RecentRidesLimit, "number of rides")
	offset := fs.Int("offset", 0, "rides to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rides, err := e.query.Rides(ctx, *n, *offset)
	if err != nil {
		return err
	}
	if len(rides) == 0 {
		fmt.Fprintln(e.out, "No rides yet")
		return nil
	}

	fmt.Fprintf(e.out, "%5s  %-10s  %-28s  %8s  %5s  %5s  %6s  %5s\n", "ID", "Date", "Title", "Time", "Avg", "NP", "TSS", "IF")
	for _, r := range rides {
		title := r.Title
		if len(title) > 28 {
			title = title[:25] + "..."
		}
		fmt.Fprintf(e.out, "%5d  %-10s  %-28s  %8s  %5.0f  %5.0f  %6.1f  %5.2f\n",
			r.ID, analysis.DayKey(r.RideDate), title, analysis.FormatDuration(r.DurationSeconds),
			r.AvgPower, r.NormalizedPower, r.TSS, r.IntensityFactor)
	}
	return nil
}

func cmdFitness(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	days := fs.Int("days", 14, "history days to print")
	if err := fs.Parse(args); err != nil {
		return err
	}

	load, err := e.query.Fitness(ctx)
	if err != nil {
		return err
	}
	if len(load.History) == 0 {
		fmt.Fprintln(e.out, "No rides yet")
		return nil
	}

	fmt.Fprintf(e.out, "Fitness (CTL): %.1f  (peak %.1f)\n", load.CurrentCTL, load.PeakCTL)
	fmt.Fprintf(e.out, "Fatigue (ATL): %.1f\n", load.CurrentATL)
	fmt.Fprintf(e.out, "Form (TSB):    %+.1f  %s\n\n", load.CurrentTSB, analysis.FormDescription(load.CurrentTSB))

	history := load.History
	if *days > 0 && len(history) > *days {
		history = history[len(history)-*days:]
	}
	printLoad(e.out, history)

	if len(load.Forecast) > 0 {
		fmt.Fprintf(e.out, "\nForecast with no training:\n")
		var milestones []analysis.LoadEntry
		for i, f := range load.Forecast {
			if (i+1)%7 == 0 || i == len(load.Forecast)-1 {
				milestones = append(milestones, f)
			}
		}
		printLoad(e.out, milestones)
	}
	return nil
}

func printLoad(w io.Writer, entries []analysis.LoadEntry) {
	fmt.Fprintf(w, "%-10s  %6s  %6s  %6s  %6s\n", "Date", "TSS", "CTL", "ATL", "TSB")
	for _, l := range entries {
		fmt.Fprintf(w, "%-10s  %6.1f  %6.1f  %6.1f  %+6.1f\n", analysis.DayKey(l.Date), l.TSS, l.CTL, l.ATL, l.TSB)
	}
}

func cmdZones(ctx context.Context, e *env, args []string) error {
	zones := e.query.Zones()
	fmt.Fprintf(e.out, "Power zones for FTP %.0fW\n", e.cfg.Athlete.FTP)
	for _, z := range zones {
		if z.MaxWatts == nil {
			fmt.Fprintf(e.out, "  Z%d %-16s >%dW  (>%d%%)\n", z.Zone, z.Name, z.MinWatts, z.MinPct)
			continue
		}
		fmt.Fprintf(e.out, "  Z%d %-16s %d-%dW  (%d-%d%%)\n", z.Zone, z.Name, z.MinWatts, *z.MaxWatts, z.MinPct, *z.MaxPct)
	}
	return nil
}

func cmdFTP(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("ftp", flag.ContinueOnError)
	apply := fs.Bool("apply", false, "save the estimate as athlete.ftp")
	if err := fs.Parse(args); err != nil {
		return err
	}

	est, err := e.query.EstimateFTP(ctx)
	if err != nil {
		return err
	}
	if est.Watts == nil {
		fmt.Fprintln(e.out, "Not enough rides with power to estimate FTP")
		return nil
	}
	fmt.Fprintf(e.out, "Estimated FTP: %.0fW (%s)\n", *est.Watts, est.Method)
	fmt.Fprintf(e.out, "Configured FTP: %.0fW\n", e.cfg.Athlete.FTP)

	if *apply {
		e.cfg.Athlete.FTP = *est.Watts
		if err := config.Save(e.cfg); err != nil {
			return err
		}
		fmt.Fprintln(e.out, "Saved. Run 'velowatt recalc' to rescore existing rides.")
	}
	return nil
}

func cmdRecalc(ctx context.Context, e *env, args []string) error {
	res, err := e.rides.Recalculate(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Rescored %s at FTP %.0fW\n", english.Plural(res.RidesUpdated, "ride", "rides"), res.FTPUsed)
	return nil
}

func cmdReport(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	rideID := fs.Int64("ride", 0, "describe a single ride instead")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var text string
	var err error
	if *rideID > 0 {
		text, err = e.report.RideBrief(ctx, *rideID)
	} else {
		text, err = e.report.CoachContext(ctx)
	}
	if err != nil {
		return err
	}
	fmt.Fprint(e.out, text)
	return nil
}

func cmdExport(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	loadPath := fs.String("load", "load.parquet", "load series output file, empty to skip")
	ridesPath := fs.String("rides", "rides.parquet", "rides output file, empty to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *loadPath != "" {
		load, err := e.query.Fitness(ctx)
		if err != nil {
			return err
		}
		if err := export.WriteLoadSeriesFile(*loadPath, load); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Wrote %d days to %s\n", len(load.History)+len(load.Forecast), *loadPath)
	}

	if *ridesPath != "" {
		rides, err := e.db.AllRides(ctx)
		if err != nil {
			return err
		}
		if err := export.WriteRidesFile(*ridesPath, rides); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Wrote %s to %s\n", english.Plural(len(rides), "ride", "rides"), *ridesPath)
	}
	return nil
}

func cmdDelete(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: velowatt delete RIDE_ID")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid ride id %q", args[0])
	}
	if err := e.rides.DeleteRide(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Deleted ride %d\n", id)
	return nil
}

func cmdSync(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	disconnect := fs.Bool("disconnect", false, "forget the stored Strava authorization and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *disconnect {
		err := e.db.DeleteAuth(ctx)
		if errors.Is(err, store.ErrNoAuth) {
			fmt.Fprintln(e.out, "Strava is not connected")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(e.out, "Disconnected from Strava")
		return nil
	}

	svc, err := e.syncService(ctx)
	if err != nil {
		return err
	}

	progress := make(chan service.SyncProgress)
	done := make(chan struct{})
	go func() {
		defer close(done)
		var lastPhase string
		for p := range progress {
			if p.Phase != lastPhase && p.Phase == "rides" {
				fmt.Fprintf(e.out, "Fetched %s\n", english.Plural(p.Total, "activity", "activities"))
			}
			lastPhase = p.Phase
			if p.Phase == "rides" && p.CurrentActivity != "" {
				fmt.Fprintf(e.out, "  [%d/%d] %s\n", p.Completed+1, p.Total, p.CurrentActivity)
			}
		}
	}()

	result, err := svc.SyncAll(ctx, progress)
	<-done
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "Sync complete: %s\n", result.Summary())
	for _, s := range result.Skipped {
		fmt.Fprintf(e.out, "  skipped %q: %s\n", s.Name, s.Reason)
	}
	for _, err := range result.Errors {
		fmt.Fprintf(e.out, "  error: %v\n", err)
	}
	return nil
}

func printMetrics(w io.Writer, m analysis.RideMetrics) {
	fmt.Fprintf(w, "  Duration:  %s\n", m.DurationFormatted)
	fmt.Fprintf(w, "  NP:        %.0fW (%s)\n", m.NormalizedPower, m.NPSource)
	fmt.Fprintf(w, "  IF:        %.3f  %s\n", m.IntensityFactor, m.IntensityLabel)
	fmt.Fprintf(w, "  TSS:       %.1f\n", m.TSS)
	fmt.Fprintf(w, "  VI:        %.2f\n", m.VariabilityIndex)
	if m.EfficiencyFactor != nil {
		fmt.Fprintf(w, "  EF:        %.2f\n", *m.EfficiencyFactor)
	}
	fmt.Fprintf(w, "  Recovery:  %s\n", m.RecoveryLabel)
}
