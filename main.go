package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"velowatt/internal/auth"
	"velowatt/internal/config"
	"velowatt/internal/logging"
	"velowatt/internal/service"
	"velowatt/internal/store"
	"velowatt/internal/strava"
	"velowatt/internal/tui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env holds everything a command needs
type env struct {
	cfg    *config.Config
	db     *store.DB
	log    *logrus.Logger
	rides  *service.RideService
	query  *service.QueryService
	report *service.ReportService
	out    io.Writer
}

func run(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "help", "-h", "-help", "--help":
			usage(os.Stdout)
			return nil
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// .env is optional and only used for local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("\nPlease edit the config file at:\n  %s/config.json\n\n", configDir)
		fmt.Println("Set athlete.ftp to your current FTP. Strava credentials are")
		fmt.Println("only needed for sync: https://www.strava.com/settings/api")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		return fmt.Errorf("%w\n\nPlease edit the config file at:\n  %s/config.json", err, configDir)
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	logger, logFile, err := logging.OpenFile(cfg.Log.Level, logPath)
	if err != nil {
		return err
	}
	defer logFile.Close()

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return err
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	query := service.NewQueryService(db, cfg.Athlete, cfg.Training)
	e := &env{
		cfg:    cfg,
		db:     db,
		log:    logger,
		rides:  service.NewRideService(db, cfg.Athlete, logger),
		query:  query,
		report: service.NewReportService(query),
		out:    os.Stdout,
	}

	if len(args) == 0 {
		return e.runTUI(ctx)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		usage(os.Stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
	logger.WithField("command", args[0]).Debug("running command")
	if err := cmd.run(ctx, e, args[1:]); !errors.Is(err, flag.ErrHelp) {
		return err
	}
	return nil
}

func (e *env) runTUI(ctx context.Context) error {
	var syncSvc *service.SyncService
	if e.cfg.ValidateStrava() == nil {
		var err error
		if syncSvc, err = e.syncService(ctx); err != nil {
			return err
		}
	}

	app := tui.NewApp(e.query, syncSvc)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// syncService connects to Strava, running the OAuth flow when no valid
// tokens are stored
func (e *env) syncService(ctx context.Context) (*service.SyncService, error) {
	if err := e.cfg.ValidateStrava(); err != nil {
		return nil, err
	}

	oauthCfg := auth.NewOAuthConfig(auth.Config{
		ClientID:     e.cfg.Strava.ClientID,
		ClientSecret: e.cfg.Strava.ClientSecret,
	})
	ts, err := auth.Connect(ctx, oauthCfg, e.db, e.out)
	if err != nil {
		return nil, fmt.Errorf("connecting to Strava: %w", err)
	}

	return service.NewSyncService(strava.NewClient(ts), e.db, e.rides, e.log), nil
}
