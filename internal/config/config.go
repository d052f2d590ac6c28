package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"velowatt/internal/analysis"
)

// EnvPrefix prefixes environment overrides, e.g. VELOWATT_ATHLETE_FTP=250
const EnvPrefix = "VELOWATT"

// Config represents the application configuration
type Config struct {
	Strava   StravaConfig   `json:"strava" mapstructure:"strava"`
	Athlete  AthleteConfig  `json:"athlete" mapstructure:"athlete"`
	Training TrainingConfig `json:"training" mapstructure:"training"`
	Log      LogConfig      `json:"log" mapstructure:"log"`
	Data     DataConfig     `json:"data" mapstructure:"data"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id" mapstructure:"client_id"`
	ClientSecret string `json:"client_secret" mapstructure:"client_secret"`
}

// AthleteConfig holds athlete-specific settings
type AthleteConfig struct {
	Name      string  `json:"name" mapstructure:"name"`
	FTP       float64 `json:"ftp" mapstructure:"ftp"`
	WeightKG  float64 `json:"weight_kg" mapstructure:"weight_kg"`
	RestingHR float64 `json:"resting_hr" mapstructure:"resting_hr"`
	MaxHR     float64 `json:"max_hr" mapstructure:"max_hr"`
}

// TrainingConfig holds the fitness model time constants
type TrainingConfig struct {
	CTLDays      float64 `json:"ctl_days" mapstructure:"ctl_days"`
	ATLDays      float64 `json:"atl_days" mapstructure:"atl_days"`
	ForecastDays int     `json:"forecast_days" mapstructure:"forecast_days"`
}

// LogConfig controls the log file
type LogConfig struct {
	Level string `json:"level" mapstructure:"level"`
	File  string `json:"file" mapstructure:"file"`
}

// DataConfig controls where the database lives
type DataConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	load := analysis.DefaultLoadConfig()
	return Config{
		Athlete: AthleteConfig{
			FTP:       200,
			WeightKG:  75,
			RestingHR: 50,
			MaxHR:     185,
		},
		Training: TrainingConfig{
			CTLDays:      load.CTLDays,
			ATLDays:      load.ATLDays,
			ForecastDays: load.ForecastDays,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig converts the training section for the load simulator
func (t TrainingConfig) LoadConfig() analysis.LoadConfig {
	return analysis.LoadConfig{
		CTLDays:      t.CTLDays,
		ATLDays:      t.ATLDays,
		ForecastDays: t.ForecastDays,
	}
}

// Load reads the configuration from ~/.velowatt/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from path. Every key can be
// overridden from the environment; missing keys get defaults.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrNoConfig
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("strava.client_id", d.Strava.ClientID)
	v.SetDefault("strava.client_secret", d.Strava.ClientSecret)

	v.SetDefault("athlete.name", d.Athlete.Name)
	v.SetDefault("athlete.ftp", d.Athlete.FTP)
	v.SetDefault("athlete.weight_kg", d.Athlete.WeightKG)
	v.SetDefault("athlete.resting_hr", d.Athlete.RestingHR)
	v.SetDefault("athlete.max_hr", d.Athlete.MaxHR)

	v.SetDefault("training.ctl_days", d.Training.CTLDays)
	v.SetDefault("training.atl_days", d.Training.ATLDays)
	v.SetDefault("training.forecast_days", d.Training.ForecastDays)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)

	v.SetDefault("data.path", d.Data.Path)
}

// Save writes the configuration to ~/.velowatt/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes the configuration to path
func SaveTo(path string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Strava = StravaConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
	}
	example.Athlete.Name = "Rider"

	return SaveTo(path, &example)
}

// Validate checks athlete and training settings
func (c *Config) Validate() error {
	if c.Athlete.FTP < 0 {
		return fmt.Errorf("athlete.ftp must not be negative, got %v", c.Athlete.FTP)
	}
	if c.Athlete.WeightKG < 0 {
		return fmt.Errorf("athlete.weight_kg must not be negative, got %v", c.Athlete.WeightKG)
	}

	// Validate resting_hr < max_hr when both are set
	if c.Athlete.RestingHR > 0 && c.Athlete.MaxHR > 0 && c.Athlete.RestingHR >= c.Athlete.MaxHR {
		return fmt.Errorf("athlete.resting_hr (%v) must be less than athlete.max_hr (%v)", c.Athlete.RestingHR, c.Athlete.MaxHR)
	}

	// ATL must react faster than CTL
	if c.Training.CTLDays > 0 && c.Training.ATLDays > 0 && c.Training.ATLDays >= c.Training.CTLDays {
		return fmt.Errorf("training.atl_days (%v) must be less than training.ctl_days (%v)", c.Training.ATLDays, c.Training.CTLDays)
	}
	if c.Training.ForecastDays < 0 {
		return fmt.Errorf("training.forecast_days must not be negative, got %d", c.Training.ForecastDays)
	}

	return nil
}

// ValidateStrava checks that Strava credentials are set
func (c *Config) ValidateStrava() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}
	return nil
}

// DatabasePath returns data.path or the default location
func (c *Config) DatabasePath() (string, error) {
	if c.Data.Path != "" {
		return c.Data.Path, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data.db"), nil
}

// LogPath returns log.file or the default location
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "velowatt.log"), nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".velowatt"), nil
}
