// Package config holds the explicit run parameters for the extractor and the
// infiltration calculator. Defaults reproduce the values the tools were first
// written against; a YAML file and GAZ_* environment variables override them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate for any unusable setting
var ErrInvalid = errors.New("invalid configuration")

// maxDBFFieldName is the dBASE limit on attribute names
const maxDBFFieldName = 10

// Columns names the source header fields read by the extractor
type Columns struct {
	ID  string `yaml:"id" mapstructure:"id"`
	Lat string `yaml:"lat" mapstructure:"lat"`
	Lon string `yaml:"lon" mapstructure:"lon"`
}

// Infiltration holds the Green-Ampt soil and rainfall parameters
type Infiltration struct {
	Ks            float64 `yaml:"ks" mapstructure:"ks"`                       // saturated conductivity (in/hr)
	ThetaS        float64 `yaml:"theta_s" mapstructure:"theta_s"`             // saturated moisture content
	ThetaI        float64 `yaml:"theta_i" mapstructure:"theta_i"`             // initial moisture content
	Psi           float64 `yaml:"psi" mapstructure:"psi"`                     // wetting front suction head (in, negative)
	RainIntensity float64 `yaml:"rain_intensity" mapstructure:"rain_intensity"` // in/hr
	FMax          float64 `yaml:"f_max" mapstructure:"f_max"`
	Points        int     `yaml:"points" mapstructure:"points"`
	Chart         string  `yaml:"chart" mapstructure:"chart"`
}

// Log configures the process logger
type Log struct {
	Level   string `yaml:"level" mapstructure:"level"`
	Console bool   `yaml:"console" mapstructure:"console"`
}

// Config is passed into every entry routine instead of package-level constants
type Config struct {
	Input        string       `yaml:"input" mapstructure:"input"`
	Output       string       `yaml:"output" mapstructure:"output"`
	Delimiter    string       `yaml:"delimiter" mapstructure:"delimiter"`
	IDField      string       `yaml:"id_field" mapstructure:"id_field"`
	Columns      Columns      `yaml:"columns" mapstructure:"columns"`
	Render       string       `yaml:"render" mapstructure:"render"`
	Log          Log          `yaml:"log" mapstructure:"log"`
	Infiltration Infiltration `yaml:"infiltration" mapstructure:"infiltration"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Input:     "2025_Gaz_zcta_national.txt",
		Output:    "zip_code_centroids.shp",
		Delimiter: "|",
		IDField:   "ZIP",
		Columns: Columns{
			ID:  "GEOID",
			Lat: "INTPTLAT",
			Lon: "INTPTLONG",
		},
		Render: "zip_code_centroids.png",
		Log: Log{
			Level:   "info",
			Console: true,
		},
		Infiltration: Infiltration{
			Ks:            0.53,
			ThetaS:        0.518,
			ThetaI:        0.215,
			Psi:           -9.37,
			RainIntensity: 6.5,
			FMax:          1.0,
			Points:        500,
			Chart:         "infiltration.png",
		},
	}
}

// Load reads the optional YAML file at path on top of the defaults and then
// applies GAZ_* environment overrides (GAZ_INPUT, GAZ_INFILTRATION_KS, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("GAZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("input", d.Input)
	v.SetDefault("output", d.Output)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("id_field", d.IDField)
	v.SetDefault("columns.id", d.Columns.ID)
	v.SetDefault("columns.lat", d.Columns.Lat)
	v.SetDefault("columns.lon", d.Columns.Lon)
	v.SetDefault("render", d.Render)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.console", d.Log.Console)
	v.SetDefault("infiltration.ks", d.Infiltration.Ks)
	v.SetDefault("infiltration.theta_s", d.Infiltration.ThetaS)
	v.SetDefault("infiltration.theta_i", d.Infiltration.ThetaI)
	v.SetDefault("infiltration.psi", d.Infiltration.Psi)
	v.SetDefault("infiltration.rain_intensity", d.Infiltration.RainIntensity)
	v.SetDefault("infiltration.f_max", d.Infiltration.FMax)
	v.SetDefault("infiltration.points", d.Infiltration.Points)
	v.SetDefault("infiltration.chart", d.Infiltration.Chart)
}

// Validate checks the settings that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Input) == "":
		return fmt.Errorf("%w: input path is empty", ErrInvalid)
	case strings.TrimSpace(c.Output) == "":
		return fmt.Errorf("%w: output path is empty", ErrInvalid)
	case utf8.RuneCountInString(c.Delimiter) != 1:
		return fmt.Errorf("%w: delimiter must be a single character, got %q", ErrInvalid, c.Delimiter)
	case c.IDField == "" || len(c.IDField) > maxDBFFieldName:
		return fmt.Errorf("%w: id_field must be 1-%d bytes, got %q", ErrInvalid, maxDBFFieldName, c.IDField)
	case c.Columns.ID == "" || c.Columns.Lat == "" || c.Columns.Lon == "":
		return fmt.Errorf("%w: columns.id, columns.lat and columns.lon are required", ErrInvalid)
	case c.Infiltration.Points < 2:
		return fmt.Errorf("%w: infiltration.points must be at least 2, got %d", ErrInvalid, c.Infiltration.Points)
	}
	return nil
}

// DelimiterRune returns the delimiter as a rune for the CSV reader
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// WriteDefault writes the default configuration as YAML to path
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
