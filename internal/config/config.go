// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"

	"github.com/wneessen/rainparade/internal/geo"
	"github.com/wneessen/rainparade/internal/resolve"
	"github.com/wneessen/rainparade/internal/risk"
	"github.com/wneessen/rainparade/internal/selection"
)

const (
	configEnv = "RAINPARADE"
	appName   = "rainparade"

	ProviderActivityAPI = "activity-api"
	ProviderOpenMeteo   = "open-meteo"

	DefaultTextTpl = "{{.Rain.Icon}} {{.Rain.RiskScore}}% {{.Heat.Icon}} {{.Heat.RiskScore}}% " +
		"{{.Wind.Icon}} {{.Wind.RiskScore}}%"
	DefaultTooltipTpl = "{{.Selection.LocationLabel}}, {{timeFormat .Date \"January 2, 2006\"}}\n" +
		"{{if .Fallback}}{{loc \"fallback\"}}\n{{end}}" +
		"{{.Summary}}\n\n" +
		"{{range .Conditions}}{{.Icon}} {{loc .Kind.String}}: {{.Bar}} {{.RiskScore}}% ({{loc .Tier.String}})\n{{end}}\n" +
		"{{loc .Suitability.Status}}: {{loc .Suitability.Advice}}\n" +
		"{{loc \"sunrise\"}}: {{timeFormat .SunriseTime \"15:04\"}} {{loc \"sunset\"}}: {{timeFormat .SunsetTime \"15:04\"}}\n" +
		"{{loc \"moonphase\"}}: {{.MoonPhaseIcon}} {{loc .MoonPhase}}\n" +
		"{{loc \"updated\"}}: {{localizedTime .GeneratedAt}}"
)

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	Prediction struct {
		// Allowed values: activity-api, open-meteo
		Provider        string        `fig:"provider" default:"activity-api"`
		BaseURL         string        `fig:"base_url" default:"http://127.0.0.1:8000"`
		Path            string        `fig:"path" default:"/api/v1/activity"`
		Timeout         time.Duration `fig:"timeout" default:"10s"`
		RateLimit       float64       `fig:"rate_limit" default:"2"`
		Burst           int           `fig:"burst" default:"4"`
		BreakerFailures uint32        `fig:"breaker_failures" default:"5"`
		BreakerTimeout  time.Duration `fig:"breaker_timeout" default:"30s"`
	} `fig:"prediction"`

	Defaults struct {
		Location string  `fig:"location" default:"Cairo, Egypt (30.0444, 31.2357)"`
		Lat      float64 `fig:"lat" default:"30.0444"`
		Lon      float64 `fig:"lon" default:"31.2357"`
		Date     string  `fig:"date" default:"2026-07-15"`
		Activity string  `fig:"activity" default:"outdoor activity"`
	} `fig:"defaults"`

	Policy struct {
		RainHigh      int     `fig:"rain_high" default:"60"`
		RainModerate  int     `fig:"rain_moderate" default:"30"`
		HeatThreshold float64 `fig:"heat_threshold" default:"35"`
		HeatHighScore int     `fig:"heat_high_score" default:"70"`
		HeatLowScore  int     `fig:"heat_low_score" default:"15"`
		WindThreshold float64 `fig:"wind_threshold" default:"20"`
		WindHighScore int     `fig:"wind_high_score" default:"85"`
		WindLowScore  int     `fig:"wind_low_score" default:"5"`
	} `fig:"policy"`

	Intervals struct {
		Output time.Duration `fig:"output" default:"30s"`
		// Zero disables the periodic re-analysis.
		Refresh       time.Duration `fig:"refresh"`
		SelectionFile time.Duration `fig:"selection_file" default:"5s"`
	} `fig:"intervals"`

	Selection struct {
		File        string `fig:"file"`
		DisableFile bool   `fig:"disable_file"`
	} `fig:"selection"`

	Templates struct {
		Text        string  `fig:"text"`
		Tooltip     string  `fig:"tooltip"`
		GaugeRadius float64 `fig:"gauge_radius" default:"45"`
		BarWidth    int     `fig:"bar_width" default:"10"`
	} `fig:"templates"`

	Server struct {
		// Empty disables the HTTP server.
		Listen          string        `fig:"listen"`
		ShutdownTimeout time.Duration `fig:"shutdown_timeout" default:"5s"`
	} `fig:"server"`

	Export struct {
		Dir      string `fig:"dir" default:"."`
		Compress bool   `fig:"compress"`
	} `fig:"export"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load config: %w", err)
	}

	return conf, conf.Validate()
}

// Validate fills derived defaults and rejects invalid values.
func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	if err := c.validatePrediction(); err != nil {
		return err
	}
	if err := c.validateDefaults(); err != nil {
		return err
	}
	if err := c.validatePolicy(); err != nil {
		return err
	}

	if c.Intervals.Output <= 0 {
		return fmt.Errorf("invalid output interval: %s", c.Intervals.Output)
	}
	if c.Intervals.Refresh < 0 {
		return fmt.Errorf("invalid refresh interval: %s", c.Intervals.Refresh)
	}
	if c.Intervals.SelectionFile <= 0 {
		return fmt.Errorf("invalid selection file interval: %s", c.Intervals.SelectionFile)
	}

	if c.Templates.Text == "" {
		c.Templates.Text = DefaultTextTpl
	}
	if c.Templates.Tooltip == "" {
		c.Templates.Tooltip = DefaultTooltipTpl
	}
	if c.Templates.GaugeRadius <= 0 {
		return fmt.Errorf("invalid gauge radius: %g", c.Templates.GaugeRadius)
	}
	if c.Templates.BarWidth < 1 {
		return fmt.Errorf("invalid bar width: %d", c.Templates.BarWidth)
	}

	if c.Selection.File == "" {
		home, _ := os.UserHomeDir()
		c.Selection.File = filepath.Join(home, ".config", appName, "selection")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid server shutdown timeout: %s", c.Server.ShutdownTimeout)
	}

	return nil
}

func (c *Config) validatePrediction() error {
	c.Prediction.Provider = strings.ToLower(strings.TrimSpace(c.Prediction.Provider))
	switch c.Prediction.Provider {
	case ProviderActivityAPI:
		base, err := url.Parse(c.Prediction.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid prediction base URL: %w", err)
		}
		if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
			return fmt.Errorf("invalid prediction base URL: %q", c.Prediction.BaseURL)
		}
	case ProviderOpenMeteo:
	default:
		return fmt.Errorf("invalid prediction provider: %s", c.Prediction.Provider)
	}
	if c.Prediction.Timeout <= 0 {
		return fmt.Errorf("invalid prediction timeout: %s", c.Prediction.Timeout)
	}
	if c.Prediction.RateLimit < 0 {
		return fmt.Errorf("invalid prediction rate limit: %g", c.Prediction.RateLimit)
	}
	if c.Prediction.RateLimit > 0 && c.Prediction.Burst < 1 {
		return fmt.Errorf("invalid prediction burst: %d", c.Prediction.Burst)
	}
	return nil
}

func (c *Config) validateDefaults() error {
	date, err := resolve.ParseDate(c.Defaults.Date)
	if err != nil {
		return fmt.Errorf("invalid default date: %w", err)
	}
	c.Defaults.Date = date

	coord := geo.Coordinate{Lat: c.Defaults.Lat, Lon: c.Defaults.Lon}
	if !coord.Valid() {
		return fmt.Errorf("invalid default coordinate: %s", coord)
	}
	if strings.TrimSpace(c.Defaults.Location) == "" {
		c.Defaults.Location = coord.PinLabel()
	}
	return nil
}

func (c *Config) validatePolicy() error {
	p := c.Policy
	if p.RainModerate < risk.MinScore || p.RainHigh > risk.MaxScore || p.RainModerate > p.RainHigh {
		return fmt.Errorf("invalid policy tier bounds: moderate %d, high %d", p.RainModerate, p.RainHigh)
	}
	for name, score := range map[string]int{
		"heat_high_score": p.HeatHighScore, "heat_low_score": p.HeatLowScore,
		"wind_high_score": p.WindHighScore, "wind_low_score": p.WindLowScore,
	} {
		if score < risk.MinScore || score > risk.MaxScore {
			return fmt.Errorf("invalid policy score %s: %d", name, score)
		}
	}
	return nil
}

// RiskPolicy returns the configured normalizer policy.
func (c *Config) RiskPolicy() risk.Policy {
	return risk.Policy{
		RainHigh:      c.Policy.RainHigh,
		RainModerate:  c.Policy.RainModerate,
		HeatThreshold: c.Policy.HeatThreshold,
		HeatHighScore: c.Policy.HeatHighScore,
		HeatLowScore:  c.Policy.HeatLowScore,
		WindThreshold: c.Policy.WindThreshold,
		WindHighScore: c.Policy.WindHighScore,
		WindLowScore:  c.Policy.WindLowScore,
	}
}

// DefaultSelection returns the selection the store starts with.
func (c *Config) DefaultSelection() selection.Selection {
	return selection.Selection{
		LocationLabel: c.Defaults.Location,
		Lat:           c.Defaults.Lat,
		Lon:           c.Defaults.Lon,
		Date:          c.Defaults.Date,
		Activity:      c.Defaults.Activity,
	}
}

// FallbackCoordinate is substituted for location labels without coordinates.
func (c *Config) FallbackCoordinate() geo.Coordinate {
	return geo.Coordinate{Lat: c.Defaults.Lat, Lon: c.Defaults.Lon}
}

// FindFile looks for config.{toml,yaml,yml,json} in ~/.config/rainparade and returns the
// directory and file name, or two empty strings.
func FindFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	for _, ext := range []string{"toml", "yaml", "yml", "json"} {
		path := filepath.Join(homedir, ".config", appName, "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
