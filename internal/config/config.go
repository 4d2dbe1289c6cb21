// Package config loads the application configuration from YAML. Every
// section is the owning package's own Config; missing keys keep their
// defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/catchball/internal/audio"
	"github.com/ayusman/catchball/internal/ball"
	"github.com/ayusman/catchball/internal/capture"
	"github.com/ayusman/catchball/internal/catcher"
	"github.com/ayusman/catchball/internal/detector"
	"github.com/ayusman/catchball/internal/gameplay"
	"github.com/ayusman/catchball/internal/hud"
	"github.com/ayusman/catchball/internal/physics"
)

// ErrInvalid is returned by Validate and Load for a bad configuration.
var ErrInvalid = errors.New("invalid config")

// ServerConfig holds the HTTP settings.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// PluginConfig holds the session hook settings.
type PluginConfig struct {
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
}

// Config is the whole application configuration.
type Config struct {
	// DataDir holds the database. Relative paths are taken from the working
	// directory.
	DataDir string `yaml:"data_dir"`

	Server  ServerConfig `yaml:"server"`
	Plugins PluginConfig `yaml:"plugins"`

	Camera          capture.Config     `yaml:"camera"`
	Rate            capture.RateConfig `yaml:"rate"`
	MotionThreshold float64            `yaml:"motion_threshold"`
	Detector        detector.Config    `yaml:"detector"`

	Catcher catcher.Config  `yaml:"catcher"`
	Session gameplay.Config `yaml:"session"`
	Ball    ball.Config     `yaml:"ball"`
	Physics physics.Config  `yaml:"physics"`

	// StepInterval is the physics step period.
	StepInterval time.Duration `yaml:"step_interval"`

	Audio audio.Config `yaml:"audio"`
	HUD   hud.Config   `yaml:"hud"`
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		DataDir: defaultDataDir(),
		Server: ServerConfig{
			Addr:      "127.0.0.1:8080",
			StaticDir: "web",
		},
		Plugins: PluginConfig{
			Dir:     "plugins",
			Timeout: 5 * time.Second,
		},
		Camera:          capture.DefaultConfig(),
		Rate:            capture.DefaultRateConfig(),
		MotionThreshold: 1.0,
		Detector:        detector.DefaultConfig(),
		Catcher:         catcher.DefaultConfig(),
		Session:         gameplay.DefaultConfig(),
		Ball:            ball.DefaultConfig(),
		Physics:         physics.DefaultConfig(),
		StepInterval:    time.Second / 60,
		Audio:           audio.DefaultConfig(),
		HUD:             hud.DefaultConfig(),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".catchball"
	}
	return filepath.Join(home, ".catchball")
}

// DBPath is the sqlite file inside DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "catchball.db")
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Save writes c to path as YAML.
func Save(path string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks every section. All problems are reported together.
func (c Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Plugins.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("plugins.timeout must be positive, got %v", c.Plugins.Timeout))
	}
	if c.Rate.IdleFPS <= 0 || c.Rate.ActiveFPS < c.Rate.IdleFPS {
		errs = append(errs, fmt.Errorf("rate: need 0 < idle_fps <= active_fps, got %d and %d", c.Rate.IdleFPS, c.Rate.ActiveFPS))
	}
	if c.Rate.IdleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("rate.idle_timeout must be positive, got %v", c.Rate.IdleTimeout))
	}
	if c.StepInterval <= 0 {
		errs = append(errs, fmt.Errorf("step_interval must be positive, got %v", c.StepInterval))
	}
	if c.Catcher.Box.Width() <= 0 || c.Catcher.Box.Height() <= c.Catcher.HeightInset {
		errs = append(errs, errors.New("catcher.box is too small"))
	}
	if c.HUD.Refresh <= 0 || c.HUD.Top <= c.HUD.Bottom || c.HUD.HalfWidth <= 0 {
		errs = append(errs, errors.New("hud: need a positive refresh and a non-empty area"))
	}

	for _, v := range []interface{ Validate() error }{c.Session, c.Ball, c.Physics, c.Audio} {
		if err := v.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalid}, errs...)...)
	}
	return nil
}
