// Package config loads the aether command configuration.
//
// Values are resolved in three layers: built-in defaults, a TOML file and
// AETHER_* environment variables. A .env file, when present, populates the
// environment first without overriding variables that are already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/aether"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AETHER_"

// File is the complete command configuration.
type File struct {
	Engine  aether.Config `toml:"engine"`
	Log     Log           `toml:"log"`
	Metrics Metrics       `toml:"metrics"`
	Audio   Audio         `toml:"audio"`
	Window  Window        `toml:"window"`

	// Watch reloads media sources when their files change.
	Watch bool `toml:"watch"`
}

// Log configures the process logger.
type Log struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `toml:"level"`

	// Format is "json" or "text".
	Format string `toml:"format"`
}

// Metrics configures the HTTP metrics endpoint.
type Metrics struct {
	// Addr is the listen address. Empty disables the server.
	Addr string `toml:"addr"`
}

// Audio configures the reactive audio input.
type Audio struct {
	// File is a WAV file played and analyzed. Empty means silence.
	File string `toml:"file"`
}

// Window configures the presentation window.
type Window struct {
	Title      string `toml:"title"`
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Fullscreen bool   `toml:"fullscreen"`
}

// Default returns the built-in configuration.
func Default() File {
	return File{
		Engine:  aether.DefaultConfig(),
		Log:     Log{Level: "info", Format: "text"},
		Metrics: Metrics{Addr: ":9090"},
		Window:  Window{Title: "aether", Width: 1280, Height: 720},
	}
}

// Load resolves the configuration. path names the TOML file; an empty path
// skips it. envFiles are dotenv files loaded before the environment is read,
// ".env" when none are given; missing dotenv files are ignored.
func Load(path string, envFiles ...string) (File, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return File{}, fmt.Errorf("config: %s: %w", f, err)
		}
	}

	cfg := Default()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return File{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return File{}, err
	}
	if err := cfg.Validate(); err != nil {
		return File{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *File) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config: %s: %s", path, strict.String())
		}
		return fmt.Errorf("config: %s: %w", path, err)
	}
	return nil
}

// Validate checks the engine, log and window settings.
func (f File) Validate() error {
	var errs []error
	if err := f.Engine.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(f.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log level %q", f.Log.Level))
	}
	switch strings.ToLower(f.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log format %q", f.Log.Format))
	}
	if f.Window.Width <= 0 || f.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("config: window size %dx%d", f.Window.Width, f.Window.Height))
	}
	return errors.Join(errs...)
}

// applyEnv overrides cfg with AETHER_* variables.
func applyEnv(cfg *File) error {
	var errs []error
	str := func(key string, dst *string) {
		if s := os.Getenv(EnvPrefix + key); s != "" {
			*dst = s
		}
	}
	num := func(key string, dst *int) {
		if s := os.Getenv(EnvPrefix + key); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	frac := func(key string, dst *float32) {
		if s := os.Getenv(EnvPrefix + key); s != "" {
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = float32(v)
		}
	}
	flag := func(key string, dst *bool) {
		if s := os.Getenv(EnvPrefix + key); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	num("WIDTH", &cfg.Engine.Width)
	num("HEIGHT", &cfg.Engine.Height)
	str("BACKEND", &cfg.Engine.Backend)
	frac("REACTIVITY", &cfg.Engine.Reactivity)
	frac("AUDIO_GATE", &cfg.Engine.AudioGate)
	num("WORKERS", &cfg.Engine.Workers)
	flag("REQUIRE_GESTURE", &cfg.Engine.RequireGesture)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("METRICS_ADDR", &cfg.Metrics.Addr)
	str("AUDIO_FILE", &cfg.Audio.File)
	flag("WATCH", &cfg.Watch)
	flag("FULLSCREEN", &cfg.Window.Fullscreen)
	return errors.Join(errs...)
}
