// Package config loads skillstack settings from defaults, a YAML file, the
// environment and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable. A double underscore
// separates key levels: SKILLSTACK_API__BASE_URL sets api.base_url.
const EnvPrefix = "SKILLSTACK_"

// DefaultFile is read when --config is not given and the file exists.
const DefaultFile = "skillstack.yaml"

// Config is the full runtime configuration.
type Config struct {
	API APIConfig `koanf:"api"`
	Log LogConfig `koanf:"log"`
	Web WebConfig `koanf:"web"`
}

// APIConfig locates the skills API.
type APIConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`
	// Timeout of zero leaves the transport default in place.
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

// LogConfig selects the slog level and handler format.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// WebConfig configures the web UI listener.
type WebConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		API: APIConfig{BaseURL: "http://127.0.0.1:5000"},
		Log: LogConfig{Level: "info", Format: "text"},
		Web: WebConfig{Addr: "127.0.0.1:8080"},
	}
}

// flagKeys maps global flag names to config keys.
var flagKeys = map[string]string{
	"api-url":     "api.base_url",
	"api-timeout": "api.timeout",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"addr":        "web.addr",
}

// RegisterFlags adds the global flags to fs with the built-in defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "Path to a YAML config file (default "+DefaultFile+" if present)")
	fs.String("api-url", d.API.BaseURL, "Base URL of the skills API")
	fs.Duration("api-timeout", d.API.Timeout, "HTTP timeout for API requests (0 uses the transport default)")
	fs.String("log-level", d.Log.Level, "Log level: debug, info, warn or error")
	fs.String("log-format", d.Log.Format, "Log format: text or json")
	fs.String("addr", d.Web.Addr, "Listen address for the web UI")
}

var validate = validator.New()

// Load builds the configuration. fs must have been parsed after
// RegisterFlags; it may be nil to skip flags.
func Load(fs *pflag.FlagSet) (Config, error) {
	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: failed to load .env: %w", err)
	}

	k := koanf.New(".")

	path, explicit := configPath(fs)
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("config: failed to read %s: %w", path, err)
			}
		} else if explicit {
			return Config{}, fmt.Errorf("config: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: failed to read environment: %w", err)
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, fmt.Errorf("config: failed to read flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to decode: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid settings: %w", err)
	}
	return cfg, nil
}

func configPath(fs *pflag.FlagSet) (string, bool) {
	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Changed {
			return f.Value.String(), true
		}
	}
	return DefaultFile, false
}

// envKey turns SKILLSTACK_API__BASE_URL into api.base_url.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}
