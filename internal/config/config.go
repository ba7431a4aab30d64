// Package config loads service configuration from defaults, an optional
// YAML file and the environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar names the environment variable holding the config file path.
const PathEnvVar = "CONFIG_PATH"

// DefaultPaths are searched for a config file when CONFIG_PATH is unset.
var DefaultPaths = []string{"config.yaml", "config.yml"}

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Spotify   SpotifyConfig   `koanf:"spotify"`
	Caption   CaptionConfig   `koanf:"caption"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Recommend RecommendConfig `koanf:"recommend"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit" validate:"min=0"` // requests per minute per IP, 0 disables
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// SpotifyConfig holds app credentials for catalog access.
type SpotifyConfig struct {
	ClientID      string `koanf:"client_id"`
	ClientSecret  string `koanf:"client_secret"`
	Market        string `koanf:"market" validate:"len=2"`
	AudioFeatures bool   `koanf:"audio_features"`
}

// Enabled reports whether both credentials are set.
func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// CaptionConfig configures the hosted captioning model. An empty URL
// disables it and images are analyzed by color only.
type CaptionConfig struct {
	URL      string        `koanf:"url" validate:"omitempty,url"`
	Token    string        `koanf:"token"`
	Timeout  time.Duration `koanf:"timeout" validate:"gt=0"`          // per HTTP attempt
	Deadline time.Duration `koanf:"deadline" validate:"gt=0,lte=45s"` // whole captioning step, retries included
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gt=0"`
	MaxBytes int           `koanf:"max_bytes" validate:"gt=0"`
}

// DatabaseConfig configures profile persistence. An empty URL disables it.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// RedisConfig configures the analysis cache. An empty URL disables it.
type RedisConfig struct {
	URL string `koanf:"url"`
}

// RecommendConfig tunes catalog fan-out.
type RecommendConfig struct {
	SearchTimeout time.Duration `koanf:"search_timeout" validate:"gt=0,lte=15s"`
	SearchLimit   int           `koanf:"search_limit" validate:"min=1,max=50"`
	Concurrency   int           `koanf:"concurrency" validate:"min=1"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			CORSOrigins:     []string{"*"},
			RateLimit:       120,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Spotify: SpotifyConfig{
			Market:        "US",
			AudioFeatures: true,
		},
		Caption: CaptionConfig{
			Timeout:  10 * time.Second,
			Deadline: 20 * time.Second,
			CacheTTL: 24 * time.Hour,
			MaxBytes: 10 << 20,
		},
		Recommend: RecommendConfig{
			SearchTimeout: 8 * time.Second,
			SearchLimit:   10,
			Concurrency:   4,
		},
	}
}

// Load reads .env (if present), then layers defaults, the config file and
// the environment, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := splitList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	if (c.Spotify.ClientID == "") != (c.Spotify.ClientSecret == "") {
		return errors.New("SPOTIFY_ID and SPOTIFY_SECRET must be set together")
	}
	if c.Caption.Timeout > c.Caption.Deadline {
		return errors.New("CAPTION_TIMEOUT must not exceed CAPTION_DEADLINE")
	}
	return nil
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKeys maps environment variables to config paths. Unlisted variables
// are ignored.
var envKeys = map[string]string{
	"server_host":              "server.host",
	"port":                     "server.port",
	"cors_origins":             "server.cors_origins",
	"rate_limit":               "server.rate_limit",
	"shutdown_timeout":         "server.shutdown_timeout",
	"log_level":                "log.level",
	"log_format":               "log.format",
	"log_caller":               "log.caller",
	"spotify_id":               "spotify.client_id",
	"spotify_secret":           "spotify.client_secret",
	"spotify_market":           "spotify.market",
	"spotify_audio_features":   "spotify.audio_features",
	"caption_api_url":          "caption.url",
	"caption_api_token":        "caption.token",
	"caption_timeout":          "caption.timeout",
	"caption_deadline":         "caption.deadline",
	"caption_cache_ttl":        "caption.cache_ttl",
	"max_image_bytes":          "caption.max_bytes",
	"database_url":             "database.url",
	"redis_url":                "redis.url",
	"recommend_search_timeout": "recommend.search_timeout",
	"recommend_search_limit":   "recommend.search_limit",
	"recommend_concurrency":    "recommend.concurrency",
}

func envKey(key string) string {
	return envKeys[strings.ToLower(key)]
}

// splitList turns a comma-separated string from the environment into a slice.
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if err := k.Set(path, parts); err != nil {
		return fmt.Errorf("setting %s: %w", path, err)
	}
	return nil
}
