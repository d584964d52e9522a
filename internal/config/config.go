package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Addr            string        `env:"GUFF_ADDR" envDefault:":8080"`
	BaseURL         string        `env:"GUFF_BASE_URL" envDefault:"/"`
	ShutdownTimeout time.Duration `env:"GUFF_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	LogLevel       string `env:"GUFF_LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"GUFF_LOG_DEV"`

	// SessionBackend is one of "memory", "redis" or "sqlite".
	SessionBackend string        `env:"GUFF_SESSION_BACKEND" envDefault:"memory"`
	SessionTTL     time.Duration `env:"GUFF_SESSION_TTL" envDefault:"24h"`
	RedisAddr      string        `env:"GUFF_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string        `env:"GUFF_REDIS_PASSWORD"`
	SQLitePath     string        `env:"GUFF_SQLITE_PATH" envDefault:"guff-circle.db"`

	OTelEndpoint string `env:"GUFF_OTEL_ENDPOINT"`

	// CredentialsFile optionally points at a YAML credentials record.
	CredentialsFile    string `env:"GUFF_FIREBASE_CONFIG"`
	ServiceAccountFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	Firebase Credentials `envPrefix:"GUFF_FIREBASE_"`
}

// Credentials is the Firebase project record shared with the browser SDK.
type Credentials struct {
	APIKey            string `yaml:"apiKey" json:"apiKey" env:"API_KEY"`
	AuthDomain        string `yaml:"authDomain" json:"authDomain" env:"AUTH_DOMAIN"`
	ProjectID         string `yaml:"projectId" json:"projectId" env:"PROJECT_ID"`
	StorageBucket     string `yaml:"storageBucket" json:"storageBucket" env:"STORAGE_BUCKET"`
	MessagingSenderID string `yaml:"messagingSenderId" json:"messagingSenderId" env:"MESSAGING_SENDER_ID"`
	AppID             string `yaml:"appId" json:"appId" env:"APP_ID"`
	MeasurementID     string `yaml:"measurementId" json:"measurementId,omitempty" env:"MEASUREMENT_ID"`
}

// DefaultProjectID is the Firebase project the application ships against.
const DefaultProjectID = "guff-circle"

// WithDefaults fills blank project-derived fields.
func (c Credentials) WithDefaults() Credentials {
	if c.ProjectID == "" {
		c.ProjectID = DefaultProjectID
	}
	if c.AuthDomain == "" {
		c.AuthDomain = c.ProjectID + ".firebaseapp.com"
	}
	if c.StorageBucket == "" {
		c.StorageBucket = c.ProjectID + ".firebasestorage.app"
	}
	return c
}

// Merge returns c with blank fields taken from fallback.
func (c Credentials) Merge(fallback Credentials) Credentials {
	pick := func(v, alt string) string {
		if v != "" {
			return v
		}
		return alt
	}
	return Credentials{
		APIKey:            pick(c.APIKey, fallback.APIKey),
		AuthDomain:        pick(c.AuthDomain, fallback.AuthDomain),
		ProjectID:         pick(c.ProjectID, fallback.ProjectID),
		StorageBucket:     pick(c.StorageBucket, fallback.StorageBucket),
		MessagingSenderID: pick(c.MessagingSenderID, fallback.MessagingSenderID),
		AppID:             pick(c.AppID, fallback.AppID),
		MeasurementID:     pick(c.MeasurementID, fallback.MeasurementID),
	}
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the process configuration. Credentials are layered as
// environment over file over built-in defaults.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.CredentialsFile != "" {
		fromFile, err := LoadCredentials(cfg.CredentialsFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Firebase = cfg.Firebase.Merge(*fromFile)
	}
	cfg.Firebase = cfg.Firebase.WithDefaults()
	cfg.BaseURL = NormalizeBase(cfg.BaseURL)

	switch cfg.SessionBackend {
	case "memory", "redis", "sqlite":
	default:
		return Config{}, fmt.Errorf("config: unknown session backend %q", cfg.SessionBackend)
	}
	return cfg, nil
}

// LoadCredentials loads a credentials record from a YAML file.
func LoadCredentials(path string) (*Credentials, error) {
	cleanPath := filepath.Clean(path)
	b, err := os.ReadFile(cleanPath) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("config: read credentials: %w", err)
	}
	var c Credentials
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: decode credentials: %w", err)
	}
	return &c, nil
}

// NormalizeBase returns base with exactly one leading and one trailing slash.
func NormalizeBase(base string) string {
	base = strings.Trim(strings.TrimSpace(base), "/")
	if base == "" {
		return "/"
	}
	return "/" + base + "/"
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
