// Package weather implements the clima server: an OpenWeatherMap wrapper
// exposing current-conditions queries, city search, and configuration
// validation as tools.
package weather

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5"
	defaultGeoURL  = "http://api.openweathermap.org/geo/1.0"

	defaultTimeout = 30 * time.Second

	// minAPIKeyLen is the shortest plausible OpenWeatherMap key; anything
	// shorter is treated as unconfigured.
	minAPIKeyLen = 10
)

// ErrAPIKeyMissing indicates OPENWEATHERMAP_API_KEY is not set.
var ErrAPIKeyMissing = errors.New("variable de entorno OPENWEATHERMAP_API_KEY no encontrada")

// Config holds the clima server configuration.
type Config struct {
	APIKey  string
	BaseURL string
	GeoURL  string
	Timeout time.Duration

	// InstanceID identifies this server instance in logs.
	InstanceID string
}

// LoadConfig reads configuration from the environment. The API key is
// required; everything else has defaults.
func LoadConfig() (Config, error) {
	apiKey := os.Getenv("OPENWEATHERMAP_API_KEY")
	if apiKey == "" {
		return Config{}, ErrAPIKeyMissing
	}

	return Config{
		APIKey:     apiKey,
		BaseURL:    getEnv("OPENWEATHERMAP_BASE_URL", defaultBaseURL),
		GeoURL:     getEnv("OPENWEATHERMAP_GEO_URL", defaultGeoURL),
		Timeout:    getEnvDuration("API_TIMEOUT", defaultTimeout),
		InstanceID: uuid.NewString(),
	}, nil
}

// APIKeyValida reports whether the configured key looks usable.
func (c Config) APIKeyValida() bool {
	return len(c.APIKey) >= minAPIKeyLen
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvDuration reads a timeout expressed in seconds, matching the
// API_TIMEOUT convention of the upstream deployment.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs * float64(time.Second))
}
