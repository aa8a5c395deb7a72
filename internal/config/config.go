package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	S3          S3Config          `mapstructure:"s3"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Setlist     SetlistConfig     `mapstructure:"setlist"`
	Recognition RecognitionConfig `mapstructure:"recognition"`
	Geocode     GeocodeConfig     `mapstructure:"geocode"`
	Matching    MatchingConfig    `mapstructure:"matching"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// SetlistConfig points at the external setlist/event data source.
type SetlistConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// RecognitionConfig points at the external audio recognition service.
type RecognitionConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIToken string `mapstructure:"api_token"`
}

// GeocodeConfig points at the reverse geocoding service.
type GeocodeConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
}

// MatchingConfig holds the concert/song matching policy constants. The bounds
// are policy, not physics: they get tuned, so they live in config.
type MatchingConfig struct {
	// MaxDistanceMeters is the "at the venue" radius for concert candidates.
	MaxDistanceMeters float64 `mapstructure:"max_distance_meters"`
	// HighConfidenceMeters is the tight radius for a "high" label.
	HighConfidenceMeters float64 `mapstructure:"high_confidence_meters"`
	// MaxDateDiffDays is the window either side of the recording timestamp.
	// Concerts spanning midnight must still match, so at least 1.
	MaxDateDiffDays int `mapstructure:"max_date_diff_days"`
	// MinTitleSimilarity is the fuzzy cross-reference acceptance threshold (0-1).
	MinTitleSimilarity float64 `mapstructure:"min_title_similarity"`
	// ClipSeconds is the audio clip length sent to the recognizer.
	ClipSeconds int `mapstructure:"clip_seconds"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// --- Environment Variable Handling ---
	viper.AutomaticEnv()
	// Use replacer for nested keys e.g., server.address -> SERVER_ADDRESS
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	// --- Set default values ---
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "stagesnap")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("jwt.expiration", "24h")
	viper.SetDefault("setlist.base_url", "https://api.setlist.fm/rest/1.0")
	viper.SetDefault("recognition.base_url", "https://api.audd.io")
	viper.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	viper.SetDefault("geocode.user_agent", "stagesnap-backend/1.0")
	viper.SetDefault("matching.max_distance_meters", 2000.0)
	viper.SetDefault("matching.high_confidence_meters", 200.0)
	viper.SetDefault("matching.max_date_diff_days", 1)
	viper.SetDefault("matching.min_title_similarity", 0.75)
	viper.SetDefault("matching.clip_seconds", 20)

	// --- Read Config File ---
	err = viper.ReadInConfig()
	// If config file not found, continue (might rely solely on env vars).
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	// --- Unmarshal Config ---
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
