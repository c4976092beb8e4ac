package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// OpenSubtitles (hash identification)
	OSDBAPIKey    string
	OSDBUserAgent string
	OSDBUsername  string // optional account credentials for a higher quota
	OSDBPassword  string

	// OMDb
	OMDBAPIKey string

	// TMDb
	TMDBAPIKey string

	// Failed-lookup cache
	FailedLookupTTLDays int // Days before a failed-lookup record expires (default: 30)

	// Server
	ServerPort string

	// Paths
	DatabaseFile string // $CONFIG_DIR/metadarr.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("OSDB_USER_AGENT", "metadarr v1")
	viper.SetDefault("FAILED_LOOKUP_TTL_DAYS", 30)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "metadarr")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		// OpenSubtitles
		OSDBAPIKey:    viper.GetString("OSDB_API_KEY"),
		OSDBUserAgent: viper.GetString("OSDB_USER_AGENT"),
		OSDBUsername:  viper.GetString("OSDB_USERNAME"),
		OSDBPassword:  viper.GetString("OSDB_PASSWORD"),

		// OMDb
		OMDBAPIKey: viper.GetString("OMDB_API_KEY"),

		// TMDb
		TMDBAPIKey: viper.GetString("TMDB_API_KEY"),

		// Failed-lookup cache
		FailedLookupTTLDays: viper.GetInt("FAILED_LOOKUP_TTL_DAYS"),

		// Server
		ServerPort: viper.GetString("SERVER_PORT"),

		// Paths
		DatabaseFile: filepath.Join(configDir, "metadarr.db"),

		// Logging
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// Validate required fields
	if config.OSDBAPIKey == "" {
		return nil, fmt.Errorf("OSDB_API_KEY is required")
	}
	if config.OMDBAPIKey == "" {
		return nil, fmt.Errorf("OMDB_API_KEY is required")
	}
	if config.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY is required")
	}

	return config, nil
}
