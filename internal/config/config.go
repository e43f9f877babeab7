package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Storage   StorageConfig
	Game      GameConfig
	Scheduler SchedulerConfig
	LogLevel  string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// StorageConfig selects the ledger driver ("mongodb" or "memory")
type StorageConfig struct {
	Driver string
}

// GameConfig holds the game tunables
type GameConfig struct {
	// BaseAmount is the jackpot seed value and the amount it resets to on a win.
	BaseAmount float64
	// ClickDelta is added to the jackpot on every missed click.
	ClickDelta float64
	// Ceiling caps the jackpot amount.
	Ceiling float64
}

// SchedulerConfig holds the periodic incrementer configuration
type SchedulerConfig struct {
	// TickInterval is the cadence of the automatic jackpot increment.
	TickInterval time.Duration
	// TickDelta is added to the jackpot on every tick.
	TickDelta float64
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(GetEnv("PIXELPOT_CONFIG_DIR", "."))
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read configuration
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Unmarshal configuration
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "pixelpot")
	viper.SetDefault("Storage.Driver", "mongodb")
	viper.SetDefault("Game.BaseAmount", 100.0)
	viper.SetDefault("Game.ClickDelta", 0.001)
	viper.SetDefault("Game.Ceiling", 10_000_000.0)
	viper.SetDefault("Scheduler.TickInterval", "5m")
	viper.SetDefault("Scheduler.TickDelta", 0.01)
	viper.SetDefault("LogLevel", "info")
}
