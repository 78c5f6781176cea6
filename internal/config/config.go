package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	MapboxAccessToken string        `mapstructure:"MAPBOX_ACCESS_TOKEN"`
	MapStyle          string        `mapstructure:"MAP_STYLE"`
	DBUrl             string        `mapstructure:"DB_URL"`
	RedisUrl          string        `mapstructure:"REDIS_URL"`
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`
	SweepInterval     time.Duration `mapstructure:"SWEEP_INTERVAL"`
	LogFile           string        `mapstructure:"LOG_FILE"`
}

// LoadConfig reads .env.<APP_ENV> from the working directory; environment
// variables take precedence.
func LoadConfig() (Config, error) {
	return LoadConfigFrom(".")
}

// LoadConfigFrom is LoadConfig with an explicit directory for the env file
func LoadConfigFrom(dir string) (c Config, err error) {
	// Get environment type from ENV variable or use development as default
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()

	// Set default values
	v.SetDefault("PORT", ":8080")
	v.SetDefault("MAPBOX_ACCESS_TOKEN", "")
	v.SetDefault("MAP_STYLE", DefaultMapStyle)
	v.SetDefault("DB_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("SWEEP_INTERVAL", "1m")
	v.SetDefault("LOG_FILE", "lightning.log")

	// Load environment file
	v.SetConfigName(fmt.Sprintf(".env.%s", env))
	v.SetConfigType("env")
	v.AddConfigPath(dir)

	// Environment variables take precedence over config file
	v.AutomaticEnv()

	// Continue even if file is not found
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	err = v.Unmarshal(&c)
	return
}
