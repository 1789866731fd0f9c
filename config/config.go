package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Dotenv string `mapstructure:"dotenv"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Metrics struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Providers struct {
		Geocoder struct {
			PrimaryBaseURL   string        `mapstructure:"primaryBaseURL"`
			SecondaryBaseURL string        `mapstructure:"secondaryBaseURL"`
			Timeout          time.Duration `mapstructure:"timeout"`
		} `mapstructure:"geocoder"`
		Photos struct {
			VenueBaseURL       string        `mapstructure:"venueBaseURL"`
			StockBaseURL       string        `mapstructure:"stockBaseURL"`
			PlaceholderBaseURL string        `mapstructure:"placeholderBaseURL"`
			Timeout            time.Duration `mapstructure:"timeout"`
		} `mapstructure:"photos"`
	} `mapstructure:"providers"`
	Cache struct {
		TTL             time.Duration `mapstructure:"ttl"`
		CleanupInterval time.Duration `mapstructure:"cleanupInterval"`
		MaxEntries      int           `mapstructure:"maxEntries"`
		DataDir         string        `mapstructure:"dataDir"`
	} `mapstructure:"cache"`
	Enrichment struct {
		MaxConcurrent int `mapstructure:"maxConcurrent"`
	} `mapstructure:"enrichment"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	return config, nil
}
