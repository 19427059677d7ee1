// config.go: settings struct and functions to load and save the BirdTag configuration.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// MainSettings contains application-wide settings.
type MainSettings struct {
	Name  string // service instance name
	Debug bool   // true to enable debug logging
	Log   LogSettings
}

// LogSettings contains settings for the service log file.
type LogSettings struct {
	Enabled bool   // true to write a service log file
	Path    string // path to the log file
}

// DetectorSettings configures the external object-detection capability.
type DetectorSettings struct {
	Endpoint  string        // inference endpoint URL
	Timeout   time.Duration // per-request timeout
	Threshold float64       // minimum confidence for a detection to count
}

// SamplerSettings configures video frame sampling.
type SamplerSettings struct {
	PerSecond int // target sampled frames per second of source video
}

// SQLiteSettings contains settings for the SQLite record store.
type SQLiteSettings struct {
	Enabled bool
	Path    string // path to the database file
}

// MySQLSettings contains settings for the MySQL record store.
type MySQLSettings struct {
	Enabled  bool
	Username string
	Password string
	Database string
	Host     string
	Port     string
}

// StoreSettings selects and configures the media record store backend.
type StoreSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// MQTTSettings configures the MQTT notification sink.
type MQTTSettings struct {
	Enabled  bool
	Broker   string // broker URI, e.g. tcp://localhost:1883
	Topic    string
	Username string
	Password string
}

// ShoutrrrSettings configures push notification delivery.
type ShoutrrrSettings struct {
	Enabled bool
	URLs    []string // shoutrrr service URLs
}

// NotifySettings configures the notification sinks.
type NotifySettings struct {
	Debug    bool
	MQTT     MQTTSettings
	Shoutrrr ShoutrrrSettings
}

// ServerSettings contains settings for the HTTP API server.
type ServerSettings struct {
	Port          string
	CacheTTL      time.Duration // search result cache lifetime
	IngestWorkers int           // concurrent asset ingestion workers
}

// ObjectStoreSettings configures the external object storage collaborator.
type ObjectStoreSettings struct {
	Root    string // local root directory holding stored objects
	BaseURL string // public URL base used to derive file and thumbnail URLs
}

// Settings is the root configuration structure.
type Settings struct {
	Main        MainSettings
	Detector    DetectorSettings
	Sampler     SamplerSettings
	Store       StoreSettings
	Notify      NotifySettings
	Server      ServerSettings
	ObjectStore ObjectStoreSettings
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	if configDir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(configDir, "birdtag-go"))
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// No config file is fine, defaults and flags carry the day.
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				panic(fmt.Sprintf("error loading settings: %v", err))
			}
		}
	})
	return GetSettings()
}

// SaveYAMLConfig writes the settings to the given path as YAML.
// The write goes through a temporary file to keep it atomic.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary config file: %w", err)
	}
	tempName := tempFile.Name()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempName)
		return fmt.Errorf("error writing temporary config file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempName)
		return fmt.Errorf("error closing temporary config file: %w", err)
	}

	if err := os.Rename(tempName, configPath); err != nil {
		_ = os.Remove(tempName)
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}
