// config.go: This file contains the configuration for the RiceNet-Go application. It defines the settings struct and functions to load and save the settings.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// RiceNetConfig holds the inference settings for the combined rice quality model.
type RiceNetConfig struct {
	Debug      bool    // true to enable debug mode
	ModelPath  string  // path to external model file (empty for embedded)
	Threads    int     // number of CPU threads to use for inference, 0 for automatic
	UseXNNPACK bool    // true to use XNNPACK delegate for inference acceleration
	RiceType   string  // rice type of analyzed samples: paddy, brown or white
	Latitude   float64 // latitude of sample capture location, stamped on scans
	Longitude  float64 // longitude of sample capture location, stamped on scans
}

// MillingThresholds defines broken percentage upper bounds for milling grades.
// A grade applies when broken percentage is strictly below its bound.
type MillingThresholds struct {
	Premium float64 // broken % bound for premium grade
	Grade1  float64 // broken % bound for grade 1
	Grade2  float64 // broken % bound for grade 2
	Grade3  float64 // broken % bound for grade 3, above is below grade
}

// ShapeThresholds defines length/width ratio bounds for grain shape classes.
type ShapeThresholds struct {
	Bold   float64 // ratio bound for bold grains, exclusive
	Medium float64 // ratio bound for medium grains, inclusive, above is slender
}

// DefectThresholds defines defect percentage bands for warning severities.
type DefectThresholds struct {
	Warning  float64 // defect % for a low severity warning
	Caution  float64 // defect % for a medium severity warning
	Critical float64 // defect % for a high severity warning
}

// MetricStat is a mean/std pair used to invert the model's output normalization.
type MetricStat struct {
	Mean float64
	Std  float64
}

// QualityConfig holds classification thresholds and optional per-metric
// normalization statistic overrides keyed by model output name.
type QualityConfig struct {
	Debug      bool                  // true to enable debug mode
	Milling    MillingThresholds     // milling grade cutoffs
	Shape      ShapeThresholds       // grain shape cutoffs
	Chalkiness float64               // chalky % threshold for chalkiness classification
	Defect     DefectThresholds      // defect warning severity bands
	Stats      map[string]MetricStat // normalization stat overrides, empty for built-in table
}

// InputConfig holds runtime input settings for file and directory analysis.
type InputConfig struct {
	Path      string `yaml:"-"` // path to input file or directory
	Recursive bool   `yaml:"-"` // true for recursive directory analysis
}

// RetentionConfig bounds the number of scans kept in the database.
type RetentionConfig struct {
	Debug    bool // true to enable debug mode
	MaxScans int  // maximum stored scans before oldest synced rows are evicted, 0 disables eviction
}

// ExportConfig holds CSV export settings.
type ExportConfig struct {
	Prefix string // filename prefix for CSV exports
}

// NotifyConfig holds quality alert notification settings.
type NotifyConfig struct {
	Enabled      bool     // true to enable notifications
	Debug        bool     // true to enable debug mode
	URLs         []string // shoutrrr service URLs to deliver alerts to
	MinSeverity  string   // minimum defect severity to alert on: low, medium or high
	OnBelowGrade bool     // also alert when a scan grades below grade
}

// Settings contains all configuration options for the RiceNet-Go application.
type Settings struct {
	Debug bool // true to enable debug mode

	// Runtime values, not stored in config file
	Version   string `yaml:"-"` // Version from build
	BuildDate string `yaml:"-"` // Build date from build

	Main struct {
		Name      string    // name of RiceNet-Go node, used to identify the operator of scans
		TimeAs24h bool      // true 24-hour time format, false 12-hour time format
		Log       LogConfig // logging configuration
	}

	RiceNet RiceNetConfig // rice quality model configuration

	Quality QualityConfig // classification thresholds and normalization stats

	Input InputConfig `yaml:"-"` // Input configuration for file and directory analysis

	WebServer struct {
		Debug   bool      // true to enable debug mode
		Enabled bool      // true to enable web server
		Port    string    // port for web server
		Log     LogConfig // logging configuration for web server
	}

	Output struct {
		File struct {
			Enabled bool   `yaml:"-"` // true to enable file output
			Path    string `yaml:"-"` // directory to output results
			Type    string `yaml:"-"` // table, csv
		}

		SQLite struct {
			Enabled bool   // true to enable sqlite output
			Path    string // path to sqlite database
		}

		MySQL struct {
			Enabled  bool   // true to enable mysql output
			Username string // username for mysql database
			Password string // password for mysql database
			Database string // database name for mysql database
			Host     string // host for mysql database
			Port     string // port for mysql database
		}
	}

	Retention RetentionConfig // scan retention configuration

	Export ExportConfig // CSV export configuration

	Backup BackupConfig // Backup configuration

	Notify NotifyConfig // Notification configuration
}

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled     bool         // true to enable this log
	Path        string       // Path to the log file
	Rotation    RotationType // Type of log rotation
	MaxSize     int64        // Max size in bytes for RotationSize
	RotationDay string       // Day of the week for RotationWeekly (as a string: "Sunday", "Monday", etc.)
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// BackupRetention defines backup retention policy
type BackupRetention struct {
	MaxAge     string `yaml:"maxage"`     // Maximum age of backups to keep, e.g. "30d", "6m", "1y"
	MaxBackups int    `yaml:"maxbackups"` // Maximum number of backups to keep
	MinBackups int    `yaml:"minbackups"` // Minimum number of backups to keep regardless of age
}

// BackupTarget defines settings for a backup target
type BackupTarget struct {
	Type     string                 `yaml:"type"`     // "local", "ftp" or "sftp"
	Enabled  bool                   `yaml:"enabled"`  // true to enable this target
	Settings map[string]interface{} `yaml:"settings"` // Target-specific settings
}

// BackupConfig defines the configuration for database backups
type BackupConfig struct {
	Enabled   bool            `yaml:"enabled"`   // true to enable backup functionality
	Debug     bool            `yaml:"debug"`     // true to enable debug logging
	Interval  string          `yaml:"interval"`  // Duration string between scheduled backups, e.g. "24h"
	Retention BackupRetention `yaml:"retention"` // Backup retention settings
	Targets   []BackupTarget  `yaml:"targets"`   // List of backup targets
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a Settings struct.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	// Create a new settings struct
	settings := &Settings{}

	// Initialize viper and read config
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	// Unmarshal the config into settings
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	// Validate settings
	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	// Save settings instance
	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Get OS specific config paths
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	// Assign config paths to Viper
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	// Read configuration file
	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the default config path
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	// Create directories for config file
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	// Write default config file
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveSettings saves the current settings to the configuration file.
// It uses SaveYAMLConfig to handle the atomic write process.
func SaveSettings() error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()

	// Create a copy of the settings
	settingsCopy := *settingsInstance

	// Find the path of the current config file
	configPath, err := FindConfigFile()
	if err != nil {
		return fmt.Errorf("error finding config file: %w", err)
	}

	// Save the settings to the config file
	if err := SaveYAMLConfig(configPath, &settingsCopy); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	log.Printf("Settings saved successfully to %s", configPath)
	return nil
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// SaveYAMLConfig updates the YAML configuration file with new settings.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	// Marshal the settings struct to YAML
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	// Write the YAML data to a temporary file
	// This is done to ensure atomic write operation
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	// Ensure the temporary file is removed in case of any failure
	defer os.Remove(tempFileName)

	// Write the YAML data to the temporary file
	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	// Close the temporary file after writing
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	// Try to rename the temporary file to replace the original config file
	// This is typically an atomic operation on most filesystems
	if err := os.Rename(tempFileName, configPath); err != nil {
		// If rename fails (e.g., cross-device link), fall back to copy & delete
		if err := moveFile(tempFileName, configPath); err != nil {
			return fmt.Errorf("error copying config file: %w", err)
		}
	}

	return nil
}
