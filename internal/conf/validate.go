// conf/validate.go

package conf

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	// Validate RiceNet settings
	if err := validateRiceNetSettings(&settings.RiceNet); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate Quality settings
	if err := validateQualitySettings(&settings.Quality); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate WebServer settings
	if err := validateWebServerSettings(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate Output settings
	if err := validateOutputSettings(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate Retention settings
	if err := validateRetentionSettings(&settings.Retention); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate Backup settings
	if err := validateBackupSettings(&settings.Backup); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate Notify settings
	if err := validateNotifySettings(&settings.Notify); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// If there are any errors, return the ValidationError
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateRiceNetSettings validates the model-specific settings
func validateRiceNetSettings(settings *RiceNetConfig) error {
	var errs []string

	// Check if threads is non-negative
	if settings.Threads < 0 {
		errs = append(errs, "RiceNet threads must be at least 0")
	}

	// Check if rice type is one of the supported types
	switch strings.ToLower(settings.RiceType) {
	case "paddy", "brown", "white":
	default:
		errs = append(errs, fmt.Sprintf("RiceNet rice type must be paddy, brown or white, got %q", settings.RiceType))
	}

	// Check if longitude is within valid range
	if settings.Longitude < -180 || settings.Longitude > 180 {
		errs = append(errs, "RiceNet longitude must be between -180 and 180")
	}

	// Check if latitude is within valid range
	if settings.Latitude < -90 || settings.Latitude > 90 {
		errs = append(errs, "RiceNet latitude must be between -90 and 90")
	}

	// If there are any errors, return them as a single error
	if len(errs) > 0 {
		return fmt.Errorf("RiceNet settings errors: %v", errs)
	}

	return nil
}

// validateQualitySettings validates classification thresholds and stat overrides
func validateQualitySettings(settings *QualityConfig) error {
	var errs []string

	// Milling grade cutoffs must be positive and strictly ascending
	m := settings.Milling
	if m.Premium <= 0 {
		errs = append(errs, "Quality milling premium cutoff must be positive")
	}
	if !(m.Premium < m.Grade1 && m.Grade1 < m.Grade2 && m.Grade2 < m.Grade3) {
		errs = append(errs, "Quality milling cutoffs must be strictly ascending: premium < grade1 < grade2 < grade3")
	}

	// Shape cutoffs must be positive and ascending
	if settings.Shape.Bold <= 0 || settings.Shape.Medium <= settings.Shape.Bold {
		errs = append(errs, "Quality shape cutoffs must satisfy 0 < bold < medium")
	}

	// Chalkiness threshold must be a percentage
	if settings.Chalkiness <= 0 || settings.Chalkiness > 100 {
		errs = append(errs, "Quality chalkiness threshold must be between 0 and 100")
	}

	// Defect severity bands must be ascending percentages
	d := settings.Defect
	if d.Warning <= 0 || !(d.Warning < d.Caution && d.Caution < d.Critical) {
		errs = append(errs, "Quality defect bands must be strictly ascending: warning < caution < critical")
	}
	if d.Critical > 100 {
		errs = append(errs, "Quality defect critical band must not exceed 100")
	}

	// Stat overrides must carry a positive standard deviation
	for name, stat := range settings.Stats {
		if stat.Std <= 0 {
			errs = append(errs, fmt.Sprintf("Quality stat override for %s must have positive std", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("Quality settings errors: %v", errs)
	}

	return nil
}

// validateWebServerSettings validates the WebServer-specific settings
func validateWebServerSettings(settings *Settings) error {
	if settings.WebServer.Enabled {
		// Validate port number
		port, err := strconv.Atoi(settings.WebServer.Port)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("WebServer port must be a valid port number between 1 and 65535, got %q", settings.WebServer.Port)
		}
	}
	return nil
}

// validateOutputSettings validates the output destinations
func validateOutputSettings(settings *Settings) error {
	var errs []string

	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		errs = append(errs, "SQLite output path must not be empty when enabled")
	}

	if settings.Output.MySQL.Enabled {
		if settings.Output.MySQL.Host == "" || settings.Output.MySQL.Database == "" {
			errs = append(errs, "MySQL output requires host and database when enabled")
		}
		if _, err := strconv.Atoi(settings.Output.MySQL.Port); err != nil {
			errs = append(errs, fmt.Sprintf("MySQL port must be numeric, got %q", settings.Output.MySQL.Port))
		}
	}

	if settings.Output.File.Enabled {
		switch settings.Output.File.Type {
		case "", "table", "csv":
		default:
			errs = append(errs, fmt.Sprintf("File output type must be table or csv, got %q", settings.Output.File.Type))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("Output settings errors: %v", errs)
	}

	return nil
}

// validateRetentionSettings validates scan retention settings
func validateRetentionSettings(settings *RetentionConfig) error {
	if settings.MaxScans < 0 {
		return fmt.Errorf("Retention maxscans must be at least 0, got %d", settings.MaxScans)
	}
	return nil
}

// validateBackupSettings validates database backup settings
func validateBackupSettings(settings *BackupConfig) error {
	if !settings.Enabled {
		return nil
	}

	var errs []string

	if settings.Interval != "" {
		if _, err := time.ParseDuration(settings.Interval); err != nil {
			errs = append(errs, fmt.Sprintf("Backup interval must be a valid duration, got %q", settings.Interval))
		}
	}

	if settings.Retention.MaxBackups < settings.Retention.MinBackups {
		errs = append(errs, "Backup retention maxbackups must not be lower than minbackups")
	}

	enabledTargets := 0
	for i := range settings.Targets {
		target := &settings.Targets[i]
		if !target.Enabled {
			continue
		}
		enabledTargets++
		switch target.Type {
		case "local", "ftp", "sftp":
		default:
			errs = append(errs, fmt.Sprintf("Backup target type must be local, ftp or sftp, got %q", target.Type))
		}
	}
	if enabledTargets == 0 {
		errs = append(errs, "Backup requires at least one enabled target when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("Backup settings errors: %v", errs)
	}

	return nil
}

// validateNotifySettings validates notification settings
func validateNotifySettings(settings *NotifyConfig) error {
	if !settings.Enabled {
		return nil
	}

	var errs []string

	switch strings.ToLower(settings.MinSeverity) {
	case "low", "medium", "high":
	default:
		errs = append(errs, fmt.Sprintf("Notify minseverity must be low, medium or high, got %q", settings.MinSeverity))
	}

	if len(settings.URLs) == 0 {
		errs = append(errs, "Notify requires at least one service URL when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("Notify settings errors: %v", errs)
	}

	return nil
}
