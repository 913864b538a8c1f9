package targets

import (
	"fmt"

	"github.com/graintec/ricenet-go/internal/backup"
)

// FromConfig builds a backup target from a configured target entry. The
// settings map carries the target-specific keys from the configuration file.
func FromConfig(targetType string, settings map[string]any, logger backup.Logger) (backup.Target, error) {
	switch targetType {
	case "local":
		config := LocalTargetConfig{}
		if path, ok := settings["path"].(string); ok {
			config.Path = path
		}
		if debug, ok := settings["debug"].(bool); ok {
			config.Debug = debug
		}
		return NewLocalTarget(config, logger)
	case "ftp":
		return NewFTPTargetFromMap(settings)
	case "sftp":
		return NewSFTPTarget(settings)
	default:
		return nil, backup.NewError(backup.ErrValidation, fmt.Sprintf("unsupported backup target type: %s", targetType), nil)
	}
}
