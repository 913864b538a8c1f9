// conf/utils.go various util functions for configuration package
package conf

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/graintec/ricenet-go/internal/errors"
)

// OS name constants for runtime.GOOS comparisons.
const (
	osLinux   = "linux"
	osWindows = "windows"
)

// GetDefaultConfigPaths returns a list of default configuration paths for the current operating system.
// It determines paths based on standard conventions for storing application configuration files.
// If a config.yaml file is found in any of the paths, it returns that path as the default.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	// Fetch the directory of the executable.
	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-executable-path").
			Build()
	}
	exeDir := filepath.Dir(exePath)

	// Fetch the user's home directory.
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	// Define default paths based on the operating system.
	switch runtime.GOOS {
	case osWindows:
		// For Windows, use the executable directory and the AppData Roaming directory.
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", "ricenet-go"),
		}
	default:
		// For Linux and macOS, use a hidden directory in the home directory and a system-wide configuration directory.
		configPaths = []string{
			filepath.Join(homeDir, ".config", "ricenet-go"),
			"/etc/ricenet-go",
		}
	}

	// Check if config.yaml exists in any of the paths
	for _, path := range configPaths {
		configFile := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFile); err == nil {
			// Config file found, return this path as the only default path
			return []string{path}, nil
		}
	}

	// If no config.yaml is found, return all paths
	return configPaths, nil
}

// FindConfigFile locates the configuration file.
func FindConfigFile() (string, error) {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "find-config-paths").
			Build()
	}

	for _, path := range configPaths {
		configFilePath := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFilePath); err == nil {
			return configFilePath, nil
		}
	}

	return "", errors.Newf("config file not found").
		Category(errors.CategoryFileIO).
		Context("operation", "find-config-file").
		Build()
}

// GetBasePath expands environment variables in the given path and ensures the resulting path exists.
func GetBasePath(path string) string {
	// Expand environment variables in the path.
	expandedPath := os.ExpandEnv(path)

	// Normalize the path to handle any irregularities such as trailing slashes.
	basePath := filepath.Clean(expandedPath)

	// Check if the directory exists.
	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		// Attempt to create the directory if it doesn't exist.
		if err := os.MkdirAll(basePath, 0o750); err != nil {
			fmt.Printf("failed to create directory '%s': %v\n", basePath, err)
		}
	}

	return basePath
}

// RunningInContainer checks if the program is running inside a container.
func RunningInContainer() bool {
	// Check for the existence of the /.dockerenv file (Docker-specific).
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	// Check for the existence of the /run/.containerenv file (Podman-specific).
	if _, err := os.Stat("/run/.containerenv"); err == nil {
		return true
	}

	// Check the container environment variable.
	if containerEnv, exists := os.LookupEnv("container"); exists && containerEnv != "" {
		return true
	}

	// Check cgroup for hints of container runtime.
	file, err := os.Open("/proc/self/cgroup")
	if err != nil {
		return false
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Warn("Failed to close /proc/self/cgroup", "error", err)
		}
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "docker") || strings.Contains(line, "podman") {
			return true
		}
	}

	return false
}

// IsLinuxArm64 checks if the operating system is Linux and the architecture is arm64.
func IsLinuxArm64() bool {
	return runtime.GOOS == osLinux && runtime.GOARCH == "arm64"
}

// GetBoardModel reads the SBC board model from the device tree.
func GetBoardModel() string {
	// Get the board model from the device tree.
	data, err := os.ReadFile("/proc/device-tree/model")
	if err != nil {
		return ""
	}

	// Return the board model as a string.
	model := strings.TrimSpace(string(data))
	return model
}

// moveFile moves a file, falling back to copy and delete across filesystems.
func moveFile(src, dst string) error {
	// Try to rename the file first (this works for moves within the same filesystem)
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	// If rename fails, fall back to copy and delete method
	// Validate paths to prevent directory traversal
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("error resolving source path: %w", err)
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return fmt.Errorf("error resolving destination path: %w", err)
	}

	srcFile, err := os.Open(srcAbs) //nolint:gosec // G304: srcAbs is filepath.Abs resolved path
	if err != nil {
		return fmt.Errorf("error opening source file: %w", err)
	}
	defer func() {
		if err := srcFile.Close(); err != nil {
			slog.Warn("Failed to close source file", "error", err)
		}
	}()

	dstFile, err := os.Create(dstAbs) //nolint:gosec // G304: dstAbs is filepath.Abs resolved path
	if err != nil {
		return fmt.Errorf("error creating destination file: %w", err)
	}
	defer func() {
		if err := dstFile.Close(); err != nil {
			slog.Warn("Failed to close destination file", "error", err)
		}
	}()

	// Copy the contents from source to destination
	_, err = io.Copy(dstFile, srcFile)
	if err != nil {
		return fmt.Errorf("error copying file contents: %w", err)
	}

	// After successful copy, delete the source file
	if err := os.Remove(src); err != nil {
		// The move was partially successful (the copy succeeded)
		return fmt.Errorf("error removing source file after copy: %w", err)
	}

	return nil
}
