package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogStorage manages saving build consoles to files
type LogStorage struct {
	BaseDir string
}

// NewLogStorage creates a new log storage handler
func NewLogStorage(baseDir string) *LogStorage {
	return &LogStorage{BaseDir: baseDir}
}

// SaveLog saves the console of a build and returns the file path
func (ls *LogStorage) SaveLog(buildID, name, output string) (string, error) {
	// Ensure base directory exists
	if err := os.MkdirAll(ls.BaseDir, 0775); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}

	// Filename with timestamp for readability, build id for uniqueness
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s_%s.log", sanitize(name), timestamp, sanitize(buildID))
	filePath := filepath.Join(ls.BaseDir, filename)

	if err := os.WriteFile(filePath, []byte(output), 0644); err != nil {
		return "", fmt.Errorf("write log: %w", err)
	}
	return filePath, nil
}

// sanitize removes special characters from names for filenames
func sanitize(name string) string {
	var clean strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			clean.WriteRune(r)
		}
	}
	if clean.Len() == 0 {
		return "build"
	}
	return clean.String()
}
