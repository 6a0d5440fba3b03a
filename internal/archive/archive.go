package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ArchiveData moves the data directory to an archive with timestamp.
// The next run starts from an empty database and blob store.
func ArchiveData(dataDir string) error {
	// Check if data directory exists
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		return fmt.Errorf("data directory does not exist: %s", dataDir)
	}

	// Get parent directory and create archive path
	parentDir := filepath.Dir(dataDir)
	archiveDir := filepath.Join(parentDir, "archive")

	// Create archive directory if it doesn't exist
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	// Generate timestamp
	timestamp := time.Now().Format("20060102-150405")
	archiveName := fmt.Sprintf("data-%s", timestamp)
	archivePath := filepath.Join(archiveDir, archiveName)

	// Check if archive already exists (unlikely but possible)
	if _, err := os.Stat(archivePath); err == nil {
		// Add microseconds to make it unique
		timestamp = time.Now().Format("20060102-150405.000000")
		archiveName = fmt.Sprintf("data-%s", timestamp)
		archivePath = filepath.Join(archiveDir, archiveName)
	}

	// Rename data directory to archive
	if err := os.Rename(dataDir, archivePath); err != nil {
		return fmt.Errorf("failed to archive data directory: %w", err)
	}

	fmt.Printf("Data directory archived to: %s\n", archivePath)
	return nil
}
