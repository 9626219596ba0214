package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store defines the interface for generated-artifact storage
type Store interface {
	// StoreImage persists generated image bytes and returns the path
	StoreImage(ctx context.Context, data []byte) (string, error)

	// Delete removes an artifact from storage
	Delete(ctx context.Context, path string) error

	// CleanupExpired removes artifacts older than ttl
	CleanupExpired(ctx context.Context, ttl time.Duration) error
}

// LocalStore implements Store on the local filesystem
type LocalStore struct {
	tempDir string
}

// NewLocalStore creates a new LocalStore instance
func NewLocalStore(tempDir string) (*LocalStore, error) {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &LocalStore{tempDir: tempDir}, nil
}

func (s *LocalStore) StoreImage(ctx context.Context, data []byte) (string, error) {
	tempFile, err := os.CreateTemp(s.tempDir, "img-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tempFile.Close()

	if _, err := tempFile.Write(data); err != nil {
		os.Remove(tempFile.Name()) // Clean up on error
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return tempFile.Name(), nil
}

func (s *LocalStore) Delete(ctx context.Context, path string) error {
	// Verify the path is within our temp directory
	clean := filepath.Clean(path)
	root := filepath.Clean(s.tempDir) + string(os.PathSeparator)
	if !strings.HasPrefix(clean, root) {
		return fmt.Errorf("invalid file path: must be within temp directory")
	}
	return os.Remove(clean)
}

// CleanupExpired removes artifacts whose mtime is past the TTL. A zero
// or negative TTL disables the sweep.
func (s *LocalStore) CleanupExpired(ctx context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		return fmt.Errorf("failed to scan artifacts: %w", err)
	}

	cutoff := time.Now().Add(-ttl)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := s.Delete(ctx, filepath.Join(s.tempDir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}
