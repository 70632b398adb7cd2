package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// sanitizeFilename replaces every character outside [a-zA-Z0-9._-] with
// an underscore, so uploader-controlled names cannot escape the staging
// directory or break shell tooling.
func sanitizeFilename(name string) string {
	return unsafeFilenameRe.ReplaceAllString(filepath.Base(name), "_")
}

// stagedName builds a collision-resistant name for a staged upload:
// timestamp, a short random component, then the sanitized original name.
func stagedName(original string) string {
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), uuid.New().String()[:8], sanitizeFilename(original))
}

// stageFile writes the uploaded part to the staging directory and returns
// the staged path. The directory is created on demand.
func stageFile(dir string, file multipart.File, original string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}

	path := filepath.Join(dir, stagedName(original))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write staged file: %w", err)
	}
	return path, nil
}
