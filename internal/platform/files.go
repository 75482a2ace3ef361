package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Partial download suffixes left behind by yt-dlp
var (
	PartialSuffixes = []string{".part", ".ytdl"}
)

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	info, err := os.Stat(dirPath)
	if os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", dirPath)
	}
	return nil
}

// RemoveIfExists removes path; a missing file is not an error
func RemoveIfExists(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// RemovePartials removes path together with any partial download files next
// to it, returning the first error encountered
func RemovePartials(path string) error {
	var firstErr error
	candidates := []string{path}
	for _, suffix := range PartialSuffixes {
		candidates = append(candidates, path+suffix)
	}
	for _, candidate := range candidates {
		if err := RemoveIfExists(candidate); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ArtifactPath joins dir with name and an extension and makes sure the result
// stays inside dir
func ArtifactPath(dir, name, ext string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty artifact name")
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory: %w", err)
	}
	fileName := name
	if ext != "" {
		fileName += "." + strings.TrimPrefix(ext, ".")
	}
	target := filepath.Join(absDir, fileName)
	rel, err := filepath.Rel(absDir, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || strings.ContainsRune(rel, filepath.Separator) {
		return "", fmt.Errorf("artifact path escapes directory: %s", fileName)
	}
	return target, nil
}

// IsPartialFile reports whether name belongs to an unfinished download
func IsPartialFile(name string) bool {
	for _, suffix := range PartialSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
