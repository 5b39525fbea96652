package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Upload directory layout, all under UPLOAD_DIR:
//
//	review/           staged images awaiting automated/manual checks
//	properties/{id}/  approved images, served to clients
//	rejected/         images that failed moderation
//
// Database rows store paths relative to UPLOAD_DIR so the base can move
// between environments without touching data.

func UploadDir() string {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "uploads"
	}
	return dir
}

func AbsolutePath(relPath string) string {
	return filepath.Join(UploadDir(), filepath.FromSlash(relPath))
}

// PublicURL rebuilds the client-facing URL for a stored relative path.
func PublicURL(relPath string) string {
	base := strings.TrimRight(os.Getenv("UPLOAD_BASE_URL"), "/")
	if base == "" {
		base = "/uploads"
	}
	return base + "/" + relPath
}

// SaveToReview writes an uploaded image into the review staging area and
// returns its relative path.
func SaveToReview(fileName string, src io.Reader) (string, error) {
	relPath := "review/" + fileName
	absPath := AbsolutePath(relPath)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", err
	}
	dst, err := os.Create(absPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(absPath)
		return "", err
	}
	return relPath, nil
}

// FileExists reports whether the stored relative path currently resolves to a
// regular file on disk.
func FileExists(relPath string) bool {
	info, err := os.Stat(AbsolutePath(relPath))
	return err == nil && info.Mode().IsRegular()
}

// MoveToPropertyDir relocates a staged image into its property's directory,
// creating the directory if absent. Returns the new relative path.
func MoveToPropertyDir(relPath string, propertyID uint) (string, error) {
	newRel := fmt.Sprintf("properties/%d/%s", propertyID, filepath.Base(relPath))
	return newRel, moveFile(relPath, newRel)
}

// MoveToRejectedDir relocates an image into the rejected area.
func MoveToRejectedDir(relPath string) (string, error) {
	newRel := "rejected/" + filepath.Base(relPath)
	return newRel, moveFile(relPath, newRel)
}

func moveFile(oldRel, newRel string) error {
	oldAbs := AbsolutePath(oldRel)
	newAbs := AbsolutePath(newRel)
	if err := os.MkdirAll(filepath.Dir(newAbs), 0o755); err != nil {
		return err
	}
	if err := os.Rename(oldAbs, newAbs); err == nil {
		return nil
	}
	// Rename fails across filesystems; fall back to copy + remove.
	src, err := os.Open(oldAbs)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(newAbs)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(newAbs)
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	return os.Remove(oldAbs)
}
