// Package upload stages request files on disk while they are processed.
package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Stager struct {
	dir string
}

// NewStager creates dir if needed.
func NewStager(dir string) (*Stager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Stager{dir: dir}, nil
}

func (s *Stager) Dir() string {
	return s.dir
}

// Stage copies the uploaded file under a unique name and returns its path
// with a func removing it. The caller must always call the func.
func (s *Stager) Stage(header *multipart.FileHeader) (string, func(), error) {
	src, err := header.Open()
	if err != nil {
		return "", func() {}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	return s.StageReader(header.Filename, src)
}

// StageReader is Stage for an arbitrary reader; filename only contributes
// its extension.
func (s *Stager) StageReader(filename string, r io.Reader) (string, func(), error) {
	path := filepath.Join(s.dir, uuid.NewString()+strings.ToLower(filepath.Ext(filename)))
	cleanup := func() { remove(path) }

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", func() {}, fmt.Errorf("failed to stage upload: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("failed to stage upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("failed to stage upload: %w", err)
	}
	return path, cleanup, nil
}

func remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).WithField("path", path).Warn("failed to remove staged upload")
	}
}
