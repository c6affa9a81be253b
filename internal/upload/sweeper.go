package upload

import (
	"context"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// Sweeper removes staged files left behind, e.g. by a crash mid-request.
type Sweeper struct {
	dir    string
	maxAge time.Duration
	now    func() time.Time
}

func NewSweeper(dir string, maxAge time.Duration) *Sweeper {
	return &Sweeper{dir: dir, maxAge: maxAge, now: time.Now}
}

// Sweep deletes regular files in the upload dir older than maxAge and
// returns how many were removed.
func (s *Sweeper) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	now := s.now()
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= s.maxAge {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.WithError(err).WithField("path", path).Warn("failed to remove old upload")
			continue
		}
		log.WithField("file", entry.Name()).Info("cleaned up old upload")
		removed++
	}
	return removed, nil
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Sweep(); err != nil {
				log.WithError(err).Error("upload sweep failed")
			}
		case <-ctx.Done():
			return
		}
	}
}
