package upload

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStager_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	s, err := NewStager(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, dir, s.Dir())
}

func TestStageReader(t *testing.T) {
	s, err := NewStager(t.TempDir())
	require.NoError(t, err)

	path, cleanup, err := s.StageReader("../../Box.JPG", strings.NewReader("payload"))
	require.NoError(t, err)

	assert.Equal(t, s.Dir(), filepath.Dir(path))
	assert.Equal(t, ".jpg", filepath.Ext(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	cleanup()
	assert.NoFileExists(t, path)
	cleanup()
}

func TestStageReader_UniqueNames(t *testing.T) {
	s, err := NewStager(t.TempDir())
	require.NoError(t, err)

	a, cleanA, err := s.StageReader("same.png", bytes.NewReader(nil))
	require.NoError(t, err)
	defer cleanA()
	b, cleanB, err := s.StageReader("same.png", bytes.NewReader(nil))
	require.NoError(t, err)
	defer cleanB()

	assert.NotEqual(t, a, b)
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	old := filepath.Join(dir, "old.png")
	fresh := filepath.Join(dir, "fresh.png")
	require.NoError(t, os.WriteFile(old, nil, 0o600))
	require.NoError(t, os.WriteFile(fresh, nil, 0o600))
	require.NoError(t, os.Chtimes(old, now.Add(-25*time.Hour), now.Add(-25*time.Hour)))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	s := NewSweeper(dir, 24*time.Hour)
	s.now = func() time.Time { return now }

	n, err := s.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.DirExists(t, filepath.Join(dir, "sub"))
}

func TestSweep_MissingDir(t *testing.T) {
	n, err := NewSweeper(filepath.Join(t.TempDir(), "absent"), time.Hour).Sweep()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRun_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.png")
	require.NoError(t, os.WriteFile(old, nil, 0o600))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSweeper(dir, time.Minute).Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(old)
		return os.IsNotExist(err)
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
