package api

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestLocalManager(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := filepath.Join(t.TempDir(), "images")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.jpg"), []byte("x"), 0o644))

	lm, err := NewLocalManager(dir, 200*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, lm.trackedFiles.Contains("existing.jpg"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		lm.Run(ctx)
		close(done)
	}()

	// unsupported files never trigger an update
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	select {
	case <-lm.Updated:
		t.Fatal("unexpected update for unsupported file")
	case <-time.After(600 * time.Millisecond):
	}

	// a burst of writes collapses into a single update
	for _, name := range []string{"a.jpg", "b.png", "c.webp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	select {
	case <-lm.Updated:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for update")
	}

	select {
	case <-lm.Updated:
		t.Fatal("burst produced more than one update")
	case <-time.After(600 * time.Millisecond):
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("local manager did not stop")
	}
	assert.True(t, lm.trackedFiles.Contains("c.webp"))
}
