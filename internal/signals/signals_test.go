package signals

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_StopCancelsTrackedCycle(t *testing.T) {
	stateDir := t.TempDir()
	w, err := NewWatcher(stateDir)
	require.NoError(t, err)
	defer w.Close()

	ctx, release := w.Track(context.Background())
	defer release()

	require.NoError(t, SendStop(stateDir))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("cycle context was not cancelled by the stop file")
	}
	assert.True(t, w.Stopped())
}

func TestWatcher_TrackClearsStaleSignal(t *testing.T) {
	stateDir := t.TempDir()
	require.NoError(t, SendStop(stateDir))

	w, err := NewWatcher(stateDir)
	require.NoError(t, err)
	defer w.Close()

	assert.True(t, w.Stopped(), "a stop file left from before startup is visible")

	ctx, release := w.Track(context.Background())
	defer release()

	assert.False(t, w.Stopped())
	_, err = os.Stat(filepath.Join(Dir(stateDir), StopFile))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, ctx.Err())
}

func TestWatcher_ReleaseDetachesCycle(t *testing.T) {
	stateDir := t.TempDir()
	w, err := NewWatcher(stateDir)
	require.NoError(t, err)

	ctx, release := w.Track(context.Background())
	release()
	assert.Error(t, ctx.Err())

	// A stop between cycles is recorded but cancels nothing.
	w.trigger()
	assert.True(t, w.Stopped())

	w.Close()
	w.Close()
}

func TestWatcher_PollingFallbackCancelsTrackedCycle(t *testing.T) {
	stateDir := t.TempDir()
	require.NoError(t, os.MkdirAll(Dir(stateDir), 0755))

	w := newWatcher(Dir(stateDir))
	w.startPolling(10 * time.Millisecond)
	defer w.Close()

	ctx, release := w.Track(context.Background())
	defer release()

	time.Sleep(30 * time.Millisecond)
	assert.NoError(t, ctx.Err(), "no stop file, no cancellation")

	require.NoError(t, SendStop(stateDir))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("polling watcher did not cancel the cycle")
	}
	assert.True(t, w.Stopped())

	// The next cycle starts clean.
	next, releaseNext := w.Track(context.Background())
	defer releaseNext()
	time.Sleep(30 * time.Millisecond)
	assert.NoError(t, next.Err())
}
