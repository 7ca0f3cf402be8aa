package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMirror struct {
	mu      sync.Mutex
	ratings map[string]int
}

func newRecordingMirror() *recordingMirror {
	return &recordingMirror{ratings: make(map[string]int)}
}

func (m *recordingMirror) UpdateRating(_ context.Context, player string, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings[player] = rating
	return nil
}

func (m *recordingMirror) get(player string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.ratings[player]
	return v, ok
}

func TestPoolProcessesSubmittedTasks(t *testing.T) {
	mirror := newRecordingMirror()
	pool := NewPool(2, 10, mirror)
	pool.Start()

	require.NoError(t, pool.Submit(MirrorTask{Player: "ada", Rating: 1310}))
	require.NoError(t, pool.Submit(MirrorTask{Player: "bob", Rating: 1090}))

	require.NoError(t, pool.Shutdown(5*time.Second))

	ada, ok := mirror.get("ada")
	require.True(t, ok)
	assert.Equal(t, 1310, ada)

	bob, ok := mirror.get("bob")
	require.True(t, ok)
	assert.Equal(t, 1090, bob)
}

func TestPoolReportsBackpressureWhenFull(t *testing.T) {
	mirror := newRecordingMirror()
	pool := NewPool(1, 1, mirror)
	// Workers never started: the queue holds one task, the next is dropped.

	require.NoError(t, pool.Submit(MirrorTask{Player: "ada", Rating: 1200}))
	err := pool.Submit(MirrorTask{Player: "bob", Rating: 1200})
	assert.Error(t, err)
}
