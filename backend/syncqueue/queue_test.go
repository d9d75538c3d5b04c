package syncqueue

import (
	"sync"
	"testing"
	"time"

	"quizmaster/backend/flatstore"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTransport captures the order operations are applied in and can
// fail selected collections a fixed number of times.
type recordingTransport struct {
	mu       sync.Mutex
	applied  []string
	failures map[string]int
}

func (r *recordingTransport) Apply(op PendingOperation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := r.failures[op.Collection]; n > 0 {
		r.failures[op.Collection] = n - 1
		return errors.New("simulated network failure")
	}
	r.applied = append(r.applied, op.Collection)
	return nil
}

func (r *recordingTransport) appliedOrder() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.applied))
	copy(out, r.applied)
	return out
}

func newTestQueue(t *testing.T, transport Transport) (*Queue, *flatstore.Store) {
	t.Helper()
	flat, err := flatstore.NewWithFs(afero.NewMemMapFs(), "data")
	require.NoError(t, err)

	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)
	q, err := New(flat, transport, log, Options{})
	require.NoError(t, err)
	return q, flat
}

func TestDrainInEnqueueOrder(t *testing.T) {
	transport := &recordingTransport{failures: map[string]int{}}
	q, _ := newTestQueue(t, transport)
	q.SetOnline(false) // hold operations until we drain explicitly

	require.NoError(t, q.Enqueue("create", "o1", map[string]int{"n": 1}))
	require.NoError(t, q.Enqueue("update", "o2", map[string]int{"n": 2}))
	require.NoError(t, q.Enqueue("create", "o3", map[string]int{"n": 3}))
	assert.Equal(t, 3, q.Pending())

	q.SetOnline(true)
	waitForPending(t, q, 0)
	assert.Equal(t, []string{"o1", "o2", "o3"}, transport.appliedOrder())
}

func TestFailedOperationRetriesWithoutReordering(t *testing.T) {
	transport := &recordingTransport{failures: map[string]int{"o2": 1}}
	q, _ := newTestQueue(t, transport)
	q.SetOnline(false)

	require.NoError(t, q.Enqueue("create", "o1", nil))
	require.NoError(t, q.Enqueue("create", "o2", nil))
	require.NoError(t, q.Enqueue("create", "o3", nil))

	q.SetOnline(true)
	drainUntilEmpty(t, q)

	// o1 and o3 kept their relative order; o2 completed on the second pass.
	assert.Equal(t, []string{"o1", "o3", "o2"}, transport.appliedOrder())
}

func TestOperationDroppedAfterMaxRetries(t *testing.T) {
	transport := &recordingTransport{failures: map[string]int{"doomed": 10}}
	q, _ := newTestQueue(t, transport)
	q.SetOnline(false)

	require.NoError(t, q.Enqueue("create", "doomed", nil))
	q.SetOnline(true)

	drainUntilEmpty(t, q)
	assert.Empty(t, transport.appliedOrder())
}

func TestQueueSurvivesReload(t *testing.T) {
	transport := &recordingTransport{failures: map[string]int{}}
	q, flat := newTestQueue(t, transport)
	q.SetOnline(false)

	require.NoError(t, q.Enqueue("create", "userProfiles", map[string]string{"id": "u1"}))
	require.NoError(t, q.Enqueue("update", "quizProgress", map[string]string{"id": "p1"}))

	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)
	reloaded, err := New(flat, transport, log, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Pending())
}

func TestOfflineEnqueueDoesNotDrain(t *testing.T) {
	transport := &recordingTransport{failures: map[string]int{}}
	q, _ := newTestQueue(t, transport)
	q.SetOnline(false)

	require.NoError(t, q.Enqueue("create", "o1", nil))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, q.Pending())
	assert.Empty(t, transport.appliedOrder())
}

func waitForPending(t *testing.T, q *Queue, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if q.Pending() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, want, q.Pending())
}

// drainUntilEmpty keeps requesting drains until the queue settles at zero.
// Explicit calls overlapping an in-flight drain are dropped, so a single
// call is not guaranteed to make progress.
func drainUntilEmpty(t *testing.T, q *Queue) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && q.Pending() > 0 {
		q.Drain()
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 0, q.Pending())
}
