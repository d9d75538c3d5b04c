// Package syncqueue records mutations already applied to the local store so
// they can be replayed against a remote backend when one exists. Operations
// are persisted to the flat store on every change and drained strictly in
// enqueue order.
package syncqueue

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"quizmaster/backend/flatstore"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	queueKey   = "sync-queue"
	maxRetries = 3
)

// PendingOperation is one not-yet-confirmed mutation.
type PendingOperation struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"` // create, update, delete
	Collection string          `json:"collection"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
	Retries    int             `json:"retries"`
}

// Transport applies one operation against the remote side.
type Transport interface {
	Apply(op PendingOperation) error
}

type Queue struct {
	flat      *flatstore.Store
	transport Transport
	log       *logrus.Logger

	mu      sync.Mutex
	ops     []PendingOperation
	online  bool
	syncing bool

	probeURL      string
	probeInterval time.Duration
	probeTimeout  time.Duration

	stop chan struct{}
	once sync.Once
}

// Options configure the connectivity probe.
type Options struct {
	ProbeURL      string
	ProbeInterval time.Duration
	ProbeTimeout  time.Duration
}

// New loads any queue persisted by a previous run. The queue starts online;
// the probe, if configured, corrects that on its first tick.
func New(flat *flatstore.Store, transport Transport, log *logrus.Logger, opts Options) (*Queue, error) {
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = 30 * time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}

	q := &Queue{
		flat:          flat,
		transport:     transport,
		log:           log,
		online:        true,
		probeURL:      opts.ProbeURL,
		probeInterval: opts.ProbeInterval,
		probeTimeout:  opts.ProbeTimeout,
		stop:          make(chan struct{}),
	}

	if _, err := flat.Get(queueKey, &q.ops); err != nil {
		return nil, errors.Wrap(err, "load persisted sync queue")
	}
	return q, nil
}

// Start launches the periodic connectivity probe. No-op without a probe URL.
func (q *Queue) Start() {
	if q.probeURL == "" {
		return
	}
	go q.probeLoop()
}

func (q *Queue) Close() {
	q.once.Do(func() { close(q.stop) })
}

// Enqueue appends an operation and persists the queue. When online and not
// already draining, a drain is kicked off immediately.
func (q *Queue) Enqueue(kind, collection string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encode sync payload")
	}

	q.mu.Lock()
	q.ops = append(q.ops, PendingOperation{
		ID:         uuid.NewString(),
		Kind:       kind,
		Collection: collection,
		Payload:    data,
		EnqueuedAt: time.Now(),
	})
	err = q.persistLocked()
	shouldDrain := q.online && !q.syncing
	q.mu.Unlock()

	if err != nil {
		return err
	}
	if shouldDrain {
		go q.Drain()
	}
	return nil
}

// Pending returns the number of queued operations.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Online reports the last known connectivity state.
func (q *Queue) Online() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.online
}

// SetOnline records a connectivity change. The offline-to-online transition
// triggers a drain.
func (q *Queue) SetOnline(online bool) {
	q.mu.Lock()
	wasOnline := q.online
	q.online = online
	q.mu.Unlock()

	if online && !wasOnline {
		go q.Drain()
	}
}

// Drain processes queued operations in enqueue order. Drains are mutually
// exclusive: a request while one is running is dropped, not queued.
func (q *Queue) Drain() {
	q.mu.Lock()
	if q.syncing || !q.online {
		q.mu.Unlock()
		return
	}
	q.syncing = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.syncing = false
		q.mu.Unlock()
	}()

	// Each drain tries every queued operation once, oldest first. A failed
	// operation keeps its slot for the next drain so relative order holds.
	q.mu.Lock()
	snapshot := make([]PendingOperation, len(q.ops))
	copy(snapshot, q.ops)
	q.mu.Unlock()

	for _, op := range snapshot {
		err := q.transport.Apply(op)

		q.mu.Lock()
		if err == nil {
			q.remove(op.ID)
		} else {
			for i := range q.ops {
				if q.ops[i].ID != op.ID {
					continue
				}
				q.ops[i].Retries++
				if q.ops[i].Retries > maxRetries {
					// Known gap carried over from the source: the drop is
					// only visible in the logs, not to the user.
					q.log.WithFields(logrus.Fields{
						"operation":  op.ID,
						"collection": op.Collection,
						"kind":       op.Kind,
					}).Warn("sync operation dropped after max retries")
					q.remove(op.ID)
				}
				break
			}
		}
		perr := q.persistLocked()
		q.mu.Unlock()

		if perr != nil {
			q.log.WithError(perr).Error("persist sync queue")
			return
		}
	}
}

func (q *Queue) remove(id string) {
	for i, op := range q.ops {
		if op.ID == id {
			q.ops = append(q.ops[:i], q.ops[i+1:]...)
			return
		}
	}
}

func (q *Queue) persistLocked() error {
	return q.flat.Set(queueKey, q.ops)
}

func (q *Queue) probeLoop() {
	client := &http.Client{Timeout: q.probeTimeout}
	ticker := time.NewTicker(q.probeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-q.stop:
			return
		case <-ticker.C:
			resp, err := client.Head(q.probeURL)
			online := err == nil && resp.StatusCode < 500
			if resp != nil {
				resp.Body.Close()
			}
			q.SetOnline(online)
		}
	}
}
