package syncqueue

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LogTransport is the stand-in remote backend: it logs the operation,
// simulates a short network round trip and always succeeds. A real backend
// replaces it without touching queue logic.
type LogTransport struct {
	Log   *logrus.Logger
	Delay time.Duration
}

func NewLogTransport(log *logrus.Logger) *LogTransport {
	return &LogTransport{Log: log, Delay: 50 * time.Millisecond}
}

func (t *LogTransport) Apply(op PendingOperation) error {
	if t.Delay > 0 {
		time.Sleep(t.Delay)
	}
	t.Log.WithFields(logrus.Fields{
		"operation":  op.ID,
		"kind":       op.Kind,
		"collection": op.Collection,
	}).Info("synced operation")
	return nil
}
