package sink

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// MessageLog appends every published payload to a file. A nil *MessageLog
// is a no-op.
type MessageLog struct {
	mu  sync.Mutex
	w   io.WriteCloser
	now func() time.Time
}

func OpenMessageLog(path string) (*MessageLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &MessageLog{w: f, now: time.Now}, nil
}

func (l *MessageLog) Log(eventID string, payload []byte) error {
	if l == nil || l.w == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := fmt.Fprintf(l.w, "%s event_id=%s payload=%s\n", l.now().Format(time.RFC3339Nano), eventID, payload)
	return err
}

func (l *MessageLog) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Close()
}
