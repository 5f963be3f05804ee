// Package sink serializes row events and hands them to their destination.
package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-json"

	"binlog_row_publisher/internal/event"
)

type Sink interface {
	Emit(ctx context.Context, ev *event.RowEvent) error
}

// Encode is the wire form shared by every sink.
func Encode(ev *event.RowEvent) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", ev.ID, err)
	}
	return data, nil
}

// Writer writes one JSON object per line.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (s *Writer) Emit(_ context.Context, ev *event.RowEvent) error {
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("write event %s: %w", ev.ID, err)
	}
	return nil
}
