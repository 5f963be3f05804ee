package binlog

import (
	"fmt"
	"strings"
)

// RowError is one row of a rows event that was not delivered.
type RowError struct {
	Table string
	Op    string
	Row   int
	Sink  bool // failed while emitting, after a successful projection
	Err   error
}

func (e *RowError) Error() string {
	stage := "project"
	if e.Sink {
		stage = "emit"
	}
	return fmt.Sprintf("%s %s row %d: %s: %v", e.Op, e.Table, e.Row, stage, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// BatchError collects every failed row of one rows event.
type BatchError struct {
	Rows  int
	Fails []*RowError
}

func (e *BatchError) Error() string {
	msgs := make([]string, len(e.Fails))
	for i, f := range e.Fails {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%d of %d rows failed: %s", len(e.Fails), e.Rows, strings.Join(msgs, "; "))
}

func (e *BatchError) Unwrap() []error {
	out := make([]error, len(e.Fails))
	for i, f := range e.Fails {
		out[i] = f
	}
	return out
}

// SinkFailures counts rows that projected fine but could not be emitted.
func (e *BatchError) SinkFailures() int {
	n := 0
	for _, f := range e.Fails {
		if f.Sink {
			n++
		}
	}
	return n
}
