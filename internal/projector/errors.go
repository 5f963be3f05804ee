package projector

import "fmt"

// SchemaMismatchError reports a mask index that has no column in the table
// schema, or a row image too short for the index.
type SchemaMismatchError struct {
	Table       string
	Index       int
	ColumnCount int
	RowWidth    int // -1 when the schema itself is too narrow
}

func (e *SchemaMismatchError) Error() string {
	if e.RowWidth >= 0 {
		return fmt.Sprintf("schema mismatch on %s: column index %d outside row image of width %d", e.Table, e.Index, e.RowWidth)
	}
	return fmt.Sprintf("schema mismatch on %s: column index %d outside schema of %d columns", e.Table, e.Index, e.ColumnCount)
}

// NormalizationError wraps a normalizer failure with the column it hit.
type NormalizationError struct {
	Table  string
	Column string
	Index  int
	Type   string
	Err    error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s.%s (index %d, type %s): %v", e.Table, e.Column, e.Index, e.Type, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }
