// Package projector turns column-indexed binlog row images into named,
// ordered records.
package projector

import "binlog_row_publisher/internal/normalize"

// Schema is the table shape a row image is indexed against.
type Schema interface {
	Name() string
	ColumnCount() int
	NameAt(i int) string
	TypeAt(i int) string
}

// RowChange is one row's before/after image. A nil image is absent; a nil
// entry inside an image is SQL NULL.
type RowChange struct {
	Before []interface{}
	After  []interface{}
}

// Projector is stateless and safe for concurrent use.
type Projector struct {
	norm normalize.Normalizer
}

func New(n normalize.Normalizer) *Projector {
	if n == nil {
		n = normalize.MySQL{}
	}
	return &Projector{norm: n}
}

// Project maps the after-image columns selected by mask onto their schema
// names, in ascending column order.
//
// When change.After is nil every field is left out of the record rather
// than written as null. Consumers tell a missing after-image (delete) apart
// from NULL values this way, so keep it.
func (p *Projector) Project(s Schema, mask Mask, change RowChange) (Record, error) {
	return p.project(s, mask, change.After)
}

// ProjectBefore is Project over the before-image.
func (p *Projector) ProjectBefore(s Schema, mask Mask, change RowChange) (Record, error) {
	return p.project(s, mask, change.Before)
}

func (p *Projector) project(s Schema, mask Mask, image []interface{}) (Record, error) {
	n := s.ColumnCount()
	for i := mask.NextSet(0); i != -1; i = mask.NextSet(i + 1) {
		if i >= n {
			return Record{}, &SchemaMismatchError{Table: s.Name(), Index: i, ColumnCount: n, RowWidth: -1}
		}
		if image != nil && i >= len(image) {
			return Record{}, &SchemaMismatchError{Table: s.Name(), Index: i, ColumnCount: n, RowWidth: len(image)}
		}
	}

	var rec Record
	if image == nil {
		return rec, nil
	}
	rec.fields = make([]Field, 0, mask.Len())
	for i := mask.NextSet(0); i != -1; i = mask.NextSet(i + 1) {
		name := s.NameAt(i)
		v, err := p.norm.Normalize(image[i], s.TypeAt(i))
		if err != nil {
			return Record{}, &NormalizationError{Table: s.Name(), Column: name, Index: i, Type: s.TypeAt(i), Err: err}
		}
		rec.Add(name, v)
	}
	return rec, nil
}
