// Package data persists normalized activity documents in sqlite, keyed by
// their normalized id and timestamp.
package data

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tkrehbiel/activitysift/stream/activity"
)

// Document is a stored JSON document carrying the common normalized
// properties.
type Document interface {
	JSON() []byte
	ID() string
	Timestamp() time.Time
}

// Record is a Document backed by a decoded map, the shape the normalizer
// produces.
type Record struct {
	jsonBytes []byte
	fields    activity.Object
}

func (r *Record) JSON() []byte {
	return r.jsonBytes
}

func (r *Record) ID() string {
	if s, ok := r.fields[activity.IDProperty].(string); ok {
		return s
	}
	return ""
}

// Timestamp parses the document's published property. Normalized times are
// naive, so the result is naive too.
func (r *Record) Timestamp() time.Time {
	if s, ok := r.fields[activity.PublishedProperty].(string); ok {
		if t, err := time.Parse(activity.TimeFormat, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// NewRecord wraps raw JSON bytes as a stored document.
func NewRecord(b []byte) (*Record, error) {
	r := Record{jsonBytes: b}
	if err := json.Unmarshal(b, &r.fields); err != nil {
		return nil, fmt.Errorf("unmarshaling record: %w", err)
	}
	return &r, nil
}

// FromObject wraps a converted document as a stored document.
func FromObject(obj activity.Object) (*Record, error) {
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("marshaling record: %w", err)
	}
	return &Record{jsonBytes: b, fields: obj}, nil
}
