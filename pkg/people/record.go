package people

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedRecord is returned when a raw record lacks a field the
// pipeline needs or carries it with an unexpected JSON type.
var ErrMalformedRecord = errors.New("malformed record")

// RawRecord is an untyped person object as returned by the source API.
type RawRecord struct {
	// ID is the numeric id the record was requested with.
	ID int

	// Fields is the decoded JSON object. Nil for the not-found marker.
	Fields map[string]any

	// NotFound marks a 404 placeholder.
	NotFound bool
}

// NotFoundMarker returns the placeholder emitted for an id the source does not know.
func NotFoundMarker(id int) RawRecord {
	return RawRecord{ID: id, NotFound: true}
}

// DecodeRecord parses a JSON object body into a RawRecord.
func DecodeRecord(id int, body []byte) (RawRecord, error) {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return RawRecord{}, fmt.Errorf("decode person %d: %w", id, err)
	}
	if fields == nil {
		return RawRecord{}, fmt.Errorf("decode person %d: %w: not a JSON object", id, ErrMalformedRecord)
	}
	return RawRecord{ID: id, Fields: fields}, nil
}

// String returns the string value of a scalar field.
func (r RawRecord) String(field string) (string, error) {
	v, ok := r.Fields[field]
	if !ok {
		return "", fmt.Errorf("%w: person %d has no %q", ErrMalformedRecord, r.ID, field)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: person %d field %q is %T, want string", ErrMalformedRecord, r.ID, field, v)
	}
	return s, nil
}

// Locators returns the locators held by a relationship field. A single
// locator field yields a one-element slice.
func (r RawRecord) Locators(field string) ([]string, error) {
	v, ok := r.Fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: person %d has no %q", ErrMalformedRecord, r.ID, field)
	}

	switch val := v.(type) {
	case string:
		return []string{val}, nil
	case []any:
		out := make([]string, 0, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: person %d field %q[%d] is %T, want string", ErrMalformedRecord, r.ID, field, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: person %d field %q is %T, want locator or list", ErrMalformedRecord, r.ID, field, v)
	}
}
