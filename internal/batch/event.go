package batch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotArray is returned when a decompressed batch is not a JSON array.
	ErrNotArray = errors.New("batch: payload is not a JSON array")
	// ErrMissingType is returned when an event has no numeric "type" field.
	ErrMissingType = errors.New("batch: event has no type")
)

// Event is one decoded replay event. Raw holds the event exactly as recorded.
type Event struct {
	Type      int
	Timestamp int64
	Raw       json.RawMessage
}

// MarshalJSON emits the recorded bytes unchanged.
func (e Event) MarshalJSON() ([]byte, error) {
	if len(e.Raw) == 0 {
		return []byte("null"), nil
	}
	return e.Raw, nil
}

// UnmarshalJSON keeps a copy of the raw event and extracts its type and timestamp.
func (e *Event) UnmarshalJSON(b []byte) error {
	var head struct {
		Type      *int  `json:"type"`
		Timestamp int64 `json:"timestamp"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	if head.Type == nil {
		return ErrMissingType
	}
	e.Type = *head.Type
	e.Timestamp = head.Timestamp
	e.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// DecodeEvents parses a JSON array of events.
func DecodeEvents(b []byte) ([]Event, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		return nil, ErrNotArray
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return nil, fmt.Errorf("batch: decode array: %w", err)
	}
	events := make([]Event, len(raws))
	for i, raw := range raws {
		if err := events[i].UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("batch: event %d: %w", i, err)
		}
	}
	return events, nil
}
