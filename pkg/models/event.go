package models

import "time"

// EventType classifies an Event.
type EventType string

const (
	EventMetric  EventType = "metric"
	EventAudit   EventType = "audit"
	EventState   EventType = "state"
	EventCommand EventType = "command"
)

// TimestampLayout is the ISO-8601 layout used for every event and record
// timestamp: UTC, millisecond precision, "Z" suffix.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Valid reports whether t is one of the four known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventMetric, EventAudit, EventState, EventCommand:
		return true
	}
	return false
}

// Event is the unit of record. Its JSON shape is the only wire-level
// contract of the pipeline and must remain stable.
type Event struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	Type      EventType      `json:"type"`
	Source    string         `json:"source"`
	Payload   map[string]any `json:"payload"`
}

// Time parses the event timestamp.
func (e Event) Time() (time.Time, error) {
	return time.Parse(TimestampLayout, e.Timestamp)
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Number reads a numeric payload field. Values decoded from JSON arrive as
// float64; values set in-process may be any Go numeric type.
func (e Event) Number(key string) (float64, bool) {
	v, ok := e.Payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// String reads a string payload field.
func (e Event) String(key string) string {
	s, _ := e.Payload[key].(string)
	return s
}
