package core

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingEmitter captures emissions; it fails for sources in failFor.
type recordingEmitter struct {
	events  []models.Event
	failFor map[string]bool
}

func (r *recordingEmitter) Emit(source string, typ models.EventType, payload map[string]any) (*models.Event, error) {
	if r.failFor[source] {
		return nil, errors.New("emit refused")
	}
	ev := models.Event{ID: source, Timestamp: "2025-01-01T00:00:00.000Z", Type: typ, Source: source, Payload: payload}
	r.events = append(r.events, ev)
	return &ev, nil
}

func (r *recordingEmitter) ofType(typ models.EventType) []models.Event {
	var out []models.Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// countingObserver records every change it receives.
type countingObserver struct {
	changes []Change
	err     error
}

func (c *countingObserver) Update(change Change) error {
	c.changes = append(c.changes, change)
	return c.err
}

// steppingClock advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		t := current
		current = current.Add(step)
		return t
	}
}

type fixedMetricsSource models.CycleMetrics

func (m fixedMetricsSource) Calculate() models.CycleMetrics { return models.CycleMetrics(m) }
