package observability

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// ErrMalformedEmission is returned by Emit when the source, type or payload
// of an emission is missing or invalid. Nothing is delivered in that case.
var ErrMalformedEmission = errors.New("malformed emission")

// Listener receives every delivered event. A returned error is collected
// by the dispatcher and never stops delivery to later listeners.
type Listener func(models.Event) error

// DeliveryError describes one listener failure during a fan-out.
type DeliveryError struct {
	Stage    string
	EventID  string
	Listener int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s listener %d failed on event %s: %v", e.Stage, e.Listener, e.EventID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Bus is the synchronous publish/subscribe hub. Subscribers run on the
// emitter's goroutine, in subscription order, and may emit re-entrantly.
type Bus struct {
	mu        sync.Mutex
	listeners []Listener

	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	telemetry *Telemetry
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) BusOption {
	return func(b *Bus) { b.now = now }
}

// WithIDGenerator overrides event id generation.
func WithIDGenerator(gen func() string) BusOption {
	return func(b *Bus) { b.newID = gen }
}

// WithTelemetry records emissions and failures on t.
func WithTelemetry(t *Telemetry) BusOption {
	return func(b *Bus) { b.telemetry = t }
}

// NewBus creates an empty Bus. A nil logger falls back to slog.Default().
func NewBus(logger *slog.Logger, opts ...BusOption) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		logger: logger,
		now:    time.Now,
		newID:  newEventID,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// newEventID returns a time-ordered UUIDv7, falling back to a random v4 if
// the v7 generator fails.
func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Subscribe appends l to the listener list. Duplicates are not filtered.
func (b *Bus) Subscribe(l Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	b.listeners = append(b.listeners, l)
	b.mu.Unlock()
}

// Emit builds an event and delivers it to every subscriber. A malformed
// emission is logged and rejected with ErrMalformedEmission. Listener
// failures are returned joined together once every listener has run.
func (b *Bus) Emit(source string, typ models.EventType, payload map[string]any) (*models.Event, error) {
	ev, err := b.newEvent(source, typ, payload)
	if err != nil {
		b.telemetry.recordRejected()
		b.logger.Warn("rejected malformed emission",
			"source", source,
			"type", string(typ),
			"error", err,
		)
		return nil, err
	}

	b.mu.Lock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	b.telemetry.recordEmitted(ev)
	return &ev, dispatch(b.logger, b.telemetry, "bus", ev, listeners)
}

// newEvent validates an emission and stamps it with an id and timestamp.
func (b *Bus) newEvent(source string, typ models.EventType, payload map[string]any) (models.Event, error) {
	switch {
	case source == "":
		return models.Event{}, fmt.Errorf("%w: source is required", ErrMalformedEmission)
	case typ == "":
		return models.Event{}, fmt.Errorf("%w: type is required", ErrMalformedEmission)
	case !typ.Valid():
		return models.Event{}, fmt.Errorf("%w: unknown type %q", ErrMalformedEmission, typ)
	case payload == nil:
		return models.Event{}, fmt.Errorf("%w: payload is required", ErrMalformedEmission)
	}
	return models.Event{
		ID:        b.newID(),
		Timestamp: models.FormatTimestamp(b.now()),
		Type:      typ,
		Source:    source,
		Payload:   payload,
	}, nil
}

// dispatch invokes listeners in order. Errors and panics are collected as
// DeliveryErrors; every listener runs regardless of earlier failures.
func dispatch(logger *slog.Logger, t *Telemetry, stage string, ev models.Event, listeners []Listener) error {
	var errs []error
	for i, l := range listeners {
		if err := invoke(l, ev); err != nil {
			logger.Error("listener failed",
				"stage", stage,
				"listener", i,
				"event_id", ev.ID,
				"source", ev.Source,
				"error", err,
			)
			errs = append(errs, &DeliveryError{Stage: stage, EventID: ev.ID, Listener: i, Err: err})
		}
	}
	t.recordFailures(stage, len(errs))
	return errors.Join(errs...)
}

func invoke(l Listener, ev models.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return l(ev)
}
