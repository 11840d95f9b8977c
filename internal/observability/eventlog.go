package observability

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gowebpki/jcs"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// LedgerSource is the source name of events synthesized by the ledger itself.
const LedgerSource = "AuditLedger"

// GenesisHash is the chain head of an empty trail.
const GenesisHash = "genesis"

// EventFilter specifies criteria for reading the trail.
type EventFilter struct {
	Since  *time.Time
	Until  *time.Time
	Type   models.EventType
	Source string
}

// EventReader is the read side of the trail.
type EventReader interface {
	Read(filter EventFilter) []models.Event
}

// AuditLedger is the append-only audit trail. It subscribes itself to the
// bus on construction, records every event, chains it into a SHA-256 hash
// chain and fans audit-typed events out to audit subscribers.
type AuditLedger struct {
	bus     *Bus
	logger  *slog.Logger
	journal Journal

	mu        sync.RWMutex
	trail     []models.Event
	hashes    []string
	auditSubs []Listener
}

// LedgerOption configures an AuditLedger.
type LedgerOption func(*AuditLedger)

// WithJournal mirrors every recorded event to j.
func WithJournal(j Journal) LedgerOption {
	return func(l *AuditLedger) { l.journal = j }
}

// NewAuditLedger creates a ledger and subscribes it to bus.
func NewAuditLedger(bus *Bus, logger *slog.Logger, opts ...LedgerOption) *AuditLedger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &AuditLedger{bus: bus, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	bus.Subscribe(l.LogEvent)
	return l
}

// SubscribeToAudits registers a listener for audit-typed events.
func (l *AuditLedger) SubscribeToAudits(listener Listener) {
	if listener == nil {
		return
	}
	l.mu.Lock()
	l.auditSubs = append(l.auditSubs, listener)
	l.mu.Unlock()
}

// LogEvent appends ev to the trail and, for audit events, notifies the
// audit subscribers. The lock is released before any subscriber runs.
func (l *AuditLedger) LogEvent(ev models.Event) error {
	l.mu.Lock()
	prev := GenesisHash
	if n := len(l.hashes); n > 0 {
		prev = l.hashes[n-1]
	}
	stored := cloneEvent(ev)
	hash, err := ChainHash(prev, stored)
	if err != nil {
		l.logger.Warn("canonicalizing payload", "event_id", ev.ID, "error", err)
	}
	l.trail = append(l.trail, stored)
	l.hashes = append(l.hashes, hash)
	size := len(l.trail)
	subs := make([]Listener, len(l.auditSubs))
	copy(subs, l.auditSubs)
	l.mu.Unlock()

	l.bus.telemetry.recordTrailLength(size)

	if l.journal != nil {
		if err := l.journal.Write(ev); err != nil {
			l.logger.Warn("writing journal", "event_id", ev.ID, "error", err)
		}
	}

	if ev.Type != models.EventAudit {
		return nil
	}
	return dispatch(l.logger, l.bus.telemetry, "audit", ev, subs)
}

// HandleError records an operational error as an audit event from the
// ledger itself. The event goes straight to LogEvent, bypassing the bus.
func (l *AuditLedger) HandleError(eventName string, cause error) error {
	payload := map[string]any{
		"eventName": eventName,
		"message":   "",
		"stack":     string(debug.Stack()),
		"details":   nil,
	}
	if cause != nil {
		payload["message"] = cause.Error()
		payload["details"] = fmt.Sprintf("%+v", cause)
	}
	ev, err := l.bus.newEvent(LedgerSource, models.EventAudit, payload)
	if err != nil {
		return err
	}
	l.logger.Error("operational error", "event", eventName, "error", cause)
	return l.LogEvent(ev)
}

// Events returns a copy of the trail in insertion order.
func (l *AuditLedger) Events() []models.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Event, len(l.trail))
	for i, ev := range l.trail {
		out[i] = cloneEvent(ev)
	}
	return out
}

// Read returns the events matching filter.
func (l *AuditLedger) Read(filter EventFilter) []models.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []models.Event
	for _, ev := range l.trail {
		if matchesEventFilter(ev, filter) {
			out = append(out, cloneEvent(ev))
		}
	}
	return out
}

// Len returns the number of recorded events.
func (l *AuditLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trail)
}

// Head returns the hash of the most recent event, or GenesisHash.
func (l *AuditLedger) Head() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.hashes) == 0 {
		return GenesisHash
	}
	return l.hashes[len(l.hashes)-1]
}

// VerifyChain recomputes the hash chain over the trail and reports the
// first event whose recorded hash no longer matches its content.
func (l *AuditLedger) VerifyChain() error {
	l.mu.RLock()
	trail := make([]models.Event, len(l.trail))
	copy(trail, l.trail)
	hashes := make([]string, len(l.hashes))
	copy(hashes, l.hashes)
	l.mu.RUnlock()

	prev := GenesisHash
	for i, ev := range trail {
		want, _ := ChainHash(prev, ev)
		if want != hashes[i] {
			return fmt.Errorf("event %d (%s): hash mismatch: recorded %s, computed %s", i, ev.ID, hashes[i], want)
		}
		prev = hashes[i]
	}
	return nil
}

// cloneEvent copies the payload map so callers never share it with the
// trail.
func cloneEvent(ev models.Event) models.Event {
	ev.Payload = maps.Clone(ev.Payload)
	return ev
}

// ChainHash links ev to prev: SHA-256 over
// prev|id|type|source|timestamp|canonical(payload). The payload is
// canonicalized with RFC 8785 so map ordering never affects the hash.
// When the payload cannot be encoded the hash covers the encoding error.
func ChainHash(prev string, ev models.Event) (string, error) {
	canonical, err := canonicalPayload(ev.Payload)
	if err != nil {
		canonical = []byte(err.Error())
	}
	input := fmt.Sprintf("%s|%s|%s|%s|%s|%s", prev, ev.ID, ev.Type, ev.Source, ev.Timestamp, canonical)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:]), err
}

func canonicalPayload(payload map[string]any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshalling payload: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing payload: %w", err)
	}
	return out, nil
}

// matchesEventFilter checks whether an event satisfies all filter criteria.
func matchesEventFilter(ev models.Event, filter EventFilter) bool {
	if filter.Since != nil || filter.Until != nil {
		ts, err := ev.Time()
		if err != nil {
			return false
		}
		if filter.Since != nil && ts.Before(*filter.Since) {
			return false
		}
		if filter.Until != nil && ts.After(*filter.Until) {
			return false
		}
	}
	if filter.Type != "" && ev.Type != filter.Type {
		return false
	}
	if filter.Source != "" && ev.Source != filter.Source {
		return false
	}
	return true
}
