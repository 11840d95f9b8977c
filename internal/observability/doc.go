// Package observability provides the event bus, the append-only audit ledger,
// metric derivation, alerting and telemetry for the aion audit pipeline.
// Every mutation of the domain becomes an immutable models.Event that is
// delivered synchronously to subscribers and chained into the audit trail.
package observability
