package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// Journal is a write-only sink mirroring the audit trail as JSON Lines.
type Journal interface {
	Write(ev models.Event) error
	Close() error
}

// jsonlJournal implements Journal over any io.Writer.
type jsonlJournal struct {
	w      io.Writer
	file   *os.File // set when the journal owns a file; writes take its lock
	closer io.Closer
	mu     sync.Mutex
}

// NewJSONLJournal opens (or creates) an append-only journal file at path.
func NewJSONLJournal(path string) (Journal, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return &jsonlJournal{w: f, file: f, closer: f}, nil
}

// NewWriterJournal writes journal lines to w. Close does not close w.
func NewWriterJournal(w io.Writer) Journal {
	return &jsonlJournal{w: w}
}

// Write appends a JSON-encoded event followed by a newline.
func (j *jsonlJournal) Write(ev models.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	write := func() error {
		if _, err := j.w.Write(data); err != nil {
			return fmt.Errorf("writing event: %w", err)
		}
		return nil
	}
	if j.file == nil || j.closer == nil {
		return write()
	}
	return withFileLock(j.file, write)
}

// Close closes the underlying file, if the journal owns one. Later calls
// are no-ops.
func (j *jsonlJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closer == nil {
		return nil
	}
	closer := j.closer
	j.closer = nil
	if err := closer.Close(); err != nil {
		return fmt.Errorf("closing journal: %w", err)
	}
	return nil
}
