// Package integration adapts external task trackers into task completions
// for the work subject.
package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/valter-silva-au/aion-audit/internal/core"
	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// Operational error names recorded on the audit trail by the connector.
const (
	EventSourceFailure    = "TASK_SOURCE_FAILURE"
	EventNotionAPIFailure = "NOTION_API_FAILURE"
	EventTaskRejected     = "TASK_REJECTED"
	EventNotionSetupError = "NOTION_SETUP_ERROR"
)

// ErrMissingNotionCredentials is returned when no task file is configured
// and the Notion token or database id is absent.
var ErrMissingNotionCredentials = errors.New("missing NOTION_TOKEN or NOTION_DATABASE_ID")

// TaskSource yields the completions that are ready to be audited.
type TaskSource interface {
	// Name identifies the source in logs and error details.
	Name() string
	// FetchAuditable returns the auditable completions, newest first.
	FetchAuditable(ctx context.Context) ([]models.TaskCompletion, error)
}

// failureNamer is implemented by sources that record fetch failures under
// their own event name.
type failureNamer interface {
	FailureEvent() string
}

// TaskRecorder receives completed task cycles. core.WorkState satisfies it.
type TaskRecorder interface {
	CompleteTaskCycle(task models.TaskCompletion) error
}

// ErrorRecorder turns operational failures into audit events.
// observability.AuditLedger satisfies it.
type ErrorRecorder interface {
	HandleError(eventName string, cause error) error
}

// Connector feeds every auditable completion of a TaskSource into a
// TaskRecorder and reports failures on the audit trail.
type Connector struct {
	source   TaskSource
	recorder TaskRecorder
	errs     ErrorRecorder
	logger   *slog.Logger
}

// NewConnector creates a Connector. A nil logger uses slog.Default().
func NewConnector(source TaskSource, recorder TaskRecorder, errs ErrorRecorder, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{source: source, recorder: recorder, errs: errs, logger: logger}
}

// AuditAndNotify fetches the auditable tasks and completes one cycle per
// task. It returns the number of tasks accepted by the recorder. A fetch
// failure is recorded under the source's failure event (TASK_SOURCE_FAILURE
// unless the source names its own) and yields 0; each invalid
// task is recorded as TASK_REJECTED and skipped.
func (c *Connector) AuditAndNotify(ctx context.Context) int {
	tasks, err := c.source.FetchAuditable(ctx)
	if err != nil {
		c.record(c.failureEvent(), fmt.Errorf("%s: %w", c.source.Name(), err))
		return 0
	}
	c.logger.Info("fetched auditable tasks", "source", c.source.Name(), "count", len(tasks))

	processed := 0
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			c.record(EventSourceFailure, fmt.Errorf("%s: %w", c.source.Name(), err))
			break
		}
		err := c.recorder.CompleteTaskCycle(task)
		if errors.Is(err, core.ErrInvalidTask) {
			c.record(EventTaskRejected, err)
			continue
		}
		if err != nil {
			// The cycle was recorded; only an observer failed.
			c.logger.Warn("observer failure during task cycle", "task_id", task.TaskID, "error", err)
		}
		processed++
	}
	return processed
}

func (c *Connector) failureEvent() string {
	if f, ok := c.source.(failureNamer); ok {
		return f.FailureEvent()
	}
	return EventSourceFailure
}

func (c *Connector) record(eventName string, cause error) {
	if err := c.errs.HandleError(eventName, cause); err != nil {
		c.logger.Error("recording operational error", "event", eventName, "error", err)
	}
}

// NewTaskSource selects the source for cfg: the YAML task file when
// task_file is set (resolved against basePath), otherwise Notion. It
// returns ErrMissingNotionCredentials when Notion is not configured.
func NewTaskSource(cfg *models.AionConfig, basePath string) (TaskSource, error) {
	if cfg.TaskFile != "" {
		return NewFileSource(resolvePath(basePath, cfg.TaskFile)), nil
	}
	if cfg.Notion.Token == "" || cfg.Notion.DatabaseID == "" {
		return nil, ErrMissingNotionCredentials
	}
	return NewNotionSource(cfg.Notion), nil
}
