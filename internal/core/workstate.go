package core

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// DefaultFocusHours is the effort at or above which a cycle counts as
// MAX_FOCUS.
const DefaultFocusHours = 2.0

// WorkState is the work subject: the ordered list of completed tasks, the
// running seal and the focus status. CompleteTaskCycle is its only mutator.
type WorkState struct {
	logger     *slog.Logger
	now        func() time.Time
	focusHours float64
	observers  observerList

	mu         sync.RWMutex
	tasks      []models.TaskCompletion
	lastUpdate time.Time
	health     models.WorkHealth
	seal       string
}

// WorkOption configures a WorkState.
type WorkOption func(*WorkState)

// WithFocusHours overrides DefaultFocusHours.
func WithFocusHours(hours float64) WorkOption {
	return func(w *WorkState) {
		if hours > 0 {
			w.focusHours = hours
		}
	}
}

// WithWorkClock overrides the time source.
func WithWorkClock(now func() time.Time) WorkOption {
	return func(w *WorkState) { w.now = now }
}

// NewWorkState creates an empty work subject.
func NewWorkState(logger *slog.Logger, opts ...WorkOption) *WorkState {
	if logger == nil {
		logger = slog.Default()
	}
	w := &WorkState{
		logger:     logger,
		now:        time.Now,
		focusHours: DefaultFocusHours,
		health:     models.WorkMaxFocus,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.lastUpdate = w.now().UTC()
	return w
}

// Attach registers o. Attaching the same observer twice has no effect.
func (w *WorkState) Attach(o Observer) { w.observers.attach(o) }

// Detach removes o if present.
func (w *WorkState) Detach(o Observer) { w.observers.detach(o) }

// Notify delivers the current snapshot to every attached observer.
func (w *WorkState) Notify() error {
	return w.observers.notify(w.logger, "work", WorkChange{State: w.Snapshot()})
}

// CompleteTaskCycle appends task, re-seals the task list, recomputes the
// focus status and notifies observers. An invalid task is rejected with
// ErrInvalidTask and leaves the state untouched.
func (w *WorkState) CompleteTaskCycle(task models.TaskCompletion) error {
	if err := task.Validate(); err != nil {
		w.logger.Warn("rejected task completion", "task_id", task.TaskID, "error", err)
		return fmt.Errorf("%w: %v", ErrInvalidTask, err)
	}

	w.mu.Lock()
	w.tasks = append(w.tasks, task)
	w.lastUpdate = w.now().UTC()
	w.seal = ComputeSeal(w.seal, task)
	if task.TimeSpentHours >= w.focusHours {
		w.health = models.WorkMaxFocus
	} else {
		w.health = models.WorkNormal
	}
	seal, health := w.seal, w.health
	w.mu.Unlock()

	w.logger.Info("task cycle completed",
		"task_id", task.TaskID,
		"hours", task.TimeSpentHours,
		"latency_min", fmt.Sprintf("%.1f", task.RegistrationLatencyMs/1000/60),
		"health", health,
		"seal", seal[:12],
	)
	return w.Notify()
}

// Snapshot returns a copy of the current state.
func (w *WorkState) Snapshot() models.WorkState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	tasks := make([]models.TaskCompletion, len(w.tasks))
	copy(tasks, w.tasks)
	return models.WorkState{
		Tasks:               tasks,
		LastUpdateTimestamp: w.lastUpdate,
		HealthStatus:        w.health,
		SealHash:            w.seal,
	}
}
