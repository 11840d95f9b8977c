package core

import "github.com/valter-silva-au/aion-audit/pkg/models"

// Emitter is the subset of the observability bus that core observers need.
// Defining it here avoids importing the observability package.
type Emitter interface {
	Emit(source string, typ models.EventType, payload map[string]any) (*models.Event, error)
}

// MetricsSource yields the current cycle metrics derived from the trail.
type MetricsSource interface {
	Calculate() models.CycleMetrics
}
