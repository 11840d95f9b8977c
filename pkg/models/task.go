package models

import (
	"fmt"
	"math"
	"time"
)

// TaskCompletion is one completed unit of work reported by a task source.
type TaskCompletion struct {
	TaskID                string  `json:"taskId" yaml:"task_id"`
	TimeSpentHours        float64 `json:"timeSpentHours" yaml:"time_spent_hours"`
	ValueGenerated        float64 `json:"valueGenerated" yaml:"value_generated"`
	RegistrationLatencyMs float64 `json:"registrationLatencyMs" yaml:"registration_latency_ms"`
}

// Validate checks that every numeric field is finite and non-negative.
func (t TaskCompletion) Validate() error {
	if t.TaskID == "" {
		return fmt.Errorf("task id must not be empty")
	}
	fields := []struct {
		name  string
		value float64
	}{
		{"timeSpentHours", t.TimeSpentHours},
		{"valueGenerated", t.ValueGenerated},
		{"registrationLatencyMs", t.RegistrationLatencyMs},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return fmt.Errorf("task %s: %s must be a finite non-negative number, got %v", t.TaskID, f.name, f.value)
		}
	}
	return nil
}

// WorkHealth is the focus status of the work subject.
type WorkHealth string

const (
	WorkMaxFocus WorkHealth = "MAX_FOCUS"
	WorkNormal   WorkHealth = "NORMAL"
	WorkDegraded WorkHealth = "DEGRADED"
)

// CapitalHealth is the availability status of the capital subject.
type CapitalHealth string

const (
	CapitalOnline   CapitalHealth = "ONLINE"
	CapitalDegraded CapitalHealth = "DEGRADED"
	CapitalOffline  CapitalHealth = "OFFLINE"
)

// Valid reports whether h is a known capital health status.
func (h CapitalHealth) Valid() bool {
	switch h {
	case CapitalOnline, CapitalDegraded, CapitalOffline:
		return true
	}
	return false
}

// WorkState is a point-in-time copy of the work subject.
type WorkState struct {
	Tasks               []TaskCompletion `json:"tasks"`
	LastUpdateTimestamp time.Time        `json:"lastUpdateTimestamp"`
	HealthStatus        WorkHealth       `json:"healthStatus"`
	SealHash            string           `json:"sealHash"`
}

// LastTask returns the most recently appended task, if any.
func (s WorkState) LastTask() (TaskCompletion, bool) {
	if len(s.Tasks) == 0 {
		return TaskCompletion{}, false
	}
	return s.Tasks[len(s.Tasks)-1], true
}

// CapitalState is a point-in-time copy of the capital subject.
type CapitalState struct {
	TotalCapitalValue   float64       `json:"totalCapitalValue"`
	PopulationState     float64       `json:"populationState"`
	LastUpdateTimestamp time.Time     `json:"lastUpdateTimestamp"`
	InputsHash          string        `json:"inputsHash"`
	HealthStatus        CapitalHealth `json:"healthStatus"`
}
