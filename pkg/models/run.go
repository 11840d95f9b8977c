package models

// RunSummary describes the outcome of one audit run.
type RunSummary struct {
	Source           string        `json:"source"`
	TasksProcessed   int           `json:"tasksProcessed"`
	ExpensesApplied  int           `json:"expensesApplied"`
	ExpensesRejected int           `json:"expensesRejected"`
	EventsRecorded   int           `json:"eventsRecorded"`
	TrailLength      int           `json:"trailLength"`
	TrailHead        string        `json:"trailHead"`
	Work             WorkState     `json:"work"`
	Capital          CapitalState  `json:"capital"`
	Metrics          CycleMetrics  `json:"metrics"`
	Report           *VisionReport `json:"report,omitempty"`
}
