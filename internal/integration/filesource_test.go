package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// --- Helper ---

func writeTaskFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "tasks.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write tasks.yaml: %v", err)
	}
	return path
}

// --- FetchAuditable tests ---

func TestFileSource_FetchAuditable(t *testing.T) {
	path := writeTaskFile(t, t.TempDir(), `
tasks:
  - task_id: TASK-1
    time_spent_hours: 1
    value_generated: 10
    registration_latency_ms: 1500
  - task_id: TASK-2
    time_spent_hours: 2.5
    value_generated: 20
`)

	tasks, err := NewFileSource(path).FetchAuditable(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []models.TaskCompletion{
		{TaskID: "TASK-1", TimeSpentHours: 1, ValueGenerated: 10, RegistrationLatencyMs: 1500},
		{TaskID: "TASK-2", TimeSpentHours: 2.5, ValueGenerated: 20},
	}
	if len(tasks) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(tasks), len(want))
	}
	for i := range want {
		if tasks[i] != want[i] {
			t.Errorf("task %d = %+v, want %+v", i, tasks[i], want[i])
		}
	}
}

func TestFileSource_EmptyFile(t *testing.T) {
	path := writeTaskFile(t, t.TempDir(), "")
	tasks, err := NewFileSource(path).FetchAuditable(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(tasks))
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := NewFileSource(path).FetchAuditable(context.Background())
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestFileSource_InvalidYAML(t *testing.T) {
	path := writeTaskFile(t, t.TempDir(), "tasks: [unclosed\n")
	_, err := NewFileSource(path).FetchAuditable(context.Background())
	if err == nil || !strings.Contains(err.Error(), "parsing task file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestFileSource_CancelledContext(t *testing.T) {
	path := writeTaskFile(t, t.TempDir(), "tasks: []\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewFileSource(path).FetchAuditable(ctx); err == nil {
		t.Error("expected context error")
	}
}
