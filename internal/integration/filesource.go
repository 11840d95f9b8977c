package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// TaskFile is the YAML document read by FileSource.
//
//	tasks:
//	  - task_id: TASK-1
//	    time_spent_hours: 1.5
//	    value_generated: 20
//	    registration_latency_ms: 1500
type TaskFile struct {
	Tasks []models.TaskCompletion `yaml:"tasks"`
}

// FileSource reads auditable completions from a YAML task file. It serves
// offline runs where no Notion workspace is reachable.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns "file:<path>".
func (s *FileSource) Name() string { return "file:" + s.path }

// FetchAuditable parses the task file and returns its tasks in file order.
func (s *FileSource) FetchAuditable(ctx context.Context) ([]models.TaskCompletion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path) //nolint:gosec // G304: task file path comes from configuration
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("task file %s not found", s.path)
		}
		return nil, fmt.Errorf("reading task file: %w", err)
	}

	var tf TaskFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing task file %s: %w", s.path, err)
	}
	return tf.Tasks, nil
}

func resolvePath(basePath, path string) string {
	if filepath.IsAbs(path) || basePath == "" {
		return path
	}
	return filepath.Join(basePath, path)
}
