package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// SealLength is the length of a seal: a hex-encoded SHA-256 digest.
const SealLength = 64

// taskPart renders the sealed fields of one task. Hours are fixed to two
// decimals so that 2 and 2.0 seal identically.
func taskPart(t models.TaskCompletion) string {
	return fmt.Sprintf("%s|%.2f|%v|%v", t.TaskID, t.TimeSpentHours, t.ValueGenerated, t.RegistrationLatencyMs)
}

// ComputeSeal chains task onto prev. With an empty prev the seal covers the
// task alone; otherwise it covers prev followed by the task, so the seal of
// the n-th task depends on the full ordered task list.
func ComputeSeal(prev string, task models.TaskCompletion) string {
	input := taskPart(task)
	if prev != "" {
		input = prev + "|" + input
	}
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// SealTasks folds ComputeSeal over tasks in order.
func SealTasks(tasks []models.TaskCompletion) string {
	seal := ""
	for _, t := range tasks {
		seal = ComputeSeal(seal, t)
	}
	return seal
}
