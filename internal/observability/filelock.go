package observability

import (
	"fmt"
	"os"
	"syscall"
)

// withFileLock holds an exclusive advisory lock on f while fn runs, so
// processes appending to the same journal never interleave lines.
func withFileLock(f *os.File, fn func() error) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("acquiring journal lock: %w", err)
	}
	defer func() { _ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN) }()
	return fn()
}
