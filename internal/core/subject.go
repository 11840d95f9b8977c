package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// Change is the notification delivered to observers. It is one of
// WorkChange or CapitalChange; observers dispatch with a type switch.
type Change interface {
	change()
}

// WorkChange carries a snapshot of the work subject after a mutation.
type WorkChange struct {
	State models.WorkState
}

// CapitalChange carries a snapshot of the capital subject after a mutation.
type CapitalChange struct {
	State models.CapitalState
}

func (WorkChange) change()    {}
func (CapitalChange) change() {}

// Observer reacts to subject changes. Implementations must be comparable
// (typically pointers) since subjects de-duplicate attachments by identity.
type Observer interface {
	Update(change Change) error
}

// observerList is the attach/detach/notify machinery shared by subjects.
type observerList struct {
	mu        sync.Mutex
	observers []Observer
}

// attach adds o unless it is already present. It reports whether o was added.
func (l *observerList) attach(o Observer) bool {
	if o == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.observers {
		if existing == o {
			return false
		}
	}
	l.observers = append(l.observers, o)
	return true
}

// detach removes o. Detaching an absent observer is a no-op.
func (l *observerList) detach(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, existing := range l.observers {
		if existing == o {
			l.observers = append(l.observers[:i], l.observers[i+1:]...)
			return
		}
	}
}

func (l *observerList) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.observers)
}

// notify delivers change to every observer in attachment order, without
// holding the list lock. Failures are logged and joined.
func (l *observerList) notify(logger *slog.Logger, subject string, change Change) error {
	l.mu.Lock()
	observers := make([]Observer, len(l.observers))
	copy(observers, l.observers)
	l.mu.Unlock()

	var errs []error
	for i, o := range observers {
		if err := update(o, change); err != nil {
			logger.Error("observer failed", "subject", subject, "observer", fmt.Sprintf("%T", o), "index", i, "error", err)
			errs = append(errs, fmt.Errorf("%s observer %T: %w", subject, o, err))
		}
	}
	return errors.Join(errs...)
}

func update(o Observer, change Change) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return o.Update(change)
}
