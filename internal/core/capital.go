package core

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// InitialInputsHash is the inputs hash of a capital subject that has not
// received any deposit yet.
const InitialInputsHash = "genesis"

// Capital is the capital subject. Deposits and expenses change the total;
// every accepted mutation notifies the attached observers.
type Capital struct {
	logger    *slog.Logger
	now       func() time.Time
	observers observerList

	mu         sync.RWMutex
	total      float64
	lastUpdate time.Time
	inputsHash string
	health     models.CapitalHealth
}

// CapitalOption configures a Capital.
type CapitalOption func(*Capital)

// WithCapitalClock overrides the time source.
func WithCapitalClock(now func() time.Time) CapitalOption {
	return func(c *Capital) { c.now = now }
}

// WithOpeningBalance starts the subject at amount instead of zero.
func WithOpeningBalance(amount float64) CapitalOption {
	return func(c *Capital) {
		if amount > 0 && !math.IsInf(amount, 0) {
			c.total = amount
		}
	}
}

// NewCapital creates an ONLINE capital subject.
func NewCapital(logger *slog.Logger, opts ...CapitalOption) *Capital {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Capital{
		logger:     logger,
		now:        time.Now,
		inputsHash: InitialInputsHash,
		health:     models.CapitalOnline,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lastUpdate = c.now().UTC()
	return c
}

// Attach registers o. Attaching the same observer twice has no effect.
func (c *Capital) Attach(o Observer) { c.observers.attach(o) }

// Detach removes o if present.
func (c *Capital) Detach(o Observer) { c.observers.detach(o) }

// Notify delivers the current snapshot to every attached observer.
func (c *Capital) Notify() error {
	return c.observers.notify(c.logger, "capital", CapitalChange{State: c.Snapshot()})
}

// ProcessValueDeposit adds value to the total, records seal as the inputs
// hash and marks the subject ONLINE.
func (c *Capital) ProcessValueDeposit(value float64, taskID, seal string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		c.logger.Warn("rejected deposit", "task_id", taskID, "value", value)
		return fmt.Errorf("%w: value %v for task %s", ErrInvalidDeposit, value, taskID)
	}

	c.mu.Lock()
	c.total += value
	c.inputsHash = seal
	c.health = models.CapitalOnline
	c.lastUpdate = c.now().UTC()
	total := c.total
	c.mu.Unlock()

	c.logger.Info("value deposited", "task_id", taskID, "value", value, "total", total)
	return c.Notify()
}

// ProcessExpense deducts amount from the total. Non-positive amounts and
// amounts above the current total are rejected without any change and
// without notification.
func (c *Capital) ProcessExpense(amount float64, reason string) error {
	if math.IsNaN(amount) || amount <= 0 {
		c.logger.Warn("rejected expense", "amount", amount, "reason", reason)
		return fmt.Errorf("%w: got %v", ErrNonPositiveExpense, amount)
	}

	c.mu.Lock()
	if amount > c.total {
		total := c.total
		c.mu.Unlock()
		c.logger.Warn("rejected expense", "amount", amount, "reason", reason, "total", total)
		return fmt.Errorf("%w: expense %v exceeds capital %v", ErrInsufficientCapital, amount, total)
	}
	c.total -= amount
	c.lastUpdate = c.now().UTC()
	total := c.total
	c.mu.Unlock()

	c.logger.Info("expense applied", "amount", amount, "reason", reason, "total", total)
	return c.Notify()
}

// ReportHealth records an availability status and notifies observers.
func (c *Capital) ReportHealth(status models.CapitalHealth) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidHealth, status)
	}
	c.mu.Lock()
	c.health = status
	c.lastUpdate = c.now().UTC()
	c.mu.Unlock()

	c.logger.Info("capital health reported", "status", status)
	return c.Notify()
}

// Snapshot returns a copy of the current state. PopulationState always
// mirrors the total.
func (c *Capital) Snapshot() models.CapitalState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return models.CapitalState{
		TotalCapitalValue:   c.total,
		PopulationState:     c.total,
		LastUpdateTimestamp: c.lastUpdate,
		InputsHash:          c.inputsHash,
		HealthStatus:        c.health,
	}
}
