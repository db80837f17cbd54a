package monitor

import (
	"fmt"
	"sync"
	"time"
)

// CycleTracker numbers the checks of one run and enforces the optional check cap.
type CycleTracker struct {
	mutex          sync.RWMutex
	currentCycle   int
	completed      int
	currentCycleID string
	maxCycles      int
	now            func() time.Time
}

// NewCycleTracker creates a tracker. maxCycles 0 means unlimited.
func NewCycleTracker(maxCycles int, now func() time.Time) *CycleTracker {
	if now == nil {
		now = time.Now
	}
	return &CycleTracker{
		maxCycles: maxCycles,
		now:       now,
	}
}

// StartCycle begins the next check and returns its 1-based number.
func (ct *CycleTracker) StartCycle() int {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	ct.currentCycle++
	ct.currentCycleID = fmt.Sprintf("check-%d-%s", ct.currentCycle, ct.now().Format("20060102-150405"))
	return ct.currentCycle
}

// EndCycle marks the current check as completed.
func (ct *CycleTracker) EndCycle() {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()
	ct.completed = ct.currentCycle
}

// ShouldContinue returns false once the maximum number of checks has completed.
func (ct *CycleTracker) ShouldContinue() bool {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()
	if ct.maxCycles == 0 {
		return true
	}
	return ct.completed < ct.maxCycles
}

// Completed returns the number of finished checks.
func (ct *CycleTracker) Completed() int {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()
	return ct.completed
}

// GetCurrentCycleID returns the id of the running check.
func (ct *CycleTracker) GetCurrentCycleID() string {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()
	return ct.currentCycleID
}
