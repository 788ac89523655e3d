package storage

import "sync"

// OperationType classifies an operation for the LockManager so reads can
// proceed concurrently while writes stay exclusive.
type OperationType int

const (
	ReadOperation OperationType = iota
	WriteOperation
)

// LockManager centralizes in-process locking for a collection. Every
// public collection operation runs through Execute or ExecuteWithResult,
// which keeps the lock/unlock pairing in one place instead of scattered
// across call sites.
type LockManager struct {
	mu sync.RWMutex
}

func NewLockManager() *LockManager {
	return &LockManager{}
}

// Execute runs fn under the lock appropriate for the operation type.
func (lm *LockManager) Execute(op OperationType, fn func() error) error {
	if op == ReadOperation {
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	} else {
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	return fn()
}

// ExecuteWithResult is Execute for functions that also return a value.
// Callers type-assert the result.
func (lm *LockManager) ExecuteWithResult(op OperationType, fn func() (any, error)) (any, error) {
	if op == ReadOperation {
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	} else {
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	return fn()
}
