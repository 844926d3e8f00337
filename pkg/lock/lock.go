// Package lock provides a cross-process mutual-exclusion primitive built on
// atomic directory creation. It guards the driver-assignment step when more
// than one bot instance may handle the same inbound request.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrHeld is returned when another process already holds the lock.
// Contention is an expected outcome, not a failure.
var ErrHeld = errors.New("lock already held")

type AssignLocker struct {
	dir string
}

func NewAssignLocker(dir string) *AssignLocker {
	return &AssignLocker{dir: dir}
}

// Acquire takes the assignment lock for an order. The mkdir either succeeds
// atomically or fails because the directory exists.
func (l *AssignLocker) Acquire(orderID int64) (release func(), err error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(l.dir, fmt.Sprintf("assign-%d", orderID))
	if err := os.Mkdir(path, 0o755); err != nil {
		if os.IsExist(err) {
			return nil, ErrHeld
		}
		return nil, err
	}
	return func() { _ = os.Remove(path) }, nil
}
