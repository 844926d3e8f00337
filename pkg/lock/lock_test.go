package lock_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierbot/pkg/lock"
)

func TestAcquireRelease(t *testing.T) {
	locker := lock.NewAssignLocker(t.TempDir())

	release, err := locker.Acquire(42)
	require.NoError(t, err)
	require.NotNil(t, release)

	release()

	// released, a new acquisition succeeds
	release2, err := locker.Acquire(42)
	require.NoError(t, err)
	release2()
}

func TestAcquireContention(t *testing.T) {
	dir := t.TempDir()
	locker := lock.NewAssignLocker(dir)

	release, err := locker.Acquire(42)
	require.NoError(t, err)
	defer release()

	// a second holder, same order, even from another locker instance
	other := lock.NewAssignLocker(dir)
	_, err = other.Acquire(42)
	assert.ErrorIs(t, err, lock.ErrHeld)

	// a different order is independent
	releaseOther, err := other.Acquire(43)
	require.NoError(t, err)
	releaseOther()
}

func TestAcquireCreatesLockDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "locks")
	locker := lock.NewAssignLocker(dir)

	release, err := locker.Acquire(1)
	require.NoError(t, err)
	defer release()

	_, err = os.Stat(filepath.Join(dir, "assign-1"))
	assert.NoError(t, err)
}
