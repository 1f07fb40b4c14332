package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOriginLockExcludes(t *testing.T) {
	locks := newOriginLocks()
	ctx := context.Background()

	unlock, err := locks.lock(ctx, "https://example.com")
	require.NoError(t, err)

	acquired := make(chan func())
	go func() {
		unlockSecond, err := locks.lock(ctx, "https://example.com")
		if err == nil {
			acquired <- unlockSecond
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired the lock while it was held")
	case <-time.After(50 * time.Millisecond):
	}

	// Other origins aren't blocked.
	unlockOther, err := locks.lock(ctx, "https://other.example.com")
	require.NoError(t, err)
	unlockOther()

	unlock()
	select {
	case unlockSecond := <-acquired:
		unlockSecond()
	case <-time.After(5 * time.Second):
		t.Fatal("second holder never acquired the lock")
	}
	assert.Equal(t, 0, locks.held())
}

func TestOriginLockContextCanceled(t *testing.T) {
	locks := newOriginLocks()

	unlock, err := locks.lock(context.Background(), "https://example.com")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locks.lock(ctx, "https://example.com")
	assert.Equal(t, context.DeadlineExceeded, err)

	// Only the holder's reference is left.
	assert.Equal(t, 1, locks.held())
}

func TestOriginLockDoubleUnlock(t *testing.T) {
	locks := newOriginLocks()

	unlock, err := locks.lock(context.Background(), "https://example.com")
	require.NoError(t, err)
	unlock()
	unlock()
	assert.Equal(t, 0, locks.held())

	unlock, err = locks.lock(context.Background(), "https://example.com")
	require.NoError(t, err)
	unlock()
}
