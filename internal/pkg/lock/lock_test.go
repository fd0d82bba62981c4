package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "booking-1", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "booking-1", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired, "second holder must be rejected")

	// Different keys do not contend
	releaseOther, err := l.Acquire(ctx, "booking-2", time.Minute)
	require.NoError(t, err)
	releaseOther()

	release()

	release, err = l.Acquire(ctx, "booking-1", time.Minute)
	require.NoError(t, err, "lock should be free after release")
	release()
}

func TestLocalLockerExpiry(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	staleRelease, err := l.Acquire(ctx, "k", time.Millisecond)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	release, err := l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err, "expired lock can be taken over")

	// Releasing the stale handle must not drop the new holder's lock
	staleRelease()
	_, err = l.Acquire(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)

	release()
}
