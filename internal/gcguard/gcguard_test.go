package gcguard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquire_Disabled(t *testing.T) {
	release := Acquire(false)
	require.NotPanics(t, release)
}

func TestAcquire_RefCounting(t *testing.T) {
	releaseA := Acquire(true)
	releaseB := Acquire(true)

	require.Equal(t, 2, refCount)

	releaseA()
	require.Equal(t, 1, refCount)

	// Releasing twice must not double-decrement.
	releaseA()
	require.Equal(t, 1, refCount)

	releaseB()
	require.Equal(t, 0, refCount)
}
