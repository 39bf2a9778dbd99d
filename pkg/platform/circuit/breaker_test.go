package circuit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_StartsClosed(t *testing.T) {
	b := New("kafka")
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "kafka", b.Name())
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b := New("kafka", WithFailureThreshold(2))

	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.False(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened, "already open")
}

func TestBreaker_RecoversAfterConsecutiveSuccesses(t *testing.T) {
	b := New("kafka", WithFailureThreshold(1), WithSuccessThreshold(2))
	b.RecordFailure()

	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)

	b.RecordFailure()
	usePrimary, _ = b.RecordSuccess()
	assert.False(t, usePrimary, "a failure restarts the success count")

	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_SuccessClearsFailures(t *testing.T) {
	b := New("kafka", WithFailureThreshold(2))
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.False(t, b.IsOpen())
}

func TestBreaker_Reset(t *testing.T) {
	b := New("kafka", WithFailureThreshold(1))
	b.RecordFailure()
	b.Reset()
	assert.False(t, b.IsOpen())
}

func TestBreaker_ConcurrentUse(t *testing.T) {
	b := New("kafka", WithFailureThreshold(1000))
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.RecordFailure()
			b.RecordSuccess()
		}()
	}
	wg.Wait()
	assert.False(t, b.IsOpen())
}
