package locking

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestArenaSerializesPerKey(t *testing.T) {
	t.Parallel()

	arena := NewArena()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := arena.Lock("shared")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestArenaDistinctKeysDoNotBlock(t *testing.T) {
	t.Parallel()

	arena := NewArena()
	unlockA := arena.Lock("a")
	defer unlockA()

	// Acquiring a different key while "a" is held must not deadlock.
	done := make(chan struct{})
	go func() {
		unlockB := arena.Lock("b")
		unlockB()
		close(done)
	}()
	<-done
}

func TestArenaReusesMutexPerKey(t *testing.T) {
	t.Parallel()

	arena := NewArena()
	unlock := arena.Lock("k")
	unlock()

	unlock = arena.Lock("k")
	unlock()

	arena.mu.Lock()
	defer arena.mu.Unlock()
	assert.Len(t, arena.locks, 1)
}
