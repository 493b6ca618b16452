package qa

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestKeyedMutexMutualExclusion(t *testing.T) {
	km := newKeyedMutex()
	key := uuid.New()

	var active int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock(key)
			defer km.Unlock(key)
			if n := atomic.AddInt32(&active, 1); n != 1 {
				t.Errorf("%d holders inside the critical section, want 1", n)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := newKeyedMutex()
	a, b := uuid.New(), uuid.New()

	km.Lock(a)
	defer km.Unlock(a)

	done := make(chan struct{})
	go func() {
		km.Lock(b)
		km.Unlock(b)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("locking an unrelated key blocked behind a held lock")
	}
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	km := newKeyedMutex()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		key := uuid.New()
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				km.Lock(key)
				km.Unlock(key)
			}()
		}
	}
	wg.Wait()

	km.mu.Lock()
	n := len(km.locks)
	km.mu.Unlock()
	if n != 0 {
		t.Errorf("lock table holds %d entries after release, want 0", n)
	}
}

func TestKeyedMutexUnlockUnheldPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Unlock of an unheld key did not panic")
		}
	}()
	newKeyedMutex().Unlock(uuid.New())
}
