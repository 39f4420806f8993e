package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserLocks_SerializesSameUser(t *testing.T) {
	locks := NewUserLocks()
	var mu sync.Mutex
	active, maxActive := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(7)
			defer unlock()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
}

func TestUserLocks_IndependentUsers(t *testing.T) {
	locks := NewUserLocks()
	unlock := locks.Lock(1)
	defer unlock()

	done := make(chan struct{})
	go func() {
		release := locks.Lock(2)
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock of user 2 blocked on user 1")
	}
}

func TestUserLocks_LockAllHandlesDuplicatesAndOrder(t *testing.T) {
	locks := NewUserLocks()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		ids := []int64{3, 1, 2, 1}
		if i%2 == 0 {
			ids = []int64{2, 3, 1}
		}
		wg.Add(1)
		go func(ids []int64) {
			defer wg.Done()
			unlock := locks.LockAll(ids)
			unlock()
		}(ids)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("LockAll deadlocked")
	}

	// every lock is released again
	unlock := locks.LockAll([]int64{1, 2, 3})
	unlock()
}
