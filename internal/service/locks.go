package service

import (
	"sort"
	"strconv"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// UserLocks serializes work per user. Operations on different users run in parallel.
// Entries are never evicted; the table grows with the number of distinct users seen.
type UserLocks struct {
	mutexes cmap.ConcurrentMap[string, *sync.Mutex]
}

// NewUserLocks creates an empty lock table
func NewUserLocks() *UserLocks {
	return &UserLocks{mutexes: cmap.New[*sync.Mutex]()}
}

func (l *UserLocks) get(userID int64) *sync.Mutex {
	return l.mutexes.Upsert(strconv.FormatInt(userID, 10), nil, func(exist bool, current, _ *sync.Mutex) *sync.Mutex {
		if exist {
			return current
		}
		return &sync.Mutex{}
	})
}

// Lock acquires the lock of one user and returns its release function
func (l *UserLocks) Lock(userID int64) func() {
	m := l.get(userID)
	m.Lock()
	return m.Unlock
}

// LockAll acquires the locks of several users in ascending ID order so that
// concurrent batches cannot deadlock. Duplicate IDs are locked once.
func (l *UserLocks) LockAll(userIDs []int64) func() {
	ids := make([]int64, 0, len(userIDs))
	seen := make(map[int64]bool, len(userIDs))
	for _, id := range userIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	held := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		m := l.get(id)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
