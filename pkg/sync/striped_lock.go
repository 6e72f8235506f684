package sync

import (
	"sort"
	base "sync"
)

const (
	hashEntriesPerLock = 200
)

// StripedLock is a partitioned locking mechanism that consistently maps a key
// space to a set of locks. This provides concurrent data access while also
// limiting the total memory footprint.
type StripedLock struct {
	locks    []base.RWMutex
	hashRing *ring
}

// NewStripedLock returns a new StripedLock with a static number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	if stripes == 0 {
		stripes = 1
	}

	return &StripedLock{
		locks:    make([]base.RWMutex, stripes),
		hashRing: newRing("lock", stripes, hashEntriesPerLock),
	}
}

// Get gets the lock for a key
func (l *StripedLock) Get(key []byte) *base.RWMutex {
	return &l.locks[l.hashRing.shard(key)]
}

// LockSet is a set of stripes held together by LockAll.
type LockSet struct {
	l         *StripedLock
	stripes   []int
	exclusive map[int]bool
	once      base.Once
}

// LockAll acquires the stripes for every key. A stripe is held exclusively
// when any key mapping to it is writable and shared otherwise. Stripes are
// acquired in index order, so concurrent callers with overlapping key sets
// never deadlock against each other.
//
// writable must either be nil, meaning every key is writable, or the same
// length as keys.
func (l *StripedLock) LockAll(keys [][]byte, writable []bool) *LockSet {
	set := &LockSet{
		l:         l,
		exclusive: make(map[int]bool),
	}

	for i, key := range keys {
		stripe := l.hashRing.shard(key)

		isWritable := writable == nil || writable[i]
		current, seen := set.exclusive[stripe]
		if !seen {
			set.stripes = append(set.stripes, stripe)
		}
		set.exclusive[stripe] = current || isWritable
	}

	sort.Ints(set.stripes)
	for _, stripe := range set.stripes {
		if set.exclusive[stripe] {
			l.locks[stripe].Lock()
		} else {
			l.locks[stripe].RLock()
		}
	}

	return set
}

// Unlock releases every stripe in the set. It is safe to call more than once.
func (s *LockSet) Unlock() {
	s.once.Do(func() {
		for i := len(s.stripes) - 1; i >= 0; i-- {
			stripe := s.stripes[i]
			if s.exclusive[stripe] {
				s.l.locks[stripe].Unlock()
			} else {
				s.l.locks[stripe].RUnlock()
			}
		}
	})
}
