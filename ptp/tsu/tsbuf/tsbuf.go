/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package tsbuf implements the bounded store which holds hardware timestamps
until software asks for them by packet identity.

A store of size N is a ring holding at most N-1 records: front == end means empty.
Inserting into a full store drops the oldest record, so fresh captures are never lost.
Lookup is a linear scan from oldest to newest; a miss on a full store drops the oldest
record as well, so a store saturated by identities nobody asks for still makes progress.
Nothing allocates after New.
*/
package tsbuf

import (
	"errors"
	"fmt"
	"sync"

	ptp "github.com/ningzhenyu/liboot-tz/ptp/protocol"
	"github.com/ningzhenyu/liboot-tz/rtc"
)

// ErrInvalidSize is returned by New for stores which can't hold a single record
var ErrInvalidSize = errors.New("store size must be at least 2")

// Record is a captured timestamp and the identity of the message it belongs to
type Record struct {
	Identity ptp.PacketIdentity
	Time     rtc.Time
}

// Stats are the store counters
type Stats struct {
	Inserts    uint64
	Overwrites uint64
	Matches    uint64
	Misses     uint64
	Drops      uint64
}

// Option changes Store behaviour
type Option func(*Store)

// WithRemoveOnMatch makes FindAndRemove take matched records out of the store.
// By default a matched record stays until it is pushed out by newer ones.
func WithRemoveOnMatch() Option {
	return func(s *Store) {
		s.removeOnMatch = true
	}
}

// Store is a fixed size ring of timestamp records, safe for concurrent use
type Store struct {
	mu            sync.Mutex
	buf           []Record
	front         int
	end           int
	removeOnMatch bool
	stats         Stats
}

// New allocates a Store of size slots
func New(size int, opts ...Option) (*Store, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	s := &Store{buf: make([]Record, size)}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Store) next(i int) int {
	return (i + 1) % len(s.buf)
}

func (s *Store) prev(i int) int {
	return (i + len(s.buf) - 1) % len(s.buf)
}

func (s *Store) nelems() int {
	switch {
	case s.end > s.front:
		return s.end - s.front
	case s.end < s.front:
		return len(s.buf) - (s.front - s.end)
	}
	return 0
}

func (s *Store) full() bool {
	return s.nelems() == len(s.buf)-1
}

// Insert adds r as the newest record, dropping the oldest one if the store is full
func (s *Store) Insert(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full() {
		s.front = s.next(s.front)
		s.stats.Overwrites++
	}
	s.buf[s.end] = r
	s.end = s.next(s.end)
	s.stats.Inserts++
}

// FindAndRemove looks up the time captured for id
func (s *Store) FindAndRemove(id ptp.PacketIdentity) (rtc.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := s.front; i != s.end; i = s.next(i) {
		if s.buf[i].Identity != id {
			continue
		}
		t := s.buf[i].Time
		if s.removeOnMatch {
			// close the gap by moving older records one slot towards the newer end
			for j := i; j != s.front; j = s.prev(j) {
				s.buf[j] = s.buf[s.prev(j)]
			}
			s.front = s.next(s.front)
		}
		s.stats.Matches++
		return t, true
	}
	s.stats.Misses++
	if s.full() {
		s.front = s.next(s.front)
		s.stats.Drops++
	}
	return rtc.Time{}, false
}

// Flush empties the store. Slots aren't cleared, just become unreachable.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.front = 0
	s.end = 0
}

// Len returns the number of records held
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nelems()
}

// Size returns the number of slots, one more than the store can hold
func (s *Store) Size() int {
	return len(s.buf)
}

// Empty reports whether the store holds no records
func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.front == s.end
}

// Full reports whether the next Insert drops a record
func (s *Store) Full() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.full()
}

// Records returns a copy of held records, oldest first
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, s.nelems())
	for i := s.front; i != s.end; i = s.next(i) {
		out = append(out, s.buf[i])
	}
	return out
}

// Stats returns a snapshot of the counters
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
