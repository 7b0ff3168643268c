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

package tsbuf

import (
	"math/rand"
	"sync"
	"testing"

	ptp "github.com/ningzhenyu/liboot-tz/ptp/protocol"
	"github.com/ningzhenyu/liboot-tz/rtc"
	"github.com/stretchr/testify/require"
)

var testPort = ptp.PortIdentity{ClockIdentity: 0x0c42a1fffe6d7ca6, PortNumber: 1}

func record(seq uint16) Record {
	return Record{
		Identity: ptp.NewPacketIdentity(seq, testPort),
		Time:     rtc.Time{Seconds: uint32(seq), Nanoseconds: int32(seq) * 1000},
	}
}

func seqs(s *Store) []uint16 {
	var out []uint16
	for _, r := range s.Records() {
		out = append(out, r.Identity.SequenceID)
	}
	return out
}

func TestNewInvalidSize(t *testing.T) {
	for _, size := range []int{-1, 0, 1} {
		_, err := New(size)
		require.ErrorIs(t, err, ErrInvalidSize)
	}
	s, err := New(2)
	require.NoError(t, err)
	require.Equal(t, 2, s.Size())
	require.True(t, s.Empty())
}

func TestInsertOverwritesOldest(t *testing.T) {
	s, err := New(4)
	require.NoError(t, err)
	for seq := uint16(1); seq <= 3; seq++ {
		s.Insert(record(seq))
	}
	require.True(t, s.Full())
	require.Equal(t, 3, s.Len())

	s.Insert(record(4))
	s.Insert(record(5))
	require.Equal(t, 3, s.Len())
	require.Equal(t, []uint16{3, 4, 5}, seqs(s))

	_, ok := s.FindAndRemove(record(1).Identity)
	require.False(t, ok)
	got, ok := s.FindAndRemove(record(5).Identity)
	require.True(t, ok)
	require.Equal(t, record(5).Time, got)

	require.Equal(t, Stats{Inserts: 5, Overwrites: 2, Matches: 1, Misses: 1, Drops: 1}, s.Stats())
}

func TestRingCapacity(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, size := range []int{2, 3, 7, 64} {
		s, err := New(size)
		require.NoError(t, err)
		for i := 0; i < 1000; i++ {
			if r.Intn(4) == 0 {
				s.FindAndRemove(record(uint16(r.Intn(2000))).Identity)
			} else {
				s.Insert(record(uint16(i)))
			}
			require.LessOrEqual(t, s.Len(), size-1)
			require.Equal(t, s.Len() == 0, s.Empty())
			require.Equal(t, s.Len() == size-1, s.Full())
		}
	}
}

func TestFindIsNonDestructive(t *testing.T) {
	s, err := New(8)
	require.NoError(t, err)
	s.Insert(record(10))
	s.Insert(record(11))
	for i := 0; i < 3; i++ {
		got, ok := s.FindAndRemove(record(10).Identity)
		require.True(t, ok)
		require.Equal(t, record(10).Time, got)
	}
	require.Equal(t, 2, s.Len())
}

func TestFindMatchesFullIdentity(t *testing.T) {
	s, err := New(8)
	require.NoError(t, err)
	s.Insert(record(10))

	other := record(10).Identity
	other.SourcePortID[9] ^= 1
	_, ok := s.FindAndRemove(other)
	require.False(t, ok)

	_, ok = s.FindAndRemove(ptp.NewPacketIdentity(11, testPort))
	require.False(t, ok)
}

func TestFindReturnsOldestDuplicate(t *testing.T) {
	s, err := New(8)
	require.NoError(t, err)
	first := record(3)
	second := record(3)
	second.Time.Nanoseconds++
	s.Insert(first)
	s.Insert(second)
	got, ok := s.FindAndRemove(first.Identity)
	require.True(t, ok)
	require.Equal(t, first.Time, got)
}

func TestRemoveOnMatch(t *testing.T) {
	s, err := New(5, WithRemoveOnMatch())
	require.NoError(t, err)
	for seq := uint16(1); seq <= 4; seq++ {
		s.Insert(record(seq))
	}

	got, ok := s.FindAndRemove(record(2).Identity)
	require.True(t, ok)
	require.Equal(t, record(2).Time, got)
	require.Equal(t, []uint16{1, 3, 4}, seqs(s))
	_, ok = s.FindAndRemove(record(2).Identity)
	require.False(t, ok)

	_, ok = s.FindAndRemove(record(4).Identity)
	require.True(t, ok)
	_, ok = s.FindAndRemove(record(1).Identity)
	require.True(t, ok)
	require.Equal(t, []uint16{3}, seqs(s))

	// wrap around the end of the slot array
	for seq := uint16(5); seq <= 7; seq++ {
		s.Insert(record(seq))
	}
	require.Equal(t, []uint16{3, 5, 6, 7}, seqs(s))
	_, ok = s.FindAndRemove(record(6).Identity)
	require.True(t, ok)
	require.Equal(t, []uint16{3, 5, 7}, seqs(s))
}

func TestMissOnFullDropsOldest(t *testing.T) {
	s, err := New(3)
	require.NoError(t, err)
	s.Insert(record(1))
	_, ok := s.FindAndRemove(record(9).Identity)
	require.False(t, ok)
	require.Equal(t, 1, s.Len(), "miss on a store with room must not drop")

	s.Insert(record(2))
	_, ok = s.FindAndRemove(record(9).Identity)
	require.False(t, ok)
	require.Equal(t, []uint16{2}, seqs(s))
	require.Equal(t, uint64(1), s.Stats().Drops)
}

func TestFlush(t *testing.T) {
	s, err := New(4)
	require.NoError(t, err)
	for seq := uint16(1); seq <= 5; seq++ {
		s.Insert(record(seq))
	}
	s.Flush()
	require.True(t, s.Empty())
	require.Zero(t, s.Len())
	require.Equal(t, 4, s.Size())
	_, ok := s.FindAndRemove(record(5).Identity)
	require.False(t, ok)

	s.Insert(record(6))
	require.Equal(t, []uint16{6}, seqs(s))
}

func TestRecordsWrap(t *testing.T) {
	s, err := New(4)
	require.NoError(t, err)
	for seq := uint16(1); seq <= 10; seq++ {
		s.Insert(record(seq))
	}
	require.Equal(t, []uint16{8, 9, 10}, seqs(s))
}

func TestConcurrentProducerConsumer(t *testing.T) {
	for _, opts := range [][]Option{nil, {WithRemoveOnMatch()}} {
		s, err := New(8, opts...)
		require.NoError(t, err)
		const n = 5000
		ids := make(chan uint16)
		found := 0
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			defer close(ids)
			for i := 0; i < n; i++ {
				s.Insert(record(uint16(i)))
				ids <- uint16(i)
			}
		}()
		go func() {
			defer wg.Done()
			for seq := range ids {
				if _, ok := s.FindAndRemove(record(seq).Identity); ok {
					found++
				}
			}
		}()
		wg.Wait()
		require.Equal(t, n, found)
		require.LessOrEqual(t, s.Len(), 7)
	}
}
