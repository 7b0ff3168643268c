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
Package correlator pairs hardware timestamps with the PTP messages they were captured for.
Captures are classified and inserted into one store per message class and direction;
lookups find them by packet identity.
*/
package correlator

import (
	"errors"
	"fmt"

	ptp "github.com/ningzhenyu/liboot-tz/ptp/protocol"
	"github.com/ningzhenyu/liboot-tz/ptp/tsu/classifier"
	"github.com/ningzhenyu/liboot-tz/ptp/tsu/stats"
	"github.com/ningzhenyu/liboot-tz/ptp/tsu/tsbuf"
	"github.com/ningzhenyu/liboot-tz/rtc"
	log "github.com/sirupsen/logrus"
)

// ErrNotFound is returned when no timestamp was captured for the identity, even after retry
var ErrNotFound = errors.New("timestamp not found")

// DefaultStoreSize is the default number of slots of every store
const DefaultStoreSize = 1024

// Config sizes the stores
type Config struct {
	TxStoreSize   int
	RxStoreSize   int
	RemoveOnMatch bool
}

// Service owns the 8 timestamp stores
type Service struct {
	stores [classifier.NumDirections][classifier.NumClasses]*tsbuf.Store
	stats  stats.Stats
}

// retryHook runs between the two lookup attempts; tests replace it
var retryHook = func() {}

// New allocates all stores
func New(cfg Config, st stats.Stats) (*Service, error) {
	var opts []tsbuf.Option
	if cfg.RemoveOnMatch {
		opts = append(opts, tsbuf.WithRemoveOnMatch())
	}
	s := &Service{stats: st}
	sizes := [classifier.NumDirections]int{
		classifier.DirectionTx: cfg.TxStoreSize,
		classifier.DirectionRx: cfg.RxStoreSize,
	}
	for d := range s.stores {
		for c := range s.stores[d] {
			store, err := tsbuf.New(sizes[d], opts...)
			if err != nil {
				return nil, fmt.Errorf("%s %s store: %w", classifier.Direction(d), classifier.MessageClass(c), err)
			}
			s.stores[d][c] = store
		}
	}
	return s, nil
}

// Store returns the store of direction d and class c
func (s *Service) Store(d classifier.Direction, c classifier.MessageClass) *tsbuf.Store {
	return s.stores[d][c]
}

// ShouldTimestamp tells the transmit path whether frame needs a hardware timestamp
func (s *Service) ShouldTimestamp(frame []byte) bool {
	return classifier.ShouldTimestamp(frame)
}

// Capture records the hardware time of a frame. Frames without a correlated PTP
// event message are ignored, which is reported by returning false.
func (s *Service) Capture(d classifier.Direction, frame []byte, ts rtc.Time) bool {
	msg, err := s.parse(d, frame)
	if err != nil {
		return false
	}
	s.insert(d, msg, ts)
	return true
}

// CaptureFromUnit is Capture with the time taken from the TSU capture registers
func (s *Service) CaptureFromUnit(d classifier.Direction, frame []byte, unit *rtc.TSU) bool {
	msg, err := s.parse(d, frame)
	if err != nil {
		return false
	}
	var ts rtc.Time
	if d == classifier.DirectionTx {
		ts = unit.TxTimestamp()
	} else {
		ts = unit.RxTimestamp()
	}
	s.insert(d, msg, ts)
	return true
}

func (s *Service) parse(d classifier.Direction, frame []byte) (classifier.Message, error) {
	msg, err := classifier.Parse(frame)
	if err != nil {
		log.Tracef("%s frame skipped: %v", d, err)
		s.stats.IncSkipped(d)
	}
	return msg, err
}

func (s *Service) insert(d classifier.Direction, msg classifier.Message, ts rtc.Time) {
	s.stores[d][msg.Class].Insert(tsbuf.Record{Identity: msg.Identity, Time: ts})
	s.stats.IncCapture(d, msg.Class)
	log.Debugf("captured %s %s %s at %s", d, msg.Class, msg.Identity, ts)
}

// Lookup returns the time captured for id, trying the store twice
func (s *Service) Lookup(d classifier.Direction, c classifier.MessageClass, id ptp.PacketIdentity) (rtc.Time, error) {
	if d >= classifier.NumDirections || c >= classifier.NumClasses {
		return rtc.Time{}, fmt.Errorf("%w: no store for %s %s", ErrNotFound, d, c)
	}
	store := s.stores[d][c]
	if ts, ok := store.FindAndRemove(id); ok {
		s.stats.IncHit(d, c)
		return ts, nil
	}
	retryHook()
	if ts, ok := store.FindAndRemove(id); ok {
		s.stats.IncRetryHit(d, c)
		return ts, nil
	}
	s.stats.IncMiss(d, c)
	log.Debugf("no %s %s timestamp for %s", d, c, id)
	return rtc.Time{}, fmt.Errorf("%w: %s %s %s", ErrNotFound, d, c, id)
}

// FlushAll empties every store
func (s *Service) FlushAll() {
	for d := range s.stores {
		for c := range s.stores[d] {
			s.stores[d][c].Flush()
		}
	}
	s.stats.IncFlush()
	log.Infof("flushed all timestamp stores")
}

// ReportStats copies store counters into stats
func (s *Service) ReportStats() {
	for d := range s.stores {
		for c := range s.stores[d] {
			s.stats.SetStore(classifier.Direction(d), classifier.MessageClass(c), s.stores[d][c].Stats())
		}
	}
}
