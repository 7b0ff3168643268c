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
Package stats implements statistics collection and reporting.
It is used by the correlator and the daemon to report captures, lookups,
store pressure and RTC events.
*/
package stats

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/ningzhenyu/liboot-tz/ptp/tsu/classifier"
	"github.com/ningzhenyu/liboot-tz/ptp/tsu/tsbuf"
	"github.com/ningzhenyu/liboot-tz/rtc"
)

//go:generate mockgen -source=stats.go -destination=stats_mock.go -package=stats

// Stats is a metric collection interface
type Stats interface {
	// Handler serves the last snapshot
	Handler() http.Handler

	// Snapshot the values so they can be reported atomically
	Snapshot()

	// Reset atomically sets all the counters to 0
	Reset()

	// IncCapture atomically add 1 to the counter
	IncCapture(d classifier.Direction, c classifier.MessageClass)

	// IncSkipped atomically add 1 to the counter of frames without a correlated PTP message
	IncSkipped(d classifier.Direction)

	// IncHit atomically add 1 to the counter of lookups answered on first attempt
	IncHit(d classifier.Direction, c classifier.MessageClass)

	// IncRetryHit atomically add 1 to the counter of lookups answered on retry
	IncRetryHit(d classifier.Direction, c classifier.MessageClass)

	// IncMiss atomically add 1 to the counter of failed lookups
	IncMiss(d classifier.Direction, c classifier.MessageClass)

	// IncFlush atomically add 1 to the counter
	IncFlush()

	// SetStore atomically sets the counters of one store
	SetStore(d classifier.Direction, c classifier.MessageClass, s tsbuf.Stats)

	// SetRTCEvents atomically sets RTC event counters
	SetRTCEvents(e rtc.EventCounters)
}

func storeKey(d classifier.Direction, c classifier.MessageClass) int {
	return int(d)*classifier.NumClasses + int(c)
}

func fromStoreKey(k int) (classifier.Direction, classifier.MessageClass) {
	return classifier.Direction(k / classifier.NumClasses), classifier.MessageClass(k % classifier.NumClasses)
}

// rtc event keys
const (
	eventAlarm = iota * 10
	eventPulse
	eventTrigger
)

// syncMapInt64 sync map of counters
type syncMapInt64 struct {
	sync.Mutex
	m map[int]int64
}

// init initializes the underlying map
func (s *syncMapInt64) init() {
	s.m = make(map[int]int64)
}

// keys returns slice of keys of the underlying map
func (s *syncMapInt64) keys() []int {
	s.Lock()
	defer s.Unlock()
	keys := make([]int, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	return keys
}

// load gets the value by the key
func (s *syncMapInt64) load(key int) int64 {
	s.Lock()
	defer s.Unlock()
	return s.m[key]
}

// inc increments the counter for the given key
func (s *syncMapInt64) inc(key int) {
	s.Lock()
	s.m[key]++
	s.Unlock()
}

// store saves the value with the key
func (s *syncMapInt64) store(key int, value int64) {
	s.Lock()
	s.m[key] = value
	s.Unlock()
}

// copy all key-values between maps
func (s *syncMapInt64) copy(dst *syncMapInt64) {
	for _, t := range s.keys() {
		dst.store(t, s.load(t))
	}
}

// reset stats to 0
func (s *syncMapInt64) reset() {
	s.Lock()
	for t := range s.m {
		s.m[t] = 0
	}
	s.Unlock()
}

type counters struct {
	captures        syncMapInt64
	skipped         syncMapInt64
	hits            syncMapInt64
	retryHits       syncMapInt64
	misses          syncMapInt64
	storeInserts    syncMapInt64
	storeOverwrites syncMapInt64
	storeDrops      syncMapInt64
	rtcEvents       syncMapInt64
	flushes         int64
}

func (c *counters) init() {
	c.captures.init()
	c.skipped.init()
	c.hits.init()
	c.retryHits.init()
	c.misses.init()
	c.storeInserts.init()
	c.storeOverwrites.init()
	c.storeDrops.init()
	c.rtcEvents.init()
}

func (c *counters) reset() {
	c.captures.reset()
	c.skipped.reset()
	c.hits.reset()
	c.retryHits.reset()
	c.misses.reset()
	c.storeInserts.reset()
	c.storeOverwrites.reset()
	c.storeDrops.reset()
	c.rtcEvents.reset()
	atomic.StoreInt64(&c.flushes, 0)
}

func (c *counters) copy(dst *counters) {
	c.captures.copy(&dst.captures)
	c.skipped.copy(&dst.skipped)
	c.hits.copy(&dst.hits)
	c.retryHits.copy(&dst.retryHits)
	c.misses.copy(&dst.misses)
	c.storeInserts.copy(&dst.storeInserts)
	c.storeOverwrites.copy(&dst.storeOverwrites)
	c.storeDrops.copy(&dst.storeDrops)
	c.rtcEvents.copy(&dst.rtcEvents)
	atomic.StoreInt64(&dst.flushes, atomic.LoadInt64(&c.flushes))
}

func (c *counters) setStore(d classifier.Direction, class classifier.MessageClass, s tsbuf.Stats) {
	k := storeKey(d, class)
	c.storeInserts.store(k, int64(s.Inserts))
	c.storeOverwrites.store(k, int64(s.Overwrites))
	c.storeDrops.store(k, int64(s.Drops))
}

func (c *counters) setRTCEvents(e rtc.EventCounters) {
	for i, v := range e.Alarms {
		c.rtcEvents.store(eventAlarm+i, int64(v))
	}
	for i, v := range e.Pulses {
		c.rtcEvents.store(eventPulse+i, int64(v))
	}
	for i, v := range e.Triggers {
		c.rtcEvents.store(eventTrigger+i, int64(v))
	}
}

func rtcEventName(k int) string {
	switch k / 10 * 10 {
	case eventAlarm:
		return fmt.Sprintf("alarm%d", k%10+1)
	case eventPulse:
		return fmt.Sprintf("pulse%d", k%10+1)
	}
	return fmt.Sprintf("trigger%d", k%10+1)
}

// toMap converts counters to a map
func (c *counters) toMap() (export map[string]int64) {
	res := make(map[string]int64)

	perStore := func(m *syncMapInt64, format string) {
		for _, k := range m.keys() {
			d, class := fromStoreKey(k)
			res[fmt.Sprintf(format, d, class)] = m.load(k)
		}
	}
	perStore(&c.captures, "capture.%s.%s")
	perStore(&c.hits, "lookup.hit.%s.%s")
	perStore(&c.retryHits, "lookup.retry_hit.%s.%s")
	perStore(&c.misses, "lookup.miss.%s.%s")
	perStore(&c.storeInserts, "store.%s.%s.inserts")
	perStore(&c.storeOverwrites, "store.%s.%s.overwrites")
	perStore(&c.storeDrops, "store.%s.%s.drops")

	for _, k := range c.skipped.keys() {
		res[fmt.Sprintf("skipped.%s", classifier.Direction(k))] = c.skipped.load(k)
	}
	for _, k := range c.rtcEvents.keys() {
		res[fmt.Sprintf("rtc.%s", rtcEventName(k))] = c.rtcEvents.load(k)
	}
	res["flush"] = atomic.LoadInt64(&c.flushes)
	return res
}
