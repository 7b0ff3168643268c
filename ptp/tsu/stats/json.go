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

package stats

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/ningzhenyu/liboot-tz/ptp/tsu/classifier"
	"github.com/ningzhenyu/liboot-tz/ptp/tsu/tsbuf"
	"github.com/ningzhenyu/liboot-tz/rtc"
	log "github.com/sirupsen/logrus"
)

// JSONStats is what we want to report as stats via http
type JSONStats struct {
	report counters

	counters
}

// NewJSONStats returns a new JSONStats
func NewJSONStats() *JSONStats {
	s := &JSONStats{}

	s.init()
	s.report.init()

	return s
}

// Handler serves the last snapshot as a flat JSON object
func (s *JSONStats) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	return mux
}

// Snapshot the values so they can be reported atomically
func (s *JSONStats) Snapshot() {
	s.counters.copy(&s.report)
}

// handleRequest is a handler used for all http monitoring requests
func (s *JSONStats) handleRequest(w http.ResponseWriter, _ *http.Request) {
	js, err := json.Marshal(s.report.toMap())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Errorf("Failed to reply: %v", err)
	}
}

// Reset atomically sets all the counters to 0
func (s *JSONStats) Reset() {
	s.reset()
}

// IncCapture atomically add 1 to the counter
func (s *JSONStats) IncCapture(d classifier.Direction, c classifier.MessageClass) {
	s.captures.inc(storeKey(d, c))
}

// IncSkipped atomically add 1 to the counter
func (s *JSONStats) IncSkipped(d classifier.Direction) {
	s.skipped.inc(int(d))
}

// IncHit atomically add 1 to the counter
func (s *JSONStats) IncHit(d classifier.Direction, c classifier.MessageClass) {
	s.hits.inc(storeKey(d, c))
}

// IncRetryHit atomically add 1 to the counter
func (s *JSONStats) IncRetryHit(d classifier.Direction, c classifier.MessageClass) {
	s.retryHits.inc(storeKey(d, c))
}

// IncMiss atomically add 1 to the counter
func (s *JSONStats) IncMiss(d classifier.Direction, c classifier.MessageClass) {
	s.misses.inc(storeKey(d, c))
}

// IncFlush atomically add 1 to the counter
func (s *JSONStats) IncFlush() {
	atomic.AddInt64(&s.flushes, 1)
}

// SetStore atomically sets the counters of one store
func (s *JSONStats) SetStore(d classifier.Direction, c classifier.MessageClass, st tsbuf.Stats) {
	s.setStore(d, c, st)
}

// SetRTCEvents atomically sets RTC event counters
func (s *JSONStats) SetRTCEvents(e rtc.EventCounters) {
	s.setRTCEvents(e)
}
