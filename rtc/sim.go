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

package rtc

import (
	"math"
	"sync"
)

// RegisterWrite is one recorded register write
type RegisterWrite struct {
	Offset uint32
	Value  uint32
}

// RegisterFile is plain memory-backed register storage
type RegisterFile struct {
	mu   sync.Mutex
	regs map[uint32]uint32
}

// NewRegisterFile returns an empty RegisterFile
func NewRegisterFile() *RegisterFile {
	return &RegisterFile{regs: map[uint32]uint32{}}
}

// Read32 implements Registers
func (f *RegisterFile) Read32(offset uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regs[offset]
}

// Write32 implements Registers
func (f *RegisterFile) Write32(offset, value uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[offset] = value
}

// Sim emulates the RTC register window.
// The counter only moves when Tick is called, one call per source clock cycle.
type Sim struct {
	mu sync.Mutex

	regs    map[uint32]uint32
	record  bool
	writes  []RegisterWrite
	counter uint64
	acc     uint32
	latch   uint32
	cntLow  uint32
	events  uint32

	alarmLow   [NumAlarms]uint32
	alarms     [NumAlarms]uint64
	alarmArmed [NumAlarms]bool

	fiperSynced [NumPulses]bool
	pulseOn     [NumPulses]bool
	nextEdge    [NumPulses]uint64
}

// NewSim returns a Sim in its power-on state
func NewSim() *Sim {
	return &Sim{regs: map[uint32]uint32{}}
}

// Read32 implements Registers
func (s *Sim) Read32(offset uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch offset {
	case RegCntL:
		s.latch = uint32(s.counter >> 32)
		return uint32(s.counter)
	case RegCntH:
		return s.latch
	case RegTevent:
		return s.events
	}
	return s.regs[offset]
}

// Write32 implements Registers
func (s *Sim) Write32(offset, value uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record {
		s.writes = append(s.writes, RegisterWrite{Offset: offset, Value: value})
	}
	switch offset {
	case RegCntL:
		s.cntLow = value
		return
	case RegCntH:
		s.counter = uint64(value)<<32 | uint64(s.cntLow)
		return
	case RegTevent:
		s.events &^= value
		return
	case RegCtrl:
		if value&CtrlSoftReset != 0 {
			s.counter = 0
			s.acc = 0
			s.alarmArmed = [NumAlarms]bool{}
			s.pulseOn = [NumPulses]bool{}
		}
	case RegAlarm1L, RegAlarm2L:
		s.alarmLow[(offset-RegAlarm1L)/4] = value
	case RegAlarm1H, RegAlarm2H:
		ch := (offset - RegAlarm1H) / 4
		s.alarms[ch] = uint64(value)<<32 | uint64(s.alarmLow[ch])
		s.alarmArmed[ch] = s.alarms[ch] != math.MaxUint64
		if ch == 0 {
			s.fiperSynced = [NumPulses]bool{}
		}
	case RegFiper1, RegFiper2, RegFiper3:
		ch := (offset - RegFiper1) / 4
		s.fiperSynced[ch] = true
		if s.regs[RegCtrl]&CtrlFiperStart == 0 {
			s.startPulse(ch, value, s.counter+uint64(value)+uint64(s.tick()))
		}
	}
	s.regs[offset] = value
}

// RecordWrites starts keeping a log of register writes for Writes.
// Nothing is recorded until it is called.
func (s *Sim) RecordWrites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = true
}

// Writes returns every register write since RecordWrites in order
func (s *Sim) Writes() []RegisterWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RegisterWrite(nil), s.writes...)
}

// Counter returns the raw counter value without latching
func (s *Sim) Counter() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

// Tick advances the simulation by n source clock cycles
func (s *Sim) Tick(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl := s.regs[RegCtrl]
	if ctrl&CtrlEnable == 0 {
		return
	}
	tick := uint64(s.tick())
	for i := 0; i < n; i++ {
		if ctrl&CtrlBypass == 0 {
			sum := uint64(s.acc) + uint64(s.regs[RegAdd])
			s.acc = uint32(sum)
			if sum>>32 == 0 {
				continue
			}
		}
		s.counter += tick
		s.step(ctrl)
	}
}

func (s *Sim) tick() uint32 {
	return (s.regs[RegCtrl] >> CtrlTickPeriodShift) & CtrlTickPeriodMask
}

func (s *Sim) startPulse(ch, reload uint32, first uint64) {
	if reload == math.MaxUint32 {
		s.pulseOn[ch] = false
		return
	}
	s.pulseOn[ch] = true
	s.nextEdge[ch] = first
}

func (s *Sim) step(ctrl uint32) {
	tick := uint64(s.tick())
	for ch := 0; ch < NumAlarms; ch++ {
		if !s.alarmArmed[ch] || s.counter < s.alarms[ch] {
			continue
		}
		s.alarmArmed[ch] = false
		s.events |= AlarmEvent(ch)
		if ch != 0 || ctrl&CtrlFiperStart == 0 {
			continue
		}
		for p := uint32(0); p < NumPulses; p++ {
			if s.fiperSynced[p] {
				// first edge leaves the pipeline three ticks after the compare
				s.startPulse(p, s.regs[fiper(int(p))], s.counter+3*tick)
			}
		}
	}
	for ch := 0; ch < NumPulses; ch++ {
		if !s.pulseOn[ch] || s.counter < s.nextEdge[ch] {
			continue
		}
		s.events |= PulseEvent(ch)
		s.nextEdge[ch] += uint64(s.regs[fiper(ch)]) + tick
	}
}
