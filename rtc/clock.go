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
	"errors"
	"fmt"
	"math"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ErrNotConfigured is returned when pulses or alarms are armed before Configure
var ErrNotConfigured = errors.New("clock is not configured")

// PulseStartMode selects when pulse generators begin counting
type PulseStartMode int

// Pulse start modes
const (
	PulseStartImmediate PulseStartMode = iota
	PulseStartOnAlarm
)

var pulseStartModeToString = map[PulseStartMode]string{
	PulseStartImmediate: "immediate",
	PulseStartOnAlarm:   "onalarm",
}

func (m PulseStartMode) String() string {
	if s, ok := pulseStartModeToString[m]; ok {
		return s
	}
	return fmt.Sprintf("PulseStartMode(%d)", int(m))
}

// PulseStartModeFromString parses the config representation of PulseStartMode
func PulseStartModeFromString(s string) (PulseStartMode, error) {
	for k, v := range pulseStartModeToString {
		if v == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown pulse start mode %q", s)
}

// Config describes how the RTC block is wired and clocked
type Config struct {
	NominalFreqHz      uint32
	SourceFreqHz       uint32
	BypassCompensation bool
	OutputClockDivisor uint32
	PulseStart         PulseStartMode
	InvertInputPhase   bool
	InvertOutputPhase  bool
	AlarmActiveLow     [NumAlarms]bool
	TriggerFallingEdge [NumTriggers]bool
	EventsMask         uint32
}

// ctrl packs the static part of TMR_CTRL.
// The RTC is always clocked from the external clock bank.
func (c *Config) ctrl(tick uint32) uint32 {
	v := (tick&CtrlTickPeriodMask)<<CtrlTickPeriodShift | CtrlClockSelectExt
	if c.InvertInputPhase {
		v |= CtrlCaptureInPhase
	}
	if c.InvertOutputPhase {
		v |= CtrlCopyPhase
	}
	if c.PulseStart == PulseStartOnAlarm {
		v |= CtrlFiperStart
	}
	if c.BypassCompensation {
		v |= CtrlBypass
	}
	if c.AlarmActiveLow[0] {
		v |= CtrlAlarm1Polarity
	}
	if c.AlarmActiveLow[1] {
		v |= CtrlAlarm2Polarity
	}
	if c.TriggerFallingEdge[0] {
		v |= CtrlTrig1Edge
	}
	if c.TriggerFallingEdge[1] {
		v |= CtrlTrig2Edge
	}
	return v
}

// Clock drives the RTC block through its register window.
// All register sequences run under one lock so a time read never interleaves with reprogramming.
type Clock struct {
	mu       sync.Mutex
	regs     Registers
	cfg      Config
	tick     uint32
	orig     uint32
	ctrl     uint32
	counters EventCounters
}

// NewClock returns a Clock on top of the RTC register window
func NewClock(regs Registers) *Clock {
	return &Clock{regs: regs}
}

// Configure programs the RTC from scratch and returns the computed frequency compensation
func (c *Clock) Configure(cfg Config) (uint32, error) {
	freq := cfg.NominalFreqHz
	if cfg.BypassCompensation {
		freq = cfg.SourceFreqHz
	}
	tick, err := TickPeriod(freq)
	if err != nil {
		return 0, err
	}
	if tick == 0 || tick > CtrlTickPeriodMask {
		return 0, fmt.Errorf("%w: tick period %dns doesn't fit TCLK_PERIOD", ErrInvalidFrequency, tick)
	}
	// ADD is programmed in bypass mode too
	v, err := FreqCompensation(cfg.NominalFreqHz, cfg.SourceFreqHz)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: nominal %dHz above source %dHz gives compensation %d", ErrInvalidFrequency, cfg.NominalFreqHz, cfg.SourceFreqHz, v)
	}
	comp := uint32(v)
	if cfg.OutputClockDivisor == 0 {
		cfg.OutputClockDivisor = 1
	}
	ctrl := cfg.ctrl(tick)

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < NumAlarms; i++ {
		write64(c.regs, alarmLow(i), alarmHigh(i), math.MaxUint64)
	}
	for i := 0; i < NumPulses; i++ {
		c.regs.Write32(fiper(i), math.MaxUint32)
	}
	c.regs.Write32(RegCtrl, ctrl|CtrlSoftReset)
	c.regs.Write32(RegCtrl, ctrl)
	c.regs.Write32(RegTevent, EventAll)
	c.regs.Write32(RegTemask, cfg.EventsMask)
	c.regs.Write32(RegAdd, comp)
	c.regs.Write32(RegPrsc, cfg.OutputClockDivisor)
	write64(c.regs, RegOffL, RegOffH, 0)

	c.cfg = cfg
	c.tick = tick
	c.orig = comp
	c.ctrl = ctrl
	log.Debugf("rtc: tick %dns, compensation %#x, ctrl %#x", tick, comp, ctrl)
	return comp, nil
}

// Enable starts the counter, optionally from zero
func (c *Clock) Enable(resetCounter bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if resetCounter {
		c.regs.Write32(RegCtrl, c.ctrl|CtrlSoftReset)
		c.regs.Write32(RegCtrl, c.ctrl)
		write64(c.regs, RegOffL, RegOffH, 0)
	}
	c.ctrl |= CtrlEnable
	c.regs.Write32(RegCtrl, c.ctrl)
}

// Disable stops the counter
func (c *Clock) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctrl &^= CtrlEnable
	c.regs.Write32(RegCtrl, c.ctrl)
}

// Running reports whether the counter has moved off a whole second
func (c *Clock) Running() bool {
	return c.Time().Nanoseconds != 0
}

// TickPeriod returns the configured counter increment in nanoseconds
func (c *Clock) TickPeriod() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick
}

// Time reads the counter. The low half is read first, which latches the high half.
func (c *Clock) Time() Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FromCounter(read64(c.regs, RegCntL, RegCntH))
}

// SetTime writes the counter, low half first
func (c *Clock) SetTime(t Time) error {
	ns, err := t.Counter()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	write64(c.regs, RegCntL, RegCntH, ns)
	return nil
}

// SetCompensation overwrites the NCO increment. No range checks beyond the register width.
func (c *Clock) SetCompensation(v uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regs.Write32(RegAdd, v)
}

// Compensation reads back the NCO increment
func (c *Clock) Compensation() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs.Read32(RegAdd)
}

// OriginalCompensation returns the increment computed by Configure
func (c *Clock) OriginalCompensation() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orig
}

// AdjustFrequency sets the compensation to the original one offset by ppb
func (c *Clock) AdjustFrequency(ppb float64) error {
	comp, err := CompensationForPPB(c.OriginalCompensation(), ppb)
	if err != nil {
		return err
	}
	c.SetCompensation(comp)
	return nil
}

// FrequencyPPB returns the current frequency offset against the original compensation
func (c *Clock) FrequencyPPB() float64 {
	return PPBForCompensation(c.OriginalCompensation(), c.Compensation())
}

// ArmPulse programs pulse channel ch to fire every period
func (c *Clock) ArmPulse(ch int, period Time) error {
	if ch < 0 || ch >= NumPulses {
		return fmt.Errorf("%w: pulse %d", ErrInvalidChannel, ch)
	}
	ns, err := period.Counter()
	if err != nil {
		return err
	}
	if ns > math.MaxUint32 {
		return fmt.Errorf("%w: pulse period %v doesn't fit 32 bits", ErrInvalidTime, period)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tick == 0 {
		return ErrNotConfigured
	}
	reload, err := PulseReload(uint32(ns), c.tick, c.cfg.OutputClockDivisor, c.cfg.PulseStart == PulseStartOnAlarm)
	if err != nil {
		return err
	}
	c.regs.Write32(fiper(ch), reload)
	log.Debugf("rtc: pulse %d period %v reload %d", ch, period, reload)
	return nil
}

// ArmAlarm programs alarm channel ch to fire once at an absolute counter time
func (c *Clock) ArmAlarm(ch int, at Time) error {
	ns, err := at.Counter()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tick == 0 {
		return ErrNotConfigured
	}
	onAlarm := c.cfg.PulseStart == PulseStartOnAlarm
	cmp, err := AlarmCompare(ch, ns, c.tick, onAlarm)
	if err != nil {
		return err
	}
	write64(c.regs, alarmLow(ch), alarmHigh(ch), cmp)
	if ch == 0 && onAlarm {
		// pulse prescalers resync to the new alarm only after a FIPER write
		for i := 0; i < NumPulses; i++ {
			c.regs.Write32(fiper(i), c.regs.Read32(fiper(i)))
		}
	}
	log.Debugf("rtc: alarm %d at %v compare %d", ch, at, cmp)
	return nil
}

// HandleEvents acknowledges pending RTC events and counts them.
// It returns the event mask and the counter time at acknowledgement.
func (c *Clock) HandleEvents() (uint32, Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mask := c.regs.Read32(RegTevent)
	if mask == 0 {
		return 0, Time{}
	}
	c.regs.Write32(RegTevent, mask)
	now := FromCounter(read64(c.regs, RegCntL, RegCntH))
	c.counters = c.counters.Apply(mask)
	return mask, now
}

// Counters returns the events counted by HandleEvents
func (c *Clock) Counters() EventCounters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters
}

func alarmLow(ch int) uint32  { return RegAlarm1L + uint32(ch)*4 }
func alarmHigh(ch int) uint32 { return RegAlarm1H + uint32(ch)*4 }
func fiper(ch int) uint32     { return RegFiper1 + uint32(ch)*4 }
