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
	"testing"

	"github.com/stretchr/testify/require"
)

func simClock(t *testing.T, mode PulseStartMode) (*Sim, *Clock) {
	sim := NewSim()
	c := NewClock(sim)
	_, err := c.Configure(Config{
		NominalFreqHz:      125000000,
		SourceFreqHz:       125000000,
		BypassCompensation: true,
		OutputClockDivisor: 1,
		PulseStart:         mode,
		EventsMask:         EventAll,
	})
	require.NoError(t, err)
	c.Enable(true)
	return sim, c
}

func TestSimNCO(t *testing.T) {
	sim := NewSim()
	c := NewClock(sim)
	comp, err := c.Configure(Config{NominalFreqHz: 100000000, SourceFreqHz: 125000000})
	require.NoError(t, err)
	require.Equal(t, uint32(3435973836), comp)

	sim.Tick(10)
	require.Zero(t, sim.Counter(), "counter must not move while disabled")

	c.Enable(false)
	sim.Tick(125)
	require.Equal(t, uint64(990), sim.Counter())
	sim.Tick(1)
	require.Equal(t, uint64(1000), sim.Counter())
	require.True(t, c.Running())
}

func TestSimCounterLatch(t *testing.T) {
	sim, c := simClock(t, PulseStartImmediate)
	require.NoError(t, c.SetTime(Time{Seconds: 5, Nanoseconds: 7}))
	require.Equal(t, uint64(5000000007), sim.Counter())
	require.Equal(t, Time{Seconds: 5, Nanoseconds: 7}, c.Time())

	// a lone low write is held until the high half arrives
	sim.Write32(RegCntL, 1)
	require.Equal(t, uint64(5000000007), sim.Counter())
	sim.Write32(RegCntH, 0)
	require.Equal(t, uint64(1), sim.Counter())

	// the high half is latched by the low read
	sim.Write32(RegCntL, 0xFFFFFFF8)
	sim.Write32(RegCntH, 0)
	low := sim.Read32(RegCntL)
	sim.Tick(1)
	require.Equal(t, uint32(0xFFFFFFF8), low)
	require.Equal(t, uint32(0), sim.Read32(RegCntH))
	require.Equal(t, uint64(1)<<32, sim.Counter())
}

func TestSimPulseOnAlarm(t *testing.T) {
	sim, c := simClock(t, PulseStartOnAlarm)
	require.NoError(t, c.ArmPulse(0, Time{Nanoseconds: 1000}))
	require.Equal(t, uint32(992), sim.Read32(RegFiper1))
	require.NoError(t, c.ArmAlarm(0, Time{Nanoseconds: 10000}))

	sim.Tick(1246)
	mask, _ := c.HandleEvents()
	require.Zero(t, mask)

	sim.Tick(1)
	mask, now := c.HandleEvents()
	require.Equal(t, EventAlarm1, mask)
	require.Equal(t, Time{Nanoseconds: 9976}, now)

	// first edge at the requested alarm time
	sim.Tick(2)
	mask, _ = c.HandleEvents()
	require.Zero(t, mask)
	sim.Tick(1)
	mask, now = c.HandleEvents()
	require.Equal(t, EventPulse1, mask)
	require.Equal(t, Time{Nanoseconds: 10000}, now)

	sim.Tick(125)
	mask, now = c.HandleEvents()
	require.Equal(t, EventPulse1, mask)
	require.Equal(t, Time{Nanoseconds: 11000}, now)

	counters := c.Counters()
	require.Equal(t, uint64(1), counters.Alarms[0])
	require.Equal(t, uint64(2), counters.Pulses[0])
	require.Equal(t, uint64(3), counters.Total())
}

func TestSimPulseNeedsFiperRewrite(t *testing.T) {
	sim, c := simClock(t, PulseStartOnAlarm)
	require.NoError(t, c.ArmPulse(0, Time{Nanoseconds: 1000}))

	// arm alarm 1 behind the clock's back, without touching FIPER afterwards
	sim.Write32(RegAlarm1L, 80)
	sim.Write32(RegAlarm1H, 0)
	sim.Tick(200)
	mask, _ := c.HandleEvents()
	require.Equal(t, EventAlarm1, mask)
	sim.Tick(500)
	mask, _ = c.HandleEvents()
	require.Zero(t, mask, "pulse must not start without FIPER rewrite")

	require.NoError(t, c.ArmAlarm(0, Time{Nanoseconds: 8000}))
	sim.Tick(300)
	mask, _ = c.HandleEvents()
	require.Equal(t, EventAlarm1|EventPulse1, mask)
}

func TestSimPulseImmediate(t *testing.T) {
	sim, c := simClock(t, PulseStartImmediate)
	require.NoError(t, c.ArmPulse(1, Time{Nanoseconds: 800}))
	sim.Tick(99)
	mask, _ := c.HandleEvents()
	require.Zero(t, mask)
	sim.Tick(1)
	mask, now := c.HandleEvents()
	require.Equal(t, EventPulse2, mask)
	require.Equal(t, Time{Nanoseconds: 800}, now)
}

func TestSimAlarm2(t *testing.T) {
	sim, c := simClock(t, PulseStartOnAlarm)
	require.NoError(t, c.ArmAlarm(1, Time{Nanoseconds: 800}))
	sim.Tick(100)
	mask, now := c.HandleEvents()
	require.Equal(t, EventAlarm2, mask)
	require.Equal(t, Time{Nanoseconds: 800}, now)
	// one shot
	sim.Tick(100)
	mask, _ = c.HandleEvents()
	require.Zero(t, mask)
}

func TestSimWriteLog(t *testing.T) {
	sim := NewSim()
	sim.Write32(RegAdd, 7)
	sim.RecordWrites()
	sim.Write32(RegAdd, 1)
	sim.Write32(RegPrsc, 2)
	require.Equal(t, []RegisterWrite{{RegAdd, 1}, {RegPrsc, 2}}, sim.Writes())
	require.Equal(t, uint32(2), sim.Read32(RegPrsc))
}

func TestSimWriteLogOff(t *testing.T) {
	sim := NewSim()
	for i := uint32(0); i < 10000; i++ {
		sim.Write32(RegAdd, i)
	}
	require.Empty(t, sim.Writes())
	require.Equal(t, uint32(9999), sim.Read32(RegAdd))
}

func TestRegisterFile(t *testing.T) {
	f := NewRegisterFile()
	require.Zero(t, f.Read32(RegTSMR))
	f.Write32(RegTSMR, 7)
	require.Equal(t, uint32(7), f.Read32(RegTSMR))
}
