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

package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ptp "github.com/ningzhenyu/liboot-tz/ptp/protocol"
	"github.com/ningzhenyu/liboot-tz/ptp/tsu/classifier"
	"github.com/ningzhenyu/liboot-tz/ptp/tsu/stats"
	"github.com/ningzhenyu/liboot-tz/rtc"
	"github.com/stretchr/testify/require"
)

func simConfig() *Config {
	c := DefaultConfig()
	c.MonitoringPort = 0
	c.EventInterval = time.Millisecond
	c.TxBufferSize = 8
	c.RxBufferSize = 8
	c.Registers.SimCycles = 1000
	return c
}

func newSimDaemon(t *testing.T, c *Config) (*Daemon, *rtc.Sim, *rtc.RegisterFile, *stats.JSONStats) {
	sim := rtc.NewSim()
	sim.RecordWrites()
	tsuRegs := rtc.NewRegisterFile()
	st := stats.NewJSONStats()
	d, err := NewWithRegisters(c, st, sim, tsuRegs)
	require.NoError(t, err)
	d.sim = sim
	return d, sim, tsuRegs, st
}

func reported(t *testing.T, st *stats.JSONStats) map[string]int64 {
	rec := httptest.NewRecorder()
	st.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	m := map[string]int64{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestNewSimBackend(t *testing.T) {
	d, err := New(simConfig(), stats.NewJSONStats())
	require.NoError(t, err)
	require.NotNil(t, d.sim)
	require.NoError(t, d.Close())
}

func TestNewInvalid(t *testing.T) {
	c := simConfig()
	c.Registers.Backend = "pci"
	_, err := New(c, stats.NewJSONStats())
	require.Error(t, err)

	c = simConfig()
	c.RxBufferSize = 1
	_, err = New(c, stats.NewJSONStats())
	require.Error(t, err)
}

func TestAttach(t *testing.T) {
	c := simConfig()
	c.DeliveryMode = "inband"
	c.Pulses = []time.Duration{time.Microsecond}
	d, sim, tsuRegs, _ := newSimDaemon(t, c)
	require.NoError(t, d.Attach())

	require.True(t, d.Clock().Running())
	require.Equal(t, uint32(10), d.Clock().TickPeriod())
	require.Equal(t, uint32(3435973836), d.Clock().Compensation())
	require.Equal(t, uint32(3435973836), d.Clock().OriginalCompensation())
	require.Equal(t, rtc.TSMREnable|rtc.TSMRTxMode|rtc.TSMRRxMode, tsuRegs.Read32(rtc.RegTSMR))
	require.Equal(t, uint32(0x88F71100), tsuRegs.Read32(rtc.RegTSPDR1))

	var fiper []uint32
	for _, w := range sim.Writes() {
		if w.Offset == rtc.RegFiper1 {
			fiper = append(fiper, w.Value)
		}
	}
	// cleared by configure, then armed
	require.Equal(t, []uint32{0xFFFFFFFF, 990}, fiper)
}

func TestAttachErrors(t *testing.T) {
	c := simConfig()
	c.Pulses = []time.Duration{0, 5 * time.Second}
	d, _, _, _ := newSimDaemon(t, c)
	require.ErrorIs(t, d.Attach(), rtc.ErrInvalidTime)

	c = simConfig()
	c.RTC.NominalFreqHz = 200000000
	d, _, _, _ = newSimDaemon(t, c)
	require.ErrorIs(t, d.Attach(), rtc.ErrInvalidFrequency)
}

func TestPollCountsEvents(t *testing.T) {
	c := simConfig()
	c.Pulses = []time.Duration{time.Microsecond}
	c.Alarms = []time.Duration{0, 5 * time.Microsecond}
	d, _, _, st := newSimDaemon(t, c)
	require.NoError(t, d.Attach())

	d.Poll()
	got := d.Clock().Counters()
	require.Equal(t, uint64(1), got.Pulses[0])
	require.Equal(t, uint64(0), got.Alarms[0])
	require.Equal(t, uint64(1), got.Alarms[1])

	d.Poll()
	got = d.Clock().Counters()
	require.Equal(t, uint64(2), got.Pulses[0])
	require.Equal(t, uint64(1), got.Alarms[1])

	m := reported(t, st)
	require.Equal(t, int64(2), m["rtc.pulse1"])
	require.Equal(t, int64(1), m["rtc.alarm2"])
}

func TestPollReportsStores(t *testing.T) {
	d, _, _, st := newSimDaemon(t, simConfig())
	require.NoError(t, d.Attach())

	payload, err := classifier.EventPayload(ptp.MessageSync, 3, ptp.PortIdentity{ClockIdentity: 1, PortNumber: 1})
	require.NoError(t, err)
	frame, err := classifier.BuildFrame(payload, classifier.FrameOptions{Encapsulation: classifier.EncapIPv4})
	require.NoError(t, err)
	require.True(t, d.Correlator().Capture(classifier.DirectionRx, frame, d.Clock().Time()))

	d.Poll()
	m := reported(t, st)
	require.Equal(t, int64(1), m["store.rx.sync.inserts"])
	require.Equal(t, int64(1), m["capture.rx.sync"])
}

func TestRunStopsOnCancel(t *testing.T) {
	d, _, _, _ := newSimDaemon(t, simConfig())
	require.NoError(t, d.Attach())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, d.Run(ctx))
	require.NotZero(t, d.Clock().Counters().Total())
	require.NoError(t, d.Close())
}
