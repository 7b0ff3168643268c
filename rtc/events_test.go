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

func TestEventCountersApply(t *testing.T) {
	var c EventCounters
	next := c.Apply(EventAlarm2 | EventPulse2 | EventTrigger1)
	require.Zero(t, c.Total(), "Apply must not modify the receiver")
	require.Equal(t, [NumAlarms]uint64{0, 1}, next.Alarms)
	require.Equal(t, [NumPulses]uint64{0, 1, 0}, next.Pulses)
	require.Equal(t, [NumTriggers]uint64{1, 0}, next.Triggers)

	next = next.Apply(EventAll)
	require.Equal(t, [NumAlarms]uint64{1, 2}, next.Alarms)
	require.Equal(t, [NumPulses]uint64{1, 2, 1}, next.Pulses)
	require.Equal(t, [NumTriggers]uint64{2, 1}, next.Triggers)
	require.Equal(t, uint64(10), next.Total())

	require.Equal(t, next, next.Apply(0))
}

func TestEventBits(t *testing.T) {
	require.Equal(t, EventPulse1, PulseEvent(0))
	require.Equal(t, EventPulse3, PulseEvent(2))
	require.Equal(t, EventAlarm2, AlarmEvent(1))
}
