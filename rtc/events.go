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

// EventCounters counts RTC events seen by the interrupt path
type EventCounters struct {
	Alarms   [NumAlarms]uint64
	Pulses   [NumPulses]uint64
	Triggers [NumTriggers]uint64
}

// Apply returns the counters after the events in the TEVENT mask
func (c EventCounters) Apply(mask uint32) EventCounters {
	for i := 0; i < NumAlarms; i++ {
		if mask&AlarmEvent(i) != 0 {
			c.Alarms[i]++
		}
	}
	for i := 0; i < NumPulses; i++ {
		if mask&PulseEvent(i) != 0 {
			c.Pulses[i]++
		}
	}
	if mask&EventTrigger1 != 0 {
		c.Triggers[0]++
	}
	if mask&EventTrigger2 != 0 {
		c.Triggers[1]++
	}
	return c
}

// Total returns the number of events counted so far
func (c EventCounters) Total() uint64 {
	var n uint64
	for _, v := range c.Alarms {
		n += v
	}
	for _, v := range c.Pulses {
		n += v
	}
	for _, v := range c.Triggers {
		n += v
	}
	return n
}
