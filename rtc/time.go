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
Package rtc models the IEEE 1588 real-time clock block of an Ethernet MAC:
a 64-bit nanosecond counter driven by a numerically controlled oscillator,
three periodic pulse generators and two one-shot alarms, all programmed
through 32-bit registers.
*/
package rtc

import (
	"errors"
	"fmt"
	"time"
)

// NanosecondsInSecond is what the 64-bit counter is divided by to get seconds
const NanosecondsInSecond = 1000000000

// Channel counts of the RTC block
const (
	NumPulses   = 3
	NumAlarms   = 2
	NumTriggers = 2
)

var (
	// ErrInvalidChannel is returned for a pulse or alarm index out of range
	ErrInvalidChannel = errors.New("invalid channel")
	// ErrInvalidTime is returned for negative nanoseconds or a value that doesn't fit the target register
	ErrInvalidTime = errors.New("invalid time")
	// ErrInvalidFrequency is returned when clock frequencies can't produce a valid register value
	ErrInvalidFrequency = errors.New("invalid frequency")
)

// Time is a seconds/nanoseconds pair as the hardware counter reports it.
// Nanoseconds is signed as callers may pass negative values, which are rejected.
type Time struct {
	Seconds     uint32
	Nanoseconds int32
}

// FromCounter converts the 64-bit nanosecond counter value to Time.
// Both parts are floored; seconds keep only the low 32 bits of the quotient, same as the register does.
func FromCounter(v uint64) Time {
	return Time{
		Seconds:     uint32(v / NanosecondsInSecond),
		Nanoseconds: int32(v % NanosecondsInSecond),
	}
}

// Counter converts Time to the 64-bit nanosecond counter value
func (t Time) Counter() (uint64, error) {
	if t.Nanoseconds < 0 {
		return 0, fmt.Errorf("%w: negative nanoseconds %d", ErrInvalidTime, t.Nanoseconds)
	}
	return uint64(t.Seconds)*NanosecondsInSecond + uint64(t.Nanoseconds), nil
}

// TimeFromDuration splits a non-negative duration into Time
func TimeFromDuration(d time.Duration) (Time, error) {
	if d < 0 {
		return Time{}, fmt.Errorf("%w: negative duration %v", ErrInvalidTime, d)
	}
	if d/time.Second > 0xFFFFFFFF {
		return Time{}, fmt.Errorf("%w: %v doesn't fit 32-bit seconds", ErrInvalidTime, d)
	}
	return FromCounter(uint64(d)), nil
}

// Time returns Time as time.Time since the Unix epoch
func (t Time) Time() time.Time {
	return time.Unix(int64(t.Seconds), int64(t.Nanoseconds))
}

func (t Time) String() string {
	return fmt.Sprintf("%d.%09d", t.Seconds, t.Nanoseconds)
}
