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
	"fmt"
	"math"
)

// TickPeriod returns the counter increment in whole nanoseconds for a clock of freqHz
func TickPeriod(freqHz uint32) (uint32, error) {
	if freqHz == 0 {
		return 0, fmt.Errorf("%w: zero frequency", ErrInvalidFrequency)
	}
	return NanosecondsInSecond / freqHz, nil
}

// FreqCompensation returns the NCO increment floor(2^32 * nominal / source).
// The result exceeds 32 bits whenever nominal > source; the ADD register can't hold it
// and Clock.Configure rejects it, but the exact value is returned here.
func FreqCompensation(nominalHz, sourceHz uint32) (uint64, error) {
	if sourceHz == 0 {
		return 0, fmt.Errorf("%w: zero source frequency", ErrInvalidFrequency)
	}
	return (uint64(nominalHz) << 32) / uint64(sourceHz), nil
}

// PulseReload converts a desired pulse period to the FIPER reload value.
// With onAlarm the period is first aligned to a multiple of tick*divisor;
// the programmed value is always one tick short of the edge-to-edge period.
func PulseReload(period, tick, divisor uint32, onAlarm bool) (uint32, error) {
	if tick == 0 {
		return 0, fmt.Errorf("%w: zero tick period", ErrInvalidFrequency)
	}
	if onAlarm {
		if divisor == 0 {
			return 0, fmt.Errorf("%w: zero output divisor", ErrInvalidFrequency)
		}
		step := uint64(tick) * uint64(divisor)
		factor := (uint64(period) + uint64(tick)) / step
		if factor == 0 {
			return 0, fmt.Errorf("%w: period %dns shorter than one output cycle of %dns", ErrInvalidTime, period, step)
		}
		if aligned := factor * step; aligned < uint64(period)+uint64(tick) {
			period = uint32(aligned - uint64(tick))
		}
	}
	if period < tick {
		return 0, fmt.Errorf("%w: period %dns shorter than tick %dns", ErrInvalidTime, period, tick)
	}
	return period - tick, nil
}

// AlarmCompare returns the value to program into the alarm compare registers.
// Alarm 1 gating pulse start fires 3 ticks early to cover the pipeline delay.
func AlarmCompare(ch int, at uint64, tick uint32, onAlarm bool) (uint64, error) {
	if ch < 0 || ch >= NumAlarms {
		return 0, fmt.Errorf("%w: alarm %d", ErrInvalidChannel, ch)
	}
	if ch == 0 && onAlarm {
		lead := 3 * uint64(tick)
		if at < lead {
			return 0, fmt.Errorf("%w: alarm at %dns is earlier than the %dns lead", ErrInvalidTime, at, lead)
		}
		return at - lead, nil
	}
	return at, nil
}

// CompensationForPPB scales the original compensation by a frequency offset in parts per billion
func CompensationForPPB(orig uint32, ppb float64) (uint32, error) {
	v := math.Floor(float64(orig) * (1 + ppb/1e9))
	if math.IsNaN(v) || v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %f ppb moves compensation %d out of range", ErrInvalidFrequency, ppb, orig)
	}
	return uint32(v), nil
}

// PPBForCompensation is the inverse of CompensationForPPB
func PPBForCompensation(orig, comp uint32) float64 {
	if orig == 0 {
		return 0
	}
	return (float64(comp)/float64(orig) - 1) * 1e9
}
