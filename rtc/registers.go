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

//go:generate mockgen -source=registers.go -destination=registers_mock.go -package=rtc

// Registers is a window of 32-bit device registers addressed by byte offset.
// Implementations must perform each access exactly once and in program order:
// the hardware latches and commits on specific halves of 64-bit pairs.
type Registers interface {
	Read32(offset uint32) uint32
	Write32(offset uint32, value uint32)
}

// Offsets within the RTC register window
const (
	RegCtrl    uint32 = 0x00
	RegTevent  uint32 = 0x04
	RegTemask  uint32 = 0x08
	RegPevent  uint32 = 0x0c
	RegPemask  uint32 = 0x10
	RegStat    uint32 = 0x14
	RegCntH    uint32 = 0x18
	RegCntL    uint32 = 0x1c
	RegAdd     uint32 = 0x20
	RegAcc     uint32 = 0x24
	RegPrsc    uint32 = 0x28
	RegOffH    uint32 = 0x30
	RegOffL    uint32 = 0x34
	RegAlarm1H uint32 = 0x38
	RegAlarm2H uint32 = 0x3c
	RegAlarm1L uint32 = 0x40
	RegAlarm2L uint32 = 0x44
	RegFiper1  uint32 = 0x50
	RegFiper2  uint32 = 0x54
	RegFiper3  uint32 = 0x58
)

// CTRL register bits
const (
	CtrlAlarm1Polarity uint32 = 1 << 31
	CtrlAlarm2Polarity uint32 = 1 << 30
	CtrlFiperStart     uint32 = 1 << 28
	CtrlTrig2Edge      uint32 = 1 << 9
	CtrlTrig1Edge      uint32 = 1 << 8
	CtrlCopyPhase      uint32 = 1 << 7
	CtrlCaptureInPhase uint32 = 1 << 6
	CtrlSoftReset      uint32 = 1 << 5
	CtrlBypass         uint32 = 1 << 3
	CtrlEnable         uint32 = 1 << 2
	CtrlClockSelectExt uint32 = 1 << 0

	CtrlTickPeriodShift        = 16
	CtrlTickPeriodMask  uint32 = 0x3ff
)

// TEVENT / TEMASK bits
const (
	EventAlarm1   uint32 = 1 << 16
	EventAlarm2   uint32 = 1 << 17
	EventPulse1   uint32 = 1 << 7
	EventPulse2   uint32 = 1 << 6
	EventPulse3   uint32 = 1 << 5
	EventTrigger1 uint32 = 1 << 0
	EventTrigger2 uint32 = 1 << 1

	EventAll = EventAlarm1 | EventAlarm2 | EventPulse1 | EventPulse2 | EventPulse3 | EventTrigger1 | EventTrigger2
)

// PulseEvent returns the TEVENT bit of pulse channel ch
func PulseEvent(ch int) uint32 {
	return EventPulse1 >> uint(ch)
}

// AlarmEvent returns the TEVENT bit of alarm channel ch
func AlarmEvent(ch int) uint32 {
	return EventAlarm1 << uint(ch)
}

// Offsets within the timestamp unit (packet parser) register window
const (
	RegTSMR   uint32 = 0x00
	RegTSUEM  uint32 = 0x04
	RegTSUEV  uint32 = 0x08
	RegTSPDR1 uint32 = 0x10
	RegTSPDR2 uint32 = 0x14
	RegTSPDR3 uint32 = 0x18
	RegTSPDR4 uint32 = 0x1c
	RegTSPOV  uint32 = 0x20
	RegTxTSH  uint32 = 0x40
	RegTxTSL  uint32 = 0x44
	RegRxTSH  uint32 = 0x48
	RegRxTSL  uint32 = 0x4c
)

// TSMR register bits
const (
	TSMREnable   uint32 = 1 << 31
	TSMRReset    uint32 = 1 << 30
	TSMRRxMode   uint32 = 1 << 1
	TSMRTxMode   uint32 = 1 << 0
	TSUEventTx   uint32 = 1 << 1
	TSUEventRx   uint32 = 1 << 0
	TSUEventBoth        = TSUEventTx | TSUEventRx
)

func read64(r Registers, lo, hi uint32) uint64 {
	l := r.Read32(lo)
	h := r.Read32(hi)
	return uint64(h)<<32 | uint64(l)
}

func write64(r Registers, lo, hi uint32, v uint64) {
	r.Write32(lo, uint32(v))
	r.Write32(hi, uint32(v>>32))
}
