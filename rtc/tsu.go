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
	"sync"
)

// DeliveryMode selects how the timestamp unit reports captures
type DeliveryMode int

// Delivery modes
const (
	// DeliveryOutOfBand latches captures into TXTS/RXTS and raises an event
	DeliveryOutOfBand DeliveryMode = iota
	// DeliveryInBand appends captures to the frame descriptor
	DeliveryInBand
)

func (m DeliveryMode) String() string {
	switch m {
	case DeliveryOutOfBand:
		return "outofband"
	case DeliveryInBand:
		return "inband"
	}
	return fmt.Sprintf("DeliveryMode(%d)", int(m))
}

// DeliveryModeFromString parses DeliveryMode as printed by String
func DeliveryModeFromString(s string) (DeliveryMode, error) {
	switch s {
	case "outofband":
		return DeliveryOutOfBand, nil
	case "inband":
		return DeliveryInBand, nil
	}
	return 0, fmt.Errorf("unknown delivery mode %q", s)
}

// ParserConfig tells the hardware parser where PTP event messages live
type ParserConfig struct {
	EtherType      uint16 `yaml:"ethertype"`
	VLANType       uint16 `yaml:"vlantype"`
	IPProtocol     uint8  `yaml:"ipprotocol"`
	GeneralPort    uint16 `yaml:"generalport"`
	EventPort      uint16 `yaml:"eventport"`
	SyncCode       uint8  `yaml:"synccode"`
	DelayReqCode   uint8  `yaml:"delayreqcode"`
	FollowUpCode   uint8  `yaml:"followupcode"`
	DelayRespCode  uint8  `yaml:"delayrespcode"`
	ManagementCode uint8  `yaml:"managementcode"`

	EtherTypeOffset  uint8 `yaml:"ethertypeoffset"`
	IPProtocolOffset uint8 `yaml:"ipprotocoloffset"`
	UDPPortOffset    uint8 `yaml:"udpportoffset"`
	PTPOffset        uint8 `yaml:"ptpoffset"`
}

// DefaultParserConfig returns parser settings for untagged IEEE 1588 over Ethernet and UDP/IPv4
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		EtherType:        0x88F7,
		VLANType:         0x8100,
		IPProtocol:       0x11,
		GeneralPort:      320,
		EventPort:        319,
		SyncCode:         0,
		DelayReqCode:     1,
		FollowUpCode:     2,
		DelayRespCode:    3,
		ManagementCode:   4,
		EtherTypeOffset:  12,
		IPProtocolOffset: 23,
		UDPPortOffset:    36,
		PTPOffset:        74,
	}
}

// TSU drives the timestamp unit: packet parser setup and captured timestamp registers
type TSU struct {
	mu   sync.Mutex
	regs Registers
}

// NewTSU returns a TSU on top of the timestamp unit register window
func NewTSU(regs Registers) *TSU {
	return &TSU{regs: regs}
}

// ConfigureParser programs the parser definition registers
func (u *TSU) ConfigureParser(p ParserConfig) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.regs.Write32(RegTSPDR1, uint32(p.EtherType)<<16|uint32(p.IPProtocol)<<8)
	u.regs.Write32(RegTSPDR2, uint32(p.GeneralPort)<<16|uint32(p.EventPort))
	u.regs.Write32(RegTSPDR3, uint32(p.SyncCode)<<24|uint32(p.DelayReqCode)<<16|uint32(p.DelayRespCode)<<8|uint32(p.FollowUpCode))
	u.regs.Write32(RegTSPDR4, uint32(p.ManagementCode)<<24|uint32(p.VLANType))
	u.regs.Write32(RegTSPOV, uint32(p.EtherTypeOffset)<<24|uint32(p.IPProtocolOffset)<<16|uint32(p.UDPPortOffset)<<8|uint32(p.PTPOffset))
}

// Reset disables the unit, masks and clears all its events
func (u *TSU) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.regs.Write32(RegTSMR, 0)
	u.regs.Write32(RegTSUEM, 0)
	u.regs.Write32(RegTSUEV, 0xFFFFFFFF)
}

// Enable starts timestamping in the given delivery mode
func (u *TSU) Enable(mode DeliveryMode) {
	u.mu.Lock()
	defer u.mu.Unlock()
	tsmr := TSMREnable
	if mode == DeliveryInBand {
		tsmr |= TSMRTxMode | TSMRRxMode
		u.regs.Write32(RegTSUEM, 0)
	} else {
		u.regs.Write32(RegTSUEM, TSUEventBoth)
	}
	u.regs.Write32(RegTSMR, tsmr)
}

// Disable stops timestamping
func (u *TSU) Disable() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.regs.Write32(RegTSMR, u.regs.Read32(RegTSMR)&^TSMREnable)
}

// TxTimestamp reads the last transmit capture
func (u *TSU) TxTimestamp() Time {
	return u.captured(RegTxTSH, RegTxTSL, TSUEventTx)
}

// RxTimestamp reads the last receive capture
func (u *TSU) RxTimestamp() Time {
	return u.captured(RegRxTSH, RegRxTSL, TSUEventRx)
}

func (u *TSU) captured(hi, lo, event uint32) Time {
	u.mu.Lock()
	defer u.mu.Unlock()
	h := u.regs.Read32(hi)
	l := u.regs.Read32(lo)
	u.regs.Write32(RegTSUEV, event)
	return FromCounter(uint64(h)<<32 | uint64(l))
}
