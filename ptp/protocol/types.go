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

package protocol

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

// MessageType is type for Message Types
type MessageType uint8

// As per Table 36 Values of messageType field
const (
	MessageSync               MessageType = 0x0
	MessageDelayReq           MessageType = 0x1
	MessagePDelayReq          MessageType = 0x2
	MessagePDelayResp         MessageType = 0x3
	MessageFollowUp           MessageType = 0x8
	MessageDelayResp          MessageType = 0x9
	MessagePDelayRespFollowUp MessageType = 0xA
	MessageAnnounce           MessageType = 0xB
	MessageSignaling          MessageType = 0xC
	MessageManagement         MessageType = 0xD
)

// MessageTypeToString is a map from MessageType to string
var MessageTypeToString = map[MessageType]string{
	MessageSync:               "SYNC",
	MessageDelayReq:           "DELAY_REQ",
	MessagePDelayReq:          "PDELAY_REQ",
	MessagePDelayResp:         "PDELAY_RES",
	MessageFollowUp:           "FOLLOW_UP",
	MessageDelayResp:          "DELAY_RESP",
	MessagePDelayRespFollowUp: "PDELAY_RESP_FOLLOW_UP",
	MessageAnnounce:           "ANNOUNCE",
	MessageSignaling:          "SIGNALING",
	MessageManagement:         "MANAGEMENT",
}

func (m MessageType) String() string {
	return MessageTypeToString[m]
}

// Event reports whether messages of this type are timestamped on send and receive
func (m MessageType) Event() bool {
	return m <= MessagePDelayResp
}

// SdoIDAndMsgType is a uint8 where first 4 bites contain SdoID and last 4 bits MessageType
type SdoIDAndMsgType uint8

// MsgType extracts MessageType from SdoIDAndMsgType
func (m SdoIDAndMsgType) MsgType() MessageType {
	return MessageType(m & 0xf) // last 4 bits
}

// NewSdoIDAndMsgType builds new SdoIDAndMsgType from MessageType and flags
func NewSdoIDAndMsgType(msgType MessageType, sdoID uint8) SdoIDAndMsgType {
	return SdoIDAndMsgType(sdoID<<4 | uint8(msgType))
}

// ControlField is the obsolete PTPv1 controlField, still populated by PTPv2 senders
// and used by timestamping hardware to tell event messages apart.
type ControlField uint8

// As per Table 42 Values of controlField
const (
	ControlSync      ControlField = 0x0
	ControlDelayReq  ControlField = 0x1
	ControlFollowUp  ControlField = 0x2
	ControlDelayResp ControlField = 0x3
	ControlMgmt      ControlField = 0x4
	ControlAllOther  ControlField = 0x5
)

// ControlFieldToString is a map from ControlField to string
var ControlFieldToString = map[ControlField]string{
	ControlSync:      "SYNC",
	ControlDelayReq:  "DELAY_REQ",
	ControlFollowUp:  "FOLLOW_UP",
	ControlDelayResp: "DELAY_RESP",
	ControlMgmt:      "MANAGEMENT",
	ControlAllOther:  "ALL_OTHER",
}

func (c ControlField) String() string {
	return ControlFieldToString[c]
}

// ControlFieldFor returns the controlField value a sender puts into messages of type m
func ControlFieldFor(m MessageType) ControlField {
	switch m {
	case MessageSync:
		return ControlSync
	case MessageDelayReq:
		return ControlDelayReq
	case MessageFollowUp:
		return ControlFollowUp
	case MessageDelayResp:
		return ControlDelayResp
	case MessageManagement:
		return ControlMgmt
	}
	return ControlAllOther
}

/*
Correction is the value of the correction measured in nanoseconds and multiplied by 2**16.
For example, 2.5 ns is represented as 0000 0000 0002 8000 base 16
*/
type Correction int64

// LogInterval shall be the logarithm, to base 2, of the requested period in seconds.
type LogInterval int8

// The ClockIdentity type identifies unique entities within a PTP Network, e.g. a PTP Instance or an entity of a common service.
type ClockIdentity uint64

// String formats ClockIdentity same way ptp4l pmc client does
func (c ClockIdentity) String() string {
	ptr := make([]byte, 8)
	binary.BigEndian.PutUint64(ptr, uint64(c))
	return fmt.Sprintf("%02x%02x%02x.%02x%02x.%02x%02x%02x",
		ptr[0], ptr[1], ptr[2], ptr[3],
		ptr[4], ptr[5], ptr[6], ptr[7],
	)
}

// MAC turns ClockIdentity into the MAC address it was based upon. EUI-48 is assumed.
func (c ClockIdentity) MAC() net.HardwareAddr {
	mac := make(net.HardwareAddr, 6)
	mac[0] = byte(c >> 56)
	mac[1] = byte(c >> 48)
	mac[2] = byte(c >> 40)
	mac[3] = byte(c >> 16)
	mac[4] = byte(c >> 8)
	mac[5] = byte(c)
	return mac
}

// The PortIdentity type identifies a PTP Port or a Link Port
type PortIdentity struct {
	ClockIdentity ClockIdentity
	PortNumber    uint16
}

// String formats PortIdentity same way ptp4l pmc client does
func (p PortIdentity) String() string {
	return fmt.Sprintf("%s-%d", p.ClockIdentity, p.PortNumber)
}

// Raw returns the 10 octets PortIdentity occupies on the wire
func (p PortIdentity) Raw() [PortIdentityLen]byte {
	var b [PortIdentityLen]byte
	binary.BigEndian.PutUint64(b[:8], uint64(p.ClockIdentity))
	binary.BigEndian.PutUint16(b[8:], p.PortNumber)
	return b
}

// PortIdentityFromRaw decodes the 10 octets of a sourcePortIdentity field
func PortIdentityFromRaw(b [PortIdentityLen]byte) PortIdentity {
	return PortIdentity{
		ClockIdentity: ClockIdentity(binary.BigEndian.Uint64(b[:8])),
		PortNumber:    binary.BigEndian.Uint16(b[8:]),
	}
}

// PacketIdentity is what timestamping hardware and software agree on to pair
// a captured timestamp with the PTP message it belongs to.
// Two identities are equal iff both fields are equal.
type PacketIdentity struct {
	SequenceID   uint16
	SourcePortID [PortIdentityLen]byte
}

// NewPacketIdentity builds PacketIdentity from sequence and sending port
func NewPacketIdentity(sequence uint16, port PortIdentity) PacketIdentity {
	return PacketIdentity{
		SequenceID:   sequence,
		SourcePortID: port.Raw(),
	}
}

// PortIdentity decodes SourcePortID
func (p PacketIdentity) PortIdentity() PortIdentity {
	return PortIdentityFromRaw(p.SourcePortID)
}

func (p PacketIdentity) String() string {
	return fmt.Sprintf("PacketIdentity(seq=%d, port=%s)", p.SequenceID, p.PortIdentity())
}

// PTPSeconds type representing seconds
type PTPSeconds [6]uint8 // uint48

// Empty returns 0 seconds
func (s PTPSeconds) Empty() bool {
	return s == [6]uint8{0, 0, 0, 0, 0, 0}
}

// Seconds returns number of seconds as uint64
func (s PTPSeconds) Seconds() uint64 {
	return uint64(s[5]) | uint64(s[4])<<8 | uint64(s[3])<<16 | uint64(s[2])<<24 |
		uint64(s[1])<<32 | uint64(s[0])<<40
}

/*
Timestamp type represents a positive time with respect to the epoch.
The nanosecondsField member is always less than 10**9 .
*/
type Timestamp struct {
	Seconds     PTPSeconds
	Nanoseconds uint32
}

// Time turns Timestamp into normal Go time.Time
func (t Timestamp) Time() time.Time {
	if t.Nanoseconds == 0 && t.Seconds.Empty() {
		return time.Time{}
	}
	return time.Unix(int64(t.Seconds.Seconds()), int64(t.Nanoseconds))
}
