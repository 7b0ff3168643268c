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
Package classifier finds PTP event messages in raw Ethernet frames and extracts
what the timestamp unit needs to correlate captures: the message class and the
(sequence, source port) identity.
Supported encapsulations are PTP over Ethernet (IEEE 1588 Annex F), UDP/IPv4 (Annex D)
and UDP/IPv6 (Annex E), with an optional single 802.1Q tag.
*/
package classifier

import (
	"encoding/binary"
	"errors"
	"fmt"

	ptp "github.com/ningzhenyu/liboot-tz/ptp/protocol"
)

var (
	// ErrNotPTP is returned for frames which don't carry a timestampable PTP event message
	ErrNotPTP = errors.New("not a PTP event frame")
	// ErrTruncated is returned for frames too short to hold the PTP header they point to
	ErrTruncated = errors.New("truncated PTP frame")
)

const (
	macAddrsLen  = 12
	etherTypeLen = 2
	vlanTagLen   = 4
	ipv6HdrLen   = 40
	udpHdrLen    = 8

	ipv4ProtocolOffset   = 9
	ipv6NextHeaderOffset = 6
	udpDstPortOffset     = 2
)

// Encapsulation is how the PTP header is carried in the frame
type Encapsulation uint8

// Encapsulations we recognise
const (
	EncapEthernet Encapsulation = iota
	EncapIPv4
	EncapIPv6
)

var encapsulationToString = map[Encapsulation]string{
	EncapEthernet: "ethernet",
	EncapIPv4:     "ipv4",
	EncapIPv6:     "ipv6",
}

func (e Encapsulation) String() string {
	if s, ok := encapsulationToString[e]; ok {
		return s
	}
	return fmt.Sprintf("Encapsulation(%d)", uint8(e))
}

// Location is where the PTP header starts in a frame
type Location struct {
	Offset        int
	Encapsulation Encapsulation
	VLAN          bool
}

// Classify locates the PTP event header in an Ethernet frame.
// Every access is bounds checked; malformed input yields ErrNotPTP or ErrTruncated.
func Classify(frame []byte) (Location, error) {
	pos := macAddrsLen
	if len(frame) < pos+etherTypeLen {
		return Location{}, ErrTruncated
	}
	loc := Location{}
	etherType := binary.BigEndian.Uint16(frame[pos:])
	if etherType == ptp.EtherTypeVLAN {
		pos += vlanTagLen
		if len(frame) < pos+etherTypeLen {
			return Location{}, ErrTruncated
		}
		etherType = binary.BigEndian.Uint16(frame[pos:])
		loc.VLAN = true
	}
	pos += etherTypeLen

	switch etherType {
	case ptp.EtherTypePTP:
		loc.Encapsulation = EncapEthernet
		loc.Offset = pos
		if len(frame) <= pos {
			return Location{}, ErrTruncated
		}
		// only Sync, Delay_Req, Pdelay_Req and Pdelay_Resp get timestamped
		if !ptp.MessageType(frame[pos] & 0xf).Event() {
			return Location{}, ErrNotPTP
		}
	case ptp.EtherTypeIPv4:
		loc.Encapsulation = EncapIPv4
		if len(frame) < pos+ipv4ProtocolOffset+1 {
			return Location{}, ErrTruncated
		}
		if frame[pos]>>4 != 4 || frame[pos+ipv4ProtocolOffset] != ptp.IPProtocolUDP {
			return Location{}, ErrNotPTP
		}
		udp := pos + int(frame[pos]&0xf)*4
		offset, err := udpEvent(frame, udp)
		if err != nil {
			return Location{}, err
		}
		loc.Offset = offset
	case ptp.EtherTypeIPv6:
		loc.Encapsulation = EncapIPv6
		if len(frame) < pos+ipv6NextHeaderOffset+1 {
			return Location{}, ErrTruncated
		}
		if frame[pos]>>4 != 6 || frame[pos+ipv6NextHeaderOffset] != ptp.IPProtocolUDP {
			return Location{}, ErrNotPTP
		}
		offset, err := udpEvent(frame, pos+ipv6HdrLen)
		if err != nil {
			return Location{}, err
		}
		loc.Offset = offset
	default:
		return Location{}, ErrNotPTP
	}

	if len(frame) < loc.Offset+ptp.HeaderLen {
		return Location{}, ErrTruncated
	}
	return loc, nil
}

// udpEvent checks the UDP header at udp targets the PTP event port and returns the payload offset
func udpEvent(frame []byte, udp int) (int, error) {
	if len(frame) < udp+udpDstPortOffset+2 {
		return 0, ErrTruncated
	}
	if binary.BigEndian.Uint16(frame[udp+udpDstPortOffset:]) != ptp.PortEvent {
		return 0, ErrNotPTP
	}
	return udp + udpHdrLen, nil
}

// ShouldTimestamp tells the transmit path whether frame needs a hardware timestamp
func ShouldTimestamp(frame []byte) bool {
	_, err := Classify(frame)
	return err == nil
}
