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

package classifier

import (
	"encoding/binary"
	"errors"
	"fmt"

	ptp "github.com/ningzhenyu/liboot-tz/ptp/protocol"
)

// ErrNotCorrelated is returned for PTP event frames of a class we keep no timestamps for
var ErrNotCorrelated = errors.New("PTP message is not timestamp-correlated")

// Direction tells transmitted frames from received ones
type Direction uint8

// Directions
const (
	DirectionTx Direction = iota
	DirectionRx

	NumDirections = 2
)

func (d Direction) String() string {
	switch d {
	case DirectionTx:
		return "tx"
	case DirectionRx:
		return "rx"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// DirectionFromString parses Direction as printed by String
func DirectionFromString(s string) (Direction, error) {
	switch s {
	case "tx":
		return DirectionTx, nil
	case "rx":
		return DirectionRx, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// MessageClass is the kind of event message a timestamp is kept for
type MessageClass uint8

// Message classes, each with its own timestamp store per direction
const (
	ClassSync MessageClass = iota
	ClassDelayReq
	ClassPDelayReq
	ClassPDelayResp

	NumClasses = 4
)

var messageClassToString = map[MessageClass]string{
	ClassSync:       "sync",
	ClassDelayReq:   "delay_req",
	ClassPDelayReq:  "pdelay_req",
	ClassPDelayResp: "pdelay_resp",
}

func (c MessageClass) String() string {
	if s, ok := messageClassToString[c]; ok {
		return s
	}
	return fmt.Sprintf("MessageClass(%d)", uint8(c))
}

// MessageClassFromString parses MessageClass as printed by String
func MessageClassFromString(s string) (MessageClass, error) {
	for k, v := range messageClassToString {
		if v == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown message class %q", s)
}

// ClassOf derives the message class of a PTP header.
// The control field decides, with the message type nibble breaking down the "all other" value.
func ClassOf(header []byte) (MessageClass, bool) {
	if len(header) < ptp.HeaderLen {
		return 0, false
	}
	switch ptp.ControlField(header[ptp.OffsetControlField]) {
	case ptp.ControlSync:
		return ClassSync, true
	case ptp.ControlDelayReq:
		return ClassDelayReq, true
	case ptp.ControlAllOther:
		switch ptp.MessageType(header[ptp.OffsetMessageType] & 0xf) {
		case ptp.MessagePDelayReq:
			return ClassPDelayReq, true
		case ptp.MessagePDelayResp:
			return ClassPDelayResp, true
		}
	}
	return 0, false
}

// IdentityOf reads the correlation identity out of a PTP header
func IdentityOf(header []byte) (ptp.PacketIdentity, error) {
	if len(header) < ptp.HeaderLen {
		return ptp.PacketIdentity{}, ErrTruncated
	}
	id := ptp.PacketIdentity{
		SequenceID: binary.BigEndian.Uint16(header[ptp.OffsetSequenceID:]),
	}
	copy(id.SourcePortID[:], header[ptp.OffsetSourcePortIdentity:ptp.OffsetSourcePortIdentity+ptp.PortIdentityLen])
	return id, nil
}

// Message is a classified PTP event frame
type Message struct {
	Location
	Class    MessageClass
	Identity ptp.PacketIdentity
}

// Parse classifies frame and extracts class and identity of its PTP event message
func Parse(frame []byte) (Message, error) {
	loc, err := Classify(frame)
	if err != nil {
		return Message{}, err
	}
	header := frame[loc.Offset : loc.Offset+ptp.HeaderLen]
	class, ok := ClassOf(header)
	if !ok {
		return Message{}, fmt.Errorf("%w: control %s, type %s", ErrNotCorrelated,
			ptp.ControlField(header[ptp.OffsetControlField]), ptp.MessageType(header[ptp.OffsetMessageType]&0xf))
	}
	id, err := IdentityOf(header)
	if err != nil {
		return Message{}, err
	}
	return Message{Location: loc, Class: class, Identity: id}, nil
}
