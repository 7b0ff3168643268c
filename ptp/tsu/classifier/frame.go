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
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	ptp "github.com/ningzhenyu/liboot-tz/ptp/protocol"
)

// FrameOptions control how BuildFrame wraps a PTP message
type FrameOptions struct {
	Encapsulation Encapsulation
	// VLAN adds an 802.1Q tag with this ID when non-zero
	VLAN uint16
	// DstPort overrides the UDP destination port, PTP event port if zero
	DstPort uint16
}

var (
	frameSrcMAC = net.HardwareAddr{0x0c, 0x42, 0xa1, 0x6d, 0x7c, 0xa6}
	frameDstMAC = net.HardwareAddr{0x01, 0x1b, 0x19, 0x00, 0x00, 0x00}
	frameSrcV4  = net.ParseIP("192.168.0.10").To4()
	frameDstV4  = net.ParseIP("224.0.1.129").To4()
	frameSrcV6  = net.ParseIP("fd00::10")
	frameDstV6  = net.ParseIP("ff0e::181")
)

// BuildFrame wraps a serialized PTP message into an Ethernet frame
func BuildFrame(payload []byte, opts FrameOptions) ([]byte, error) {
	eth := &layers.Ethernet{SrcMAC: frameSrcMAC, DstMAC: frameDstMAC}
	stack := []gopacket.SerializableLayer{eth}
	var inner layers.EthernetType

	switch opts.Encapsulation {
	case EncapEthernet:
		inner = layers.EthernetType(ptp.EtherTypePTP)
		stack = append(stack, gopacket.Payload(payload))
	case EncapIPv4, EncapIPv6:
		udp := &layers.UDP{SrcPort: layers.UDPPort(ptp.PortEvent), DstPort: layers.UDPPort(ptp.PortEvent)}
		if opts.DstPort != 0 {
			udp.DstPort = layers.UDPPort(opts.DstPort)
		}
		var ip gopacket.NetworkLayer
		if opts.Encapsulation == EncapIPv4 {
			inner = layers.EthernetTypeIPv4
			ip = &layers.IPv4{Version: 4, TTL: 1, Protocol: layers.IPProtocolUDP, SrcIP: frameSrcV4, DstIP: frameDstV4}
		} else {
			inner = layers.EthernetTypeIPv6
			ip = &layers.IPv6{Version: 6, HopLimit: 1, NextHeader: layers.IPProtocolUDP, SrcIP: frameSrcV6, DstIP: frameDstV6}
		}
		if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
			return nil, err
		}
		stack = append(stack, ip.(gopacket.SerializableLayer), udp, gopacket.Payload(payload))
	default:
		return nil, fmt.Errorf("unsupported encapsulation %s", opts.Encapsulation)
	}

	if opts.VLAN != 0 {
		eth.EthernetType = layers.EthernetTypeDot1Q
		tag := &layers.Dot1Q{VLANIdentifier: opts.VLAN, Type: inner}
		stack = append(stack[:1], append([]gopacket.SerializableLayer{tag}, stack[1:]...)...)
	} else {
		eth.EthernetType = inner
	}

	buf := gopacket.NewSerializeBuffer()
	options := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, options, stack...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EventPayload serializes a zero-bodied PTP message of type m
func EventPayload(m ptp.MessageType, sequence uint16, port ptp.PortIdentity) ([]byte, error) {
	h := ptp.Header{
		SdoIDAndMsgType:    ptp.NewSdoIDAndMsgType(m, 0),
		Version:            ptp.Version,
		SequenceID:         sequence,
		SourcePortIdentity: port,
		ControlField:       uint8(ptp.ControlFieldFor(m)),
	}
	var p ptp.Packet
	switch m {
	case ptp.MessageSync, ptp.MessageDelayReq:
		p = &ptp.SyncDelayReq{Header: h}
	case ptp.MessagePDelayReq:
		p = &ptp.PDelayReq{Header: h}
	case ptp.MessagePDelayResp:
		p = &ptp.PDelayResp{Header: h}
	case ptp.MessageFollowUp:
		p = &ptp.FollowUp{Header: h}
	case ptp.MessageDelayResp:
		p = &ptp.DelayResp{Header: h}
	default:
		p = &h
	}
	b, err := ptp.Bytes(p)
	if err != nil {
		return nil, err
	}
	// trailing two octets are padding, not part of the message
	binary.BigEndian.PutUint16(b[2:], uint16(len(b)-2))
	return b, nil
}
