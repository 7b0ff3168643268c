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
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSdoIDAndMsgType(t *testing.T) {
	sdoIDAndMsgType := NewSdoIDAndMsgType(MessageSignaling, 123)
	require.Equal(t, MessageSignaling, sdoIDAndMsgType.MsgType())
}

func TestMessageTypeEvent(t *testing.T) {
	for _, m := range []MessageType{MessageSync, MessageDelayReq, MessagePDelayReq, MessagePDelayResp} {
		require.True(t, m.Event(), m.String())
	}
	for _, m := range []MessageType{MessageFollowUp, MessageDelayResp, MessagePDelayRespFollowUp, MessageAnnounce, MessageSignaling, MessageManagement} {
		require.False(t, m.Event(), m.String())
	}
}

func TestControlFieldString(t *testing.T) {
	require.Equal(t, "SYNC", ControlSync.String())
	require.Equal(t, "DELAY_REQ", ControlDelayReq.String())
	require.Equal(t, "ALL_OTHER", ControlAllOther.String())
	require.Equal(t, "", ControlField(42).String())
}

func TestControlFieldFor(t *testing.T) {
	require.Equal(t, ControlSync, ControlFieldFor(MessageSync))
	require.Equal(t, ControlDelayReq, ControlFieldFor(MessageDelayReq))
	require.Equal(t, ControlFollowUp, ControlFieldFor(MessageFollowUp))
	require.Equal(t, ControlDelayResp, ControlFieldFor(MessageDelayResp))
	require.Equal(t, ControlMgmt, ControlFieldFor(MessageManagement))
	require.Equal(t, ControlAllOther, ControlFieldFor(MessagePDelayReq))
	require.Equal(t, ControlAllOther, ControlFieldFor(MessageAnnounce))
}

func TestClockIdentity(t *testing.T) {
	mac, err := net.ParseMAC("0c:42:a1:6d:7c:a6")
	require.NoError(t, err)
	got := ClockIdentity(0x0c42a1fffe6d7ca6)
	require.Equal(t, "0c42a1.fffe.6d7ca6", got.String())
	require.Equal(t, mac, got.MAC())
}

func TestPortIdentityRaw(t *testing.T) {
	pi := PortIdentity{
		ClockIdentity: 0x0c42a1fffe6d7ca6,
		PortNumber:    258,
	}
	raw := pi.Raw()
	require.Equal(t, [PortIdentityLen]byte{0x0c, 0x42, 0xa1, 0xff, 0xfe, 0x6d, 0x7c, 0xa6, 0x01, 0x02}, raw)
	require.Equal(t, pi, PortIdentityFromRaw(raw))
	require.Equal(t, "0c42a1.fffe.6d7ca6-258", pi.String())
}

func TestPacketIdentity(t *testing.T) {
	pi := PortIdentity{ClockIdentity: 0x0c42a1fffe6d7ca6, PortNumber: 1}
	a := NewPacketIdentity(7, pi)
	b := NewPacketIdentity(7, pi)
	c := NewPacketIdentity(8, pi)
	d := NewPacketIdentity(7, PortIdentity{ClockIdentity: 0x0c42a1fffe6d7ca6, PortNumber: 2})

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.NotEqual(t, a, d)
	require.Equal(t, pi, a.PortIdentity())
	require.Equal(t, "PacketIdentity(seq=7, port=0c42a1.fffe.6d7ca6-1)", a.String())
}

func TestTimestamp(t *testing.T) {
	ts := Timestamp{Seconds: PTPSeconds{0, 0, 0x62, 0x8f, 0x6f, 0xbd}, Nanoseconds: 806422000}
	require.Equal(t, time.Unix(1653567421, 806422000), ts.Time())
	require.True(t, Timestamp{}.Time().IsZero())
}
