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

package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/require"

	ptp "github.com/ningzhenyu/liboot-tz/ptp/protocol"
	"github.com/ningzhenyu/liboot-tz/ptp/tsu/classifier"
	"github.com/ningzhenyu/liboot-tz/ptp/tsu/correlator"
)

type testFrame struct {
	msg ptp.MessageType
	seq uint16
	at  time.Duration
}

func writePcap(t *testing.T, link layers.LinkType, frames []testFrame) *bytes.Reader {
	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	require.NoError(t, w.WriteFileHeader(65536, link))
	port := ptp.PortIdentity{ClockIdentity: 0x0c42a1fffe6d7ca6, PortNumber: 1}
	start := time.Unix(1653584231, 0)
	for _, f := range frames {
		payload, err := classifier.EventPayload(f.msg, f.seq, port)
		require.NoError(t, err)
		data, err := classifier.BuildFrame(payload, classifier.FrameOptions{Encapsulation: classifier.EncapIPv4})
		require.NoError(t, err)
		ci := gopacket.CaptureInfo{Timestamp: start.Add(f.at), CaptureLength: len(data), Length: len(data)}
		require.NoError(t, w.WritePacket(ci, data))
	}
	return bytes.NewReader(buf.Bytes())
}

var replayFrames = []testFrame{
	{ptp.MessageSync, 1, 0},
	{ptp.MessageFollowUp, 1, time.Millisecond},
	{ptp.MessageDelayReq, 1, 10 * time.Millisecond},
	{ptp.MessageSync, 2, time.Second},
	{ptp.MessageDelayReq, 2, time.Second + 10*time.Millisecond},
	{ptp.MessageSync, 3, 2 * time.Second},
}

func TestReplay(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	in := writePcap(t, layers.LinkTypeEthernet, replayFrames)
	cfg := correlator.Config{TxStoreSize: 16, RxStoreSize: 16}
	require.NoError(t, replay(&out, in, classifier.DirectionRx, cfg, true))

	got := out.String()
	require.Contains(t, got, "6 frames, 5 captured in rx direction")
	require.Equal(t, 5, strings.Count(got, "[ HIT]"))
	require.Zero(t, strings.Count(got, "[MISS]"))
	require.Contains(t, got, "1s")
	require.Equal(t, 3, strings.Count(got, "SYNC v2 domain=0 mac=0c:42:a1:6d:7c:a6"))
	require.Equal(t, 2, strings.Count(got, "DELAY_REQ v2 domain=0 mac=0c:42:a1:6d:7c:a6"))
}

func TestDescribe(t *testing.T) {
	p := &ptp.SyncDelayReq{
		Header: ptp.Header{
			SdoIDAndMsgType:    ptp.NewSdoIDAndMsgType(ptp.MessageSync, 0),
			Version:            ptp.Version,
			DomainNumber:       24,
			FlagField:          ptp.FlagTwoStep | ptp.FlagUnicast,
			SourcePortIdentity: ptp.PortIdentity{ClockIdentity: 0x0c42a1fffe6d7ca6, PortNumber: 1},
		},
		SyncDelayReqBody: ptp.SyncDelayReqBody{
			OriginTimestamp: ptp.Timestamp{Seconds: ptp.PTPSeconds{0, 0, 0x62, 0x8f, 0x6f, 0xbd}, Nanoseconds: 5},
		},
	}
	b, err := ptp.Bytes(p)
	require.NoError(t, err)
	require.Equal(t, "SYNC v2 domain=24 mac=0c:42:a1:6d:7c:a6 two-step unicast origin=2022-05-26T12:17:01.000000005Z", describe(b))

	p.FlagField = 0
	p.OriginTimestamp = ptp.Timestamp{}
	b, err = ptp.Bytes(p)
	require.NoError(t, err)
	require.Equal(t, "SYNC v2 domain=24 mac=0c:42:a1:6d:7c:a6", describe(b))

	require.Contains(t, describe(b[:10]), "undecodable")
	b[0] = byte(ptp.MessageAnnounce)
	require.Contains(t, describe(b), "undecodable: unsupported type ANNOUNCE")
}

func TestReplaySmallStores(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	in := writePcap(t, layers.LinkTypeEthernet, replayFrames)
	// one record per store, older captures are overwritten
	cfg := correlator.Config{TxStoreSize: 2, RxStoreSize: 2}
	require.NoError(t, replay(&out, in, classifier.DirectionTx, cfg, false))

	got := out.String()
	require.Contains(t, got, "6 frames, 5 captured in tx direction")
	require.Zero(t, strings.Count(got, "[ HIT]"))
	require.Equal(t, 5, strings.Count(got, "[MISS]"))
}

func TestReplayErrors(t *testing.T) {
	var out bytes.Buffer
	cfg := correlator.Config{TxStoreSize: 16, RxStoreSize: 16}

	err := replay(&out, bytes.NewReader([]byte("not a capture")), classifier.DirectionRx, cfg, false)
	require.ErrorContains(t, err, "decoding capture")

	in := writePcap(t, layers.LinkTypeRaw, nil)
	require.ErrorContains(t, replay(&out, in, classifier.DirectionRx, cfg, false), "unsupported link type")

	in = writePcap(t, layers.LinkTypeEthernet, replayFrames)
	require.Error(t, replay(&out, in, classifier.DirectionRx, correlator.Config{TxStoreSize: 1, RxStoreSize: 1}, false))
}
