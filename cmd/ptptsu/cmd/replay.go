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
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/eclesh/welford"
	"github.com/fatih/color"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	ptp "github.com/ningzhenyu/liboot-tz/ptp/protocol"
	"github.com/ningzhenyu/liboot-tz/ptp/tsu/classifier"
	"github.com/ningzhenyu/liboot-tz/ptp/tsu/correlator"
	"github.com/ningzhenyu/liboot-tz/ptp/tsu/stats"
	"github.com/ningzhenyu/liboot-tz/rtc"
)

var (
	replayDirectionFlag     string
	replaySizeFlag          int
	replayRemoveOnMatchFlag bool
)

func init() {
	RootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&replayDirectionFlag, "direction", "d", "rx", "direction to capture frames in: rx or tx")
	replayCmd.Flags().IntVarP(&replaySizeFlag, "size", "s", correlator.DefaultStoreSize, "slots per timestamp store")
	replayCmd.Flags().BoolVar(&replayRemoveOnMatchFlag, "remove-on-match", false, "remove records on a successful lookup")
}

var (
	hitString  = color.GreenString("[ HIT]")
	missString = color.RedString("[MISS]")
)

// packetHandle abstracts packet handles provided by pcapgo.Reader and pcapgo.NGReader
type packetHandle interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

func openCapture(f io.ReadSeeker) (packetHandle, error) {
	// try NGReader, if it fails - fall back to Reader
	handle, err := pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	if err == nil {
		return handle, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		return nil, err
	}
	return r, nil
}

type captured struct {
	class classifier.MessageClass
	id    ptp.PacketIdentity
	desc  string
}

// describe decodes the PTP message at the start of payload for verbose output
func describe(payload []byte) string {
	p, err := ptp.DecodePacket(payload)
	if err != nil {
		return fmt.Sprintf("undecodable: %v", err)
	}
	var h ptp.Header
	var origin ptp.Timestamp
	switch v := p.(type) {
	case *ptp.SyncDelayReq:
		h, origin = v.Header, v.OriginTimestamp
	case *ptp.PDelayReq:
		h, origin = v.Header, v.OriginTimestamp
	case *ptp.PDelayResp:
		h = v.Header
	case *ptp.FollowUp:
		h, origin = v.Header, v.PreciseOriginTimestamp
	case *ptp.DelayResp:
		h = v.Header
	}
	desc := fmt.Sprintf("%s v%d domain=%d mac=%s", h.MessageType(), h.Version&0xf, h.DomainNumber, h.SourcePortIdentity.ClockIdentity.MAC())
	if h.FlagField&ptp.FlagTwoStep != 0 {
		desc += " two-step"
	}
	if h.FlagField&ptp.FlagUnicast != 0 {
		desc += " unicast"
	}
	if t := origin.Time(); !t.IsZero() {
		desc += " origin=" + t.UTC().Format(time.RFC3339Nano)
	}
	return desc
}

// classSummary is what replay reports per message class
type classSummary struct {
	captured  int
	hits      int
	misses    int
	last      time.Time
	intervals *welford.Stats
}

func replay(w io.Writer, f io.ReadSeeker, d classifier.Direction, cfg correlator.Config, verbose bool) error {
	handle, err := openCapture(f)
	if err != nil {
		return fmt.Errorf("decoding capture: %w", err)
	}
	if handle.LinkType() != layers.LinkTypeEthernet {
		return fmt.Errorf("unsupported link type %s", handle.LinkType())
	}

	st := stats.NewJSONStats()
	c, err := correlator.New(cfg, st)
	if err != nil {
		return err
	}

	var order []captured
	summary := [classifier.NumClasses]classSummary{}
	for i := range summary {
		summary[i].intervals = welford.New()
	}
	frames := 0
	for {
		data, ci, err := handle.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading frame %d: %w", frames+1, err)
		}
		frames++
		msg, err := classifier.Parse(data)
		if err != nil {
			log.Debugf("frame %d skipped: %v", frames, err)
			continue
		}
		ts, err := rtc.TimeFromDuration(time.Duration(ci.Timestamp.UnixNano()))
		if err != nil {
			return fmt.Errorf("frame %d: %w", frames, err)
		}
		if !c.Capture(d, data, ts) {
			continue
		}
		s := &summary[msg.Class]
		if !s.last.IsZero() {
			s.intervals.Add(float64(ci.Timestamp.Sub(s.last)))
		}
		s.last = ci.Timestamp
		s.captured++
		m := captured{class: msg.Class, id: msg.Identity}
		if verbose {
			m.desc = describe(data[msg.Offset:])
		}
		order = append(order, m)
	}

	for _, m := range order {
		ts, err := c.Lookup(d, m.class, m.id)
		s := &summary[m.class]
		if err != nil {
			s.misses++
			fmt.Fprintf(w, "%s %s %s\n", missString, m.class, m.id)
			continue
		}
		s.hits++
		if verbose {
			fmt.Fprintf(w, "%s %s %s %s %s\n", hitString, m.class, m.id, ts, m.desc)
		}
	}

	c.ReportStats()
	st.Snapshot()
	fmt.Fprintf(w, "%d frames, %d captured in %s direction\n", frames, len(order), d)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"class", "captured", "hits", "misses", "overwrites", "mean interval", "stddev"})
	for i, s := range summary {
		class := classifier.MessageClass(i)
		mean, stddev := "", ""
		if s.captured > 1 {
			mean = time.Duration(s.intervals.Mean()).String()
			stddev = time.Duration(s.intervals.Stddev()).String()
		}
		table.Append([]string{
			class.String(),
			strconv.Itoa(s.captured),
			strconv.Itoa(s.hits),
			strconv.Itoa(s.misses),
			strconv.FormatUint(c.Store(d, class).Stats().Overwrites, 10),
			mean,
			stddev,
		})
	}
	table.Render()
	return nil
}

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Capture every frame of a pcap file and look the timestamps up again",
	Long:  "Capture every frame of a pcap file into the timestamp stores, using the capture time as the hardware timestamp, then look every captured message up.",
	Args:  cobra.ExactArgs(1),
	Run: func(c *cobra.Command, args []string) {
		ConfigureVerbosity()
		d, err := classifier.DirectionFromString(replayDirectionFlag)
		if err != nil {
			log.Fatal(err)
		}
		f, err := os.Open(args[0])
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		cfg := correlator.Config{
			TxStoreSize:   replaySizeFlag,
			RxStoreSize:   replaySizeFlag,
			RemoveOnMatch: replayRemoveOnMatchFlag,
		}
		if err := replay(c.OutOrStdout(), f, d, cfg, rootVerboseFlag); err != nil {
			log.Fatal(err)
		}
	},
}
