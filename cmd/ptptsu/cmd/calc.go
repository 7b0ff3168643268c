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
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/ningzhenyu/liboot-tz/rtc"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	calcNominalFlag uint32
	calcSourceFlag  uint32
	calcPPBFlag     float64
	calcTickFlag    uint32
	calcDivisorFlag uint32
	calcPeriodFlag  uint32
	calcOnAlarmFlag bool
)

func init() {
	RootCmd.AddCommand(calcCmd)
	calcCmd.AddCommand(calcCompensationCmd)
	calcCompensationCmd.Flags().Uint32Var(&calcNominalFlag, "nominal", 100000000, "nominal RTC frequency in Hz")
	calcCompensationCmd.Flags().Uint32Var(&calcSourceFlag, "source", 125000000, "source clock frequency in Hz")
	calcCompensationCmd.Flags().Float64Var(&calcPPBFlag, "ppb", 0, "frequency offset to apply in parts per billion")

	calcCmd.AddCommand(calcPulseCmd)
	calcPulseCmd.Flags().Uint32Var(&calcTickFlag, "tick", 10, "tick period in ns")
	calcPulseCmd.Flags().Uint32Var(&calcDivisorFlag, "divisor", 1, "output clock divisor")
	calcPulseCmd.Flags().Uint32Var(&calcPeriodFlag, "period", 1000000000, "pulse period in ns")
	calcPulseCmd.Flags().BoolVar(&calcOnAlarmFlag, "on-alarm", false, "pulses start on alarm 1")

	calcCmd.AddCommand(calcTimeCmd)
}

func printValues(w io.Writer, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"value", "dec", "hex"})
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}

func row(name string, v uint64) []string {
	return []string{name, strconv.FormatUint(v, 10), fmt.Sprintf("%#x", v)}
}

func calcCompensation(w io.Writer, nominal, source uint32, ppb float64) error {
	tick, err := rtc.TickPeriod(nominal)
	if err != nil {
		return err
	}
	comp, err := rtc.FreqCompensation(nominal, source)
	if err != nil {
		return err
	}
	if comp > math.MaxUint32 {
		return fmt.Errorf("%w: compensation %d doesn't fit 32 bits, nominal frequency must not exceed source frequency", rtc.ErrInvalidFrequency, comp)
	}
	rows := [][]string{
		row("tick period (ns)", uint64(tick)),
		row("compensation", comp),
	}
	if ppb != 0 {
		adjusted, err := rtc.CompensationForPPB(uint32(comp), ppb)
		if err != nil {
			return err
		}
		rows = append(rows, row(fmt.Sprintf("compensation %+.3f ppb", ppb), uint64(adjusted)))
	}
	printValues(w, rows)
	return nil
}

func calcPulse(w io.Writer, tick, divisor, period uint32, onAlarm bool) error {
	reload, err := rtc.PulseReload(period, tick, divisor, onAlarm)
	if err != nil {
		return err
	}
	printValues(w, [][]string{
		row("reload", uint64(reload)),
		row("effective period (ns)", uint64(reload)+uint64(tick)),
	})
	return nil
}

func calcTime(w io.Writer, arg string) error {
	ns, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", arg, err)
	}
	t := rtc.FromCounter(ns)
	printValues(w, [][]string{
		row("seconds", uint64(t.Seconds)),
		row("nanoseconds", uint64(t.Nanoseconds)),
		row("counter high", ns>>32),
		row("counter low", ns&math.MaxUint32),
	})
	return nil
}

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Print register values computed by the clock model",
}

var calcCompensationCmd = &cobra.Command{
	Use:   "compensation",
	Short: "Frequency compensation for a nominal and a source frequency",
	Run: func(c *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := calcCompensation(c.OutOrStdout(), calcNominalFlag, calcSourceFlag, calcPPBFlag); err != nil {
			log.Fatal(err)
		}
	},
}

var calcPulseCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Pulse reload value for a period",
	Run: func(c *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := calcPulse(c.OutOrStdout(), calcTickFlag, calcDivisorFlag, calcPeriodFlag, calcOnAlarmFlag); err != nil {
			log.Fatal(err)
		}
	},
}

var calcTimeCmd = &cobra.Command{
	Use:   "time NS",
	Short: "Split a counter value into seconds, nanoseconds and register halves",
	Args:  cobra.ExactArgs(1),
	Run: func(c *cobra.Command, args []string) {
		ConfigureVerbosity()
		if err := calcTime(c.OutOrStdout(), args[0]); err != nil {
			log.Fatal(err)
		}
	},
}
