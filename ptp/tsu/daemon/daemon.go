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
Package daemon attaches a driver instance: it programs the RTC and the timestamp unit,
owns the timestamp stores and polls RTC events while serving stats over http.
*/
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	sddaemon "github.com/coreos/go-systemd/daemon"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ningzhenyu/liboot-tz/ptp/tsu/correlator"
	"github.com/ningzhenyu/liboot-tz/ptp/tsu/stats"
	"github.com/ningzhenyu/liboot-tz/rtc"
)

// sim cycles run, or real time waited, before checking the counter moves
const (
	startupCycles = 16
	startupDelay  = 10 * time.Microsecond
)

const shutdownTimeout = 5 * time.Second

// Daemon is an attached driver instance
type Daemon struct {
	cfg   *Config
	stats stats.Stats

	clock      *rtc.Clock
	tsu        *rtc.TSU
	correlator *correlator.Service

	sim     *rtc.Sim
	closers []io.Closer
}

// New opens the register windows of the configured backend
func New(cfg *Config, st stats.Stats) (*Daemon, error) {
	switch cfg.Registers.Backend {
	case BackendSim:
		sim := rtc.NewSim()
		d, err := NewWithRegisters(cfg, st, sim, rtc.NewRegisterFile())
		if err != nil {
			return nil, err
		}
		d.sim = sim
		return d, nil
	case BackendMMIO:
		rtcRegs, err := rtc.MapRegisters(cfg.Registers.Device, cfg.Registers.RTCBase, cfg.Registers.WindowSize)
		if err != nil {
			return nil, fmt.Errorf("mapping rtc registers: %w", err)
		}
		tsuRegs, err := rtc.MapRegisters(cfg.Registers.Device, cfg.Registers.TSUBase, cfg.Registers.WindowSize)
		if err != nil {
			rtcRegs.Close()
			return nil, fmt.Errorf("mapping tsu registers: %w", err)
		}
		d, err := NewWithRegisters(cfg, st, rtcRegs, tsuRegs)
		if err != nil {
			rtcRegs.Close()
			tsuRegs.Close()
			return nil, err
		}
		d.closers = append(d.closers, rtcRegs, tsuRegs)
		return d, nil
	}
	return nil, fmt.Errorf("unsupported register backend %q", cfg.Registers.Backend)
}

// NewWithRegisters builds a Daemon on top of already opened register windows
func NewWithRegisters(cfg *Config, st stats.Stats, rtcRegs, tsuRegs rtc.Registers) (*Daemon, error) {
	c, err := correlator.New(correlator.Config{
		TxStoreSize:   cfg.TxBufferSize,
		RxStoreSize:   cfg.RxBufferSize,
		RemoveOnMatch: cfg.RemoveOnMatch,
	}, st)
	if err != nil {
		return nil, err
	}
	return &Daemon{
		cfg:        cfg,
		stats:      st,
		clock:      rtc.NewClock(rtcRegs),
		tsu:        rtc.NewTSU(tsuRegs),
		correlator: c,
	}, nil
}

// Clock returns the RTC of the instance
func (d *Daemon) Clock() *rtc.Clock {
	return d.clock
}

// TSU returns the timestamp unit of the instance
func (d *Daemon) TSU() *rtc.TSU {
	return d.tsu
}

// Correlator returns the timestamp stores of the instance
func (d *Daemon) Correlator() *correlator.Service {
	return d.correlator
}

// Attach programs the RTC and the timestamp unit, arms configured pulses and alarms and starts the counter
func (d *Daemon) Attach() error {
	clockCfg, err := d.cfg.RTC.Clock()
	if err != nil {
		return err
	}
	mode, err := rtc.DeliveryModeFromString(d.cfg.DeliveryMode)
	if err != nil {
		return err
	}
	comp, err := d.clock.Configure(clockCfg)
	if err != nil {
		return fmt.Errorf("configuring rtc: %w", err)
	}
	log.Infof("rtc configured: tick %dns, compensation %#x", d.clock.TickPeriod(), comp)

	d.tsu.Reset()
	d.tsu.ConfigureParser(d.cfg.Parser)

	for i, p := range d.cfg.Pulses {
		if p == 0 {
			continue
		}
		period, err := rtc.TimeFromDuration(p)
		if err != nil {
			return fmt.Errorf("pulse %d: %w", i, err)
		}
		if err := d.clock.ArmPulse(i, period); err != nil {
			return fmt.Errorf("arming pulse %d: %w", i, err)
		}
	}
	for i, a := range d.cfg.Alarms {
		if a == 0 {
			continue
		}
		at, err := rtc.TimeFromDuration(a)
		if err != nil {
			return fmt.Errorf("alarm %d: %w", i, err)
		}
		if err := d.clock.ArmAlarm(i, at); err != nil {
			return fmt.Errorf("arming alarm %d: %w", i, err)
		}
	}

	d.clock.Enable(false)
	d.tsu.Enable(mode)
	d.correlator.FlushAll()

	if d.sim != nil {
		d.sim.Tick(startupCycles)
	} else {
		time.Sleep(startupDelay)
	}
	if !d.clock.Running() {
		log.Warning("rtc is not running")
	}
	log.Infof("attached: time %s, %s delivery", d.clock.Time(), mode)
	return nil
}

// Poll acknowledges pending RTC events and refreshes stats
func (d *Daemon) Poll() {
	if d.sim != nil {
		d.sim.Tick(d.cfg.Registers.SimCycles)
	}
	if mask, now := d.clock.HandleEvents(); mask != 0 {
		log.Debugf("rtc events %#x at %s", mask, now)
	}
	d.stats.SetRTCEvents(d.clock.Counters())
	d.correlator.ReportStats()
	d.stats.Snapshot()
}

// Run serves stats and polls events until ctx is done
func (d *Daemon) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", d.cfg.MonitoringPort),
		Handler:           d.stats.Handler(),
		ReadHeaderTimeout: time.Second,
	}
	eg.Go(func() error {
		log.Infof("Starting http server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("stats server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(sctx)
	})
	eg.Go(func() error {
		ticker := time.NewTicker(d.cfg.EventInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				d.Poll()
			}
		}
	})

	if ok, err := sddaemon.SdNotify(false, sddaemon.SdNotifyReady); err != nil {
		log.Warningf("failed to notify systemd: %v", err)
	} else if ok {
		log.Debug("notified systemd")
	}

	err := eg.Wait()
	if _, serr := sddaemon.SdNotify(false, sddaemon.SdNotifyStopping); serr != nil {
		log.Warningf("failed to notify systemd: %v", serr)
	}
	return err
}

// Close stops the counter and the timestamp unit and releases the register windows
func (d *Daemon) Close() error {
	d.tsu.Disable()
	d.clock.Disable()
	var errs []error
	for _, c := range d.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
