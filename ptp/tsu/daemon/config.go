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

package daemon

import (
	"fmt"
	"os"
	"time"

	"github.com/ningzhenyu/liboot-tz/ptp/tsu/correlator"
	"github.com/ningzhenyu/liboot-tz/rtc"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

// Register backends
const (
	BackendSim  = "sim"
	BackendMMIO = "mmio"
)

// RegistersConfig tells where the register windows live
type RegistersConfig struct {
	Backend    string
	Device     string
	RTCBase    int64
	TSUBase    int64
	WindowSize int
	// SimCycles is how many source clock cycles the sim backend advances per poll
	SimCycles int
}

// Validate RegistersConfig is sane
func (c *RegistersConfig) Validate() error {
	switch c.Backend {
	case BackendSim:
		if c.SimCycles <= 0 {
			return fmt.Errorf("simcycles must be greater than zero")
		}
	case BackendMMIO:
		if c.Device == "" {
			return fmt.Errorf("device must be specified")
		}
		if c.WindowSize <= 0 || c.WindowSize%4 != 0 {
			return fmt.Errorf("windowsize must be a positive multiple of 4")
		}
		if c.RTCBase < 0 || c.TSUBase < 0 {
			return fmt.Errorf("rtcbase and tsubase must be 0 or positive")
		}
	default:
		return fmt.Errorf("backend must be either %q or %q", BackendSim, BackendMMIO)
	}
	return nil
}

// RTCConfig describes how the RTC block is clocked and wired
type RTCConfig struct {
	NominalFreqHz      uint32
	SourceFreqHz       uint32
	BypassCompensation bool
	OutputClockDivisor uint32
	PulseStartMode     string
	InvertInputPhase   bool
	InvertOutputPhase  bool
	AlarmPolarity      []string
	TriggerPolarity    []string
	EventsMask         uint32
}

// Clock converts RTCConfig into the clock model configuration
func (c *RTCConfig) Clock() (rtc.Config, error) {
	cfg := rtc.Config{
		NominalFreqHz:      c.NominalFreqHz,
		SourceFreqHz:       c.SourceFreqHz,
		BypassCompensation: c.BypassCompensation,
		OutputClockDivisor: c.OutputClockDivisor,
		InvertInputPhase:   c.InvertInputPhase,
		InvertOutputPhase:  c.InvertOutputPhase,
		EventsMask:         c.EventsMask,
	}
	mode, err := rtc.PulseStartModeFromString(c.PulseStartMode)
	if err != nil {
		return cfg, err
	}
	cfg.PulseStart = mode
	if len(c.AlarmPolarity) > rtc.NumAlarms {
		return cfg, fmt.Errorf("at most %d alarm polarities can be set", rtc.NumAlarms)
	}
	for i, p := range c.AlarmPolarity {
		switch p {
		case "high":
		case "low":
			cfg.AlarmActiveLow[i] = true
		default:
			return cfg, fmt.Errorf("alarm polarity must be either %q or %q, got %q", "high", "low", p)
		}
	}
	if len(c.TriggerPolarity) > rtc.NumTriggers {
		return cfg, fmt.Errorf("at most %d trigger polarities can be set", rtc.NumTriggers)
	}
	for i, p := range c.TriggerPolarity {
		switch p {
		case "rising":
		case "falling":
			cfg.TriggerFallingEdge[i] = true
		default:
			return cfg, fmt.Errorf("trigger polarity must be either %q or %q, got %q", "rising", "falling", p)
		}
	}
	return cfg, nil
}

// Config specifies how a driver instance is attached and run
type Config struct {
	LogLevel       string
	MonitoringPort int
	EventInterval  time.Duration
	TxBufferSize   int
	RxBufferSize   int
	RemoveOnMatch  bool
	DeliveryMode   string
	Registers      RegistersConfig
	RTC            RTCConfig
	// Pulses are pulse periods per channel, 0 leaves a channel unarmed
	Pulses []time.Duration
	// Alarms are absolute counter times per channel, 0 leaves a channel unarmed
	Alarms []time.Duration
	Parser rtc.ParserConfig
}

// DefaultConfig returns Config initialized with default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:       "info",
		MonitoringPort: 4270,
		EventInterval:  100 * time.Millisecond,
		TxBufferSize:   correlator.DefaultStoreSize,
		RxBufferSize:   correlator.DefaultStoreSize,
		DeliveryMode:   rtc.DeliveryOutOfBand.String(),
		Registers: RegistersConfig{
			Backend:   BackendSim,
			SimCycles: 1000000,
		},
		RTC: RTCConfig{
			NominalFreqHz:      100000000,
			SourceFreqHz:       125000000,
			OutputClockDivisor: 1,
			PulseStartMode:     rtc.PulseStartImmediate.String(),
			EventsMask:         rtc.EventAll,
		},
		Parser: rtc.DefaultParserConfig(),
	}
}

// Validate config is sane
func (c *Config) Validate() error {
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MonitoringPort < 0 {
		return fmt.Errorf("monitoringport must be 0 or positive")
	}
	if c.EventInterval <= 0 {
		return fmt.Errorf("eventinterval must be greater than zero")
	}
	if c.TxBufferSize < 2 || c.RxBufferSize < 2 {
		return fmt.Errorf("txbuffersize and rxbuffersize must be at least 2")
	}
	if _, err := rtc.DeliveryModeFromString(c.DeliveryMode); err != nil {
		return err
	}
	if err := c.Registers.Validate(); err != nil {
		return fmt.Errorf("invalid registers config: %w", err)
	}
	if c.RTC.NominalFreqHz == 0 || c.RTC.SourceFreqHz == 0 {
		return fmt.Errorf("nominalfreqhz and sourcefreqhz must be greater than zero")
	}
	if _, err := c.RTC.Clock(); err != nil {
		return fmt.Errorf("invalid rtc config: %w", err)
	}
	if len(c.Pulses) > rtc.NumPulses {
		return fmt.Errorf("at most %d pulses can be armed", rtc.NumPulses)
	}
	for i, p := range c.Pulses {
		if p < 0 {
			return fmt.Errorf("pulse %d period must be 0 or positive", i)
		}
	}
	if len(c.Alarms) > rtc.NumAlarms {
		return fmt.Errorf("at most %d alarms can be armed", rtc.NumAlarms)
	}
	for i, a := range c.Alarms {
		if a < 0 {
			return fmt.Errorf("alarm %d time must be 0 or positive", i)
		}
	}
	return nil
}

// ReadConfig reads config from the file on top of the defaults
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	cData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.UnmarshalStrict(cData, &c)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func parseLogLevel(level string) (log.Level, error) {
	switch level {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	}
	return 0, fmt.Errorf("unrecognized log level: %v", level)
}

// SetLogLevel applies the configured log level
func (c *Config) SetLogLevel() error {
	level, err := parseLogLevel(c.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	return nil
}
