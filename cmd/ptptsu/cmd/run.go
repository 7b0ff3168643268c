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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ningzhenyu/liboot-tz/ptp/tsu/daemon"
	"github.com/ningzhenyu/liboot-tz/ptp/tsu/stats"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	runConfigFlag     string
	runPrometheusFlag bool
)

func init() {
	RootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runConfigFlag, "config", "c", "", "path to the config file, defaults are used if empty")
	runCmd.Flags().BoolVar(&runPrometheusFlag, "prometheus", false, "serve prometheus metrics on /metrics next to the json stats")
}

func prepareConfig(path string) (*daemon.Config, error) {
	cfg := daemon.DefaultConfig()
	if path != "" {
		var err error
		cfg, err = daemon.ReadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("reading config from %q: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func runDaemon(ctx context.Context, cfg *daemon.Config, prometheus bool) error {
	var st stats.Stats = stats.NewJSONStats()
	if prometheus {
		st = stats.NewPrometheusStats()
	}
	d, err := daemon.New(cfg, st)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Errorf("closing: %v", err)
		}
	}()
	if err := d.Attach(); err != nil {
		return fmt.Errorf("attaching: %w", err)
	}
	return d.Run(ctx)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Attach a driver instance and run until signalled",
	Run: func(_ *cobra.Command, _ []string) {
		cfg, err := prepareConfig(runConfigFlag)
		if err != nil {
			log.Fatal(err)
		}
		if err := cfg.SetLogLevel(); err != nil {
			log.Fatal(err)
		}
		if rootVerboseFlag {
			log.SetLevel(log.DebugLevel)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := runDaemon(ctx, cfg, runPrometheusFlag); err != nil {
			log.Fatal(err)
		}
	},
}
