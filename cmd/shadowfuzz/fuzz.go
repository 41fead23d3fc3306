// Copyright 2025 Sonic Labs
// This file is part of Shadowfuzz, a verification framework for Sonic
//
// Shadowfuzz is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Shadowfuzz is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Shadowfuzz. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xsoniclabs/shadowfuzz/campaign"
	"github.com/0xsoniclabs/shadowfuzz/config"
	"github.com/0xsoniclabs/shadowfuzz/logger"
	"github.com/0xsoniclabs/shadowfuzz/register"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"
)

// RunFuzz builds the configured campaign and fuzzes it until the step bound,
// an interrupt or the first violation.
func RunFuzz(ctx *cli.Context) error {
	cfg, err := config.NewConfig(ctx)
	if err != nil {
		return err
	}
	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(runCtx, cfg, os.Stdout)
}

// run is factored out of RunFuzz to be testable without a cli.Context.
func run(ctx context.Context, cfg *config.Config, out io.Writer) (err error) {
	log := logger.NewLogger(cfg.LogLevel, "Shadowfuzz")

	c, err := campaign.New(ctx, cfg, log)
	if errors.Is(err, context.Canceled) {
		log.Warning("Interrupted while building campaign")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "cannot build campaign")
	}
	if cfg.RegisterRun != "" {
		registry, err := register.NewRunRegistry(cfg.RegisterRun, cfg)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, registry.Close())
		}()
		c.Simulation.WithRecorder(registry)
		log.Noticef("Registering run %d in %v", registry.Run(), cfg.RegisterRun)
	}

	err = c.Fuzz(ctx, cfg.Steps)
	c.Simulation.PrintSummary(out)
	if errors.Is(err, context.Canceled) {
		log.Warning("Fuzzing interrupted")
		return nil
	}
	if err != nil {
		log.Errorf("Campaign %v failed; rerun with --random-seed %d to reproduce", c.Name, cfg.RandomSeed)
		return err
	}
	return nil
}
