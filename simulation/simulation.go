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

package simulation

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"slices"
	"time"

	"github.com/0xsoniclabs/shadowfuzz/logger"
	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
)

const defaultReportFrequency = 15 * time.Second

// ActionStatistics counts the outcomes of one action.
type ActionStatistics struct {
	Succeeded int
	Failed    int
	GasUsed   uint64
}

// Statistics summarize a run.
type Statistics struct {
	Steps   int
	NoOps   int
	Actions map[string]*ActionStatistics
}

func (s *Statistics) add(outcome *Outcome) {
	s.Steps++
	if outcome == nil {
		s.NoOps++
		return
	}
	stats, found := s.Actions[outcome.Action]
	if !found {
		stats = &ActionStatistics{}
		s.Actions[outcome.Action] = stats
	}
	if outcome.Success {
		stats.Succeeded++
	} else {
		stats.Failed++
	}
	stats.GasUsed += outcome.GasUsed
}

// Simulation pulls steps from a generator until a bound is reached or a step
// fails. Outcomes are discarded apart from statistics and the optional
// recorder.
type Simulation struct {
	generator       Generator
	recorder        Recorder
	log             logger.Logger
	trace           bool
	reportFrequency time.Duration
	stats           Statistics
}

// NewSimulation creates a simulation driven by generator.
func NewSimulation(generator Generator, log logger.Logger) *Simulation {
	return &Simulation{
		generator:       generator,
		log:             log,
		reportFrequency: defaultReportFrequency,
		stats:           Statistics{Actions: map[string]*ActionStatistics{}},
	}
}

// WithRecorder makes the simulation persist every outcome.
func (s *Simulation) WithRecorder(r Recorder) *Simulation {
	s.recorder = r
	return s
}

// WithTrace makes the simulation log every outcome.
func (s *Simulation) WithTrace(trace bool) *Simulation {
	s.trace = trace
	return s
}

// Fuzz runs the given number of steps. If steps is not positive, it runs until
// a step fails or ctx is done. Violations are returned unchanged.
func (s *Simulation) Fuzz(ctx context.Context, steps int) error {
	start := time.Now()
	ticker := time.NewTicker(s.reportFrequency)
	defer ticker.Stop()

	for i := 0; steps <= 0 || i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ticker.C:
			hours, minutes, seconds := logger.ParseTime(time.Since(start))
			s.log.Noticef("Elapsed time: %vh %vm %vs, steps %v, no-ops %v", hours, minutes, seconds, s.stats.Steps, s.stats.NoOps)
		default:
		}

		outcome, err := s.step(ctx)
		if err != nil {
			s.log.Errorf("step %v failed: %v", i, err)
			return err
		}
		s.stats.add(outcome)
		if s.trace && outcome != nil {
			s.log.Infof("step %v: %v", i, outcome)
		}
		if s.recorder != nil && outcome != nil {
			if err := s.recorder.Record(i, outcome); err != nil {
				return errors.Wrapf(err, "cannot record step %v", i)
			}
		}
	}
	hours, minutes, seconds := logger.ParseTime(time.Since(start))
	s.log.Noticef("Total elapsed time: %vh %vm %vs, steps %v", hours, minutes, seconds, s.stats.Steps)
	return nil
}

func (s *Simulation) step(ctx context.Context) (outcome *Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome, err = nil, NewPanicError(fmt.Sprint(r), debug.Stack())
		}
	}()
	return s.generator.Next(ctx)
}

// Statistics returns the statistics of the steps run so far.
func (s *Simulation) Statistics() Statistics {
	return s.stats
}

// PrintSummary renders the statistics as a table.
func (s *Simulation) PrintSummary(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"action", "succeeded", "failed", "gas used"})

	names := make([]string, 0, len(s.stats.Actions))
	for name := range s.stats.Actions {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		a := s.stats.Actions[name]
		t.AppendRow(table.Row{name, a.Succeeded, a.Failed, a.GasUsed})
	}
	t.AppendFooter(table.Row{"no-ops", s.stats.NoOps, "steps", s.stats.Steps})
	t.Render()
}
