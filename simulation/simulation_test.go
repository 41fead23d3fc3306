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
	"bytes"
	"context"
	"testing"

	"github.com/0xsoniclabs/shadowfuzz/assertion"
	"github.com/0xsoniclabs/shadowfuzz/logger"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSimulation_FuzzRunsExactlyTheGivenSteps(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := NewMockGenerator(ctrl)
	stake := &Outcome{Actor: "bob", Action: "validStake", Success: true, GasUsed: 10}
	failed := &Outcome{Actor: "bob", Action: "validStake", Err: errors.New("insufficient")}
	gomock.InOrder(
		gen.EXPECT().Next(gomock.Any()).Return(stake, nil),
		gen.EXPECT().Next(gomock.Any()).Return(nil, nil),
		gen.EXPECT().Next(gomock.Any()).Return(failed, nil),
	)

	s := NewSimulation(gen, logger.NewLogger("critical", t.Name()))
	require.NoError(t, s.Fuzz(context.Background(), 3))

	stats := s.Statistics()
	assert.Equal(t, 3, stats.Steps)
	assert.Equal(t, 1, stats.NoOps)
	assert.Equal(t, &ActionStatistics{Succeeded: 1, Failed: 1, GasUsed: 10}, stats.Actions["validStake"])
}

func TestSimulation_ViolationsPropagateUnchanged(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := NewMockGenerator(ctrl)
	violation := &assertion.Violation{Field: "balance", Want: 1, Have: 2}
	gen.EXPECT().Next(gomock.Any()).Return(nil, nil)
	gen.EXPECT().Next(gomock.Any()).Return(nil, violation)

	s := NewSimulation(gen, logger.NewLogger("critical", t.Name()))
	err := s.Fuzz(context.Background(), 0)
	assert.Same(t, violation, err)
	assert.Equal(t, 1, s.Statistics().Steps)
}

func TestSimulation_RecoversPanics(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := NewMockGenerator(ctrl)
	gen.EXPECT().Next(gomock.Any()).DoAndReturn(func(context.Context) (*Outcome, error) {
		panic("boom")
	})

	s := NewSimulation(gen, logger.NewLogger("critical", t.Name()))
	err := s.Fuzz(context.Background(), 1)
	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Contains(t, err.Error(), "boom")
}

func TestSimulation_StopsWhenContextIsDone(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := NewMockGenerator(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	gen.EXPECT().Next(gomock.Any()).DoAndReturn(func(context.Context) (*Outcome, error) {
		cancel()
		return nil, nil
	})

	s := NewSimulation(gen, logger.NewLogger("critical", t.Name()))
	assert.ErrorIs(t, s.Fuzz(ctx, 0), context.Canceled)
	assert.Equal(t, 1, s.Statistics().NoOps)
}

func TestSimulation_RecordsOutcomes(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := NewMockGenerator(ctrl)
	rec := NewMockRecorder(ctrl)
	stake := &Outcome{Actor: "bob", Action: "validStake", Success: true}
	gen.EXPECT().Next(gomock.Any()).Return(nil, nil)
	gen.EXPECT().Next(gomock.Any()).Return(stake, nil)
	rec.EXPECT().Record(1, stake).Return(nil)

	s := NewSimulation(gen, logger.NewLogger("critical", t.Name())).WithRecorder(rec)
	require.NoError(t, s.Fuzz(context.Background(), 2))
}

func TestSimulation_RecorderErrorsStopTheRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := NewMockGenerator(ctrl)
	rec := NewMockRecorder(ctrl)
	gen.EXPECT().Next(gomock.Any()).Return(&Outcome{Action: "validStake"}, nil)
	rec.EXPECT().Record(0, gomock.Any()).Return(errors.New("disk full"))

	s := NewSimulation(gen, logger.NewLogger("critical", t.Name())).WithRecorder(rec)
	assert.ErrorContains(t, s.Fuzz(context.Background(), 5), "disk full")
}

func TestSimulation_PrintSummary(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := NewMockGenerator(ctrl)
	gen.EXPECT().Next(gomock.Any()).Return(&Outcome{Action: "validEndEpoch", Success: true, GasUsed: 21}, nil)

	s := NewSimulation(gen, logger.NewLogger("critical", t.Name()))
	require.NoError(t, s.Fuzz(context.Background(), 1))

	var out bytes.Buffer
	s.PrintSummary(&out)
	assert.Contains(t, out.String(), "validEndEpoch")
	assert.Contains(t, out.String(), "21")
}
