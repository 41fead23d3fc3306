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

package assertion

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

// countingStep counts how often it was run.
type countingStep struct {
	runs int
	err  error
}

func (s *countingStep) Run(context.Context) error {
	s.runs++
	return s.err
}

func TestMetaAssertion_SequentialExecutesEveryStepOncePerPass(t *testing.T) {
	var order []int
	var steps []Step
	for i := range 4 {
		op := contract.Getter(func(_ context.Context, x int) (int, error) { return x, nil })
		a := NewFunctionAssertion("step", op, Condition[int, int, struct{}]{
			After: func(_ context.Context, _ struct{}, result Result[int], _ int) error {
				order = append(order, result.Value)
				return nil
			},
		})
		steps = append(steps, AssertionGenerator[int, int, struct{}]{
			Assertion: a,
			Generator: func() (int, error) { return i, nil },
		})
	}

	m := NewSequential(steps...)
	require.NoError(t, m.Execute(context.Background()))
	assert.Equal(t, []int{0, 1, 2, 3}, order)

	// the cursor is reset, so a second pass repeats the sequence
	require.NoError(t, m.Execute(context.Background()))
	assert.Equal(t, []int{0, 1, 2, 3, 0, 1, 2, 3}, order)
}

func TestMetaAssertion_SequentialIndexGenerator(t *testing.T) {
	a, b := &countingStep{}, &countingStep{}
	m := NewSequential(a, b)

	var indexes []int
	for range 6 {
		indexes = append(indexes, m.next())
	}
	assert.Equal(t, []int{0, 1, -1, 0, 1, -1}, indexes)
}

func TestMetaAssertion_EmptySequentialTerminates(t *testing.T) {
	assert.NoError(t, NewSequential().Execute(context.Background()))
}

func TestMetaAssertion_StopsOnFirstViolation(t *testing.T) {
	violation := &Violation{Field: "x", Want: 1, Have: 2}
	first := &countingStep{}
	failing := &countingStep{err: violation}
	last := &countingStep{}

	err := NewSequential(first, failing, last).Execute(context.Background())
	assert.ErrorIs(t, err, violation)
	assert.Equal(t, 1, first.runs)
	assert.Equal(t, 1, failing.runs)
	assert.Equal(t, 0, last.runs)
}

func TestMetaAssertion_GeneratorErrorIsReported(t *testing.T) {
	failure := errors.New("no arguments")
	op := contract.Getter(func(context.Context, int) (int, error) { return 0, nil })
	step := AssertionGenerator[int, int, struct{}]{
		Assertion: NewFunctionAssertion("op", op, Condition[int, int, struct{}]{}),
		Generator: func() (int, error) { return 0, failure },
	}
	err := NewSequential(step).Execute(context.Background())
	assert.ErrorIs(t, err, failure)
}

func TestMetaAssertion_InvalidIndexIsAnError(t *testing.T) {
	m := NewMetaAssertion([]Step{&countingStep{}}, func() int { return 3 })
	_, err := m.Step(context.Background())
	assert.Error(t, err)
}

func TestMetaAssertion_WeightedNeverTerminatesItself(t *testing.T) {
	step := &countingStep{}
	m := NewWeighted(rand.New(rand.NewSource(1)), WeightedStep{Step: step})
	for range 100 {
		done, err := m.Step(context.Background())
		require.NoError(t, err)
		require.False(t, done)
	}
	assert.Equal(t, 100, step.runs)
}

func TestMetaAssertion_WeightedExecuteStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	step := &cancellingStep{after: 50, cancel: cancel}
	m := NewWeighted(rand.New(rand.NewSource(1)), WeightedStep{Step: step, Weight: 2})

	err := m.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 50, step.runs)
}

type cancellingStep struct {
	runs   int
	after  int
	cancel func()
}

func (s *cancellingStep) Run(context.Context) error {
	s.runs++
	if s.runs == s.after {
		s.cancel()
	}
	return nil
}

func TestMetaAssertion_WeightedSamplingBias(t *testing.T) {
	light, heavy := &countingStep{}, &countingStep{}
	m := NewWeighted(rand.New(rand.NewSource(42)),
		WeightedStep{Step: light, Weight: 1},
		WeightedStep{Step: heavy, Weight: 3},
	)
	assert.Equal(t, 4, m.Len())

	const draws = 20_000
	for range draws {
		_, err := m.Step(context.Background())
		require.NoError(t, err)
	}

	share := float64(heavy.runs) / draws
	assert.InDelta(t, 0.75, share, 0.02)

	observed := []float64{float64(light.runs), float64(heavy.runs)}
	expected := []float64{0.25 * draws, 0.75 * draws}
	// critical value of the chi-square distribution with one degree of
	// freedom at a significance level of 0.001
	assert.Less(t, stat.ChiSquare(observed, expected), 10.83)
	assert.False(t, math.IsNaN(share))
}

func TestMetaAssertion_WeightBelowOneCountsAsOne(t *testing.T) {
	m := NewWeighted(rand.New(rand.NewSource(1)),
		WeightedStep{Step: &countingStep{}, Weight: 0},
		WeightedStep{Step: &countingStep{}, Weight: -4},
	)
	assert.Equal(t, 2, m.Len())
}
