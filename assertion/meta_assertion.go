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
	"math/rand"

	"github.com/cockroachdb/errors"
)

// Step executes one assertion with freshly generated arguments.
type Step interface {
	Run(ctx context.Context) error
}

// AssertionGenerator pairs an assertion with a producer of fresh arguments.
type AssertionGenerator[A any, R any, B any] struct {
	Assertion *FunctionAssertion[A, R, B]
	Generator func() (A, error)
}

// Run generates arguments and executes the assertion with them.
func (g AssertionGenerator[A, R, B]) Run(ctx context.Context) error {
	args, err := g.Generator()
	if err != nil {
		return errors.Wrapf(err, "cannot generate arguments of %v", g.Assertion.Name())
	}
	_, err = g.Assertion.Execute(ctx, args)
	return err
}

// IndexGenerator selects the next step. A negative index terminates the pass.
type IndexGenerator func() int

// MetaAssertion drives a list of steps in the order chosen by its index generator.
type MetaAssertion struct {
	steps []Step
	next  IndexGenerator
}

// NewMetaAssertion creates a meta assertion with a custom index generator.
func NewMetaAssertion(steps []Step, next IndexGenerator) *MetaAssertion {
	return &MetaAssertion{steps: steps, next: next}
}

// NewSequential executes every step exactly once per pass, in order.
func NewSequential(steps ...Step) *MetaAssertion {
	idx := 0
	return NewMetaAssertion(steps, func() int {
		if idx < len(steps) {
			idx++
			return idx - 1
		}
		idx = 0
		return -1
	})
}

// WeightedStep is a step with a selection weight. Weights below one count as one.
type WeightedStep struct {
	Step   Step
	Weight int
}

// NewWeighted selects steps at random with a probability proportional to their
// weight. It never terminates on its own.
func NewWeighted(rg *rand.Rand, weighted ...WeightedStep) *MetaAssertion {
	var expanded []Step
	for _, w := range weighted {
		for range max(w.Weight, 1) {
			expanded = append(expanded, w.Step)
		}
	}
	return NewMetaAssertion(expanded, func() int {
		return rg.Intn(len(expanded))
	})
}

// Len returns the number of (expanded) steps.
func (m *MetaAssertion) Len() int {
	return len(m.steps)
}

// Step pulls one index and runs the selected step. It reports done when the
// index generator signals the end of a pass.
func (m *MetaAssertion) Step(ctx context.Context) (bool, error) {
	if len(m.steps) == 0 {
		return true, nil
	}
	idx := m.next()
	if idx < 0 {
		return true, nil
	}
	if idx >= len(m.steps) {
		return false, errors.Newf("index generator returned %d for %d steps", idx, len(m.steps))
	}
	return false, m.steps[idx].Run(ctx)
}

// Execute runs steps until the index generator signals termination, a step
// fails or the context is done.
func (m *MetaAssertion) Execute(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := m.Step(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}
