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
	"math/rand"

	"github.com/0xsoniclabs/shadowfuzz/assertion"
	"github.com/cockroachdb/errors"
)

// ErrNoActions is returned by generators without any registered action.
var ErrNoActions = errors.New("no actions registered")

//go:generate mockgen -source generator.go -destination generator_mock.go -package simulation

// Generator produces the next step of a simulation.
type Generator interface {
	// Next runs one action. A nil outcome marks a no-op.
	Next(ctx context.Context) (*Outcome, error)
}

// Recorder persists the outcomes of a run.
type Recorder interface {
	Record(step int, outcome *Outcome) error
}

// UniformGenerator picks every registered action with the same probability.
type UniformGenerator struct {
	actions []NamedAction
	rg      *rand.Rand
}

// NewUniformGenerator creates a generator over the actions of registry.
func NewUniformGenerator(registry *Registry, rg *rand.Rand) *UniformGenerator {
	return &UniformGenerator{actions: registry.Actions(), rg: rg}
}

func (g *UniformGenerator) sample() NamedAction {
	return g.actions[g.rg.Intn(len(g.actions))]
}

func (g *UniformGenerator) Next(ctx context.Context) (*Outcome, error) {
	if len(g.actions) == 0 {
		return nil, ErrNoActions
	}
	return run(ctx, g.sample())
}

// MetaGenerator drives a weighted meta assertion whose steps are the
// registered actions.
type MetaGenerator struct {
	meta *assertion.MetaAssertion
	last *Outcome
}

// NewMetaGenerator creates a generator that picks actions with a probability
// proportional to the weight of their name. Unlisted actions weigh one.
func NewMetaGenerator(registry *Registry, rg *rand.Rand, weights map[string]int) *MetaGenerator {
	g := &MetaGenerator{}
	var steps []assertion.WeightedStep
	for _, a := range registry.Actions() {
		weight, found := weights[a.Name]
		if !found {
			weight = 1
		}
		steps = append(steps, assertion.WeightedStep{
			Step:   actionStep{action: a, last: &g.last},
			Weight: weight,
		})
	}
	g.meta = assertion.NewWeighted(rg, steps...)
	return g
}

func (g *MetaGenerator) Next(ctx context.Context) (*Outcome, error) {
	if g.meta.Len() == 0 {
		return nil, ErrNoActions
	}
	g.last = nil
	if _, err := g.meta.Step(ctx); err != nil {
		return nil, err
	}
	return g.last, nil
}

// actionStep adapts an action to a meta assertion step.
type actionStep struct {
	action NamedAction
	last   **Outcome
}

func (s actionStep) Run(ctx context.Context) error {
	outcome, err := run(ctx, s.action)
	*s.last = outcome
	return err
}
