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

// Package simulation drives randomized actions of simulated actors against a
// system under test. Each action checks its own outcome; the driver only
// picks actions, bounds the run and keeps statistics.
package simulation

import (
	"context"
	"fmt"
	"slices"

	"github.com/cockroachdb/errors"
)

// Outcome summarizes one executed action.
type Outcome struct {
	Actor   string
	Action  string
	Success bool
	Err     error // error of a rejected operation
	GasUsed uint64
}

func (o *Outcome) String() string {
	if o.Success {
		return fmt.Sprintf("%v.%v succeeded, gas %v", o.Actor, o.Action, o.GasUsed)
	}
	return fmt.Sprintf("%v.%v failed: %v", o.Actor, o.Action, o.Err)
}

// Action performs one randomized operation. It returns a nil outcome if the
// actor has nothing valid to do.
type Action func(ctx context.Context) (*Outcome, error)

// NamedAction is an action registered by an actor.
type NamedAction struct {
	Actor string
	Name  string
	Run   Action
}

func (a NamedAction) String() string {
	return a.Actor + "." + a.Name
}

// Registry collects the actions of all actors of a simulation.
type Registry struct {
	actions []NamedAction
	known   map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{known: map[string]struct{}{}}
}

// Register adds the actions of actor. Actors keep their registration order,
// the actions of one actor are ordered by name so that a seeded run is
// reproducible.
func (r *Registry) Register(actor string, actions map[string]Action) error {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		a := NamedAction{Actor: actor, Name: name, Run: actions[name]}
		if a.Run == nil {
			return errors.Newf("action %v is nil", a)
		}
		if _, found := r.known[a.String()]; found {
			return errors.Newf("action %v is already registered", a)
		}
		r.known[a.String()] = struct{}{}
		r.actions = append(r.actions, a)
	}
	return nil
}

// Actions returns all registered actions.
func (r *Registry) Actions() []NamedAction {
	return slices.Clone(r.actions)
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	return len(r.actions)
}

// run executes a and labels its outcome.
func run(ctx context.Context, a NamedAction) (*Outcome, error) {
	outcome, err := a.Run(ctx)
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		if outcome.Actor == "" {
			outcome.Actor = a.Actor
		}
		if outcome.Action == "" {
			outcome.Action = a.Name
		}
	}
	return outcome, nil
}
