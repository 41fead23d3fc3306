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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(outcome *Outcome) Action {
	return func(context.Context) (*Outcome, error) {
		if outcome == nil {
			return nil, nil
		}
		res := *outcome
		return &res, nil
	}
}

func TestRegistry_OrdersActionsOfAnActorByName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("bob", map[string]Action{
		"validUnstake": constant(nil),
		"validStake":   constant(nil),
	}))
	require.NoError(t, r.Register("alice", map[string]Action{
		"validEndEpoch": constant(nil),
	}))

	var names []string
	for _, a := range r.Actions() {
		names = append(names, a.String())
	}
	assert.Equal(t, []string{"bob.validStake", "bob.validUnstake", "alice.validEndEpoch"}, names)
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_RejectsDuplicateAndNilActions(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("bob", map[string]Action{"validStake": constant(nil)}))
	assert.Error(t, r.Register("bob", map[string]Action{"validStake": constant(nil)}))
	assert.Error(t, r.Register("carol", map[string]Action{"validStake": nil}))
	assert.NoError(t, r.Register("carol", map[string]Action{"validStake": constant(nil)}))
}

func TestRun_LabelsOutcomes(t *testing.T) {
	a := NamedAction{Actor: "bob", Name: "validStake", Run: constant(&Outcome{Success: true})}
	outcome, err := run(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, &Outcome{Actor: "bob", Action: "validStake", Success: true}, outcome)

	a.Run = constant(nil)
	outcome, err = run(context.Background(), a)
	require.NoError(t, err)
	assert.Nil(t, outcome)
}
