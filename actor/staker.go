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

package actor

import (
	"context"

	"github.com/0xsoniclabs/shadowfuzz/pools"
	"github.com/0xsoniclabs/shadowfuzz/simulation"
	"github.com/0xsoniclabs/shadowfuzz/staking"
	"github.com/cockroachdb/errors"
)

// StakerRole stakes, unstakes and delegates the stake of its actor.
type StakerRole struct {
	actor *Actor
	cfg   StakerConfig
	env   *pools.SimulationEnvironment
}

// NewStakerRole creates a staker role of actor in env.
func NewStakerRole(actor *Actor, cfg StakerConfig, env *pools.SimulationEnvironment) (*StakerRole, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid staker config of %v", actor.Name())
	}
	return &StakerRole{actor: actor, cfg: cfg, env: env}, nil
}

// Stake deposits part of the staking token balance.
func (r *StakerRole) Stake(ctx context.Context) (*simulation.Outcome, error) {
	amount := r.actor.amount(minOf(r.env.TokenBalance(r.actor.address), r.cfg.MaxAmount))
	if amount == nil {
		return nil, nil
	}
	info, err := r.env.Stake().Execute(ctx, staking.StakeArgs{Staker: r.actor.address, Amount: amount})
	if err != nil {
		return nil, err
	}
	return outcomeOf(r.actor, "validStake", info.Result), nil
}

// Unstake withdraws part of the withdrawable stake.
func (r *StakerRole) Unstake(ctx context.Context) (*simulation.Outcome, error) {
	amount := r.actor.amount(minOf(r.env.Withdrawable(r.actor.address), r.cfg.MaxAmount))
	if amount == nil {
		return nil, nil
	}
	info, err := r.env.Unstake().Execute(ctx, staking.UnstakeArgs{Staker: r.actor.address, Amount: amount})
	if err != nil {
		return nil, err
	}
	return outcomeOf(r.actor, "validUnstake", info.Result), nil
}

// MoveStake delegates undelegated stake, undelegates stake or moves it to
// another pool.
func (r *StakerRole) MoveStake(ctx context.Context) (*simulation.Outcome, error) {
	moves := r.moves()
	if len(moves) == 0 {
		return nil, nil
	}
	args := pick(r.actor.rg, moves)
	info, err := r.env.MoveStake().Execute(ctx, args)
	if err != nil {
		return nil, err
	}
	return outcomeOf(r.actor, "validMoveStake", info.Result), nil
}

// moves lists one candidate move per source of stake.
func (r *StakerRole) moves() []staking.MoveStakeArgs {
	var res []staking.MoveStakeArgs
	owner := r.actor.address
	poolIDs := r.env.Pools()

	undelegated := r.env.StakeOf(owner, staking.Undelegated).Next
	if amount := r.actor.amount(minOf(undelegated, r.cfg.MaxAmount)); amount != nil && len(poolIDs) > 0 {
		res = append(res, staking.MoveStakeArgs{
			Staker: owner,
			From:   staking.StakeInfo{Status: staking.Undelegated},
			To:     staking.StakeInfo{Status: staking.Delegated, PoolID: pick(r.actor.rg, poolIDs)},
			Amount: amount,
		})
	}
	for _, id := range r.env.DelegationsOf(owner) {
		amount := r.actor.amount(minOf(r.env.DelegatedTo(owner, id).Next, r.cfg.MaxAmount))
		to := staking.StakeInfo{Status: staking.Undelegated}
		if other := pick(r.actor.rg, poolIDs); other != id && r.actor.rg.Intn(2) == 0 {
			to = staking.StakeInfo{Status: staking.Delegated, PoolID: other}
		}
		res = append(res, staking.MoveStakeArgs{
			Staker: owner,
			From:   staking.StakeInfo{Status: staking.Delegated, PoolID: id},
			To:     to,
			Amount: amount,
		})
	}
	return res
}

func (r *StakerRole) Actions() map[string]simulation.Action {
	return map[string]simulation.Action{
		"validStake":     r.Stake,
		"validUnstake":   r.Unstake,
		"validMoveStake": r.MoveStake,
	}
}

// StakerActor is an actor that only manages stake.
type StakerActor struct {
	*Actor
	*StakerRole
}

// NewStakerActor creates a staker in env.
func NewStakerActor(actor *Actor, cfg StakerConfig, env *pools.SimulationEnvironment) (*StakerActor, error) {
	role, err := NewStakerRole(actor, cfg, env)
	if err != nil {
		return nil, err
	}
	return &StakerActor{Actor: actor, StakerRole: role}, nil
}

func (a *StakerActor) Actions() map[string]simulation.Action {
	return a.StakerRole.Actions()
}
