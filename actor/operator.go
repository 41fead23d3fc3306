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

// OperatorRole creates pools and lowers their operator share.
type OperatorRole struct {
	actor *Actor
	cfg   OperatorConfig
	env   *pools.SimulationEnvironment
}

// NewOperatorRole creates a pool operator role of actor in env.
func NewOperatorRole(actor *Actor, cfg OperatorConfig, env *pools.SimulationEnvironment) (*OperatorRole, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid operator config of %v", actor.Name())
	}
	return &OperatorRole{actor: actor, cfg: cfg, env: env}, nil
}

// CreateStakingPool creates a pool unless the operator runs enough already.
func (r *OperatorRole) CreateStakingPool(ctx context.Context) (*simulation.Outcome, error) {
	if len(r.env.PoolsOf(r.actor.address)) >= r.cfg.MaxPools {
		return nil, nil
	}
	share := uint32(r.actor.rg.Int63n(int64(r.cfg.MaxOperatorShare) + 1))
	info, err := r.env.CreateStakingPool().Execute(ctx, staking.CreateStakingPoolArgs{
		Operator:      r.actor.address,
		OperatorShare: share,
	})
	if err != nil {
		return nil, err
	}
	return outcomeOf(r.actor, "validCreateStakingPool", info.Result), nil
}

// DecreaseStakingPoolOperatorShare lowers the share of one of the operator's
// pools to at most its current value.
func (r *OperatorRole) DecreaseStakingPoolOperatorShare(ctx context.Context) (*simulation.Outcome, error) {
	owned := r.env.PoolsOf(r.actor.address)
	if len(owned) == 0 {
		return nil, nil
	}
	id := pick(r.actor.rg, owned)
	current := r.env.StakingPools[id].OperatorShare
	share := uint32(r.actor.rg.Int63n(int64(current) + 1))
	info, err := r.env.DecreaseStakingPoolOperatorShare().Execute(ctx, staking.DecreaseOperatorShareArgs{
		Operator: r.actor.address,
		PoolID:   id,
		Share:    share,
	})
	if err != nil {
		return nil, err
	}
	return outcomeOf(r.actor, "validDecreaseStakingPoolOperatorShare", info.Result), nil
}

func (r *OperatorRole) Actions() map[string]simulation.Action {
	return map[string]simulation.Action{
		"validCreateStakingPool":                r.CreateStakingPool,
		"validDecreaseStakingPoolOperatorShare": r.DecreaseStakingPoolOperatorShare,
	}
}

// OperatorActor runs pools and stakes into them.
type OperatorActor struct {
	*Actor
	*OperatorRole
	*StakerRole
}

// NewOperatorActor creates a pool operator in env.
func NewOperatorActor(actor *Actor, operatorCfg OperatorConfig, stakerCfg StakerConfig, env *pools.SimulationEnvironment) (*OperatorActor, error) {
	operator, err := NewOperatorRole(actor, operatorCfg, env)
	if err != nil {
		return nil, err
	}
	staker, err := NewStakerRole(actor, stakerCfg, env)
	if err != nil {
		return nil, err
	}
	return &OperatorActor{Actor: actor, OperatorRole: operator, StakerRole: staker}, nil
}

func (a *OperatorActor) Actions() map[string]simulation.Action {
	res := a.OperatorRole.Actions()
	for name, action := range a.StakerRole.Actions() {
		res[name] = action
	}
	return res
}

// KeeperRole ends epochs.
type KeeperRole struct {
	actor *Actor
	env   *pools.SimulationEnvironment
}

// NewKeeperRole creates a keeper role of actor in env.
func NewKeeperRole(actor *Actor, env *pools.SimulationEnvironment) *KeeperRole {
	return &KeeperRole{actor: actor, env: env}
}

// EndEpoch finalizes the current epoch. There is always something to do.
func (r *KeeperRole) EndEpoch(ctx context.Context) (*simulation.Outcome, error) {
	info, err := r.env.EndEpoch().Execute(ctx, staking.EndEpochArgs{Keeper: r.actor.address})
	if err != nil {
		return nil, err
	}
	return outcomeOf(r.actor, "validEndEpoch", info.Result), nil
}

func (r *KeeperRole) Actions() map[string]simulation.Action {
	return map[string]simulation.Action{
		"validEndEpoch": r.EndEpoch,
	}
}

// KeeperActor is an actor that only ends epochs.
type KeeperActor struct {
	*Actor
	*KeeperRole
}

// NewKeeperActor creates a keeper in env.
func NewKeeperActor(actor *Actor, env *pools.SimulationEnvironment) *KeeperActor {
	return &KeeperActor{Actor: actor, KeeperRole: NewKeeperRole(actor, env)}
}

func (a *KeeperActor) Actions() map[string]simulation.Action {
	return a.KeeperRole.Actions()
}
