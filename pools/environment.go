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

// Package pools keeps a model of the staking system and checks every staking
// operation against it. Stake becomes active with a delay of one epoch, so
// every modeled balance is a StoredBalance whose next value is the target of
// most mutations.
package pools

import (
	"context"
	"slices"

	"github.com/0xsoniclabs/shadowfuzz/balance"
	"github.com/0xsoniclabs/shadowfuzz/cache"
	"github.com/0xsoniclabs/shadowfuzz/logger"
	"github.com/0xsoniclabs/shadowfuzz/staking"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// PoolState is the modeled state of one staking pool.
type PoolState struct {
	Operator      common.Address
	OperatorShare uint32
	Delegated     staking.StoredBalance
	DelegatedBy   map[common.Address]staking.StoredBalance
}

// Config parameterizes the model.
type Config struct {
	GasPrice         *uint256.Int
	MinimumPoolStake *uint256.Int
}

// SimulationEnvironment is the expected state of the staking system together
// with the shadow ledger and the live deployment it mirrors. It is owned by
// a single driver and not safe for concurrent use.
type SimulationEnvironment struct {
	GlobalStake  map[staking.StakeStatus]staking.StoredBalance
	StakingPools map[common.Hash]*PoolState
	OwnerStake   map[common.Address]map[staking.StakeStatus]staking.StoredBalance
	Epoch        uint64

	cfg      Config
	store    *balance.LocalStore
	snapshot balance.Snapshot
	staking  staking.Staking
	log      logger.Logger

	epoch       *cache.Getter[struct{}, uint64]
	ownerStake  *cache.Getter[staking.OwnerStakeQuery, staking.StoredBalance]
	globalStake *cache.Getter[staking.StakeStatus, staking.StoredBalance]
	poolStake   *cache.Getter[common.Hash, staking.StoredBalance]
	poolByOwner *cache.Getter[staking.PoolStakeQuery, staking.StoredBalance]
	pools       *cache.Getter[common.Hash, staking.Pool]
}

// NewSimulationEnvironment creates a model of a staking system that holds no
// stake yet. The current epoch is taken from the deployment.
func NewSimulationEnvironment(ctx context.Context, deployment staking.Staking, store *balance.LocalStore, snapshot balance.Snapshot, cfg Config, log logger.Logger) (*SimulationEnvironment, error) {
	if cfg.GasPrice == nil {
		cfg.GasPrice = new(uint256.Int)
	}
	if cfg.MinimumPoolStake == nil {
		cfg.MinimumPoolStake = new(uint256.Int)
	}
	env := &SimulationEnvironment{
		GlobalStake:  map[staking.StakeStatus]staking.StoredBalance{},
		StakingPools: map[common.Hash]*PoolState{},
		OwnerStake:   map[common.Address]map[staking.StakeStatus]staking.StoredBalance{},
		cfg:          cfg,
		store:        store,
		snapshot:     snapshot,
		staking:      deployment,
		log:          log,
		epoch:        cache.NewGetter(deployment.CurrentEpoch()),
		ownerStake:   cache.NewGetter(deployment.OwnerStakeByStatus()),
		globalStake:  cache.NewGetter(deployment.GlobalStakeByStatus()),
		poolStake:    cache.NewGetter(deployment.TotalStakeDelegatedToPool()),
		poolByOwner:  cache.NewGetter(deployment.StakeDelegatedToPoolByOwner()),
		pools:        cache.NewGetter(deployment.StakingPool()),
	}
	epoch, err := env.epoch.Call(ctx, struct{}{})
	if err != nil {
		return nil, errors.Wrap(err, "cannot read current epoch")
	}
	env.Epoch = epoch
	return env, nil
}

// Store returns the shadow ledger.
func (e *SimulationEnvironment) Store() *balance.LocalStore {
	return e.store
}

// Staking returns the live staking system.
func (e *SimulationEnvironment) Staking() staking.Staking {
	return e.staking
}

// TokenBalance returns the modeled staking token balance of owner.
func (e *SimulationEnvironment) TokenBalance(owner common.Address) *uint256.Int {
	return e.store.BalanceOf(owner, e.staking.Token())
}

// StakeOf returns the stake of owner with the given status in the current epoch.
func (e *SimulationEnvironment) StakeOf(owner common.Address, status staking.StakeStatus) staking.StoredBalance {
	if b, ok := e.OwnerStake[owner][status]; ok {
		return b.Synced(e.Epoch)
	}
	return staking.NewStoredBalance(e.Epoch)
}

// GlobalStakeOf returns the total stake with the given status.
func (e *SimulationEnvironment) GlobalStakeOf(status staking.StakeStatus) staking.StoredBalance {
	if b, ok := e.GlobalStake[status]; ok {
		return b.Synced(e.Epoch)
	}
	return staking.NewStoredBalance(e.Epoch)
}

// Withdrawable returns the undelegated stake owner can unstake.
func (e *SimulationEnvironment) Withdrawable(owner common.Address) *uint256.Int {
	return e.StakeOf(owner, staking.Undelegated).Withdrawable(e.Epoch)
}

// DelegatedTo returns the stake owner delegated to a pool.
func (e *SimulationEnvironment) DelegatedTo(owner common.Address, id common.Hash) staking.StoredBalance {
	if pool, ok := e.StakingPools[id]; ok {
		if b, ok := pool.DelegatedBy[owner]; ok {
			return b.Synced(e.Epoch)
		}
	}
	return staking.NewStoredBalance(e.Epoch)
}

// Pools returns the ids of all pools in ascending order.
func (e *SimulationEnvironment) Pools() []common.Hash {
	res := make([]common.Hash, 0, len(e.StakingPools))
	for id := range e.StakingPools {
		res = append(res, id)
	}
	slices.SortFunc(res, func(a, b common.Hash) int { return a.Cmp(b) })
	return res
}

// PoolsOf returns the ids of the pools run by operator in ascending order.
func (e *SimulationEnvironment) PoolsOf(operator common.Address) []common.Hash {
	var res []common.Hash
	for _, id := range e.Pools() {
		if e.StakingPools[id].Operator == operator {
			res = append(res, id)
		}
	}
	return res
}

// DelegationsOf returns the pools owner has stake delegated to in the next
// epoch, in ascending order.
func (e *SimulationEnvironment) DelegationsOf(owner common.Address) []common.Hash {
	var res []common.Hash
	for _, id := range e.Pools() {
		if !e.DelegatedTo(owner, id).Next.IsZero() {
			res = append(res, id)
		}
	}
	return res
}

// ActivePools returns the number of pools that hold at least the minimum
// pool stake in the current epoch.
func (e *SimulationEnvironment) ActivePools() uint64 {
	active := uint64(0)
	for _, pool := range e.StakingPools {
		if !pool.Delegated.Synced(e.Epoch).Current.Lt(e.cfg.MinimumPoolStake) {
			active++
		}
	}
	return active
}

func (e *SimulationEnvironment) setOwnerStake(owner common.Address, status staking.StakeStatus, b staking.StoredBalance) {
	if _, ok := e.OwnerStake[owner]; !ok {
		e.OwnerStake[owner] = map[staking.StakeStatus]staking.StoredBalance{}
	}
	e.OwnerStake[owner][status] = b
}

// flush drops all cached live state; called after every operation.
func (e *SimulationEnvironment) flush() {
	cache.FlushAll(e.epoch, e.ownerStake, e.globalStake, e.poolStake, e.poolByOwner, e.pools)
}
