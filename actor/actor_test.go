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
	"math/rand"
	"testing"

	"github.com/0xsoniclabs/shadowfuzz/balance"
	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/0xsoniclabs/shadowfuzz/devnet"
	"github.com/0xsoniclabs/shadowfuzz/logger"
	"github.com/0xsoniclabs/shadowfuzz/pools"
	"github.com/0xsoniclabs/shadowfuzz/simulation"
	"github.com/0xsoniclabs/shadowfuzz/staking"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func newTestActor(t *testing.T, name string, seed int64) *Actor {
	a, err := NewActor(name, rand.New(rand.NewSource(seed)), logger.NewLogger("critical", t.Name()))
	require.NoError(t, err)
	return a
}

type stakingFixture struct {
	chain                     *devnet.Chain
	env                       *pools.SimulationEnvironment
	staker, operator, keeper *Actor
}

func newStakingFixture(t *testing.T) *stakingFixture {
	ctx := context.Background()
	log := logger.NewLogger("critical", t.Name())
	cfg := devnet.DefaultConfig()
	chain := devnet.New(cfg, log)
	f := &stakingFixture{
		chain:    chain,
		staker:   newTestActor(t, "staker", 1),
		operator: newTestActor(t, "operator", 2),
		keeper:   newTestActor(t, "keeper", 3),
	}
	owners := []common.Address{f.staker.Address(), f.operator.Address(), f.keeper.Address()}
	for _, owner := range owners {
		require.NoError(t, chain.Mint(ctx, owner, balance.Native, u(1_000_000_000)))
	}
	require.NoError(t, chain.Mint(ctx, f.staker.Address(), cfg.StakingToken, u(1000)))

	snapshot := balance.NewBlockchainStore(chain, append(owners, devnet.VaultAddress),
		[]contract.AssetID{balance.Native, cfg.StakingToken})
	store, err := balance.NewLocalStoreFromSnapshot(ctx, snapshot)
	require.NoError(t, err)
	f.env, err = pools.NewSimulationEnvironment(ctx, chain.Staking(), store, snapshot, pools.Config{
		GasPrice:         cfg.GasPrice,
		MinimumPoolStake: cfg.MinimumPoolStake,
	}, log)
	require.NoError(t, err)
	return f
}

func TestActor_KeysAreDerivedFromNames(t *testing.T) {
	a := newTestActor(t, "alice", 1)
	b := newTestActor(t, "alice", 2)
	c := newTestActor(t, "carol", 1)
	assert.Equal(t, a.Address(), b.Address())
	assert.NotEqual(t, a.Address(), c.Address())
	assert.Equal(t, "alice", a.Name())

	_, err := NewActor("dave", nil, logger.NewLogger("critical", t.Name()))
	assert.Error(t, err)
}

func TestActor_AmountsAreWithinLimit(t *testing.T) {
	a := newTestActor(t, "alice", 1)
	assert.Nil(t, a.amount(nil))
	assert.Nil(t, a.amount(u(0)))
	seen := map[uint64]bool{}
	for range 200 {
		v := a.amount(u(3))
		require.NotNil(t, v)
		assert.True(t, v.Uint64() >= 1 && v.Uint64() <= 3)
		seen[v.Uint64()] = true
	}
	assert.Len(t, seen, 3)

	huge := new(uint256.Int).Lsh(u(1), 200)
	assert.NotNil(t, a.amount(huge))
}

func TestConfig_Validate(t *testing.T) {
	tests := map[string]struct {
		cfg   interface{ Validate() error }
		valid bool
	}{
		"maker":                   {MakerConfig{Assets: []contract.AssetID{"A"}, MaxAmount: 10}, true},
		"maker without assets":    {MakerConfig{MaxAmount: 10}, false},
		"maker without amount":    {MakerConfig{Assets: []contract.AssetID{"A"}}, false},
		"maker fee without asset": {MakerConfig{Assets: []contract.AssetID{"A"}, MaxAmount: 10, MaxFee: 1}, false},
		"taker with one maker":    {TakerConfig{Makers: []Maker{nil}}, false},
		"staker":                  {StakerConfig{}, true},
		"staker with zero limit":  {StakerConfig{MaxAmount: u(0)}, false},
		"operator":                {OperatorConfig{MaxPools: 1, MaxOperatorShare: staking.PPMDenominator}, true},
		"operator without pools":  {OperatorConfig{}, false},
		"operator share too high": {OperatorConfig{MaxPools: 1, MaxOperatorShare: staking.PPMDenominator + 1}, false},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := test.cfg.Validate()
			if test.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestStaker_StakesAndUnstakes(t *testing.T) {
	f := newStakingFixture(t)
	ctx := context.Background()
	s, err := NewStakerActor(f.staker, StakerConfig{}, f.env)
	require.NoError(t, err)

	outcome, err := s.Unstake(ctx)
	require.NoError(t, err)
	assert.Nil(t, outcome)

	outcome, err = s.Stake(ctx)
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.True(t, outcome.Success)
	assert.Equal(t, "validStake", outcome.Action)
	assert.Equal(t, "staker", outcome.Actor)
	assert.NotZero(t, outcome.GasUsed)

	outcome, err = s.Unstake(ctx)
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.True(t, outcome.Success)
}

func TestStaker_MovesStakeOnlyIfPoolsExist(t *testing.T) {
	f := newStakingFixture(t)
	ctx := context.Background()
	s, err := NewStakerActor(f.staker, StakerConfig{MaxAmount: u(500)}, f.env)
	require.NoError(t, err)
	_, err = s.Stake(ctx)
	require.NoError(t, err)

	outcome, err := s.MoveStake(ctx)
	require.NoError(t, err)
	assert.Nil(t, outcome)

	op, err := NewOperatorActor(f.operator, OperatorConfig{MaxPools: 1, MaxOperatorShare: 1000}, StakerConfig{}, f.env)
	require.NoError(t, err)
	_, err = op.CreateStakingPool(ctx)
	require.NoError(t, err)

	for range 10 {
		outcome, err = s.MoveStake(ctx)
		require.NoError(t, err)
		require.NotNil(t, outcome)
		assert.True(t, outcome.Success)
	}
}

func TestOperator_CreatesBoundedNumberOfPools(t *testing.T) {
	f := newStakingFixture(t)
	ctx := context.Background()
	op, err := NewOperatorActor(f.operator, OperatorConfig{MaxPools: 2, MaxOperatorShare: 500_000}, StakerConfig{}, f.env)
	require.NoError(t, err)

	outcome, err := op.DecreaseStakingPoolOperatorShare(ctx)
	require.NoError(t, err)
	assert.Nil(t, outcome)

	for range 2 {
		outcome, err = op.CreateStakingPool(ctx)
		require.NoError(t, err)
		require.NotNil(t, outcome)
		assert.True(t, outcome.Success)
	}
	outcome, err = op.CreateStakingPool(ctx)
	require.NoError(t, err)
	assert.Nil(t, outcome)

	for _, id := range f.env.PoolsOf(f.operator.Address()) {
		assert.LessOrEqual(t, f.env.StakingPools[id].OperatorShare, uint32(500_000))
	}
	for range 5 {
		outcome, err = op.DecreaseStakingPoolOperatorShare(ctx)
		require.NoError(t, err)
		require.NotNil(t, outcome)
		assert.True(t, outcome.Success)
	}
}

func TestKeeper_EndsEpochs(t *testing.T) {
	f := newStakingFixture(t)
	k := NewKeeperActor(f.keeper, f.env)
	for range 3 {
		outcome, err := k.EndEpoch(context.Background())
		require.NoError(t, err)
		require.NotNil(t, outcome)
		assert.True(t, outcome.Success)
	}
	assert.Equal(t, uint64(3), f.env.Epoch)
}

func TestRegister_AddsActionsOfAllParticipants(t *testing.T) {
	f := newStakingFixture(t)
	s, err := NewStakerActor(f.staker, StakerConfig{}, f.env)
	require.NoError(t, err)
	op, err := NewOperatorActor(f.operator, OperatorConfig{MaxPools: 1}, StakerConfig{}, f.env)
	require.NoError(t, err)
	k := NewKeeperActor(f.keeper, f.env)

	registry := simulation.NewRegistry()
	require.NoError(t, Register(registry, s, op, k))
	var names []string
	for _, a := range registry.Actions() {
		names = append(names, a.String())
	}
	assert.Equal(t, []string{
		"staker.validMoveStake", "staker.validStake", "staker.validUnstake",
		"operator.validCreateStakingPool", "operator.validDecreaseStakingPoolOperatorShare",
		"operator.validMoveStake", "operator.validStake", "operator.validUnstake",
		"keeper.validEndEpoch",
	}, names)
	assert.Error(t, Register(registry, k))
}
