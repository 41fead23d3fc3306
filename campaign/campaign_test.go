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

package campaign

import (
	"context"
	"testing"

	"github.com/0xsoniclabs/shadowfuzz/config"
	"github.com/0xsoniclabs/shadowfuzz/devnet"
	"github.com/0xsoniclabs/shadowfuzz/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(campaign, policy string) *config.Config {
	cfg := config.Default()
	cfg.Campaign = campaign
	cfg.Policy = policy
	cfg.LogLevel = "critical"
	return cfg
}

func TestCampaign_FuzzWithoutViolations(t *testing.T) {
	campaigns := []string{config.StakeCampaign, config.PoolCampaign, config.MatchCampaign, config.CombinedCampaign}
	policies := []string{config.UniformPolicy, config.WeightedPolicy}
	for _, name := range campaigns {
		for _, policy := range policies {
			t.Run(name+"/"+policy, func(t *testing.T) {
				cfg := testConfig(name, policy)
				c, err := New(context.Background(), cfg, logger.NewLogger(cfg.LogLevel, t.Name()))
				require.NoError(t, err)
				require.NoError(t, c.Fuzz(context.Background(), 300))

				stats := c.Simulation.Statistics()
				assert.Equal(t, 300, stats.Steps)
				assert.NotEmpty(t, stats.Actions)
			})
		}
	}
}

func TestCampaign_RegistersActionsOfItsActors(t *testing.T) {
	tests := map[string]struct {
		campaign string
		want     []string
		unwanted []string
	}{
		"stake": {
			campaign: config.StakeCampaign,
			want:     []string{"validStake", "validUnstake", "validMoveStake", "validEndEpoch"},
			unwanted: []string{"validCreateStakingPool", "validMatchOrders"},
		},
		"pool": {
			campaign: config.PoolCampaign,
			want:     []string{"validCreateStakingPool", "validDecreaseStakingPoolOperatorShare", "validEndEpoch"},
			unwanted: []string{"validMatchOrders"},
		},
		"match": {
			campaign: config.MatchCampaign,
			want:     []string{"validMatchOrders"},
			unwanted: []string{"validStake", "validEndEpoch"},
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(test.campaign, config.UniformPolicy)
			c, err := New(context.Background(), cfg, logger.NewLogger(cfg.LogLevel, t.Name()))
			require.NoError(t, err)
			names := map[string]bool{}
			for _, a := range c.Registry.Actions() {
				names[a.Name] = true
			}
			for _, name := range test.want {
				assert.True(t, names[name], "missing %v", name)
			}
			for _, name := range test.unwanted {
				assert.False(t, names[name], "unexpected %v", name)
			}
		})
	}
}

func TestCampaign_SeededRunsAreReproducible(t *testing.T) {
	run := func() *Campaign {
		cfg := testConfig(config.CombinedCampaign, config.WeightedPolicy)
		cfg.RandomSeed = 42
		cfg.Weights = map[string]int{"validMatchOrders": 4}
		c, err := New(context.Background(), cfg, logger.NewLogger(cfg.LogLevel, t.Name()))
		require.NoError(t, err)
		require.NoError(t, c.Fuzz(context.Background(), 200))
		return c
	}
	a, b := run(), run()
	assert.Equal(t, a.Simulation.Statistics(), b.Simulation.Statistics())
	assert.NoError(t, a.Store.AssertEquals(b.Store.Balances()))
}

func TestCampaign_ConservesStakingToken(t *testing.T) {
	cfg := testConfig(config.PoolCampaign, config.UniformPolicy)
	c, err := New(context.Background(), cfg, logger.NewLogger(cfg.LogLevel, t.Name()))
	require.NoError(t, err)
	require.NoError(t, c.Fuzz(context.Background(), 500))

	holders := uint64(cfg.NumStakers + cfg.NumOperators)
	want := new(uint256.Int).Mul(uint256.NewInt(cfg.InitialBalance), uint256.NewInt(holders))
	assert.Equal(t, want, c.Store.Balances().Sum(devnet.DefaultStakingToken))
}

func TestCampaign_TracksActorsAndDeploymentAccounts(t *testing.T) {
	tests := map[string]struct {
		campaign string
		actors   int
		want     []common.Address
	}{
		"stake": {config.StakeCampaign, 3 + 1, []common.Address{devnet.VaultAddress}},
		"match": {config.MatchCampaign, 2 + 1, []common.Address{FeeRecipient, devnet.StakingAddress}},
		"combined": {config.CombinedCampaign, 3 + 2 + 1 + 2 + 1, []common.Address{devnet.VaultAddress, FeeRecipient, devnet.StakingAddress}},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(test.campaign, config.UniformPolicy)
			c, err := New(context.Background(), cfg, logger.NewLogger(cfg.LogLevel, t.Name()))
			require.NoError(t, err)
			owners := c.Snapshot.Owners()
			assert.Len(t, owners, test.actors+len(test.want))
			assert.Subset(t, owners, test.want)
			assert.NotContains(t, owners, devnet.WethAddress)
		})
	}
}

func TestCampaign_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(config.MatchCampaign, config.UniformPolicy)
	cfg.NumMakers = 1
	_, err := New(context.Background(), cfg, logger.NewLogger(cfg.LogLevel, t.Name()))
	assert.Error(t, err)

	cfg = testConfig("unknown", config.UniformPolicy)
	_, err = New(context.Background(), cfg, logger.NewLogger(cfg.LogLevel, t.Name()))
	assert.Error(t, err)
}
