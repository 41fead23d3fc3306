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
	"testing"

	"github.com/0xsoniclabs/shadowfuzz/balance"
	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/0xsoniclabs/shadowfuzz/devnet"
	"github.com/0xsoniclabs/shadowfuzz/logger"
	"github.com/0xsoniclabs/shadowfuzz/matching"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	assetA contract.AssetID = "A"
	assetB contract.AssetID = "B"
)

var feeRecipient = common.Address{0xfe}

func TestMaker_SignsOrdersWithinBounds(t *testing.T) {
	m, err := NewMakerActor(newTestActor(t, "maker", 1), MakerConfig{
		Assets:        []contract.AssetID{assetA},
		MaxAmount:     10,
		MaxFee:        2,
		FeeRecipient:  feeRecipient,
		TakerFeeAsset: devnet.DefaultWrappedAsset,
	})
	require.NoError(t, err)
	assert.Equal(t, []contract.AssetID{assetA}, m.Assets())

	first, err := m.SignOrder(assetA, assetB)
	require.NoError(t, err)
	second, err := m.SignOrder(assetA, assetB)
	require.NoError(t, err)
	assert.NotEqual(t, first.Hash(), second.Hash())

	assert.Equal(t, assetA, first.MakerFeeAsset)
	assert.Equal(t, devnet.DefaultWrappedAsset, first.TakerFeeAsset)
	assert.True(t, first.MakerAssetAmount.Uint64() >= 1 && first.MakerAssetAmount.Uint64() <= 10)
	assert.LessOrEqual(t, first.MakerFee.Uint64(), uint64(2))

	signer, err := first.Signer()
	require.NoError(t, err)
	assert.Equal(t, m.Address(), signer)
}

func TestTaker_MatchesOrdersOfDifferentMakers(t *testing.T) {
	ctx := context.Background()
	log := logger.NewLogger("critical", t.Name())
	cfg := devnet.DefaultConfig()
	chain := devnet.New(cfg, log)

	makerCfg := func(asset contract.AssetID) MakerConfig {
		return MakerConfig{
			Assets:        []contract.AssetID{asset},
			MaxAmount:     20,
			MaxFee:        3,
			FeeRecipient:  feeRecipient,
			TakerFeeAsset: cfg.WrappedAsset,
		}
	}
	left, err := NewMakerActor(newTestActor(t, "left", 1), makerCfg(assetA))
	require.NoError(t, err)
	right, err := NewMakerActor(newTestActor(t, "right", 2), makerCfg(assetB))
	require.NoError(t, err)
	takerActor := newTestActor(t, "taker", 3)

	require.NoError(t, chain.Mint(ctx, left.Address(), assetA, u(10_000)))
	require.NoError(t, chain.Mint(ctx, right.Address(), assetB, u(10_000)))
	require.NoError(t, chain.Mint(ctx, takerActor.Address(), balance.Native, u(1_000_000_000)))
	require.NoError(t, chain.Mint(ctx, takerActor.Address(), cfg.WrappedAsset, u(100_000_000)))

	snapshot := balance.NewBlockchainStore(chain,
		[]common.Address{left.Address(), right.Address(), takerActor.Address(), feeRecipient, devnet.StakingAddress},
		[]contract.AssetID{assetA, assetB, balance.Native, cfg.WrappedAsset},
	)
	store, err := balance.NewLocalStoreFromSnapshot(ctx, snapshot)
	require.NoError(t, err)
	fee := new(uint256.Int).Mul(cfg.ProtocolFeeMultiplier, cfg.GasPrice)
	tester := matching.NewMatchOrderTester(chain.Exchange(), store, snapshot, matching.ProtocolFees{
		Multiplier:   cfg.ProtocolFeeMultiplier,
		GasPrice:     cfg.GasPrice,
		Collector:    chain.Exchange().ProtocolFeeCollector(),
		WrappedAsset: cfg.WrappedAsset,
	}, log)

	taker, err := NewTakerActor(takerActor, TakerConfig{Makers: []Maker{left, right}, ProtocolFee: fee}, tester)
	require.NoError(t, err)

	succeeded := 0
	for range 50 {
		outcome, err := taker.MatchOrders(ctx)
		require.NoError(t, err)
		require.NotNil(t, outcome)
		assert.Equal(t, "validMatchOrders", outcome.Action)
		if outcome.Success {
			succeeded++
		}
	}
	assert.NotZero(t, succeeded)
}

func TestTaker_NeedsComplementaryAssets(t *testing.T) {
	cfg := MakerConfig{Assets: []contract.AssetID{assetA}, MaxAmount: 1}
	left, err := NewMakerActor(newTestActor(t, "left", 1), cfg)
	require.NoError(t, err)
	right, err := NewMakerActor(newTestActor(t, "right", 2), cfg)
	require.NoError(t, err)

	taker, err := NewTakerActor(newTestActor(t, "taker", 3), TakerConfig{Makers: []Maker{left, right}}, nil)
	require.NoError(t, err)
	outcome, err := taker.MatchOrders(context.Background())
	require.NoError(t, err)
	assert.Nil(t, outcome)
}
