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

package matching

import (
	"context"
	"crypto/ecdsa"
	"testing"

	"github.com/0xsoniclabs/shadowfuzz/balance"
	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/0xsoniclabs/shadowfuzz/devnet"
	"github.com/0xsoniclabs/shadowfuzz/exchange"
	"github.com/0xsoniclabs/shadowfuzz/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMaker struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func newTestMaker(t *testing.T, name string) testMaker {
	key, err := crypto.ToECDSA(crypto.Keccak256([]byte(name)))
	require.NoError(t, err)
	return testMaker{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

func (m testMaker) order(t *testing.T, makerAsset contract.AssetID, makerAmount uint64, takerAsset contract.AssetID, takerAmount uint64, salt uint64) exchange.SignedOrder {
	return m.sign(t, exchange.Order{
		MakerAddress:     m.addr,
		MakerAssetAmount: u(makerAmount),
		TakerAssetAmount: u(takerAmount),
		MakerFee:         u(0),
		TakerFee:         u(0),
		Salt:             salt,
		MakerAsset:       makerAsset,
		TakerAsset:       takerAsset,
		MakerFeeAsset:    assetF,
		TakerFeeAsset:    assetF,
	})
}

// orderWithFees charges both fees in the wrapped asset to testFeeRecipient.
func (m testMaker) orderWithFees(t *testing.T, makerAsset contract.AssetID, makerAmount uint64, takerAsset contract.AssetID, takerAmount uint64, makerFee, takerFee uint64) exchange.SignedOrder {
	return m.sign(t, exchange.Order{
		MakerAddress:        m.addr,
		FeeRecipientAddress: testFeeRecipient,
		MakerAssetAmount:    u(makerAmount),
		TakerAssetAmount:    u(takerAmount),
		MakerFee:            u(makerFee),
		TakerFee:            u(takerFee),
		Salt:                1,
		MakerAsset:          makerAsset,
		TakerAsset:          takerAsset,
		MakerFeeAsset:       devnet.DefaultWrappedAsset,
		TakerFeeAsset:       devnet.DefaultWrappedAsset,
	})
}

func (m testMaker) sign(t *testing.T, o exchange.Order) exchange.SignedOrder {
	s, err := exchange.Sign(o, m.key)
	require.NoError(t, err)
	return s
}

var testFeeRecipient = common.Address{0xfe}

type testerFixture struct {
	chain       *devnet.Chain
	tester      *MatchOrderTester
	left, right testMaker
	taker       common.Address
}

func newTesterFixture(t *testing.T) *testerFixture {
	ctx := context.Background()
	log := logger.NewLogger("Warning", t.Name())
	cfg := devnet.DefaultConfig()
	cfg.ProtocolFeeMultiplier = u(10)
	chain := devnet.New(cfg, log)

	f := &testerFixture{
		chain: chain,
		left:  newTestMaker(t, "left maker"),
		right: newTestMaker(t, "right maker"),
		taker: common.Address{0x7a},
	}
	require.NoError(t, chain.Mint(ctx, f.left.addr, assetA, u(1000)))
	require.NoError(t, chain.Mint(ctx, f.right.addr, assetB, u(1000)))
	require.NoError(t, chain.Mint(ctx, f.taker, balance.Native, u(10_000_000)))
	require.NoError(t, chain.Mint(ctx, f.taker, cfg.WrappedAsset, u(1000)))
	require.NoError(t, chain.Mint(ctx, f.left.addr, cfg.WrappedAsset, u(1000)))
	require.NoError(t, chain.Mint(ctx, f.right.addr, cfg.WrappedAsset, u(1000)))

	snapshot := balance.NewBlockchainStore(chain,
		[]common.Address{f.left.addr, f.right.addr, f.taker, devnet.StakingAddress, testFeeRecipient},
		[]contract.AssetID{assetA, assetB, assetF, balance.Native, cfg.WrappedAsset},
	)
	store, err := balance.NewLocalStoreFromSnapshot(ctx, snapshot)
	require.NoError(t, err)

	fees := ProtocolFees{
		Multiplier:   cfg.ProtocolFeeMultiplier,
		GasPrice:     cfg.GasPrice,
		Collector:    chain.Exchange().ProtocolFeeCollector(),
		WrappedAsset: cfg.WrappedAsset,
	}
	f.tester = NewMatchOrderTester(chain.Exchange(), store, snapshot, fees, log)
	return f
}

func TestMatchOrderTester_SimpleMatch(t *testing.T) {
	f := newTesterFixture(t)
	args := exchange.MatchOrdersArgs{
		Left:  f.left.order(t, assetA, 5, assetB, 10, 1),
		Right: f.right.order(t, assetB, 10, assetA, 2, 1),
		Taker: f.taker,
		Value: u(10),
	}
	res, err := f.tester.MatchOrders(context.Background(), args, Expectation{
		Amounts: &PartialMatchTransferAmounts{
			LeftMakerAssetSoldByLeftMakerAmount:    u(5),
			RightMakerAssetSoldByRightMakerAmount:  u(10),
			LeftMakerAssetBoughtByRightMakerAmount: u(2),
			LeftMakerAssetReceivedByTakerAmount:    u(3),
		},
		Expect: ExpectSuccess,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, u(3), f.tester.Store().BalanceOf(f.taker, assetA))
	// the value covers the first protocol fee only
	assert.Equal(t, u(10), f.tester.Store().BalanceOf(devnet.StakingAddress, balance.Native))
	assert.Equal(t, u(10), f.tester.Store().BalanceOf(devnet.StakingAddress, devnet.DefaultWrappedAsset))
}

func TestMatchOrderTester_SimpleMatchPaysAllFees(t *testing.T) {
	f := newTesterFixture(t)
	weth := devnet.DefaultWrappedAsset
	args := exchange.MatchOrdersArgs{
		Left:  f.left.orderWithFees(t, assetA, 5, assetB, 10, 1, 1),
		Right: f.right.orderWithFees(t, assetB, 10, assetA, 2, 2, 2),
		Taker: f.taker,
		Value: u(10),
	}
	res, err := f.tester.MatchOrders(context.Background(), args, Expectation{
		Amounts: &PartialMatchTransferAmounts{
			LeftMakerAssetSoldByLeftMakerAmount:    u(5),
			RightMakerAssetSoldByRightMakerAmount:  u(10),
			LeftMakerAssetBoughtByRightMakerAmount: u(2),
			LeftMakerAssetReceivedByTakerAmount:    u(3),

			LeftMakerFeeAssetPaidByLeftMakerAmount:   u(1),
			RightMakerFeeAssetPaidByRightMakerAmount: u(2),
			LeftTakerFeeAssetPaidByTakerAmount:       u(1),
			RightTakerFeeAssetPaidByTakerAmount:      u(2),
		},
		Expect: ExpectSuccess,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)

	store := f.tester.Store()
	assert.Equal(t, u(6), store.BalanceOf(testFeeRecipient, weth))
	assert.Equal(t, u(999), store.BalanceOf(f.left.addr, weth))
	assert.Equal(t, u(998), store.BalanceOf(f.right.addr, weth))
	// taker fees plus the protocol fee not covered by the value
	assert.Equal(t, u(1000-3-10), store.BalanceOf(f.taker, weth))
}

func TestMatchOrderTester_RoundingMatch(t *testing.T) {
	f := newTesterFixture(t)
	args := exchange.MatchOrdersArgs{
		Left:  f.left.order(t, assetA, 17, assetB, 98, 1),
		Right: f.right.order(t, assetB, 75, assetA, 13, 1),
		Taker: f.taker,
	}
	_, err := f.tester.MatchOrders(context.Background(), args, Expectation{
		Amounts: &PartialMatchTransferAmounts{
			LeftMakerAssetSoldByLeftMakerAmount:   u(13),
			RightMakerAssetSoldByRightMakerAmount: u(75),
		},
		Expect: ExpectSuccess,
	})
	require.NoError(t, err)
	assert.Equal(t, u(1000-13), f.tester.Store().BalanceOf(f.left.addr, assetA))
}

func TestMatchOrderTester_DerivesAmountsFromFillResults(t *testing.T) {
	f := newTesterFixture(t)
	args := exchange.MatchOrdersArgs{
		Left:    f.left.order(t, assetA, 10, assetB, 2, 1),
		Right:   f.right.order(t, assetB, 10, assetA, 5, 1),
		Taker:   f.taker,
		Maximal: true,
	}
	_, err := f.tester.MatchOrders(context.Background(), args, Expectation{Expect: ExpectSuccess})
	require.NoError(t, err)
	assert.Equal(t, u(5), f.tester.Store().BalanceOf(f.taker, assetA))
	assert.Equal(t, u(8), f.tester.Store().BalanceOf(f.taker, assetB))
}

func TestMatchOrderTester_WrongExpectationIsAViolation(t *testing.T) {
	f := newTesterFixture(t)
	args := exchange.MatchOrdersArgs{
		Left:  f.left.order(t, assetA, 5, assetB, 10, 1),
		Right: f.right.order(t, assetB, 10, assetA, 2, 1),
		Taker: f.taker,
	}
	_, err := f.tester.MatchOrders(context.Background(), args, Expectation{
		Amounts: &PartialMatchTransferAmounts{
			LeftMakerAssetSoldByLeftMakerAmount:   u(4),
			RightMakerAssetSoldByRightMakerAmount: u(10),
		},
		Expect: ExpectSuccess,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "left maker asset filled")
}

func TestMatchOrderTester_ExpectedFailure(t *testing.T) {
	f := newTesterFixture(t)
	args := exchange.MatchOrdersArgs{
		Left:  f.left.order(t, assetA, 1, assetB, 2, 1),
		Right: f.right.order(t, assetB, 1, assetA, 1, 1),
		Taker: f.taker,
	}
	res, err := f.tester.MatchOrders(context.Background(), args, Expectation{Expect: ExpectFailure, Err: devnet.ErrNegativeSpread})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, devnet.ErrNegativeSpread)

	_, err = f.tester.MatchOrders(context.Background(), args, Expectation{Expect: ExpectSuccess})
	assert.Error(t, err)

	_, err = f.tester.MatchOrders(context.Background(), args, Expectation{Expect: ExpectFailure, Err: devnet.ErrRoundingError})
	assert.Error(t, err)
}

func TestMatchOrderTester_BatchMatch(t *testing.T) {
	f := newTesterFixture(t)
	args := exchange.BatchMatchOrdersArgs{
		Left: []exchange.SignedOrder{
			f.left.order(t, assetA, 5, assetB, 10, 1),
			f.left.order(t, assetA, 5, assetB, 10, 2),
		},
		Right: []exchange.SignedOrder{
			f.right.order(t, assetB, 20, assetA, 4, 1),
		},
		Taker: f.taker,
		Value: u(30),
	}
	amounts := ToFullMatchTransferAmounts(PartialMatchTransferAmounts{
		LeftMakerAssetSoldByLeftMakerAmount:    u(5),
		RightMakerAssetSoldByRightMakerAmount:  u(10),
		LeftMakerAssetBoughtByRightMakerAmount: u(2),
		LeftMakerAssetReceivedByTakerAmount:    u(3),
	})
	pairs := []MatchedPair{
		{LeftIndex: 0, RightIndex: 0, Amounts: amounts},
		{LeftIndex: 1, RightIndex: 0, Amounts: amounts},
	}
	res, err := f.tester.BatchMatchOrders(context.Background(), args, pairs, Expectation{Expect: ExpectSuccess})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, u(6), f.tester.Store().BalanceOf(f.taker, assetA))
}
