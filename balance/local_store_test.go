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

package balance

import (
	"context"
	"testing"

	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"pgregory.net/rapid"
)

const (
	zrx  contract.AssetID = "ZRX"
	weth contract.AssetID = "WETH"
)

var (
	alice = common.Address{0xa}
	bob   = common.Address{0xb}
	carol = common.Address{0xc}
)

func seed() Balances {
	b := Balances{}
	b.Set(alice, zrx, uint256.NewInt(100))
	b.Set(alice, Native, uint256.NewInt(50))
	b.Set(bob, zrx, uint256.NewInt(20))
	return b
}

func TestLocalStore_TransferMovesFunds(t *testing.T) {
	s := NewLocalStore(seed())
	require.NoError(t, s.Transfer(alice, bob, uint256.NewInt(30), zrx))
	assert.Equal(t, uint256.NewInt(70), s.BalanceOf(alice, zrx))
	assert.Equal(t, uint256.NewInt(50), s.BalanceOf(bob, zrx))
	assert.Equal(t, uint256.NewInt(0), s.BalanceOf(carol, zrx))
}

func TestLocalStore_TransferToSelfKeepsBalance(t *testing.T) {
	s := NewLocalStore(seed())
	require.NoError(t, s.Transfer(alice, alice, uint256.NewInt(100), zrx))
	assert.Equal(t, uint256.NewInt(100), s.BalanceOf(alice, zrx))
}

func TestLocalStore_OverdraftIsRejectedWithoutSideEffects(t *testing.T) {
	s := NewLocalStore(seed())
	err := s.Transfer(bob, alice, uint256.NewInt(21), zrx)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, uint256.NewInt(20), s.BalanceOf(bob, zrx))
	assert.Equal(t, uint256.NewInt(100), s.BalanceOf(alice, zrx))
}

func TestLocalStore_SeedIsCopied(t *testing.T) {
	snapshot := seed()
	s := NewLocalStore(snapshot)
	require.NoError(t, s.Transfer(alice, bob, uint256.NewInt(1), zrx))
	assert.Equal(t, uint256.NewInt(100), snapshot.Get(alice, zrx))
}

func TestLocalStore_CloneIsIndependent(t *testing.T) {
	s := NewLocalStore(seed())
	c := s.Clone()
	require.NoError(t, c.Transfer(alice, bob, uint256.NewInt(10), zrx))
	require.NoError(t, c.BurnGas(alice, uint256.NewInt(5)))
	assert.Equal(t, uint256.NewInt(100), s.BalanceOf(alice, zrx))
	assert.True(t, s.Burned(Native).IsZero())
	assert.Equal(t, uint256.NewInt(5), c.Burned(Native))
}

func TestLocalStore_GasAndWrapping(t *testing.T) {
	s := NewLocalStore(seed())
	require.NoError(t, s.BurnGas(alice, uint256.NewInt(5)))
	require.NoError(t, s.Wrap(alice, weth, uint256.NewInt(20)))
	require.NoError(t, s.Unwrap(alice, weth, uint256.NewInt(4)))
	require.NoError(t, s.SendEth(alice, bob, uint256.NewInt(9)))

	assert.Equal(t, uint256.NewInt(20), s.BalanceOf(alice, Native))
	assert.Equal(t, uint256.NewInt(16), s.BalanceOf(alice, weth))
	assert.Equal(t, uint256.NewInt(9), s.BalanceOf(bob, Native))
	assert.Equal(t, uint256.NewInt(20), s.Minted(weth))
	assert.Equal(t, uint256.NewInt(4), s.Burned(weth))

	assert.ErrorIs(t, s.BurnGas(carol, uint256.NewInt(1)), ErrInsufficientBalance)
	assert.ErrorIs(t, s.Unwrap(bob, weth, uint256.NewInt(1)), ErrInsufficientBalance)
}

func TestBalances_AssertEqualsListsEveryMismatch(t *testing.T) {
	want := seed()
	have := seed()
	assert.NoError(t, want.AssertEquals(have))

	have.Set(alice, zrx, uint256.NewInt(99))
	have.Set(carol, weth, uint256.NewInt(1))
	err := want.AssertEquals(have)
	require.Error(t, err)
	assert.Contains(t, err.Error(), alice.Hex())
	assert.Contains(t, err.Error(), carol.Hex())
	assert.Contains(t, err.Error(), "have 99")
	assert.Contains(t, err.Error(), "want 100")
}

func TestBalances_ExplicitZeroEqualsMissingEntry(t *testing.T) {
	want := seed()
	have := seed()
	have.Set(carol, zrx, uint256.NewInt(0))
	assert.NoError(t, want.AssertEquals(have))
}

// Random sequences of transfers and gas burns keep the total supply of every
// asset equal to the seeded supply minus what was burned.
func TestLocalStore_TransfersConserveSupply(t *testing.T) {
	owners := []common.Address{alice, bob, carol}
	assets := []contract.AssetID{zrx, weth, Native}
	rapid.Check(t, func(t *rapid.T) {
		b := Balances{}
		for _, o := range owners {
			for _, a := range assets {
				b.Set(o, a, uint256.NewInt(rapid.Uint64Range(0, 1000).Draw(t, "seed")))
			}
		}
		s := NewLocalStore(b)
		steps := rapid.IntRange(0, 50).Draw(t, "steps")
		for range steps {
			from := owners[rapid.IntRange(0, 2).Draw(t, "from")]
			to := owners[rapid.IntRange(0, 2).Draw(t, "to")]
			asset := assets[rapid.IntRange(0, 2).Draw(t, "asset")]
			amount := uint256.NewInt(rapid.Uint64Range(0, 500).Draw(t, "amount"))
			var err error
			if rapid.Bool().Draw(t, "burn") {
				err = s.BurnGas(from, amount)
			} else {
				err = s.Transfer(from, to, amount, asset)
			}
			if err != nil && !errors.Is(err, ErrInsufficientBalance) {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		for _, a := range assets {
			want := new(uint256.Int).Sub(b.Sum(a), s.Burned(a))
			if got := s.Balances().Sum(a); got.Cmp(want) != 0 {
				t.Fatalf("supply of %v changed; want %v, have %v", a, want, got)
			}
		}
	})
}

func TestBlockchainStore_UpdateBalancesQueriesEveryPair(t *testing.T) {
	ctrl := gomock.NewController(t)
	querier := NewMockQuerier(ctrl)
	querier.EXPECT().BalanceOf(gomock.Any(), alice, zrx).Return(uint256.NewInt(1), nil)
	querier.EXPECT().BalanceOf(gomock.Any(), alice, Native).Return(uint256.NewInt(2), nil)
	querier.EXPECT().BalanceOf(gomock.Any(), bob, zrx).Return(uint256.NewInt(3), nil)
	querier.EXPECT().BalanceOf(gomock.Any(), bob, Native).Return(uint256.NewInt(4), nil)

	s := NewBlockchainStore(querier, []common.Address{alice}, []contract.AssetID{zrx, Native})
	s.Track(bob, alice)
	require.NoError(t, s.UpdateBalances(context.Background()))

	assert.Equal(t, uint256.NewInt(1), s.Balances().Get(alice, zrx))
	assert.Equal(t, uint256.NewInt(4), s.Balances().Get(bob, Native))
	assert.Len(t, s.Owners(), 2)
}

func TestBlockchainStore_QueryFailureIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	querier := NewMockQuerier(ctrl)
	failure := errors.New("connection refused")
	querier.EXPECT().BalanceOf(gomock.Any(), alice, zrx).Return(nil, failure)

	s := NewBlockchainStore(querier, []common.Address{alice}, []contract.AssetID{zrx})
	err := s.UpdateBalances(context.Background())
	assert.ErrorIs(t, err, failure)
}

func TestNewLocalStoreFromSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	snapshot := NewMockSnapshot(ctrl)
	gomock.InOrder(
		snapshot.EXPECT().UpdateBalances(gomock.Any()).Return(nil),
		snapshot.EXPECT().Balances().Return(seed()),
	)
	s, err := NewLocalStoreFromSnapshot(context.Background(), snapshot)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(100), s.BalanceOf(alice, zrx))
}
