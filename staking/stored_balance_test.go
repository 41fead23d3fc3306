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

package staking

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoredBalance_SyncMovesNextToCurrent(t *testing.T) {
	b := NewStoredBalance(3).IncreaseNext(3, uint256.NewInt(10))
	assert.True(t, b.Current.IsZero())

	same := b.Synced(3)
	assert.True(t, same.Current.IsZero())

	later := b.Synced(5)
	assert.Equal(t, uint64(5), later.Epoch)
	assert.Equal(t, uint256.NewInt(10), later.Current)
	assert.Equal(t, uint256.NewInt(10), later.Next)
}

func TestStoredBalance_SyncDoesNotMutateReceiver(t *testing.T) {
	b := NewStoredBalance(1).IncreaseNext(1, uint256.NewInt(4))
	_ = b.Synced(2)
	assert.Equal(t, uint64(1), b.Epoch)
	assert.True(t, b.Current.IsZero())
}

func TestStoredBalance_DecreaseNextUnderflow(t *testing.T) {
	b := NewStoredBalance(0).IncreaseCurrentAndNext(0, uint256.NewInt(5))
	_, err := b.DecreaseNext(0, uint256.NewInt(6))
	assert.ErrorIs(t, err, ErrInsufficientStake)

	res, err := b.DecreaseNext(0, uint256.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(5), res.Current)
	assert.True(t, res.Next.IsZero())
}

func TestStoredBalance_Withdrawable(t *testing.T) {
	b := NewStoredBalance(0).IncreaseCurrentAndNext(0, uint256.NewInt(8))
	b, err := b.DecreaseNext(0, uint256.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(5), b.Withdrawable(0))

	b = b.IncreaseNext(0, uint256.NewInt(10))
	assert.Equal(t, uint256.NewInt(8), b.Withdrawable(0))
	assert.Equal(t, uint256.NewInt(15), b.Withdrawable(1))
}

func TestStoredBalance_EqualTreatsNilAsZero(t *testing.T) {
	assert.True(t, StoredBalance{Epoch: 2}.Equal(NewStoredBalance(2)))
	assert.False(t, StoredBalance{Epoch: 1}.Equal(NewStoredBalance(2)))
}

func TestStakeInfo_String(t *testing.T) {
	assert.Equal(t, "undelegated", StakeInfo{Status: Undelegated}.String())
	assert.Contains(t, StakeInfo{Status: Delegated}.String(), "delegated(")
	assert.Equal(t, "status(7)", StakeStatus(7).String())
}
