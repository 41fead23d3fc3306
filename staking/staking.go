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

// Package staking describes the staking API of the system under test.
// Stake is kept in epoch-delayed balances: changes to delegated stake only
// become active in the next epoch.
package staking

import (
	"fmt"

	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// PPMDenominator is the denominator of operator shares in parts per million.
const PPMDenominator = 1_000_000

// StakeStatus is the status of a stake balance.
type StakeStatus uint8

const (
	Undelegated StakeStatus = iota
	Delegated
)

// StakeStatuses lists all statuses.
var StakeStatuses = []StakeStatus{Undelegated, Delegated}

func (s StakeStatus) String() string {
	switch s {
	case Undelegated:
		return "undelegated"
	case Delegated:
		return "delegated"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// StakeInfo locates a stake balance. PoolID is only meaningful for delegated stake.
type StakeInfo struct {
	Status StakeStatus
	PoolID common.Hash
}

func (i StakeInfo) String() string {
	if i.Status == Delegated {
		return fmt.Sprintf("delegated(%v)", i.PoolID.TerminalString())
	}
	return i.Status.String()
}

// Pool is the public state of a staking pool.
type Pool struct {
	Operator      common.Address
	OperatorShare uint32
}

// StakeArgs deposits Amount of the staking token of Staker as undelegated stake.
type StakeArgs struct {
	Staker common.Address
	Amount *uint256.Int
}

// UnstakeArgs withdraws Amount of undelegated stake of Staker.
type UnstakeArgs struct {
	Staker common.Address
	Amount *uint256.Int
}

// MoveStakeArgs moves Amount of stake of Staker between two stake locations.
type MoveStakeArgs struct {
	Staker common.Address
	From   StakeInfo
	To     StakeInfo
	Amount *uint256.Int
}

// CreateStakingPoolArgs creates a pool operated by Operator.
type CreateStakingPoolArgs struct {
	Operator      common.Address
	OperatorShare uint32
}

// DecreaseOperatorShareArgs lowers the operator share of a pool.
type DecreaseOperatorShareArgs struct {
	Operator common.Address
	PoolID   common.Hash
	Share    uint32
}

// EndEpochArgs ends the current epoch.
type EndEpochArgs struct {
	Keeper common.Address
}

// OwnerStakeQuery selects the stake of an owner by status.
type OwnerStakeQuery struct {
	Owner  common.Address
	Status StakeStatus
}

// PoolStakeQuery selects the stake an owner delegated to a pool.
type PoolStakeQuery struct {
	Owner  common.Address
	PoolID common.Hash
}

// Staking is the staking API of the system under test. Getters return
// balances synchronized to the current epoch.
type Staking interface {
	Stake() contract.Operation[StakeArgs, struct{}]
	Unstake() contract.Operation[UnstakeArgs, struct{}]
	MoveStake() contract.Operation[MoveStakeArgs, struct{}]
	CreateStakingPool() contract.Operation[CreateStakingPoolArgs, common.Hash]
	DecreaseStakingPoolOperatorShare() contract.Operation[DecreaseOperatorShareArgs, struct{}]
	// EndEpoch returns the number of pools that hold at least the minimum
	// pool stake in the new epoch.
	EndEpoch() contract.Operation[EndEpochArgs, uint64]

	CurrentEpoch() contract.Caller[struct{}, uint64]
	OwnerStakeByStatus() contract.Caller[OwnerStakeQuery, StoredBalance]
	GlobalStakeByStatus() contract.Caller[StakeStatus, StoredBalance]
	StakeDelegatedToPoolByOwner() contract.Caller[PoolStakeQuery, StoredBalance]
	TotalStakeDelegatedToPool() contract.Caller[common.Hash, StoredBalance]
	StakingPool() contract.Caller[common.Hash, Pool]

	// Vault holds the deposited staking token.
	Vault() common.Address
	// Token is the staking token.
	Token() contract.AssetID
}
