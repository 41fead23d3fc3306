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

package devnet

import (
	"maps"

	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/0xsoniclabs/shadowfuzz/staking"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// state is the complete state of the deployment. Amounts are never shared
// between states, so a clone can be mutated freely.
type state struct {
	balances map[contract.AssetID]map[common.Address]*uint256.Int
	filled   map[common.Hash]*uint256.Int
	staking  stakingState
}

type stakingState struct {
	epoch         uint64
	poolNonce     uint64
	ownerStake    map[common.Address]map[staking.StakeStatus]staking.StoredBalance
	globalStake   map[staking.StakeStatus]staking.StoredBalance
	delegated     map[common.Address]map[common.Hash]staking.StoredBalance
	poolDelegated map[common.Hash]staking.StoredBalance
	pools         map[common.Hash]staking.Pool
}

func newState() *state {
	return &state{
		balances: map[contract.AssetID]map[common.Address]*uint256.Int{},
		filled:   map[common.Hash]*uint256.Int{},
		staking: stakingState{
			ownerStake:    map[common.Address]map[staking.StakeStatus]staking.StoredBalance{},
			globalStake:   map[staking.StakeStatus]staking.StoredBalance{},
			delegated:     map[common.Address]map[common.Hash]staking.StoredBalance{},
			poolDelegated: map[common.Hash]staking.StoredBalance{},
			pools:         map[common.Hash]staking.Pool{},
		},
	}
}

// clone returns a deep copy. Stored balances are values whose amounts are
// replaced, never mutated, so they are copied shallowly.
func (s *state) clone() *state {
	res := newState()
	for asset, owners := range s.balances {
		cp := make(map[common.Address]*uint256.Int, len(owners))
		for owner, v := range owners {
			cp[owner] = new(uint256.Int).Set(v)
		}
		res.balances[asset] = cp
	}
	for hash, v := range s.filled {
		res.filled[hash] = new(uint256.Int).Set(v)
	}
	res.staking.epoch = s.staking.epoch
	res.staking.poolNonce = s.staking.poolNonce
	for owner, byStatus := range s.staking.ownerStake {
		res.staking.ownerStake[owner] = maps.Clone(byStatus)
	}
	res.staking.globalStake = maps.Clone(s.staking.globalStake)
	for owner, byPool := range s.staking.delegated {
		res.staking.delegated[owner] = maps.Clone(byPool)
	}
	res.staking.poolDelegated = maps.Clone(s.staking.poolDelegated)
	res.staking.pools = maps.Clone(s.staking.pools)
	return res
}

func (s *state) balanceOf(owner common.Address, asset contract.AssetID) *uint256.Int {
	if v, ok := s.balances[asset][owner]; ok {
		return new(uint256.Int).Set(v)
	}
	return new(uint256.Int)
}

func (s *state) credit(owner common.Address, asset contract.AssetID, amount *uint256.Int) {
	owners, ok := s.balances[asset]
	if !ok {
		owners = map[common.Address]*uint256.Int{}
		s.balances[asset] = owners
	}
	owners[owner] = new(uint256.Int).Add(s.balanceOf(owner, asset), amount)
}

func (s *state) debit(owner common.Address, asset contract.AssetID, amount *uint256.Int) error {
	current := s.balanceOf(owner, asset)
	res, underflow := new(uint256.Int).SubOverflow(current, amount)
	if underflow {
		return errors.Wrapf(ErrInsufficientBalance, "%v holds %v %v, needs %v", owner.Hex(), current, asset, amount)
	}
	if _, ok := s.balances[asset]; !ok {
		s.balances[asset] = map[common.Address]*uint256.Int{}
	}
	s.balances[asset][owner] = res
	return nil
}

func (s *state) filledAmount(hash common.Hash) *uint256.Int {
	if v, ok := s.filled[hash]; ok {
		return new(uint256.Int).Set(v)
	}
	return new(uint256.Int)
}
