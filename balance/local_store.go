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
	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrInsufficientBalance is returned if a simulated operation would
// overdraw an account.
var ErrInsufficientBalance = errors.New("insufficient balance")

// LocalStore is the shadow ledger. It is not synchronized; a single driver
// owns it at a time.
type LocalStore struct {
	balances Balances
	minted   map[contract.AssetID]*uint256.Int
	burned   map[contract.AssetID]*uint256.Int
}

// NewLocalStore seeds a shadow ledger with a deep copy of the given snapshot.
func NewLocalStore(snapshot Balances) *LocalStore {
	return &LocalStore{
		balances: snapshot.Clone(),
		minted:   map[contract.AssetID]*uint256.Int{},
		burned:   map[contract.AssetID]*uint256.Int{},
	}
}

// Balances returns the predicted balances.
func (s *LocalStore) Balances() Balances {
	return s.balances
}

// BalanceOf returns the predicted balance of owner in asset.
func (s *LocalStore) BalanceOf(owner common.Address, asset contract.AssetID) *uint256.Int {
	return s.balances.Get(owner, asset)
}

// Clone returns an independent copy of the store.
func (s *LocalStore) Clone() *LocalStore {
	res := NewLocalStore(s.balances)
	for asset, v := range s.minted {
		res.minted[asset] = new(uint256.Int).Set(v)
	}
	for asset, v := range s.burned {
		res.burned[asset] = new(uint256.Int).Set(v)
	}
	return res
}

// Transfer moves amount of asset from one owner to another.
func (s *LocalStore) Transfer(from, to common.Address, amount *uint256.Int, asset contract.AssetID) error {
	if err := s.debit(from, amount, asset); err != nil {
		return errors.Wrapf(err, "cannot transfer %v of %v from %v to %v", amount, asset, from.Hex(), to.Hex())
	}
	s.credit(to, amount, asset)
	return nil
}

// SendEth moves amount of the native asset.
func (s *LocalStore) SendEth(from, to common.Address, amount *uint256.Int) error {
	return s.Transfer(from, to, amount, Native)
}

// BurnGas removes the native asset an account paid for gas.
func (s *LocalStore) BurnGas(account common.Address, amount *uint256.Int) error {
	if err := s.debit(account, amount, Native); err != nil {
		return errors.Wrapf(err, "cannot burn %v gas of %v", amount, account.Hex())
	}
	addTo(s.burned, Native, amount)
	return nil
}

// Wrap converts amount of the native asset of account into the wrapped asset.
func (s *LocalStore) Wrap(account common.Address, wrapped contract.AssetID, amount *uint256.Int) error {
	if err := s.debit(account, amount, Native); err != nil {
		return errors.Wrapf(err, "cannot wrap %v of %v", amount, account.Hex())
	}
	addTo(s.burned, Native, amount)
	s.credit(account, amount, wrapped)
	addTo(s.minted, wrapped, amount)
	return nil
}

// Unwrap converts amount of the wrapped asset of account back into the native asset.
func (s *LocalStore) Unwrap(account common.Address, wrapped contract.AssetID, amount *uint256.Int) error {
	if err := s.debit(account, amount, wrapped); err != nil {
		return errors.Wrapf(err, "cannot unwrap %v of %v", amount, account.Hex())
	}
	addTo(s.burned, wrapped, amount)
	s.credit(account, amount, Native)
	addTo(s.minted, Native, amount)
	return nil
}

// Minted returns the total amount of asset created by wrapping operations.
func (s *LocalStore) Minted(asset contract.AssetID) *uint256.Int {
	return get(s.minted, asset)
}

// Burned returns the total amount of asset removed by gas burns and wrapping operations.
func (s *LocalStore) Burned(asset contract.AssetID) *uint256.Int {
	return get(s.burned, asset)
}

// AssertEquals compares the predicted balances with the given ones.
func (s *LocalStore) AssertEquals(other Balances) error {
	return s.balances.AssertEquals(other)
}

func (s *LocalStore) debit(owner common.Address, amount *uint256.Int, asset contract.AssetID) error {
	balance := s.balances.Get(owner, asset)
	res, underflow := new(uint256.Int).SubOverflow(balance, amount)
	if underflow {
		return errors.Wrapf(ErrInsufficientBalance, "balance %v < %v", balance, amount)
	}
	s.balances.Set(owner, asset, res)
	return nil
}

func (s *LocalStore) credit(owner common.Address, amount *uint256.Int, asset contract.AssetID) {
	balance := s.balances.Get(owner, asset)
	s.balances.Set(owner, asset, balance.Add(balance, amount))
}

func addTo(m map[contract.AssetID]*uint256.Int, asset contract.AssetID, amount *uint256.Int) {
	v := get(m, asset)
	m[asset] = v.Add(v, amount)
}

func get(m map[contract.AssetID]*uint256.Int, asset contract.AssetID) *uint256.Int {
	if v, ok := m[asset]; ok {
		return new(uint256.Int).Set(v)
	}
	return new(uint256.Int)
}
