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

// Package balance keeps a shadow of the token balances of the system under
// test. The local store is advanced by simulated transfers and compared
// against balances fetched from the live system.
package balance

import (
	"fmt"
	"slices"
	"strings"

	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Native is the asset id of the native currency of the ledger.
const Native contract.AssetID = "native"

// Balances is a balance table per owner and asset.
type Balances map[common.Address]map[contract.AssetID]*uint256.Int

// Get returns the balance of owner in asset; missing entries are zero.
func (b Balances) Get(owner common.Address, asset contract.AssetID) *uint256.Int {
	if v, ok := b[owner][asset]; ok && v != nil {
		return new(uint256.Int).Set(v)
	}
	return new(uint256.Int)
}

// Set sets the balance of owner in asset.
func (b Balances) Set(owner common.Address, asset contract.AssetID, amount *uint256.Int) {
	assets, ok := b[owner]
	if !ok {
		assets = map[contract.AssetID]*uint256.Int{}
		b[owner] = assets
	}
	assets[asset] = new(uint256.Int).Set(amount)
}

// Clone returns a deep copy of the table.
func (b Balances) Clone() Balances {
	res := make(Balances, len(b))
	for owner, assets := range b {
		cp := make(map[contract.AssetID]*uint256.Int, len(assets))
		for asset, v := range assets {
			cp[asset] = new(uint256.Int).Set(v)
		}
		res[owner] = cp
	}
	return res
}

// Sum returns the total of all tracked balances of asset.
func (b Balances) Sum(asset contract.AssetID) *uint256.Int {
	total := new(uint256.Int)
	for _, assets := range b {
		if v, ok := assets[asset]; ok {
			total.Add(total, v)
		}
	}
	return total
}

// AssertEquals compares two tables; entries missing on one side count as
// zero. The returned error lists every mismatching owner and asset.
func (b Balances) AssertEquals(have Balances) error {
	var diffs []string
	for _, key := range unionKeys(b, have) {
		want, got := b.Get(key.owner, key.asset), have.Get(key.owner, key.asset)
		if want.Cmp(got) != 0 {
			diffs = append(diffs, fmt.Sprintf("  Failed to validate balance for account %v, asset %v\n"+
				"    have %v\n"+
				"    want %v\n",
				key.owner.Hex(), key.asset, got, want))
		}
	}
	if len(diffs) > 0 {
		return errors.Newf("inconsistent balances:\n%s", strings.Join(diffs, ""))
	}
	return nil
}

type balanceKey struct {
	owner common.Address
	asset contract.AssetID
}

// unionKeys returns all owner/asset pairs of both tables in a stable order.
func unionKeys(a, b Balances) []balanceKey {
	seen := map[balanceKey]struct{}{}
	for _, t := range []Balances{a, b} {
		for owner, assets := range t {
			for asset := range assets {
				seen[balanceKey{owner, asset}] = struct{}{}
			}
		}
	}
	keys := make([]balanceKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(x, y balanceKey) int {
		if c := x.owner.Cmp(y.owner); c != 0 {
			return c
		}
		return strings.Compare(string(x.asset), string(y.asset))
	})
	return keys
}
