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
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"
)

// ErrInsufficientStake is returned if a balance would become negative.
var ErrInsufficientStake = errors.New("insufficient stake")

// StoredBalance is an epoch-delayed balance. Current is active in Epoch;
// Next becomes active in the epoch after.
type StoredBalance struct {
	Epoch   uint64
	Current *uint256.Int
	Next    *uint256.Int
}

// NewStoredBalance returns a zero balance for the given epoch.
func NewStoredBalance(epoch uint64) StoredBalance {
	return StoredBalance{Epoch: epoch, Current: new(uint256.Int), Next: new(uint256.Int)}
}

func (b StoredBalance) String() string {
	return fmt.Sprintf("{epoch: %d, current: %v, next: %v}", b.Epoch, b.Current, b.Next)
}

// Synced returns the balance as seen in epoch. Once an epoch passed, the
// next value becomes current.
func (b StoredBalance) Synced(epoch uint64) StoredBalance {
	res := b.copy()
	if res.Epoch < epoch {
		res.Current = new(uint256.Int).Set(res.Next)
		res.Epoch = epoch
	}
	return res
}

// Equal compares two balances; nil amounts count as zero.
func (b StoredBalance) Equal(other StoredBalance) bool {
	return b.Epoch == other.Epoch &&
		orZero(b.Current).Eq(orZero(other.Current)) &&
		orZero(b.Next).Eq(orZero(other.Next))
}

// IncreaseNext adds amount to the next epoch value.
func (b StoredBalance) IncreaseNext(epoch uint64, amount *uint256.Int) StoredBalance {
	res := b.Synced(epoch)
	res.Next = new(uint256.Int).Add(res.Next, amount)
	return res
}

// DecreaseNext subtracts amount from the next epoch value.
func (b StoredBalance) DecreaseNext(epoch uint64, amount *uint256.Int) (StoredBalance, error) {
	res := b.Synced(epoch)
	next, underflow := new(uint256.Int).SubOverflow(res.Next, amount)
	if underflow {
		return b, errors.Wrapf(ErrInsufficientStake, "next balance %v < %v", res.Next, amount)
	}
	res.Next = next
	return res, nil
}

// IncreaseCurrentAndNext adds amount to both values.
func (b StoredBalance) IncreaseCurrentAndNext(epoch uint64, amount *uint256.Int) StoredBalance {
	res := b.Synced(epoch)
	res.Current = new(uint256.Int).Add(res.Current, amount)
	res.Next = new(uint256.Int).Add(res.Next, amount)
	return res
}

// DecreaseCurrentAndNext subtracts amount from both values.
func (b StoredBalance) DecreaseCurrentAndNext(epoch uint64, amount *uint256.Int) (StoredBalance, error) {
	res := b.Synced(epoch)
	current, u1 := new(uint256.Int).SubOverflow(res.Current, amount)
	next, u2 := new(uint256.Int).SubOverflow(res.Next, amount)
	if u1 || u2 {
		return b, errors.Wrapf(ErrInsufficientStake, "balance %v cannot cover %v", res, amount)
	}
	res.Current, res.Next = current, next
	return res, nil
}

// Withdrawable returns the amount that is both active now and in the next epoch.
func (b StoredBalance) Withdrawable(epoch uint64) *uint256.Int {
	s := b.Synced(epoch)
	if s.Current.Lt(s.Next) {
		return new(uint256.Int).Set(s.Current)
	}
	return new(uint256.Int).Set(s.Next)
}

func (b StoredBalance) copy() StoredBalance {
	return StoredBalance{
		Epoch:   b.Epoch,
		Current: new(uint256.Int).Set(orZero(b.Current)),
		Next:    new(uint256.Int).Set(orZero(b.Next)),
	}
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
