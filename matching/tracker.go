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
	"github.com/0xsoniclabs/shadowfuzz/exchange"
	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"
)

// fillState is the state of an order within a batch match.
type fillState uint8

const (
	fillUntouched fillState = iota // not matched yet
	fillAccumulating
	fillFinalized // exhausted or left behind; never matched again
)

type orderFill struct {
	state  fillState
	filled *uint256.Int
	limit  *uint256.Int
}

func (f *orderFill) add(amount *uint256.Int) error {
	if f.state == fillFinalized {
		return errors.New("order is already finalized")
	}
	f.state = fillAccumulating
	f.filled = new(uint256.Int).Add(f.filled, amount)
	if !f.filled.Lt(f.limit) {
		f.state = fillFinalized
	}
	return nil
}

// BatchFillTracker follows the filled taker asset amount of every order of a
// batch match. Orders are matched front to back, so once a batch moves past
// an order its fill amount is final.
type BatchFillTracker struct {
	left, right         []orderFill
	lastLeft, lastRight int
}

// NewBatchFillTracker starts tracking from the fill amounts the orders had
// before the batch.
func NewBatchFillTracker(left, right []exchange.Order, leftFilled, rightFilled []*uint256.Int) (*BatchFillTracker, error) {
	if len(left) != len(leftFilled) || len(right) != len(rightFilled) {
		return nil, errors.Newf("got %d/%d left and %d/%d right fill amounts", len(leftFilled), len(left), len(rightFilled), len(right))
	}
	return &BatchFillTracker{
		left:      newOrderFills(left, leftFilled),
		right:     newOrderFills(right, rightFilled),
		lastLeft:  -1,
		lastRight: -1,
	}, nil
}

func newOrderFills(orders []exchange.Order, filled []*uint256.Int) []orderFill {
	res := make([]orderFill, len(orders))
	for i := range orders {
		res[i] = orderFill{
			filled: firstOf(filled[i]),
			limit:  firstOf(orders[i].TakerAssetAmount),
		}
	}
	return res
}

// Record adds the fill of one matched pair. The left order gains the right
// maker asset it bought, the right order the left maker asset.
func (t *BatchFillTracker) Record(pair MatchedPair) error {
	if err := advance(t.left, &t.lastLeft, pair.LeftIndex); err != nil {
		return errors.Wrap(err, "left")
	}
	if err := advance(t.right, &t.lastRight, pair.RightIndex); err != nil {
		return errors.Wrap(err, "right")
	}
	if err := t.left[pair.LeftIndex].add(pair.Amounts.RightMakerAssetBoughtByLeftMakerAmount); err != nil {
		return errors.Wrapf(err, "left order %d", pair.LeftIndex)
	}
	if err := t.right[pair.RightIndex].add(pair.Amounts.LeftMakerAssetBoughtByRightMakerAmount); err != nil {
		return errors.Wrapf(err, "right order %d", pair.RightIndex)
	}
	return nil
}

// advance finalizes the previous order when the batch moves on.
func advance(fills []orderFill, last *int, idx int) error {
	if idx < 0 || idx >= len(fills) {
		return errors.Newf("order index %d out of range", idx)
	}
	if idx < *last {
		return errors.Newf("order %d revisited after order %d", idx, *last)
	}
	if *last >= 0 && idx > *last {
		fills[*last].state = fillFinalized
	}
	*last = idx
	return nil
}

// Finalize closes the batch.
func (t *BatchFillTracker) Finalize() {
	for _, fills := range [][]orderFill{t.left, t.right} {
		for i := range fills {
			if fills[i].state == fillAccumulating {
				fills[i].state = fillFinalized
			}
		}
	}
}

// Filled returns the expected filled amounts of all orders.
func (t *BatchFillTracker) Filled() (left, right []*uint256.Int) {
	collect := func(fills []orderFill) []*uint256.Int {
		res := make([]*uint256.Int, len(fills))
		for i, f := range fills {
			res[i] = new(uint256.Int).Set(f.filled)
		}
		return res
	}
	return collect(t.left), collect(t.right)
}

// Finalized reports whether the fill amount of an order is final.
func (t *BatchFillTracker) Finalized(leftSide bool, idx int) bool {
	fills := t.right
	if leftSide {
		fills = t.left
	}
	return idx >= 0 && idx < len(fills) && fills[idx].state == fillFinalized
}
