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

package exchange

import (
	"fmt"

	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MatchOrdersArgs are the arguments of a match of two complementary orders.
type MatchOrdersArgs struct {
	Left    SignedOrder
	Right   SignedOrder
	Taker   common.Address
	Value   *uint256.Int // native asset sent along to pay protocol fees
	Maximal bool         // fill both orders as much as possible
}

func (a MatchOrdersArgs) String() string {
	return fmt.Sprintf("{left: %v, right: %v, taker: %v, value: %v, maximal: %v}",
		a.Left.Hash().Hex(), a.Right.Hash().Hex(), a.Taker.Hex(), a.Value, a.Maximal)
}

// BatchMatchOrdersArgs are the arguments of a batch match. Orders of both
// sides are matched front to back until one side is exhausted.
type BatchMatchOrdersArgs struct {
	Left    []SignedOrder
	Right   []SignedOrder
	Taker   common.Address
	Value   *uint256.Int
	Maximal bool
}

// FillResults are the amounts exchanged for one order.
type FillResults struct {
	MakerAssetFilledAmount *uint256.Int
	TakerAssetFilledAmount *uint256.Int
	MakerFeePaid           *uint256.Int
	TakerFeePaid           *uint256.Int
	ProtocolFeePaid        *uint256.Int
}

// ZeroFillResults returns fill results with all amounts zero.
func ZeroFillResults() FillResults {
	return FillResults{
		MakerAssetFilledAmount: new(uint256.Int),
		TakerAssetFilledAmount: new(uint256.Int),
		MakerFeePaid:           new(uint256.Int),
		TakerFeePaid:           new(uint256.Int),
		ProtocolFeePaid:        new(uint256.Int),
	}
}

// Add accumulates other into r.
func (r *FillResults) Add(other FillResults) {
	r.MakerAssetFilledAmount = new(uint256.Int).Add(r.MakerAssetFilledAmount, other.MakerAssetFilledAmount)
	r.TakerAssetFilledAmount = new(uint256.Int).Add(r.TakerAssetFilledAmount, other.TakerAssetFilledAmount)
	r.MakerFeePaid = new(uint256.Int).Add(r.MakerFeePaid, other.MakerFeePaid)
	r.TakerFeePaid = new(uint256.Int).Add(r.TakerFeePaid, other.TakerFeePaid)
	r.ProtocolFeePaid = new(uint256.Int).Add(r.ProtocolFeePaid, other.ProtocolFeePaid)
}

// MatchedFillResults are the results of matching two orders.
type MatchedFillResults struct {
	Left                    FillResults
	Right                   FillResults
	ProfitInLeftMakerAsset  *uint256.Int
	ProfitInRightMakerAsset *uint256.Int
}

// BatchMatchedFillResults are the accumulated results per order of a batch match.
type BatchMatchedFillResults struct {
	Left                    []FillResults
	Right                   []FillResults
	ProfitInLeftMakerAsset  *uint256.Int
	ProfitInRightMakerAsset *uint256.Int
}

// FillArgs are the arguments of the Fill event, emitted once per order and match.
type FillArgs struct {
	OrderHash    common.Hash
	Maker        common.Address
	Taker        common.Address
	FeeRecipient common.Address
	Results      FillResults
}

// Exchange is the order-matching API of the system under test.
type Exchange interface {
	MatchOrders() contract.Operation[MatchOrdersArgs, MatchedFillResults]
	BatchMatchOrders() contract.Operation[BatchMatchOrdersArgs, BatchMatchedFillResults]
	// Filled returns the taker asset amount filled so far for an order hash.
	Filled() contract.Caller[common.Hash, *uint256.Int]
	// ProtocolFeeCollector receives the protocol fees.
	ProtocolFeeCollector() common.Address
}
