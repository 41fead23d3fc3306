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

// Package matching predicts the asset transfers of order matches and checks
// them against the exchange of the system under test.
package matching

import (
	"fmt"

	"github.com/0xsoniclabs/shadowfuzz/exchange"
	"github.com/holiman/uint256"
)

// PartialMatchTransferAmounts lists expected amounts of a match. A nil field
// is omitted and resolved by ToFullMatchTransferAmounts.
type PartialMatchTransferAmounts struct {
	LeftMakerAssetSoldByLeftMakerAmount    *uint256.Int
	RightMakerAssetSoldByRightMakerAmount  *uint256.Int
	RightMakerAssetBoughtByLeftMakerAmount *uint256.Int
	LeftMakerAssetBoughtByRightMakerAmount *uint256.Int

	LeftMakerFeeAssetPaidByLeftMakerAmount   *uint256.Int
	RightMakerFeeAssetPaidByRightMakerAmount *uint256.Int

	LeftMakerAssetReceivedByTakerAmount  *uint256.Int
	RightMakerAssetReceivedByTakerAmount *uint256.Int

	LeftTakerFeeAssetPaidByTakerAmount  *uint256.Int
	RightTakerFeeAssetPaidByTakerAmount *uint256.Int
}

// MatchTransferAmounts are the resolved amounts of a match.
type MatchTransferAmounts struct {
	LeftMakerAssetSoldByLeftMakerAmount    *uint256.Int
	RightMakerAssetSoldByRightMakerAmount  *uint256.Int
	RightMakerAssetBoughtByLeftMakerAmount *uint256.Int
	LeftMakerAssetBoughtByRightMakerAmount *uint256.Int

	LeftMakerFeeAssetPaidByLeftMakerAmount   *uint256.Int
	RightMakerFeeAssetPaidByRightMakerAmount *uint256.Int

	LeftMakerAssetReceivedByTakerAmount  *uint256.Int
	RightMakerAssetReceivedByTakerAmount *uint256.Int

	LeftTakerFeeAssetPaidByTakerAmount  *uint256.Int
	RightTakerFeeAssetPaidByTakerAmount *uint256.Int
}

// ToFullMatchTransferAmounts resolves omitted amounts. The sold amount of a
// maker and the amount bought from it by the other maker default to each
// other; every other omitted amount is zero.
func ToFullMatchTransferAmounts(partial PartialMatchTransferAmounts) MatchTransferAmounts {
	return MatchTransferAmounts{
		LeftMakerAssetSoldByLeftMakerAmount:    firstOf(partial.LeftMakerAssetSoldByLeftMakerAmount, partial.LeftMakerAssetBoughtByRightMakerAmount),
		RightMakerAssetSoldByRightMakerAmount:  firstOf(partial.RightMakerAssetSoldByRightMakerAmount, partial.RightMakerAssetBoughtByLeftMakerAmount),
		RightMakerAssetBoughtByLeftMakerAmount: firstOf(partial.RightMakerAssetBoughtByLeftMakerAmount, partial.RightMakerAssetSoldByRightMakerAmount),
		LeftMakerAssetBoughtByRightMakerAmount: firstOf(partial.LeftMakerAssetBoughtByRightMakerAmount, partial.LeftMakerAssetSoldByLeftMakerAmount),

		LeftMakerFeeAssetPaidByLeftMakerAmount:   firstOf(partial.LeftMakerFeeAssetPaidByLeftMakerAmount),
		RightMakerFeeAssetPaidByRightMakerAmount: firstOf(partial.RightMakerFeeAssetPaidByRightMakerAmount),

		LeftMakerAssetReceivedByTakerAmount:  firstOf(partial.LeftMakerAssetReceivedByTakerAmount),
		RightMakerAssetReceivedByTakerAmount: firstOf(partial.RightMakerAssetReceivedByTakerAmount),

		LeftTakerFeeAssetPaidByTakerAmount:  firstOf(partial.LeftTakerFeeAssetPaidByTakerAmount),
		RightTakerFeeAssetPaidByTakerAmount: firstOf(partial.RightTakerFeeAssetPaidByTakerAmount),
	}
}

// FromMatchedFillResults derives the transfer amounts of a match from the
// fill results reported by the exchange.
func FromMatchedFillResults(results exchange.MatchedFillResults) MatchTransferAmounts {
	return ToFullMatchTransferAmounts(PartialMatchTransferAmounts{
		LeftMakerAssetSoldByLeftMakerAmount:      results.Left.MakerAssetFilledAmount,
		RightMakerAssetSoldByRightMakerAmount:    results.Right.MakerAssetFilledAmount,
		RightMakerAssetBoughtByLeftMakerAmount:   results.Left.TakerAssetFilledAmount,
		LeftMakerAssetBoughtByRightMakerAmount:   results.Right.TakerAssetFilledAmount,
		LeftMakerFeeAssetPaidByLeftMakerAmount:   results.Left.MakerFeePaid,
		RightMakerFeeAssetPaidByRightMakerAmount: results.Right.MakerFeePaid,
		LeftMakerAssetReceivedByTakerAmount:      results.ProfitInLeftMakerAsset,
		RightMakerAssetReceivedByTakerAmount:     results.ProfitInRightMakerAsset,
		LeftTakerFeeAssetPaidByTakerAmount:       results.Left.TakerFeePaid,
		RightTakerFeeAssetPaidByTakerAmount:      results.Right.TakerFeePaid,
	})
}

func (a MatchTransferAmounts) String() string {
	return fmt.Sprintf("{leftSold: %v, rightSold: %v, rightBoughtByLeft: %v, leftBoughtByRight: %v, "+
		"leftMakerFee: %v, rightMakerFee: %v, leftProfit: %v, rightProfit: %v, leftTakerFee: %v, rightTakerFee: %v}",
		a.LeftMakerAssetSoldByLeftMakerAmount, a.RightMakerAssetSoldByRightMakerAmount,
		a.RightMakerAssetBoughtByLeftMakerAmount, a.LeftMakerAssetBoughtByRightMakerAmount,
		a.LeftMakerFeeAssetPaidByLeftMakerAmount, a.RightMakerFeeAssetPaidByRightMakerAmount,
		a.LeftMakerAssetReceivedByTakerAmount, a.RightMakerAssetReceivedByTakerAmount,
		a.LeftTakerFeeAssetPaidByTakerAmount, a.RightTakerFeeAssetPaidByTakerAmount)
}

// firstOf returns a copy of the first non-nil value, or zero.
func firstOf(values ...*uint256.Int) *uint256.Int {
	for _, v := range values {
		if v != nil {
			return new(uint256.Int).Set(v)
		}
	}
	return new(uint256.Int)
}
