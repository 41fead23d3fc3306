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
	"github.com/0xsoniclabs/shadowfuzz/balance"
	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/0xsoniclabs/shadowfuzz/exchange"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ProtocolFees configures the protocol fee every matched order pays.
type ProtocolFees struct {
	Multiplier   *uint256.Int
	GasPrice     *uint256.Int
	Collector    common.Address
	WrappedAsset contract.AssetID
}

// PerOrder returns the protocol fee of one order.
func (f ProtocolFees) PerOrder() *uint256.Int {
	if f.Multiplier == nil || f.GasPrice == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Mul(f.Multiplier, f.GasPrice)
}

// simulator applies transfers to the shadow ledger and records them in the
// order the exchange emits them.
type simulator struct {
	store     *balance.LocalStore
	transfers []contract.TransferArgs
}

// transfer moves amount unless it is zero or a self transfer; the exchange
// skips those as well.
func (s *simulator) transfer(asset contract.AssetID, from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() || from == to {
		return nil
	}
	if err := s.store.Transfer(from, to, amount, asset); err != nil {
		return err
	}
	s.transfers = append(s.transfers, contract.TransferArgs{
		Asset:  asset,
		From:   from,
		To:     to,
		Amount: new(uint256.Int).Set(amount),
	})
	return nil
}

// settle applies the eight transfers of one match followed by the protocol
// fees of both orders. It returns the value left for further protocol fees.
func (s *simulator) settle(left, right *exchange.Order, taker common.Address, amounts MatchTransferAmounts, fees ProtocolFees, value *uint256.Int) (*uint256.Int, error) {
	steps := []struct {
		asset    contract.AssetID
		from, to common.Address
		amount   *uint256.Int
	}{
		{right.MakerAsset, right.MakerAddress, left.MakerAddress, amounts.RightMakerAssetBoughtByLeftMakerAmount},
		// makers that are their own fee recipient pay nothing
		{left.MakerFeeAsset, left.MakerAddress, left.FeeRecipientAddress, amounts.LeftMakerFeeAssetPaidByLeftMakerAmount},
		{left.MakerAsset, left.MakerAddress, right.MakerAddress, amounts.LeftMakerAssetBoughtByRightMakerAmount},
		{right.MakerFeeAsset, right.MakerAddress, right.FeeRecipientAddress, amounts.RightMakerFeeAssetPaidByRightMakerAmount},
		{left.MakerAsset, left.MakerAddress, taker, amounts.LeftMakerAssetReceivedByTakerAmount},
		{right.MakerAsset, right.MakerAddress, taker, amounts.RightMakerAssetReceivedByTakerAmount},
		{left.TakerFeeAsset, taker, left.FeeRecipientAddress, amounts.LeftTakerFeeAssetPaidByTakerAmount},
		{right.TakerFeeAsset, taker, right.FeeRecipientAddress, amounts.RightTakerFeeAssetPaidByTakerAmount},
	}
	for i, step := range steps {
		if err := s.transfer(step.asset, step.from, step.to, step.amount); err != nil {
			return nil, errors.Wrapf(err, "transfer %d of match", i+1)
		}
	}

	remaining := new(uint256.Int)
	if value != nil {
		remaining.Set(value)
	}
	fee := fees.PerOrder()
	for range 2 {
		if fee.IsZero() {
			break
		}
		asset := fees.WrappedAsset
		if !remaining.Lt(fee) {
			asset = balance.Native
			remaining.Sub(remaining, fee)
		}
		if err := s.transfer(asset, taker, fees.Collector, fee); err != nil {
			return nil, errors.Wrap(err, "protocol fee")
		}
	}
	return remaining, nil
}

// SimulateMatchOrders applies the expected transfers of matching left with
// right to store and returns them in emission order. Gas is not included.
func SimulateMatchOrders(store *balance.LocalStore, left, right exchange.Order, taker common.Address, amounts MatchTransferAmounts, fees ProtocolFees, value *uint256.Int) ([]contract.TransferArgs, error) {
	s := &simulator{store: store}
	if _, err := s.settle(&left, &right, taker, amounts, fees, value); err != nil {
		return nil, err
	}
	return s.transfers, nil
}

// MatchedPair is one match of a batch: the order indices of both sides and
// the expected transfer amounts of that match.
type MatchedPair struct {
	LeftIndex  int
	RightIndex int
	Amounts    MatchTransferAmounts
}

// SimulateBatchMatchOrders applies the pairs of a batch match in order and
// records their fills in tracker.
func SimulateBatchMatchOrders(store *balance.LocalStore, left, right []exchange.Order, taker common.Address, pairs []MatchedPair, fees ProtocolFees, value *uint256.Int, tracker *BatchFillTracker) ([]contract.TransferArgs, error) {
	s := &simulator{store: store}
	remaining := value
	for i, pair := range pairs {
		if pair.LeftIndex < 0 || pair.LeftIndex >= len(left) || pair.RightIndex < 0 || pair.RightIndex >= len(right) {
			return nil, errors.Newf("pair %d (%d, %d) out of range", i, pair.LeftIndex, pair.RightIndex)
		}
		if err := tracker.Record(pair); err != nil {
			return nil, errors.Wrapf(err, "pair %d", i)
		}
		var err error
		remaining, err = s.settle(&left[pair.LeftIndex], &right[pair.RightIndex], taker, pair.Amounts, fees, remaining)
		if err != nil {
			return nil, errors.Wrapf(err, "pair %d", i)
		}
	}
	tracker.Finalize()
	return s.transfers, nil
}
