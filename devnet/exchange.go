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
	"context"

	"github.com/0xsoniclabs/shadowfuzz/balance"
	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/0xsoniclabs/shadowfuzz/exchange"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInvalidSignature   = errors.New("invalid order signature")
	ErrInvalidTaker       = errors.New("invalid taker")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrOrderNotFillable   = errors.New("order not fillable")
	ErrAssetMismatch      = errors.New("assets of orders do not match")
	ErrNegativeSpread     = errors.New("negative spread")
	ErrEmptyBatch         = errors.New("empty order list")
	ErrNativeTradingAsset = errors.New("native asset is not tradable")
)

type exchangeContract struct {
	chain *Chain
}

// Exchange returns the order-matching exchange of the deployment.
func (c *Chain) Exchange() exchange.Exchange {
	return &exchangeContract{chain: c}
}

func (x *exchangeContract) ProtocolFeeCollector() common.Address {
	return StakingAddress
}

func (x *exchangeContract) Filled() contract.Caller[common.Hash, *uint256.Int] {
	return contract.Getter(func(_ context.Context, hash common.Hash) (*uint256.Int, error) {
		x.chain.mutex.Lock()
		defer x.chain.mutex.Unlock()
		return x.chain.state.filledAmount(hash), nil
	})
}

func (x *exchangeContract) MatchOrders() contract.Operation[exchange.MatchOrdersArgs, exchange.MatchedFillResults] {
	return operation(x.chain, func(a exchange.MatchOrdersArgs) common.Address { return a.Taker }, gasMatchOrders,
		func(s *state, args exchange.MatchOrdersArgs, e *emitter) (exchange.MatchedFillResults, error) {
			value := new(uint256.Int)
			if args.Value != nil {
				value.Set(args.Value)
			}
			return x.matchOrders(s, e, &args.Left, &args.Right, args.Taker, args.Maximal, value)
		})
}

func (x *exchangeContract) BatchMatchOrders() contract.Operation[exchange.BatchMatchOrdersArgs, exchange.BatchMatchedFillResults] {
	return operation(x.chain, func(a exchange.BatchMatchOrdersArgs) common.Address { return a.Taker }, 0,
		func(s *state, args exchange.BatchMatchOrdersArgs, e *emitter) (exchange.BatchMatchedFillResults, error) {
			return x.batchMatchOrders(s, e, args)
		})
}

func (x *exchangeContract) batchMatchOrders(s *state, e *emitter, args exchange.BatchMatchOrdersArgs) (exchange.BatchMatchedFillResults, error) {
	res := exchange.BatchMatchedFillResults{
		Left:                    make([]exchange.FillResults, len(args.Left)),
		Right:                   make([]exchange.FillResults, len(args.Right)),
		ProfitInLeftMakerAsset:  new(uint256.Int),
		ProfitInRightMakerAsset: new(uint256.Int),
	}
	if len(args.Left) == 0 || len(args.Right) == 0 {
		return res, ErrEmptyBatch
	}
	for i := range res.Left {
		res.Left[i] = exchange.ZeroFillResults()
	}
	for i := range res.Right {
		res.Right[i] = exchange.ZeroFillResults()
	}

	value := new(uint256.Int)
	if args.Value != nil {
		value.Set(args.Value)
	}
	li, ri := 0, 0
	for li < len(args.Left) && ri < len(args.Right) {
		left, right := &args.Left[li], &args.Right[ri]
		matched, err := x.matchOrders(s, e, left, right, args.Taker, args.Maximal, value)
		if err != nil {
			return res, errors.Wrapf(err, "match of left order %d and right order %d", li, ri)
		}
		e.gas += gasBatchMatchPerPair
		res.Left[li].Add(matched.Left)
		res.Right[ri].Add(matched.Right)
		res.ProfitInLeftMakerAsset.Add(res.ProfitInLeftMakerAsset, matched.ProfitInLeftMakerAsset)
		res.ProfitInRightMakerAsset.Add(res.ProfitInRightMakerAsset, matched.ProfitInRightMakerAsset)

		if !s.filledAmount(left.Hash()).Lt(left.TakerAssetAmount) {
			li++
		}
		if !s.filledAmount(right.Hash()).Lt(right.TakerAssetAmount) {
			ri++
		}
	}
	return res, nil
}

// matchOrders validates and settles one match. value is the native amount
// still available for protocol fees; it is reduced by the fees paid in it.
func (x *exchangeContract) matchOrders(s *state, e *emitter, left, right *exchange.SignedOrder, taker common.Address, maximal bool, value *uint256.Int) (exchange.MatchedFillResults, error) {
	var res exchange.MatchedFillResults
	if left.MakerAsset != right.TakerAsset || left.TakerAsset != right.MakerAsset {
		return res, ErrAssetMismatch
	}
	if left.MakerAsset == balance.Native || right.MakerAsset == balance.Native {
		return res, ErrNativeTradingAsset
	}
	leftHash, rightHash := left.Hash(), right.Hash()
	if err := x.validateOrder(s, left, leftHash, taker); err != nil {
		return res, errors.Wrap(err, "left order")
	}
	if err := x.validateOrder(s, right, rightHash, taker); err != nil {
		return res, errors.Wrap(err, "right order")
	}

	// left.maker/left.taker >= right.taker/right.maker
	leftProduct, err := safeMul(left.MakerAssetAmount, right.MakerAssetAmount)
	if err != nil {
		return res, err
	}
	rightProduct, err := safeMul(left.TakerAssetAmount, right.TakerAssetAmount)
	if err != nil {
		return res, err
	}
	if leftProduct.Lt(rightProduct) {
		return res, ErrNegativeSpread
	}

	cfg := x.chain.cfg
	protocolFee := new(uint256.Int).Mul(cfg.ProtocolFeeMultiplier, cfg.GasPrice)
	res, err = calculateMatchedFillResults(&left.Order, &right.Order, s.filledAmount(leftHash), s.filledAmount(rightHash), protocolFee, maximal)
	if err != nil {
		return res, err
	}

	s.filled[leftHash] = new(uint256.Int).Add(s.filledAmount(leftHash), res.Left.TakerAssetFilledAmount)
	s.filled[rightHash] = new(uint256.Int).Add(s.filledAmount(rightHash), res.Right.TakerAssetFilledAmount)
	e.emit(contract.FillEvent, exchange.FillArgs{OrderHash: leftHash, Maker: left.MakerAddress, Taker: taker, FeeRecipient: left.FeeRecipientAddress, Results: res.Left})
	e.emit(contract.FillEvent, exchange.FillArgs{OrderHash: rightHash, Maker: right.MakerAddress, Taker: taker, FeeRecipient: right.FeeRecipientAddress, Results: res.Right})

	if err := x.settle(s, e, &left.Order, &right.Order, taker, res, protocolFee, value); err != nil {
		return res, err
	}
	return res, nil
}

func (x *exchangeContract) validateOrder(s *state, order *exchange.SignedOrder, hash common.Hash, taker common.Address) error {
	if order.MakerAssetAmount == nil || order.TakerAssetAmount == nil || order.MakerAssetAmount.IsZero() || order.TakerAssetAmount.IsZero() {
		return errors.Wrapf(ErrInvalidOrder, "order %v has a zero amount", hash.Hex())
	}
	if order.MakerFee == nil || order.TakerFee == nil {
		return errors.Wrapf(ErrInvalidOrder, "order %v has no fees", hash.Hex())
	}
	signer, err := order.Signer()
	if err != nil || signer != order.MakerAddress {
		return errors.Wrapf(ErrInvalidSignature, "order %v", hash.Hex())
	}
	if order.TakerAddress != (common.Address{}) && order.TakerAddress != taker {
		return errors.Wrapf(ErrInvalidTaker, "order %v is reserved for %v", hash.Hex(), order.TakerAddress.Hex())
	}
	if !s.filledAmount(hash).Lt(order.TakerAssetAmount) {
		return errors.Wrapf(ErrOrderNotFillable, "order %v is fully filled", hash.Hex())
	}
	return nil
}

// settle performs the transfers of a match followed by the protocol fees.
func (x *exchangeContract) settle(s *state, e *emitter, left, right *exchange.Order, taker common.Address, res exchange.MatchedFillResults, protocolFee, value *uint256.Int) error {
	transfers := []struct {
		asset    contract.AssetID
		from, to common.Address
		amount   *uint256.Int
	}{
		{right.MakerAsset, right.MakerAddress, left.MakerAddress, res.Left.TakerAssetFilledAmount},
		{left.MakerFeeAsset, left.MakerAddress, left.FeeRecipientAddress, res.Left.MakerFeePaid},
		{left.MakerAsset, left.MakerAddress, right.MakerAddress, res.Right.TakerAssetFilledAmount},
		{right.MakerFeeAsset, right.MakerAddress, right.FeeRecipientAddress, res.Right.MakerFeePaid},
		{left.MakerAsset, left.MakerAddress, taker, res.ProfitInLeftMakerAsset},
		{right.MakerAsset, right.MakerAddress, taker, res.ProfitInRightMakerAsset},
		{left.TakerFeeAsset, taker, left.FeeRecipientAddress, res.Left.TakerFeePaid},
		{right.TakerFeeAsset, taker, right.FeeRecipientAddress, res.Right.TakerFeePaid},
	}
	for _, t := range transfers {
		if err := e.transfer(s, t.asset, t.from, t.to, t.amount); err != nil {
			return err
		}
	}

	if protocolFee.IsZero() {
		return nil
	}
	for range 2 {
		asset := x.chain.cfg.WrappedAsset
		if !value.Lt(protocolFee) {
			asset = balance.Native
			value.Sub(value, protocolFee)
		}
		if err := e.transfer(s, asset, taker, StakingAddress, protocolFee); err != nil {
			return errors.Wrap(err, "cannot pay protocol fee")
		}
	}
	return nil
}

// calculateMatchedFillResults computes the amounts of a match. Maker amounts
// are rounded down and taker amounts up, so rounding favors the makers.
func calculateMatchedFillResults(left, right *exchange.Order, leftFilled, rightFilled, protocolFee *uint256.Int, maximal bool) (exchange.MatchedFillResults, error) {
	var res exchange.MatchedFillResults
	leftTakerRemaining, err := safeSub(left.TakerAssetAmount, leftFilled)
	if err != nil {
		return res, err
	}
	rightTakerRemaining, err := safeSub(right.TakerAssetAmount, rightFilled)
	if err != nil {
		return res, err
	}
	leftMakerRemaining, err := partialAmountFloor(left.MakerAssetAmount, left.TakerAssetAmount, leftTakerRemaining)
	if err != nil {
		return res, err
	}
	rightMakerRemaining, err := partialAmountFloor(right.MakerAssetAmount, right.TakerAssetAmount, rightTakerRemaining)
	if err != nil {
		return res, err
	}

	res.Left, res.Right = exchange.ZeroFillResults(), exchange.ZeroFillResults()
	if maximal {
		err = fillMaximally(&res, left, right, leftMakerRemaining, leftTakerRemaining, rightMakerRemaining, rightTakerRemaining)
	} else {
		err = fill(&res, left, right, leftMakerRemaining, leftTakerRemaining, rightMakerRemaining, rightTakerRemaining)
	}
	if err != nil {
		return res, err
	}

	if res.ProfitInLeftMakerAsset, err = safeSub(res.Left.MakerAssetFilledAmount, res.Right.TakerAssetFilledAmount); err != nil {
		return res, errors.Wrap(err, "profit in left maker asset")
	}
	res.ProfitInRightMakerAsset = new(uint256.Int)
	if maximal {
		if res.ProfitInRightMakerAsset, err = safeSub(res.Right.MakerAssetFilledAmount, res.Left.TakerAssetFilledAmount); err != nil {
			return res, errors.Wrap(err, "profit in right maker asset")
		}
	}

	if err := computeFees(&res.Left, left, protocolFee); err != nil {
		return res, errors.Wrap(err, "left fees")
	}
	if err := computeFees(&res.Right, right, protocolFee); err != nil {
		return res, errors.Wrap(err, "right fees")
	}
	return res, nil
}

// fill fills the orders in favor of the left maker asset spread.
func fill(res *exchange.MatchedFillResults, left, right *exchange.Order, leftMakerRemaining, leftTakerRemaining, rightMakerRemaining, rightTakerRemaining *uint256.Int) error {
	var err error
	switch leftTakerRemaining.Cmp(rightMakerRemaining) {
	case 1: // right order is fully filled
		res.Right.MakerAssetFilledAmount = rightMakerRemaining
		res.Right.TakerAssetFilledAmount = rightTakerRemaining
		res.Left.TakerAssetFilledAmount = new(uint256.Int).Set(rightMakerRemaining)
		res.Left.MakerAssetFilledAmount, err = partialAmountFloor(left.MakerAssetAmount, left.TakerAssetAmount, res.Left.TakerAssetFilledAmount)
	case -1: // left order is fully filled
		res.Left.MakerAssetFilledAmount = leftMakerRemaining
		res.Left.TakerAssetFilledAmount = leftTakerRemaining
		res.Right.MakerAssetFilledAmount = new(uint256.Int).Set(leftTakerRemaining)
		res.Right.TakerAssetFilledAmount, err = partialAmountCeil(right.TakerAssetAmount, right.MakerAssetAmount, res.Right.MakerAssetFilledAmount)
	default:
		fillBoth(res, leftMakerRemaining, leftTakerRemaining, rightMakerRemaining, rightTakerRemaining)
	}
	return err
}

// fillMaximally fills both orders as far as possible; the taker may profit in
// both maker assets.
func fillMaximally(res *exchange.MatchedFillResults, left, right *exchange.Order, leftMakerRemaining, leftTakerRemaining, rightMakerRemaining, rightTakerRemaining *uint256.Int) error {
	var err error
	switch {
	case !leftMakerRemaining.Lt(rightTakerRemaining) && !rightMakerRemaining.Lt(leftTakerRemaining):
		fillBoth(res, leftMakerRemaining, leftTakerRemaining, rightMakerRemaining, rightTakerRemaining)
	case leftMakerRemaining.Lt(rightTakerRemaining):
		// left order is fully filled, right order partially
		res.Left.MakerAssetFilledAmount = leftMakerRemaining
		res.Left.TakerAssetFilledAmount = leftTakerRemaining
		res.Right.TakerAssetFilledAmount = new(uint256.Int).Set(leftMakerRemaining)
		res.Right.MakerAssetFilledAmount, err = partialAmountFloor(right.MakerAssetAmount, right.TakerAssetAmount, leftMakerRemaining)
	default:
		// right order is fully filled, left order partially
		res.Right.MakerAssetFilledAmount = rightMakerRemaining
		res.Right.TakerAssetFilledAmount = rightTakerRemaining
		res.Left.TakerAssetFilledAmount = new(uint256.Int).Set(rightMakerRemaining)
		res.Left.MakerAssetFilledAmount, err = partialAmountFloor(left.MakerAssetAmount, left.TakerAssetAmount, rightMakerRemaining)
	}
	return err
}

func fillBoth(res *exchange.MatchedFillResults, leftMakerRemaining, leftTakerRemaining, rightMakerRemaining, rightTakerRemaining *uint256.Int) {
	res.Left.MakerAssetFilledAmount = leftMakerRemaining
	res.Left.TakerAssetFilledAmount = leftTakerRemaining
	res.Right.MakerAssetFilledAmount = rightMakerRemaining
	res.Right.TakerAssetFilledAmount = rightTakerRemaining
}

// computeFees prorates the order fees to the filled amounts.
func computeFees(r *exchange.FillResults, order *exchange.Order, protocolFee *uint256.Int) error {
	var err error
	if r.MakerFeePaid, err = partialAmountFloor(r.MakerAssetFilledAmount, order.MakerAssetAmount, order.MakerFee); err != nil {
		return err
	}
	if r.TakerFeePaid, err = partialAmountFloor(r.TakerAssetFilledAmount, order.TakerAssetAmount, order.TakerFee); err != nil {
		return err
	}
	r.ProtocolFeePaid = new(uint256.Int).Set(protocolFee)
	return nil
}
