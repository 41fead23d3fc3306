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
	"context"
	"strconv"

	"github.com/0xsoniclabs/shadowfuzz/assertion"
	"github.com/0xsoniclabs/shadowfuzz/balance"
	"github.com/0xsoniclabs/shadowfuzz/cache"
	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/0xsoniclabs/shadowfuzz/exchange"
	"github.com/0xsoniclabs/shadowfuzz/logger"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Expect selects which outcomes of a match are acceptable.
type Expect uint8

const (
	ExpectSuccess Expect = iota
	ExpectFailure
	ExpectAny // fuzzed matches may be rejected by the exchange
)

// Expectation describes the predicted outcome of a match.
type Expectation struct {
	// Amounts are the expected transfer amounts. If nil, they are derived
	// from the fill results the exchange reports.
	Amounts *PartialMatchTransferAmounts
	Expect  Expect
	// Err optionally restricts the error of a failed match.
	Err error
}

// MatchOrderTester runs matches against the exchange and checks that the
// emitted transfers, the order fill amounts and the resulting balances equal
// the ones predicted by the shadow ledger.
type MatchOrderTester struct {
	exchange exchange.Exchange
	store    *balance.LocalStore
	snapshot balance.Snapshot
	filled   *cache.Getter[common.Hash, *uint256.Int]
	fees     ProtocolFees
	log      logger.Logger
}

// NewMatchOrderTester creates a tester that advances store with every match.
func NewMatchOrderTester(ex exchange.Exchange, store *balance.LocalStore, snapshot balance.Snapshot, fees ProtocolFees, log logger.Logger) *MatchOrderTester {
	return &MatchOrderTester{
		exchange: ex,
		store:    store,
		snapshot: snapshot,
		filled:   cache.NewGetter(ex.Filled()),
		fees:     fees,
		log:      log,
	}
}

// Store returns the shadow ledger of the tester.
func (t *MatchOrderTester) Store() *balance.LocalStore {
	return t.store
}

type matchBefore struct {
	leftFilled, rightFilled *uint256.Int
}

// MatchOrders matches two orders and checks the outcome against expect.
func (t *MatchOrderTester) MatchOrders(ctx context.Context, args exchange.MatchOrdersArgs, expect Expectation) (assertion.Result[exchange.MatchedFillResults], error) {
	a := assertion.NewFunctionAssertion("matchOrders", t.exchange.MatchOrders(), assertion.Condition[exchange.MatchOrdersArgs, exchange.MatchedFillResults, matchBefore]{
		Before: func(ctx context.Context, args exchange.MatchOrdersArgs) (matchBefore, error) {
			left, err := t.filledAmount(ctx, args.Left.Hash())
			if err != nil {
				return matchBefore{}, err
			}
			right, err := t.filledAmount(ctx, args.Right.Hash())
			if err != nil {
				return matchBefore{}, err
			}
			return matchBefore{leftFilled: left, rightFilled: right}, nil
		},
		After: func(ctx context.Context, before matchBefore, result assertion.Result[exchange.MatchedFillResults], args exchange.MatchOrdersArgs) error {
			t.filled.Flush()
			if err := checkOutcome("matchOrders", result, expect); err != nil {
				return err
			}
			if !result.Success {
				return t.checkFailure(ctx, result.Err, map[common.Hash]*uint256.Int{
					args.Left.Hash():  before.leftFilled,
					args.Right.Hash(): before.rightFilled,
				})
			}

			amounts := FromMatchedFillResults(result.Value)
			if expect.Amounts != nil {
				amounts = ToFullMatchTransferAmounts(*expect.Amounts)
				if err := checkFillResults(amounts, result.Value); err != nil {
					return err
				}
			}
			if err := checkMakerPrice("left", &args.Left.Order, result.Value.Left); err != nil {
				return err
			}
			if err := checkMakerPrice("right", &args.Right.Order, result.Value.Right); err != nil {
				return err
			}

			want, err := SimulateMatchOrders(t.store, args.Left.Order, args.Right.Order, args.Taker, amounts, t.fees, args.Value)
			if err != nil {
				return errors.Wrap(err, "cannot simulate match")
			}
			if err := t.checkReceipt(want, result.Receipt); err != nil {
				return err
			}

			expectedFills := map[common.Hash]*uint256.Int{
				args.Left.Hash():  new(uint256.Int).Add(before.leftFilled, amounts.RightMakerAssetBoughtByLeftMakerAmount),
				args.Right.Hash(): new(uint256.Int).Add(before.rightFilled, amounts.LeftMakerAssetBoughtByRightMakerAmount),
			}
			if err := t.checkFilled(ctx, expectedFills); err != nil {
				return err
			}
			return t.checkBalances(ctx)
		},
	})
	info, err := a.Execute(ctx, args)
	return info.Result, err
}

type batchBefore struct {
	leftFilled, rightFilled []*uint256.Int
}

// BatchMatchOrders runs a batch match. The pairs list the expected matches in
// the order the exchange performs them.
func (t *MatchOrderTester) BatchMatchOrders(ctx context.Context, args exchange.BatchMatchOrdersArgs, pairs []MatchedPair, expect Expectation) (assertion.Result[exchange.BatchMatchedFillResults], error) {
	a := assertion.NewFunctionAssertion("batchMatchOrders", t.exchange.BatchMatchOrders(), assertion.Condition[exchange.BatchMatchOrdersArgs, exchange.BatchMatchedFillResults, batchBefore]{
		Before: func(ctx context.Context, args exchange.BatchMatchOrdersArgs) (batchBefore, error) {
			var res batchBefore
			var err error
			if res.leftFilled, err = t.filledAmounts(ctx, args.Left); err != nil {
				return res, err
			}
			if res.rightFilled, err = t.filledAmounts(ctx, args.Right); err != nil {
				return res, err
			}
			return res, nil
		},
		After: func(ctx context.Context, before batchBefore, result assertion.Result[exchange.BatchMatchedFillResults], args exchange.BatchMatchOrdersArgs) error {
			t.filled.Flush()
			if err := checkOutcome("batchMatchOrders", result, expect); err != nil {
				return err
			}
			if !result.Success {
				unchanged := map[common.Hash]*uint256.Int{}
				for i, o := range args.Left {
					unchanged[o.Hash()] = before.leftFilled[i]
				}
				for i, o := range args.Right {
					unchanged[o.Hash()] = before.rightFilled[i]
				}
				return t.checkFailure(ctx, result.Err, unchanged)
			}

			left, right := unsigned(args.Left), unsigned(args.Right)
			tracker, err := NewBatchFillTracker(left, right, before.leftFilled, before.rightFilled)
			if err != nil {
				return err
			}
			want, err := SimulateBatchMatchOrders(t.store, left, right, args.Taker, pairs, t.fees, args.Value, tracker)
			if err != nil {
				return errors.Wrap(err, "cannot simulate batch match")
			}
			if err := checkBatchFillResults(pairs, result.Value, len(left), len(right)); err != nil {
				return err
			}
			if err := t.checkReceipt(want, result.Receipt); err != nil {
				return err
			}

			leftFilled, rightFilled := tracker.Filled()
			expectedFills := map[common.Hash]*uint256.Int{}
			for i, o := range args.Left {
				expectedFills[o.Hash()] = leftFilled[i]
			}
			for i, o := range args.Right {
				expectedFills[o.Hash()] = rightFilled[i]
			}
			if err := t.checkFilled(ctx, expectedFills); err != nil {
				return err
			}
			return t.checkBalances(ctx)
		},
	})
	info, err := a.Execute(ctx, args)
	return info.Result, err
}

// checkOutcome compares the outcome of a match with expect.
func checkOutcome[R any](name string, result assertion.Result[R], expect Expectation) error {
	switch {
	case expect.Expect == ExpectSuccess:
		return assertion.Succeeded("outcome of "+name, result)
	case expect.Expect == ExpectFailure:
		return assertion.Failed("outcome of "+name, result, expect.Err)
	case !result.Success:
		return assertion.Failed("outcome of "+name, result, expect.Err)
	}
	return nil
}

// checkFailure accepts a failed match if nothing changed.
func (t *MatchOrderTester) checkFailure(ctx context.Context, err error, unchanged map[common.Hash]*uint256.Int) error {
	t.log.Debugf("match rejected: %v", err)
	if err := t.checkFilled(ctx, unchanged); err != nil {
		return err
	}
	return t.checkBalances(ctx)
}

// checkReceipt burns the gas of the transaction in the shadow ledger and
// compares the emitted transfers with the predicted ones.
func (t *MatchOrderTester) checkReceipt(want []contract.TransferArgs, receipt *contract.Receipt) error {
	if receipt == nil {
		return errors.New("missing receipt of successful match")
	}
	gas := new(uint256.Int).Mul(uint256.NewInt(receipt.GasUsed), t.gasPrice())
	if err := t.store.BurnGas(receipt.From, gas); err != nil {
		return errors.Wrap(err, "cannot burn gas")
	}
	return assertion.Equal("transfers", want, receipt.Transfers())
}

func (t *MatchOrderTester) checkFilled(ctx context.Context, want map[common.Hash]*uint256.Int) error {
	for hash, amount := range want {
		have, err := t.filledAmount(ctx, hash)
		if err != nil {
			return err
		}
		if err := assertion.EqualUint256("filled amount of order "+hash.Hex(), amount, have); err != nil {
			return err
		}
	}
	return nil
}

func (t *MatchOrderTester) checkBalances(ctx context.Context) error {
	if err := t.snapshot.UpdateBalances(ctx); err != nil {
		return errors.Wrap(err, "cannot refresh balances")
	}
	return t.store.AssertEquals(t.snapshot.Balances())
}

func (t *MatchOrderTester) filledAmount(ctx context.Context, hash common.Hash) (*uint256.Int, error) {
	v, err := t.filled.Call(ctx, hash)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot query filled amount of %v", hash.Hex())
	}
	return firstOf(v), nil
}

func (t *MatchOrderTester) filledAmounts(ctx context.Context, orders []exchange.SignedOrder) ([]*uint256.Int, error) {
	res := make([]*uint256.Int, len(orders))
	for i := range orders {
		v, err := t.filledAmount(ctx, orders[i].Hash())
		if err != nil {
			return nil, err
		}
		res[i] = v
	}
	return res, nil
}

func (t *MatchOrderTester) gasPrice() *uint256.Int {
	return firstOf(t.fees.GasPrice)
}

// checkFillResults compares the reported fill results with expected amounts.
func checkFillResults(amounts MatchTransferAmounts, results exchange.MatchedFillResults) error {
	checks := []struct {
		field      string
		want, have *uint256.Int
	}{
		{"left maker asset filled", amounts.LeftMakerAssetSoldByLeftMakerAmount, results.Left.MakerAssetFilledAmount},
		{"left taker asset filled", amounts.RightMakerAssetBoughtByLeftMakerAmount, results.Left.TakerAssetFilledAmount},
		{"right maker asset filled", amounts.RightMakerAssetSoldByRightMakerAmount, results.Right.MakerAssetFilledAmount},
		{"right taker asset filled", amounts.LeftMakerAssetBoughtByRightMakerAmount, results.Right.TakerAssetFilledAmount},
		{"left maker fee", amounts.LeftMakerFeeAssetPaidByLeftMakerAmount, results.Left.MakerFeePaid},
		{"right maker fee", amounts.RightMakerFeeAssetPaidByRightMakerAmount, results.Right.MakerFeePaid},
		{"left taker fee", amounts.LeftTakerFeeAssetPaidByTakerAmount, results.Left.TakerFeePaid},
		{"right taker fee", amounts.RightTakerFeeAssetPaidByTakerAmount, results.Right.TakerFeePaid},
		{"profit in left maker asset", amounts.LeftMakerAssetReceivedByTakerAmount, results.ProfitInLeftMakerAsset},
		{"profit in right maker asset", amounts.RightMakerAssetReceivedByTakerAmount, results.ProfitInRightMakerAsset},
	}
	for _, c := range checks {
		if err := assertion.EqualUint256(c.field, c.want, c.have); err != nil {
			return err
		}
	}
	return nil
}

// checkBatchFillResults compares the accumulated per-order results of a batch
// with the sums of the expected pair amounts.
func checkBatchFillResults(pairs []MatchedPair, results exchange.BatchMatchedFillResults, numLeft, numRight int) error {
	if len(results.Left) != numLeft || len(results.Right) != numRight {
		return &assertion.Violation{Field: "number of batch results", Want: []int{numLeft, numRight}, Have: []int{len(results.Left), len(results.Right)}}
	}
	leftSold := zeros(numLeft)
	rightSold := zeros(numRight)
	for _, p := range pairs {
		leftSold[p.LeftIndex].Add(leftSold[p.LeftIndex], p.Amounts.LeftMakerAssetSoldByLeftMakerAmount)
		rightSold[p.RightIndex].Add(rightSold[p.RightIndex], p.Amounts.RightMakerAssetSoldByRightMakerAmount)
	}
	for i := range leftSold {
		if err := assertion.EqualUint256("maker asset filled of left order "+strconv.Itoa(i), leftSold[i], results.Left[i].MakerAssetFilledAmount); err != nil {
			return err
		}
	}
	for i := range rightSold {
		if err := assertion.EqualUint256("maker asset filled of right order "+strconv.Itoa(i), rightSold[i], results.Right[i].MakerAssetFilledAmount); err != nil {
			return err
		}
	}
	return nil
}

// checkMakerPrice verifies that rounding never sells a maker's asset below
// the order's price.
func checkMakerPrice(side string, order *exchange.Order, fill exchange.FillResults) error {
	// makerFilled / takerFilled <= makerAmount / takerAmount
	lhs := new(uint256.Int).Mul(firstOf(fill.MakerAssetFilledAmount), firstOf(order.TakerAssetAmount))
	rhs := new(uint256.Int).Mul(firstOf(fill.TakerAssetFilledAmount), firstOf(order.MakerAssetAmount))
	if lhs.Gt(rhs) {
		return &assertion.Violation{Field: side + " maker price", Want: "at most " + rhs.Dec(), Have: lhs.Dec()}
	}
	return nil
}

func unsigned(orders []exchange.SignedOrder) []exchange.Order {
	res := make([]exchange.Order, len(orders))
	for i := range orders {
		res[i] = orders[i].Order
	}
	return res
}

func zeros(n int) []*uint256.Int {
	res := make([]*uint256.Int, n)
	for i := range res {
		res[i] = new(uint256.Int)
	}
	return res
}
