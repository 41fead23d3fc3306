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

package pools

import (
	"context"

	"github.com/0xsoniclabs/shadowfuzz/assertion"
	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/0xsoniclabs/shadowfuzz/staking"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// reasons the model predicts an operation to fail
var (
	ErrInsufficientTokens       = errors.New("insufficient staking token balance")
	ErrInsufficientWithdrawable = errors.New("insufficient withdrawable stake")
	ErrInsufficientStake        = errors.New("insufficient stake to move")
	ErrUnknownPool              = errors.New("unknown staking pool")
	ErrNotPoolOperator          = errors.New("not the pool operator")
	ErrInvalidOperatorShare     = errors.New("operator share above 100%")
	ErrShareIncrease            = errors.New("operator share increase")
)

// prediction is the outcome the model expects, captured before the operation.
type prediction struct {
	err error
}

// involved lists the model entries an operation may touch.
type involved struct {
	owners []common.Address
	pools  []common.Hash
}

// operationModel describes one staking operation to the model.
type operationModel[A any, R any] struct {
	name     string
	op       contract.Operation[A, R]
	predict  func(args A) error
	apply    func(args A, result R) error
	involved func(args A, result R) involved
}

func newAssertion[A any, R any](e *SimulationEnvironment, m operationModel[A, R]) *assertion.FunctionAssertion[A, R, prediction] {
	return assertion.NewFunctionAssertion(m.name, m.op, assertion.Condition[A, R, prediction]{
		Before: func(_ context.Context, args A) (prediction, error) {
			return prediction{err: m.predict(args)}, nil
		},
		After: func(ctx context.Context, before prediction, result assertion.Result[R], args A) error {
			e.flush()
			if !result.Success {
				if before.err == nil {
					return assertion.Succeeded("outcome of "+m.name, result)
				}
				e.log.Debugf("%v failed as expected (%v): %v", m.name, before.err, result.Err)
				var zero R
				return e.check(ctx, m.involved(args, zero))
			}
			if before.err != nil {
				return assertion.Failed("outcome of "+m.name, result, before.err)
			}
			if err := e.burnGas(result.Receipt); err != nil {
				return err
			}
			if err := m.apply(args, result.Value); err != nil {
				return err
			}
			return e.check(ctx, m.involved(args, result.Value))
		},
	})
}

// Stake checks a deposit of undelegated stake.
func (e *SimulationEnvironment) Stake() *assertion.FunctionAssertion[staking.StakeArgs, struct{}, prediction] {
	return newAssertion(e, operationModel[staking.StakeArgs, struct{}]{
		name: "stake",
		op:   e.staking.Stake(),
		predict: func(args staking.StakeArgs) error {
			if e.TokenBalance(args.Staker).Lt(args.Amount) {
				return ErrInsufficientTokens
			}
			return nil
		},
		apply: func(args staking.StakeArgs, _ struct{}) error {
			if err := e.store.Transfer(args.Staker, e.staking.Vault(), args.Amount, e.staking.Token()); err != nil {
				return errors.Wrap(err, "cannot deposit stake")
			}
			e.setOwnerStake(args.Staker, staking.Undelegated, e.StakeOf(args.Staker, staking.Undelegated).IncreaseCurrentAndNext(e.Epoch, args.Amount))
			e.GlobalStake[staking.Undelegated] = e.GlobalStakeOf(staking.Undelegated).IncreaseCurrentAndNext(e.Epoch, args.Amount)
			return nil
		},
		involved: func(args staking.StakeArgs, _ struct{}) involved {
			return involved{owners: []common.Address{args.Staker}}
		},
	})
}

// Unstake checks a withdrawal of undelegated stake.
func (e *SimulationEnvironment) Unstake() *assertion.FunctionAssertion[staking.UnstakeArgs, struct{}, prediction] {
	return newAssertion(e, operationModel[staking.UnstakeArgs, struct{}]{
		name: "unstake",
		op:   e.staking.Unstake(),
		predict: func(args staking.UnstakeArgs) error {
			if e.Withdrawable(args.Staker).Lt(args.Amount) {
				return ErrInsufficientWithdrawable
			}
			return nil
		},
		apply: func(args staking.UnstakeArgs, _ struct{}) error {
			owner, err := e.StakeOf(args.Staker, staking.Undelegated).DecreaseCurrentAndNext(e.Epoch, args.Amount)
			if err != nil {
				return err
			}
			global, err := e.GlobalStakeOf(staking.Undelegated).DecreaseCurrentAndNext(e.Epoch, args.Amount)
			if err != nil {
				return err
			}
			if err := e.store.Transfer(e.staking.Vault(), args.Staker, args.Amount, e.staking.Token()); err != nil {
				return errors.Wrap(err, "cannot withdraw stake")
			}
			e.setOwnerStake(args.Staker, staking.Undelegated, owner)
			e.GlobalStake[staking.Undelegated] = global
			return nil
		},
		involved: func(args staking.UnstakeArgs, _ struct{}) involved {
			return involved{owners: []common.Address{args.Staker}}
		},
	})
}

// MoveStake checks a move of stake between statuses and pools.
func (e *SimulationEnvironment) MoveStake() *assertion.FunctionAssertion[staking.MoveStakeArgs, struct{}, prediction] {
	return newAssertion(e, operationModel[staking.MoveStakeArgs, struct{}]{
		name: "moveStake",
		op:   e.staking.MoveStake(),
		predict: func(args staking.MoveStakeArgs) error {
			if args.From.Status == staking.Undelegated && args.To.Status == staking.Undelegated {
				return nil
			}
			for _, info := range []staking.StakeInfo{args.From, args.To} {
				if _, ok := e.StakingPools[info.PoolID]; info.Status == staking.Delegated && !ok {
					return ErrUnknownPool
				}
			}
			if args.From.Status == staking.Delegated && e.DelegatedTo(args.Staker, args.From.PoolID).Next.Lt(args.Amount) {
				return ErrInsufficientStake
			}
			if e.StakeOf(args.Staker, args.From.Status).Next.Lt(args.Amount) {
				return ErrInsufficientStake
			}
			return nil
		},
		apply: func(args staking.MoveStakeArgs, _ struct{}) error {
			if args.From.Status == staking.Undelegated && args.To.Status == staking.Undelegated {
				return nil
			}
			if args.From.Status == staking.Delegated {
				if err := e.moveDelegation(args.Staker, args.From.PoolID, args.Amount, false); err != nil {
					return err
				}
			}
			if args.To.Status == staking.Delegated {
				if err := e.moveDelegation(args.Staker, args.To.PoolID, args.Amount, true); err != nil {
					return err
				}
			}
			from, err := e.StakeOf(args.Staker, args.From.Status).DecreaseNext(e.Epoch, args.Amount)
			if err != nil {
				return err
			}
			e.setOwnerStake(args.Staker, args.From.Status, from)
			e.setOwnerStake(args.Staker, args.To.Status, e.StakeOf(args.Staker, args.To.Status).IncreaseNext(e.Epoch, args.Amount))

			globalFrom, err := e.GlobalStakeOf(args.From.Status).DecreaseNext(e.Epoch, args.Amount)
			if err != nil {
				return err
			}
			e.GlobalStake[args.From.Status] = globalFrom
			e.GlobalStake[args.To.Status] = e.GlobalStakeOf(args.To.Status).IncreaseNext(e.Epoch, args.Amount)
			return nil
		},
		involved: func(args staking.MoveStakeArgs, _ struct{}) involved {
			res := involved{owners: []common.Address{args.Staker}}
			for _, info := range []staking.StakeInfo{args.From, args.To} {
				if info.Status == staking.Delegated {
					res.pools = append(res.pools, info.PoolID)
				}
			}
			return res
		},
	})
}

func (e *SimulationEnvironment) moveDelegation(owner common.Address, id common.Hash, amount *uint256.Int, increase bool) error {
	pool, ok := e.StakingPools[id]
	if !ok {
		return errors.Wrapf(ErrUnknownPool, "%v", id.Hex())
	}
	byOwner, total := e.DelegatedTo(owner, id), pool.Delegated.Synced(e.Epoch)
	if increase {
		pool.DelegatedBy[owner] = byOwner.IncreaseNext(e.Epoch, amount)
		pool.Delegated = total.IncreaseNext(e.Epoch, amount)
		return nil
	}
	var err error
	if byOwner, err = byOwner.DecreaseNext(e.Epoch, amount); err != nil {
		return err
	}
	if total, err = total.DecreaseNext(e.Epoch, amount); err != nil {
		return err
	}
	pool.DelegatedBy[owner], pool.Delegated = byOwner, total
	return nil
}

// CreateStakingPool checks the creation of a pool. The model adopts the pool
// id the deployment returns.
func (e *SimulationEnvironment) CreateStakingPool() *assertion.FunctionAssertion[staking.CreateStakingPoolArgs, common.Hash, prediction] {
	return newAssertion(e, operationModel[staking.CreateStakingPoolArgs, common.Hash]{
		name: "createStakingPool",
		op:   e.staking.CreateStakingPool(),
		predict: func(args staking.CreateStakingPoolArgs) error {
			if args.OperatorShare > staking.PPMDenominator {
				return ErrInvalidOperatorShare
			}
			return nil
		},
		apply: func(args staking.CreateStakingPoolArgs, id common.Hash) error {
			if _, exists := e.StakingPools[id]; exists {
				return &assertion.Violation{Field: "id of new pool", Want: "unused id", Have: id.Hex()}
			}
			e.StakingPools[id] = &PoolState{
				Operator:      args.Operator,
				OperatorShare: args.OperatorShare,
				Delegated:     staking.NewStoredBalance(e.Epoch),
				DelegatedBy:   map[common.Address]staking.StoredBalance{},
			}
			return nil
		},
		involved: func(args staking.CreateStakingPoolArgs, id common.Hash) involved {
			if id == (common.Hash{}) {
				return involved{}
			}
			return involved{pools: []common.Hash{id}}
		},
	})
}

// DecreaseStakingPoolOperatorShare checks an update of a pool's operator share.
func (e *SimulationEnvironment) DecreaseStakingPoolOperatorShare() *assertion.FunctionAssertion[staking.DecreaseOperatorShareArgs, struct{}, prediction] {
	return newAssertion(e, operationModel[staking.DecreaseOperatorShareArgs, struct{}]{
		name: "decreaseStakingPoolOperatorShare",
		op:   e.staking.DecreaseStakingPoolOperatorShare(),
		predict: func(args staking.DecreaseOperatorShareArgs) error {
			pool, ok := e.StakingPools[args.PoolID]
			switch {
			case !ok:
				return ErrUnknownPool
			case pool.Operator != args.Operator:
				return ErrNotPoolOperator
			case args.Share > staking.PPMDenominator:
				return ErrInvalidOperatorShare
			case args.Share > pool.OperatorShare:
				return ErrShareIncrease
			}
			return nil
		},
		apply: func(args staking.DecreaseOperatorShareArgs, _ struct{}) error {
			e.StakingPools[args.PoolID].OperatorShare = args.Share
			return nil
		},
		involved: func(args staking.DecreaseOperatorShareArgs, _ struct{}) involved {
			return involved{pools: []common.Hash{args.PoolID}}
		},
	})
}

// EndEpoch checks the transition to the next epoch. Pending stake becomes
// active; the returned number of active pools must match the model.
func (e *SimulationEnvironment) EndEpoch() *assertion.FunctionAssertion[staking.EndEpochArgs, uint64, prediction] {
	return newAssertion(e, operationModel[staking.EndEpochArgs, uint64]{
		name:    "endEpoch",
		op:      e.staking.EndEpoch(),
		predict: func(staking.EndEpochArgs) error { return nil },
		apply: func(_ staking.EndEpochArgs, active uint64) error {
			e.Epoch++
			return assertion.Equal("number of active pools", e.ActivePools(), active)
		},
		involved: func(staking.EndEpochArgs, uint64) involved {
			return involved{pools: e.Pools()}
		},
	})
}

func (e *SimulationEnvironment) burnGas(receipt *contract.Receipt) error {
	if receipt == nil {
		return errors.New("missing receipt of successful operation")
	}
	gas := new(uint256.Int).Mul(uint256.NewInt(receipt.GasUsed), e.cfg.GasPrice)
	return errors.Wrap(e.store.BurnGas(receipt.From, gas), "cannot burn gas")
}

// check compares the model with the live deployment.
func (e *SimulationEnvironment) check(ctx context.Context, in involved) error {
	epoch, err := e.epoch.Call(ctx, struct{}{})
	if err != nil {
		return err
	}
	if err := assertion.Equal("epoch", e.Epoch, epoch); err != nil {
		return err
	}
	for _, status := range staking.StakeStatuses {
		have, err := e.globalStake.Call(ctx, status)
		if err != nil {
			return err
		}
		if err := equalStored("global "+status.String()+" stake", e.GlobalStakeOf(status), have); err != nil {
			return err
		}
		for _, owner := range in.owners {
			have, err := e.ownerStake.Call(ctx, staking.OwnerStakeQuery{Owner: owner, Status: status})
			if err != nil {
				return err
			}
			if err := equalStored(status.String()+" stake of "+owner.Hex(), e.StakeOf(owner, status), have); err != nil {
				return err
			}
		}
	}
	for _, id := range in.pools {
		if err := e.checkPool(ctx, id, in.owners); err != nil {
			return err
		}
	}
	if err := e.snapshot.UpdateBalances(ctx); err != nil {
		return errors.Wrap(err, "cannot refresh balances")
	}
	return e.store.AssertEquals(e.snapshot.Balances())
}

func (e *SimulationEnvironment) checkPool(ctx context.Context, id common.Hash, owners []common.Address) error {
	want, ok := e.StakingPools[id]
	if !ok {
		return nil
	}
	pool, err := e.pools.Call(ctx, id)
	if err != nil {
		return err
	}
	if err := assertion.Equal("pool "+id.Hex(), staking.Pool{Operator: want.Operator, OperatorShare: want.OperatorShare}, pool); err != nil {
		return err
	}
	total, err := e.poolStake.Call(ctx, id)
	if err != nil {
		return err
	}
	if err := equalStored("stake delegated to "+id.Hex(), want.Delegated.Synced(e.Epoch), total); err != nil {
		return err
	}
	for _, owner := range owners {
		have, err := e.poolByOwner.Call(ctx, staking.PoolStakeQuery{Owner: owner, PoolID: id})
		if err != nil {
			return err
		}
		if err := equalStored("stake of "+owner.Hex()+" delegated to "+id.Hex(), e.DelegatedTo(owner, id), have); err != nil {
			return err
		}
	}
	return nil
}

func equalStored(field string, want, have staking.StoredBalance) error {
	if !want.Equal(have) {
		return &assertion.Violation{Field: field, Want: want, Have: have}
	}
	return nil
}
