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

	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/0xsoniclabs/shadowfuzz/staking"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrPoolNotFound             = errors.New("staking pool does not exist")
	ErrOnlyPoolOperator         = errors.New("sender is not the pool operator")
	ErrOperatorShareTooLarge    = errors.New("operator share exceeds 100%")
	ErrCanOnlyDecreaseShare     = errors.New("operator share can only be decreased")
	ErrInsufficientWithdrawable = errors.New("insufficient withdrawable stake")
)

// StakeEventArgs of the Stake and Unstake events.
type StakeEventArgs struct {
	Staker common.Address
	Amount *uint256.Int
}

// MoveStakeEventArgs of the MoveStake event.
type MoveStakeEventArgs struct {
	Staker common.Address
	From   staking.StakeInfo
	To     staking.StakeInfo
	Amount *uint256.Int
}

// PoolCreatedEventArgs of the StakingPoolCreated event.
type PoolCreatedEventArgs struct {
	PoolID   common.Hash
	Operator common.Address
	Share    uint32
}

// EpochEndedEventArgs of the EpochEnded event.
type EpochEndedEventArgs struct {
	Epoch       uint64
	ActivePools uint64
}

type stakingContract struct {
	chain *Chain
}

// Staking returns the staking system of the deployment.
func (c *Chain) Staking() staking.Staking {
	return &stakingContract{chain: c}
}

func (k *stakingContract) Vault() common.Address {
	return VaultAddress
}

func (k *stakingContract) Token() contract.AssetID {
	return k.chain.cfg.StakingToken
}

func (k *stakingContract) Stake() contract.Operation[staking.StakeArgs, struct{}] {
	return operation(k.chain, func(a staking.StakeArgs) common.Address { return a.Staker }, gasStake,
		func(s *state, args staking.StakeArgs, e *emitter) (struct{}, error) {
			if err := e.transfer(s, k.Token(), args.Staker, VaultAddress, args.Amount); err != nil {
				return struct{}{}, err
			}
			st := &s.staking
			st.setOwnerStake(args.Staker, staking.Undelegated, st.ownerStakeOf(args.Staker, staking.Undelegated).IncreaseCurrentAndNext(st.epoch, args.Amount))
			st.globalStake[staking.Undelegated] = st.globalStakeOf(staking.Undelegated).IncreaseCurrentAndNext(st.epoch, args.Amount)
			e.emit(contract.StakeEvent, StakeEventArgs{Staker: args.Staker, Amount: new(uint256.Int).Set(args.Amount)})
			return struct{}{}, nil
		})
}

func (k *stakingContract) Unstake() contract.Operation[staking.UnstakeArgs, struct{}] {
	return operation(k.chain, func(a staking.UnstakeArgs) common.Address { return a.Staker }, gasUnstake,
		func(s *state, args staking.UnstakeArgs, e *emitter) (struct{}, error) {
			st := &s.staking
			undelegated := st.ownerStakeOf(args.Staker, staking.Undelegated)
			if withdrawable := undelegated.Withdrawable(st.epoch); withdrawable.Lt(args.Amount) {
				return struct{}{}, errors.Wrapf(ErrInsufficientWithdrawable, "%v < %v", withdrawable, args.Amount)
			}
			updated, err := undelegated.DecreaseCurrentAndNext(st.epoch, args.Amount)
			if err != nil {
				return struct{}{}, err
			}
			global, err := st.globalStakeOf(staking.Undelegated).DecreaseCurrentAndNext(st.epoch, args.Amount)
			if err != nil {
				return struct{}{}, err
			}
			st.setOwnerStake(args.Staker, staking.Undelegated, updated)
			st.globalStake[staking.Undelegated] = global
			if err := e.transfer(s, k.Token(), VaultAddress, args.Staker, args.Amount); err != nil {
				return struct{}{}, err
			}
			e.emit(contract.UnstakeEvent, StakeEventArgs{Staker: args.Staker, Amount: new(uint256.Int).Set(args.Amount)})
			return struct{}{}, nil
		})
}

func (k *stakingContract) MoveStake() contract.Operation[staking.MoveStakeArgs, struct{}] {
	return operation(k.chain, func(a staking.MoveStakeArgs) common.Address { return a.Staker }, gasMoveStake,
		func(s *state, args staking.MoveStakeArgs, e *emitter) (struct{}, error) {
			st := &s.staking
			if args.From.Status == staking.Undelegated && args.To.Status == staking.Undelegated {
				return struct{}{}, nil
			}
			if args.From.Status == staking.Delegated {
				if err := st.undelegate(args.Staker, args.From.PoolID, args.Amount); err != nil {
					return struct{}{}, err
				}
			}
			if args.To.Status == staking.Delegated {
				if err := st.delegate(args.Staker, args.To.PoolID, args.Amount); err != nil {
					return struct{}{}, err
				}
			}
			from, err := st.ownerStakeOf(args.Staker, args.From.Status).DecreaseNext(st.epoch, args.Amount)
			if err != nil {
				return struct{}{}, err
			}
			st.setOwnerStake(args.Staker, args.From.Status, from)
			st.setOwnerStake(args.Staker, args.To.Status, st.ownerStakeOf(args.Staker, args.To.Status).IncreaseNext(st.epoch, args.Amount))

			globalFrom, err := st.globalStakeOf(args.From.Status).DecreaseNext(st.epoch, args.Amount)
			if err != nil {
				return struct{}{}, err
			}
			st.globalStake[args.From.Status] = globalFrom
			st.globalStake[args.To.Status] = st.globalStakeOf(args.To.Status).IncreaseNext(st.epoch, args.Amount)

			e.emit(contract.MoveStakeEvent, MoveStakeEventArgs{Staker: args.Staker, From: args.From, To: args.To, Amount: new(uint256.Int).Set(args.Amount)})
			return struct{}{}, nil
		})
}

func (k *stakingContract) CreateStakingPool() contract.Operation[staking.CreateStakingPoolArgs, common.Hash] {
	return operation(k.chain, func(a staking.CreateStakingPoolArgs) common.Address { return a.Operator }, gasCreatePool,
		func(s *state, args staking.CreateStakingPoolArgs, e *emitter) (common.Hash, error) {
			if args.OperatorShare > staking.PPMDenominator {
				return common.Hash{}, errors.Wrapf(ErrOperatorShareTooLarge, "share %d", args.OperatorShare)
			}
			st := &s.staking
			st.poolNonce++
			id := common.Hash(uint256.NewInt(st.poolNonce).Bytes32())
			st.pools[id] = staking.Pool{Operator: args.Operator, OperatorShare: args.OperatorShare}
			e.emit(contract.StakingPoolCreatedEvent, PoolCreatedEventArgs{PoolID: id, Operator: args.Operator, Share: args.OperatorShare})
			return id, nil
		})
}

func (k *stakingContract) DecreaseStakingPoolOperatorShare() contract.Operation[staking.DecreaseOperatorShareArgs, struct{}] {
	return operation(k.chain, func(a staking.DecreaseOperatorShareArgs) common.Address { return a.Operator }, gasDecreaseShare,
		func(s *state, args staking.DecreaseOperatorShareArgs, e *emitter) (struct{}, error) {
			st := &s.staking
			pool, ok := st.pools[args.PoolID]
			if !ok {
				return struct{}{}, errors.Wrapf(ErrPoolNotFound, "pool %v", args.PoolID.Hex())
			}
			if pool.Operator != args.Operator {
				return struct{}{}, errors.Wrapf(ErrOnlyPoolOperator, "%v", args.Operator.Hex())
			}
			if args.Share > staking.PPMDenominator {
				return struct{}{}, errors.Wrapf(ErrOperatorShareTooLarge, "share %d", args.Share)
			}
			if args.Share > pool.OperatorShare {
				return struct{}{}, errors.Wrapf(ErrCanOnlyDecreaseShare, "%d > %d", args.Share, pool.OperatorShare)
			}
			pool.OperatorShare = args.Share
			st.pools[args.PoolID] = pool
			e.emit(contract.OperatorShareDecreasedEvent, PoolCreatedEventArgs{PoolID: args.PoolID, Operator: args.Operator, Share: args.Share})
			return struct{}{}, nil
		})
}

func (k *stakingContract) EndEpoch() contract.Operation[staking.EndEpochArgs, uint64] {
	return operation(k.chain, func(a staking.EndEpochArgs) common.Address { return a.Keeper }, gasEndEpoch,
		func(s *state, _ staking.EndEpochArgs, e *emitter) (uint64, error) {
			st := &s.staking
			st.epoch++
			active := uint64(0)
			for id := range st.pools {
				if !st.poolDelegatedOf(id).Synced(st.epoch).Current.Lt(k.chain.cfg.MinimumPoolStake) {
					active++
				}
			}
			e.emit(contract.EpochEndedEvent, EpochEndedEventArgs{Epoch: st.epoch, ActivePools: active})
			return active, nil
		})
}

func (k *stakingContract) CurrentEpoch() contract.Caller[struct{}, uint64] {
	return getter(k.chain, func(s *state, _ struct{}) (uint64, error) {
		return s.staking.epoch, nil
	})
}

func (k *stakingContract) OwnerStakeByStatus() contract.Caller[staking.OwnerStakeQuery, staking.StoredBalance] {
	return getter(k.chain, func(s *state, q staking.OwnerStakeQuery) (staking.StoredBalance, error) {
		return s.staking.ownerStakeOf(q.Owner, q.Status).Synced(s.staking.epoch), nil
	})
}

func (k *stakingContract) GlobalStakeByStatus() contract.Caller[staking.StakeStatus, staking.StoredBalance] {
	return getter(k.chain, func(s *state, status staking.StakeStatus) (staking.StoredBalance, error) {
		return s.staking.globalStakeOf(status).Synced(s.staking.epoch), nil
	})
}

func (k *stakingContract) StakeDelegatedToPoolByOwner() contract.Caller[staking.PoolStakeQuery, staking.StoredBalance] {
	return getter(k.chain, func(s *state, q staking.PoolStakeQuery) (staking.StoredBalance, error) {
		return s.staking.delegatedOf(q.Owner, q.PoolID).Synced(s.staking.epoch), nil
	})
}

func (k *stakingContract) TotalStakeDelegatedToPool() contract.Caller[common.Hash, staking.StoredBalance] {
	return getter(k.chain, func(s *state, id common.Hash) (staking.StoredBalance, error) {
		return s.staking.poolDelegatedOf(id).Synced(s.staking.epoch), nil
	})
}

func (k *stakingContract) StakingPool() contract.Caller[common.Hash, staking.Pool] {
	return getter(k.chain, func(s *state, id common.Hash) (staking.Pool, error) {
		pool, ok := s.staking.pools[id]
		if !ok {
			return staking.Pool{}, errors.Wrapf(ErrPoolNotFound, "pool %v", id.Hex())
		}
		return pool, nil
	})
}

// getter exposes a read-only view of the state.
func getter[A any, R any](c *Chain, read func(s *state, args A) (R, error)) contract.Func[A, R] {
	return contract.Getter(func(ctx context.Context, args A) (R, error) {
		c.mutex.Lock()
		defer c.mutex.Unlock()
		if err := ctx.Err(); err != nil {
			var zero R
			return zero, err
		}
		return read(c.state, args)
	})
}

func (st *stakingState) undelegate(owner common.Address, id common.Hash, amount *uint256.Int) error {
	if _, ok := st.pools[id]; !ok {
		return errors.Wrapf(ErrPoolNotFound, "pool %v", id.Hex())
	}
	byOwner, err := st.delegatedOf(owner, id).DecreaseNext(st.epoch, amount)
	if err != nil {
		return err
	}
	total, err := st.poolDelegatedOf(id).DecreaseNext(st.epoch, amount)
	if err != nil {
		return err
	}
	st.setDelegated(owner, id, byOwner)
	st.poolDelegated[id] = total
	return nil
}

func (st *stakingState) delegate(owner common.Address, id common.Hash, amount *uint256.Int) error {
	if _, ok := st.pools[id]; !ok {
		return errors.Wrapf(ErrPoolNotFound, "pool %v", id.Hex())
	}
	st.setDelegated(owner, id, st.delegatedOf(owner, id).IncreaseNext(st.epoch, amount))
	st.poolDelegated[id] = st.poolDelegatedOf(id).IncreaseNext(st.epoch, amount)
	return nil
}

func (st *stakingState) ownerStakeOf(owner common.Address, status staking.StakeStatus) staking.StoredBalance {
	if b, ok := st.ownerStake[owner][status]; ok {
		return b
	}
	return staking.NewStoredBalance(st.epoch)
}

func (st *stakingState) setOwnerStake(owner common.Address, status staking.StakeStatus, b staking.StoredBalance) {
	if _, ok := st.ownerStake[owner]; !ok {
		st.ownerStake[owner] = map[staking.StakeStatus]staking.StoredBalance{}
	}
	st.ownerStake[owner][status] = b
}

func (st *stakingState) globalStakeOf(status staking.StakeStatus) staking.StoredBalance {
	if b, ok := st.globalStake[status]; ok {
		return b
	}
	return staking.NewStoredBalance(st.epoch)
}

func (st *stakingState) delegatedOf(owner common.Address, id common.Hash) staking.StoredBalance {
	if b, ok := st.delegated[owner][id]; ok {
		return b
	}
	return staking.NewStoredBalance(st.epoch)
}

func (st *stakingState) setDelegated(owner common.Address, id common.Hash, b staking.StoredBalance) {
	if _, ok := st.delegated[owner]; !ok {
		st.delegated[owner] = map[common.Hash]staking.StoredBalance{}
	}
	st.delegated[owner][id] = b
}

func (st *stakingState) poolDelegatedOf(id common.Hash) staking.StoredBalance {
	if b, ok := st.poolDelegated[id]; ok {
		return b
	}
	return staking.NewStoredBalance(st.epoch)
}
