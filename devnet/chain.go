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

// Package devnet is an in-process reference deployment of a ledger with an
// order-matching exchange, a staking system and a wrapped native asset.
// Calls run on a scratch copy of the state; submissions commit it and charge
// gasUsed*gasPrice of the native asset to the sender. Reverting submissions
// are rejected without a receipt and without charging gas.
package devnet

import (
	"context"
	"sync"

	"github.com/0xsoniclabs/shadowfuzz/balance"
	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/0xsoniclabs/shadowfuzz/logger"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// well-known contract addresses
var (
	ExchangeAddress = common.HexToAddress("0x00000000000000000000000000000000000e0001")
	StakingAddress  = common.HexToAddress("0x00000000000000000000000000000000000e0002")
	VaultAddress    = common.HexToAddress("0x00000000000000000000000000000000000e0003")
	WethAddress     = common.HexToAddress("0x00000000000000000000000000000000000e0004")
)

const (
	DefaultStakingToken contract.AssetID = "ZRX"
	DefaultWrappedAsset contract.AssetID = "WETH"
)

// gas used by the operations of the deployment
const (
	gasTransfer          = 21_000
	gasMatchOrders       = 210_000
	gasBatchMatchPerPair = 150_000
	gasStake             = 90_000
	gasUnstake           = 80_000
	gasMoveStake         = 70_000
	gasCreatePool        = 110_000
	gasDecreaseShare     = 40_000
	gasEndEpoch          = 60_000
	gasDeposit           = 45_000
	gasWithdraw          = 40_000
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientGas     = errors.New("insufficient funds for gas")
)

// Config parameterizes a deployment.
type Config struct {
	GasPrice              *uint256.Int
	ProtocolFeeMultiplier *uint256.Int
	MinimumPoolStake      *uint256.Int
	StakingToken          contract.AssetID
	WrappedAsset          contract.AssetID
}

// DefaultConfig returns the configuration used by tests.
func DefaultConfig() Config {
	return Config{
		GasPrice:              uint256.NewInt(1),
		ProtocolFeeMultiplier: uint256.NewInt(150_000),
		MinimumPoolStake:      uint256.NewInt(100),
		StakingToken:          DefaultStakingToken,
		WrappedAsset:          DefaultWrappedAsset,
	}
}

// Chain is the deployment. It is safe for concurrent use.
type Chain struct {
	mutex sync.Mutex
	cfg   Config
	state *state
	log   logger.Logger
}

// New creates an empty deployment.
func New(cfg Config, log logger.Logger) *Chain {
	if cfg.GasPrice == nil {
		cfg.GasPrice = new(uint256.Int)
	}
	if cfg.ProtocolFeeMultiplier == nil {
		cfg.ProtocolFeeMultiplier = new(uint256.Int)
	}
	if cfg.MinimumPoolStake == nil {
		cfg.MinimumPoolStake = new(uint256.Int)
	}
	if cfg.StakingToken == "" {
		cfg.StakingToken = DefaultStakingToken
	}
	if cfg.WrappedAsset == "" {
		cfg.WrappedAsset = DefaultWrappedAsset
	}
	return &Chain{cfg: cfg, state: newState(), log: log}
}

// Config returns the configuration of the deployment.
func (c *Chain) Config() Config {
	return c.cfg
}

// Mint credits amount of asset to owner. It is the faucet used to fund actors.
func (c *Chain) Mint(_ context.Context, owner common.Address, asset contract.AssetID, amount *uint256.Int) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.state.credit(owner, asset, amount)
	c.log.Debugf("minted %v %v to %v", amount, asset, owner.Hex())
	return nil
}

// BalanceOf returns the balance of owner in asset.
func (c *Chain) BalanceOf(_ context.Context, owner common.Address, asset contract.AssetID) (*uint256.Int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state.balanceOf(owner, asset), nil
}

// Transfer is a plain transfer of a fungible asset.
func (c *Chain) Transfer() contract.Operation[contract.TransferArgs, struct{}] {
	return operation(c, func(a contract.TransferArgs) common.Address { return a.From }, gasTransfer,
		func(s *state, args contract.TransferArgs, e *emitter) (struct{}, error) {
			return struct{}{}, e.transfer(s, args.Asset, args.From, args.To, args.Amount)
		})
}

// execution runs the body of an operation against a state.
type execution[A any, R any] func(s *state, args A, e *emitter) (R, error)

// operation turns an execution into a call/submit pair. The sender pays
// the base gas plus whatever the execution adds.
func operation[A any, R any](c *Chain, sender func(A) common.Address, gas uint64, run execution[A, R]) contract.Func[A, R] {
	execute := func(ctx context.Context, args A) (*state, *emitter, R, error) {
		var zero R
		if err := ctx.Err(); err != nil {
			return nil, nil, zero, err
		}
		scratch := c.state.clone()
		e := &emitter{gas: gas}
		res, err := run(scratch, args, e)
		if err != nil {
			return nil, nil, zero, err
		}
		if err := c.chargeGas(scratch, sender(args), e.gas); err != nil {
			return nil, nil, zero, err
		}
		return scratch, e, res, nil
	}
	return contract.Func[A, R]{
		CallFunc: func(ctx context.Context, args A) (R, error) {
			c.mutex.Lock()
			defer c.mutex.Unlock()
			_, _, res, err := execute(ctx, args)
			return res, err
		},
		SubmitFunc: func(ctx context.Context, args A) (*contract.Receipt, error) {
			c.mutex.Lock()
			defer c.mutex.Unlock()
			scratch, e, _, err := execute(ctx, args)
			if err != nil {
				return nil, err
			}
			c.state = scratch
			return &contract.Receipt{Success: true, Logs: e.logs, GasUsed: e.gas, From: sender(args)}, nil
		},
	}
}

func (c *Chain) chargeGas(s *state, from common.Address, gas uint64) error {
	cost := new(uint256.Int).Mul(uint256.NewInt(gas), c.cfg.GasPrice)
	if err := s.debit(from, balance.Native, cost); err != nil {
		return errors.Wrapf(ErrInsufficientGas, "%v cannot pay %v", from.Hex(), cost)
	}
	return nil
}

// emitter collects the event logs of one execution.
type emitter struct {
	logs []contract.Log
	gas  uint64
}

func (e *emitter) emit(event string, args any) {
	e.logs = append(e.logs, contract.Log{Event: event, Args: args})
}

// transfer moves a fungible asset and emits a Transfer event. Zero amounts
// and self transfers are skipped.
func (e *emitter) transfer(s *state, asset contract.AssetID, from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() || from == to {
		return nil
	}
	if err := s.debit(from, asset, amount); err != nil {
		return err
	}
	s.credit(to, asset, amount)
	e.emit(contract.TransferEvent, contract.TransferArgs{
		Asset:  asset,
		From:   from,
		To:     to,
		Amount: new(uint256.Int).Set(amount),
	})
	return nil
}
