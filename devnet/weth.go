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
	"github.com/0xsoniclabs/shadowfuzz/balance"
	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// WethArgs deposits or withdraws Amount of the native asset for Owner.
type WethArgs struct {
	Owner  common.Address
	Amount *uint256.Int
}

// Deposit wraps native into the wrapped asset. The native amount is held by
// the wrapper contract.
func (c *Chain) Deposit() contract.Operation[WethArgs, struct{}] {
	return operation(c, func(a WethArgs) common.Address { return a.Owner }, gasDeposit,
		func(s *state, args WethArgs, e *emitter) (struct{}, error) {
			if err := e.transfer(s, balance.Native, args.Owner, WethAddress, args.Amount); err != nil {
				return struct{}{}, err
			}
			s.credit(args.Owner, c.cfg.WrappedAsset, args.Amount)
			e.emit(contract.DepositEvent, WethArgs{Owner: args.Owner, Amount: new(uint256.Int).Set(args.Amount)})
			return struct{}{}, nil
		})
}

// Withdraw unwraps the wrapped asset back into native.
func (c *Chain) Withdraw() contract.Operation[WethArgs, struct{}] {
	return operation(c, func(a WethArgs) common.Address { return a.Owner }, gasWithdraw,
		func(s *state, args WethArgs, e *emitter) (struct{}, error) {
			if err := s.debit(args.Owner, c.cfg.WrappedAsset, args.Amount); err != nil {
				return struct{}{}, err
			}
			if err := e.transfer(s, balance.Native, WethAddress, args.Owner, args.Amount); err != nil {
				return struct{}{}, err
			}
			e.emit(contract.WithdrawalEvent, WethArgs{Owner: args.Owner, Amount: new(uint256.Int).Set(args.Amount)})
			return struct{}{}, nil
		})
}
