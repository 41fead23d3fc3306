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

package contract

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// event names emitted by the system under test
const (
	TransferEvent               = "Transfer"
	FillEvent                   = "Fill"
	StakeEvent                  = "Stake"
	UnstakeEvent                = "Unstake"
	MoveStakeEvent              = "MoveStake"
	StakingPoolCreatedEvent     = "StakingPoolCreated"
	OperatorShareDecreasedEvent = "OperatorShareDecreased"
	EpochEndedEvent             = "EpochEnded"
	DepositEvent                = "Deposit"
	WithdrawalEvent             = "Withdrawal"
)

// Receipt is the outcome of a submitted operation.
type Receipt struct {
	Success bool
	Logs    []Log
	GasUsed uint64
	From    common.Address
}

// Log is one decoded event log. Args holds an event specific value, e.g.
// TransferArgs for Transfer events.
type Log struct {
	Event string
	Args  any
}

// AssetID identifies a fungible asset.
type AssetID string

// TransferArgs are the arguments of a Transfer event.
type TransferArgs struct {
	Asset  AssetID
	From   common.Address
	To     common.Address
	Amount *uint256.Int
}

func (t TransferArgs) String() string {
	return fmt.Sprintf("%v: %v -> %v (%v)", t.Asset, t.From.Hex(), t.To.Hex(), t.Amount)
}

// FilterLogs returns the logs of the given event in emission order.
func (r *Receipt) FilterLogs(event string) []Log {
	if r == nil {
		return nil
	}
	var res []Log
	for _, l := range r.Logs {
		if l.Event == event {
			res = append(res, l)
		}
	}
	return res
}

// Transfers returns the arguments of all Transfer events in emission order.
func (r *Receipt) Transfers() []TransferArgs {
	var res []TransferArgs
	for _, l := range r.FilterLogs(TransferEvent) {
		if args, ok := l.Args.(TransferArgs); ok {
			res = append(res, args)
		}
	}
	return res
}
