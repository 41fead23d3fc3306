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

package actor

import (
	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/0xsoniclabs/shadowfuzz/staking"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MakerConfig parameterizes the orders a maker signs.
type MakerConfig struct {
	Assets       []contract.AssetID // assets the maker sells
	MaxAmount    uint64             // upper bound of maker and taker amounts
	MaxFee       uint64             // upper bound of maker and taker fees
	FeeRecipient common.Address
	// TakerFeeAsset is the asset takers pay fees in. Maker fees are paid in
	// the asset the maker sells.
	TakerFeeAsset contract.AssetID
}

func (c MakerConfig) Validate() error {
	if len(c.Assets) == 0 {
		return errors.New("maker needs at least one asset")
	}
	if c.MaxAmount == 0 {
		return errors.New("maximum order amount must be positive")
	}
	if c.MaxFee > 0 && c.TakerFeeAsset == "" {
		return errors.New("fees need a taker fee asset")
	}
	return nil
}

// TakerConfig parameterizes the matches a taker submits.
type TakerConfig struct {
	Makers []Maker
	// ProtocolFee is the protocol fee per order the taker pays, in native
	// asset if it sends enough value along.
	ProtocolFee *uint256.Int
}

func (c TakerConfig) Validate() error {
	if len(c.Makers) < 2 {
		return errors.Newf("taker needs at least two makers; got %d", len(c.Makers))
	}
	return nil
}

// StakerConfig parameterizes the stake movements of a staker.
type StakerConfig struct {
	MaxAmount *uint256.Int // upper bound of a single movement, nil for none
}

func (c StakerConfig) Validate() error {
	if c.MaxAmount != nil && c.MaxAmount.IsZero() {
		return errors.New("maximum stake amount must be positive")
	}
	return nil
}

// OperatorConfig parameterizes the pools an operator runs.
type OperatorConfig struct {
	MaxPools         int
	MaxOperatorShare uint32 // in parts per million
}

func (c OperatorConfig) Validate() error {
	if c.MaxPools <= 0 {
		return errors.Newf("operator needs to run at least one pool; got %d", c.MaxPools)
	}
	if c.MaxOperatorShare > staking.PPMDenominator {
		return errors.Newf("maximum operator share %d exceeds %d", c.MaxOperatorShare, staking.PPMDenominator)
	}
	return nil
}
