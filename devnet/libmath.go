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
	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"
)

var (
	ErrRoundingError       = errors.New("rounding error")
	ErrDivisionByZero      = errors.New("division by zero")
	ErrArithmeticOverflow  = errors.New("arithmetic overflow")
	ErrArithmeticUnderflow = errors.New("arithmetic underflow")
	roundingErrorTolerance = uint256.NewInt(1000) // 0.1%
)

func safeMul(x, y *uint256.Int) (*uint256.Int, error) {
	res, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, errors.Wrapf(ErrArithmeticOverflow, "%v * %v", x, y)
	}
	return res, nil
}

func safeAdd(x, y *uint256.Int) (*uint256.Int, error) {
	res, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, errors.Wrapf(ErrArithmeticOverflow, "%v + %v", x, y)
	}
	return res, nil
}

func safeSub(x, y *uint256.Int) (*uint256.Int, error) {
	res, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, errors.Wrapf(ErrArithmeticUnderflow, "%v - %v", x, y)
	}
	return res, nil
}

// partialAmountFloor computes numerator * target / denominator rounded down
// and rejects results with a rounding error above 0.1%.
func partialAmountFloor(numerator, denominator, target *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDivisionByZero
	}
	isError, err := isRoundingErrorFloor(numerator, denominator, target)
	if err != nil {
		return nil, err
	}
	if isError {
		return nil, errors.Wrapf(ErrRoundingError, "floor(%v * %v / %v)", numerator, target, denominator)
	}
	product, err := safeMul(numerator, target)
	if err != nil {
		return nil, err
	}
	return product.Div(product, denominator), nil
}

// partialAmountCeil computes numerator * target / denominator rounded up
// and rejects results with a rounding error above 0.1%.
func partialAmountCeil(numerator, denominator, target *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDivisionByZero
	}
	isError, err := isRoundingErrorCeil(numerator, denominator, target)
	if err != nil {
		return nil, err
	}
	if isError {
		return nil, errors.Wrapf(ErrRoundingError, "ceil(%v * %v / %v)", numerator, target, denominator)
	}
	product, err := safeMul(numerator, target)
	if err != nil {
		return nil, err
	}
	// (product + denominator - 1) / denominator
	sum, err := safeAdd(product, new(uint256.Int).Sub(denominator, uint256.NewInt(1)))
	if err != nil {
		return nil, err
	}
	return sum.Div(sum, denominator), nil
}

// isRoundingErrorFloor checks whether the remainder of the floored division
// exceeds 0.1% of the exact product.
func isRoundingErrorFloor(numerator, denominator, target *uint256.Int) (bool, error) {
	if target.IsZero() || numerator.IsZero() {
		return false, nil
	}
	remainder := new(uint256.Int).MulMod(target, numerator, denominator)
	return exceedsTolerance(remainder, numerator, target)
}

// isRoundingErrorCeil is the rounding check for ceiled divisions.
func isRoundingErrorCeil(numerator, denominator, target *uint256.Int) (bool, error) {
	if target.IsZero() || numerator.IsZero() {
		return false, nil
	}
	remainder := new(uint256.Int).MulMod(target, numerator, denominator)
	if !remainder.IsZero() {
		remainder.Sub(denominator, remainder)
	}
	return exceedsTolerance(remainder, numerator, target)
}

func exceedsTolerance(remainder, numerator, target *uint256.Int) (bool, error) {
	scaled, err := safeMul(remainder, roundingErrorTolerance)
	if err != nil {
		return false, err
	}
	product, err := safeMul(numerator, target)
	if err != nil {
		return false, err
	}
	return !scaled.Lt(product), nil
}
