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

package assertion

import (
	"context"

	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/cockroachdb/errors"
)

// ErrReverted is captured as the operation error when a submission
// completes with an unsuccessful receipt.
var ErrReverted = errors.New("transaction reverted")

// FunctionAssertion wraps one operation of the system under test together
// with a Condition.
type FunctionAssertion[A any, R any, B any] struct {
	name      string
	op        contract.Caller[A, R]
	condition Condition[A, R, B]
}

// NewFunctionAssertion creates an assertion around op. The name is used to
// identify the operation in reported violations.
func NewFunctionAssertion[A any, R any, B any](name string, op contract.Caller[A, R], condition Condition[A, R, B]) *FunctionAssertion[A, R, B] {
	return &FunctionAssertion[A, R, B]{
		name:      name,
		op:        op,
		condition: condition,
	}
}

// Name returns the name of the wrapped operation.
func (a *FunctionAssertion[A, R, B]) Name() string {
	return a.name
}

// Execute runs before, the operation and after, in this order. Errors of the
// operation are captured in the Result; errors of the conditions are returned.
func (a *FunctionAssertion[A, R, B]) Execute(ctx context.Context, args A) (ExecutionInfo[R, B], error) {
	var info ExecutionInfo[R, B]

	if a.condition.Before != nil {
		before, err := a.condition.Before(ctx, args)
		if err != nil {
			return info, errors.Wrapf(err, "precondition of %v(%+v)", a.name, args)
		}
		info.Before = before
	}

	info.Result = a.invoke(ctx, args)

	if a.condition.After != nil {
		if err := a.condition.After(ctx, info.Before, info.Result, args); err != nil {
			return info, errors.Wrapf(err, "postcondition of %v(%+v)", a.name, args)
		}
	}
	return info, nil
}

// invoke calls the operation and, if available, submits it.
func (a *FunctionAssertion[A, R, B]) invoke(ctx context.Context, args A) Result[R] {
	value, err := a.op.Call(ctx, args)
	if err != nil {
		return Result[R]{Err: err}
	}
	if !contract.HasSubmit(a.op) {
		return Result[R]{Value: value, Success: true}
	}

	receipt, err := a.op.(contract.Submitter[A]).Submit(ctx, args)
	if err != nil {
		return Result[R]{Err: err}
	}
	if receipt == nil || !receipt.Success {
		return Result[R]{Err: ErrReverted}
	}
	return Result[R]{Value: value, Success: true, Receipt: receipt}
}
