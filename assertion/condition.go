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

// Package assertion implements Hoare-triple style checks around operations
// of the system under test. A FunctionAssertion captures a precondition,
// runs the operation and hands everything it observed to a postcondition.
// Operation failures are data; only the conditions can fail a run.
package assertion

import (
	"context"

	"github.com/0xsoniclabs/shadowfuzz/contract"
)

// BeforeFunc captures the state a postcondition needs before the operation runs.
type BeforeFunc[A any, B any] func(ctx context.Context, args A) (B, error)

// AfterFunc checks the outcome of the operation against the captured state.
// A returned error is an assertion violation.
type AfterFunc[A any, R any, B any] func(ctx context.Context, before B, result Result[R], args A) error

// Condition pairs a precondition capture with a postcondition check.
// Either function may be nil.
type Condition[A any, R any, B any] struct {
	Before BeforeFunc[A, B]
	After  AfterFunc[A, R, B]
}

// Result is what the operation produced. If Success is false, Err holds the
// captured error and Receipt is nil. If Success is true, Value holds the
// decoded return value and Receipt the submission outcome, if the operation
// has a submit form.
type Result[R any] struct {
	Value   R
	Err     error
	Success bool
	Receipt *contract.Receipt
}

// ExecutionInfo is returned by FunctionAssertion.Execute.
type ExecutionInfo[R any, B any] struct {
	Before B
	Result Result[R]
}
