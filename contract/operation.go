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

// Package contract defines the black-box interface through which the
// framework talks to the system under test. An operation always has a pure
// call form and optionally a side-effecting submit form.
package contract

//go:generate mockgen -source operation.go -destination operation_mock.go -package contract

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Caller is the pure-call form of an operation. It returns the decoded
// return value the operation would produce without changing state.
type Caller[A any, R any] interface {
	Call(ctx context.Context, args A) (R, error)
}

// Submitter is the side-effecting form of an operation.
type Submitter[A any] interface {
	Submit(ctx context.Context, args A) (*Receipt, error)
}

// Operation is an operation with both forms. Getters only implement Caller.
type Operation[A any, R any] interface {
	Caller[A, R]
	Submitter[A]
}

// Func adapts plain functions to an operation. SubmitFunc may be nil for
// read-only operations.
type Func[A any, R any] struct {
	CallFunc   func(ctx context.Context, args A) (R, error)
	SubmitFunc func(ctx context.Context, args A) (*Receipt, error)
}

// Getter wraps a read-only function.
func Getter[A any, R any](call func(ctx context.Context, args A) (R, error)) Func[A, R] {
	return Func[A, R]{CallFunc: call}
}

// Call invokes the call form.
func (f Func[A, R]) Call(ctx context.Context, args A) (R, error) {
	if f.CallFunc == nil {
		var zero R
		return zero, errors.New("operation has no call form")
	}
	return f.CallFunc(ctx, args)
}

// Submit invokes the submit form.
func (f Func[A, R]) Submit(ctx context.Context, args A) (*Receipt, error) {
	if f.SubmitFunc == nil {
		return nil, errors.New("operation has no submit form")
	}
	return f.SubmitFunc(ctx, args)
}

// HasSubmit reports whether the operation has a submit form. Values that do
// not implement Submitter never have one.
func HasSubmit[A any, R any](op Caller[A, R]) bool {
	switch o := op.(type) {
	case Func[A, R]:
		return o.SubmitFunc != nil
	case *Func[A, R]:
		return o != nil && o.SubmitFunc != nil
	case Submitter[A]:
		return true
	}
	return false
}
