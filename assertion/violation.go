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
	"fmt"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"
)

// Violation reports a postcondition whose observed value differs from the
// value predicted by the model.
type Violation struct {
	Field string
	Want  any
	Have  any
}

func (v *Violation) Error() string {
	return fmt.Sprintf("different %s:\nwant: %v\nhave: %v", v.Field, v.Want, v.Have)
}

// IsViolation reports whether err contains a Violation.
func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}

// Equal returns a Violation if want and have are not deeply equal.
func Equal(field string, want, have any) error {
	if !reflect.DeepEqual(want, have) {
		return &Violation{Field: field, Want: want, Have: have}
	}
	return nil
}

// EqualUint256 compares two amounts. A nil amount equals zero.
func EqualUint256(field string, want, have *uint256.Int) error {
	if orZero(want).Cmp(orZero(have)) != 0 {
		return &Violation{Field: field, Want: orZero(want), Have: orZero(have)}
	}
	return nil
}

// True returns a Violation if cond does not hold.
func True(field string, cond bool) error {
	return Equal(field, true, cond)
}

// Failed checks that an operation failed. If expected is not nil, the
// captured error must match it.
func Failed[R any](field string, result Result[R], expected error) error {
	if result.Success {
		return &Violation{Field: field, Want: "failure", Have: "success"}
	}
	if expected != nil && !errors.Is(result.Err, expected) {
		return &Violation{Field: field, Want: expected, Have: result.Err}
	}
	return nil
}

// Succeeded checks that an operation succeeded.
func Succeeded[R any](field string, result Result[R]) error {
	if !result.Success {
		return &Violation{Field: field, Want: "success", Have: result.Err}
	}
	return nil
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
