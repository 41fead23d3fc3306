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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

var errRejected = errors.New("rejected")

func TestSucceeded(t *testing.T) {
	assert.NoError(t, Succeeded("outcome", Result[int]{Value: 1, Success: true}))

	err := Succeeded("outcome", Result[int]{Err: errRejected})
	assert.True(t, IsViolation(err))
	assert.Contains(t, err.Error(), "rejected")
}

func TestFailed(t *testing.T) {
	failure := Result[int]{Err: errors.Wrap(errRejected, "transfer")}

	assert.NoError(t, Failed("outcome", failure, nil))
	assert.NoError(t, Failed("outcome", failure, errRejected))
	assert.True(t, IsViolation(Failed("outcome", failure, errors.New("other"))))

	err := Failed("outcome", Result[int]{Success: true}, errRejected)
	assert.True(t, IsViolation(err))
	assert.Contains(t, err.Error(), "want: failure")
}

func TestEqualUint256_NilIsZero(t *testing.T) {
	assert.NoError(t, EqualUint256("amount", nil, new(uint256.Int)))
	assert.True(t, IsViolation(EqualUint256("amount", uint256.NewInt(1), nil)))
}
