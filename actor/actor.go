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

// Package actor implements the simulated participants of a fuzz campaign.
// Every actor owns a deterministic key and a share of the campaign's random
// generator and exposes its randomized actions by name.
package actor

import (
	"context"
	"crypto/ecdsa"
	"math"
	"math/rand"

	"github.com/0xsoniclabs/shadowfuzz/assertion"
	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/0xsoniclabs/shadowfuzz/exchange"
	"github.com/0xsoniclabs/shadowfuzz/logger"
	"github.com/0xsoniclabs/shadowfuzz/simulation"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Maker signs orders over the assets it holds.
type Maker interface {
	Address() common.Address
	Assets() []contract.AssetID
	SignOrder(makerAsset, takerAsset contract.AssetID) (exchange.SignedOrder, error)
}

// Taker matches orders of makers.
type Taker interface {
	MatchOrders(ctx context.Context) (*simulation.Outcome, error)
}

// Staker manages its own stake.
type Staker interface {
	Stake(ctx context.Context) (*simulation.Outcome, error)
	Unstake(ctx context.Context) (*simulation.Outcome, error)
	MoveStake(ctx context.Context) (*simulation.Outcome, error)
}

// PoolOperator runs staking pools.
type PoolOperator interface {
	CreateStakingPool(ctx context.Context) (*simulation.Outcome, error)
	DecreaseStakingPoolOperatorShare(ctx context.Context) (*simulation.Outcome, error)
}

// Keeper advances the staking epoch.
type Keeper interface {
	EndEpoch(ctx context.Context) (*simulation.Outcome, error)
}

// Participant is an actor with named actions.
type Participant interface {
	Name() string
	Actions() map[string]simulation.Action
}

// Register adds the actions of all participants to registry.
func Register(registry *simulation.Registry, participants ...Participant) error {
	for _, p := range participants {
		if err := registry.Register(p.Name(), p.Actions()); err != nil {
			return errors.Wrapf(err, "cannot register actor %v", p.Name())
		}
	}
	return nil
}

// Actor is the identity every concrete actor embeds.
type Actor struct {
	name    string
	key     *ecdsa.PrivateKey
	address common.Address
	rg      *rand.Rand
	log     logger.Logger
}

// NewActor creates an actor whose key is derived from its name.
func NewActor(name string, rg *rand.Rand, log logger.Logger) (*Actor, error) {
	if rg == nil {
		return nil, errors.Newf("actor %v needs a random generator", name)
	}
	key, err := crypto.ToECDSA(crypto.Keccak256([]byte(name)))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot derive key of actor %v", name)
	}
	return &Actor{
		name:    name,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		rg:      rg,
		log:     log,
	}, nil
}

func (a *Actor) Name() string {
	return a.name
}

func (a *Actor) Address() common.Address {
	return a.address
}

// amount draws a uniform amount in [1, limit]. It returns nil if limit is zero.
func (a *Actor) amount(limit *uint256.Int) *uint256.Int {
	if limit == nil || limit.IsZero() {
		return nil
	}
	bound := uint64(math.MaxInt64)
	if limit.IsUint64() && limit.Uint64() < bound {
		bound = limit.Uint64()
	}
	return uint256.NewInt(uint64(a.rg.Int63n(int64(bound))) + 1)
}

// pick draws one element of items.
func pick[T any](rg *rand.Rand, items []T) T {
	return items[rg.Intn(len(items))]
}

func minOf(a, b *uint256.Int) *uint256.Int {
	if b != nil && b.Lt(a) {
		return b
	}
	return a
}

// outcomeOf converts the result of an executed assertion.
func outcomeOf[R any](a *Actor, action string, result assertion.Result[R]) *simulation.Outcome {
	o := &simulation.Outcome{
		Actor:   a.name,
		Action:  action,
		Success: result.Success,
		Err:     result.Err,
	}
	if result.Receipt != nil {
		o.GasUsed = result.Receipt.GasUsed
	}
	a.log.Debugf("%v", o)
	return o
}
