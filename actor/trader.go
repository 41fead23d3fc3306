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
	"context"
	"slices"

	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/0xsoniclabs/shadowfuzz/exchange"
	"github.com/0xsoniclabs/shadowfuzz/matching"
	"github.com/0xsoniclabs/shadowfuzz/simulation"
	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"
)

// MakerRole signs random orders selling the assets of its actor.
type MakerRole struct {
	actor *Actor
	cfg   MakerConfig
	salt  uint64
}

// NewMakerRole creates a maker role of actor.
func NewMakerRole(actor *Actor, cfg MakerConfig) (*MakerRole, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid maker config of %v", actor.Name())
	}
	return &MakerRole{actor: actor, cfg: cfg}, nil
}

func (r *MakerRole) Assets() []contract.AssetID {
	return slices.Clone(r.cfg.Assets)
}

// SignOrder signs a fresh order selling makerAsset for takerAsset at a random
// price.
func (r *MakerRole) SignOrder(makerAsset, takerAsset contract.AssetID) (exchange.SignedOrder, error) {
	r.salt++
	limit := uint256.NewInt(r.cfg.MaxAmount)
	order := exchange.Order{
		MakerAddress:        r.actor.address,
		FeeRecipientAddress: r.cfg.FeeRecipient,
		MakerAssetAmount:    r.actor.amount(limit),
		TakerAssetAmount:    r.actor.amount(limit),
		MakerFee:            r.fee(),
		TakerFee:            r.fee(),
		Salt:                r.salt,
		MakerAsset:          makerAsset,
		TakerAsset:          takerAsset,
		MakerFeeAsset:       makerAsset,
		TakerFeeAsset:       r.cfg.TakerFeeAsset,
	}
	if order.TakerFeeAsset == "" {
		order.TakerFeeAsset = makerAsset
	}
	return exchange.Sign(order, r.actor.key)
}

func (r *MakerRole) fee() *uint256.Int {
	if r.cfg.MaxFee == 0 {
		return new(uint256.Int)
	}
	return uint256.NewInt(uint64(r.actor.rg.Int63n(int64(min(r.cfg.MaxFee, 1<<62)) + 1)))
}

// MakerActor is an actor whose orders are matched by takers. It has no
// actions of its own.
type MakerActor struct {
	*Actor
	*MakerRole
}

// NewMakerActor creates a maker.
func NewMakerActor(actor *Actor, cfg MakerConfig) (*MakerActor, error) {
	role, err := NewMakerRole(actor, cfg)
	if err != nil {
		return nil, err
	}
	return &MakerActor{Actor: actor, MakerRole: role}, nil
}

func (a *MakerActor) Actions() map[string]simulation.Action {
	return map[string]simulation.Action{}
}

// TakerRole matches orders of two different makers. The exchange may reject
// a match, the tester accepts either outcome as long as it is consistent.
type TakerRole struct {
	actor  *Actor
	cfg    TakerConfig
	tester *matching.MatchOrderTester
}

// NewTakerRole creates a taker role of actor checked by tester.
func NewTakerRole(actor *Actor, cfg TakerConfig, tester *matching.MatchOrderTester) (*TakerRole, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid taker config of %v", actor.Name())
	}
	return &TakerRole{actor: actor, cfg: cfg, tester: tester}, nil
}

// MatchOrders has two makers sign complementary orders and matches them.
func (r *TakerRole) MatchOrders(ctx context.Context) (*simulation.Outcome, error) {
	rg := r.actor.rg
	i := rg.Intn(len(r.cfg.Makers))
	j := rg.Intn(len(r.cfg.Makers) - 1)
	if j >= i {
		j++
	}
	leftMaker, rightMaker := r.cfg.Makers[i], r.cfg.Makers[j]

	leftAsset := pick(rg, leftMaker.Assets())
	var candidates []contract.AssetID
	for _, asset := range rightMaker.Assets() {
		if asset != leftAsset {
			candidates = append(candidates, asset)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	rightAsset := pick(rg, candidates)

	left, err := leftMaker.SignOrder(leftAsset, rightAsset)
	if err != nil {
		return nil, err
	}
	right, err := rightMaker.SignOrder(rightAsset, leftAsset)
	if err != nil {
		return nil, err
	}
	args := exchange.MatchOrdersArgs{
		Left:    left,
		Right:   right,
		Taker:   r.actor.address,
		Value:   r.value(),
		Maximal: rg.Intn(2) == 0,
	}
	result, err := r.tester.MatchOrders(ctx, args, matching.Expectation{Expect: matching.ExpectAny})
	if err != nil {
		return nil, err
	}
	return outcomeOf(r.actor, "validMatchOrders", result), nil
}

// value covers none, one or both protocol fees.
func (r *TakerRole) value() *uint256.Int {
	if r.cfg.ProtocolFee == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Mul(r.cfg.ProtocolFee, uint256.NewInt(uint64(r.actor.rg.Intn(3))))
}

func (r *TakerRole) Actions() map[string]simulation.Action {
	return map[string]simulation.Action{
		"validMatchOrders": r.MatchOrders,
	}
}

// TakerActor is an actor that matches orders.
type TakerActor struct {
	*Actor
	*TakerRole
}

// NewTakerActor creates a taker checked by tester.
func NewTakerActor(actor *Actor, cfg TakerConfig, tester *matching.MatchOrderTester) (*TakerActor, error) {
	role, err := NewTakerRole(actor, cfg, tester)
	if err != nil {
		return nil, err
	}
	return &TakerActor{Actor: actor, TakerRole: role}, nil
}

func (a *TakerActor) Actions() map[string]simulation.Action {
	return a.TakerRole.Actions()
}
