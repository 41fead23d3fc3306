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

// Package exchange describes the order-matching API of the system under test.
package exchange

import (
	"crypto/ecdsa"

	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// orderDomain separates order hashes from other signed payloads.
var orderDomain = []byte("shadowfuzz.order.v1")

// Order is a standing offer of a maker to sell MakerAssetAmount of
// MakerAsset for TakerAssetAmount of TakerAsset.
type Order struct {
	MakerAddress        common.Address
	TakerAddress        common.Address // zero address allows any taker
	FeeRecipientAddress common.Address
	MakerAssetAmount    *uint256.Int
	TakerAssetAmount    *uint256.Int
	MakerFee            *uint256.Int
	TakerFee            *uint256.Int
	Salt                uint64
	MakerAsset          contract.AssetID
	TakerAsset          contract.AssetID
	MakerFeeAsset       contract.AssetID
	TakerFeeAsset       contract.AssetID
}

// Hash returns the order hash the maker signs.
func (o *Order) Hash() common.Hash {
	enc, err := rlp.EncodeToBytes(o)
	if err != nil {
		// all fields are rlp encodable
		panic(err)
	}
	return crypto.Keccak256Hash(orderDomain, enc)
}

// SignedOrder is an order with the maker's signature over its hash.
type SignedOrder struct {
	Order
	Signature []byte
}

// Sign signs the order with the given key.
func Sign(order Order, key *ecdsa.PrivateKey) (SignedOrder, error) {
	hash := order.Hash()
	sig, err := crypto.Sign(hash[:], key)
	if err != nil {
		return SignedOrder{}, errors.Wrapf(err, "cannot sign order %v", hash.Hex())
	}
	return SignedOrder{Order: order, Signature: sig}, nil
}

// Signer recovers the address that signed the order.
func (o *SignedOrder) Signer() (common.Address, error) {
	hash := o.Hash()
	pub, err := crypto.SigToPub(hash[:], o.Signature)
	if err != nil {
		return common.Address{}, errors.Wrapf(err, "invalid signature of order %v", hash.Hex())
	}
	return crypto.PubkeyToAddress(*pub), nil
}
