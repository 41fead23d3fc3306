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

package balance

//go:generate mockgen -source blockchain_store.go -destination blockchain_store_mock.go -package balance

import (
	"context"

	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"
)

// Querier reads a single balance from the live system.
type Querier interface {
	BalanceOf(ctx context.Context, owner common.Address, asset contract.AssetID) (*uint256.Int, error)
}

// Snapshot provides balances of the live system.
type Snapshot interface {
	// UpdateBalances refreshes the balances from the live system.
	UpdateBalances(ctx context.Context) error
	// Balances returns the balances of the last refresh.
	Balances() Balances
}

// BlockchainStore is a Snapshot of the balances of a fixed set of owners and assets.
type BlockchainStore struct {
	querier  Querier
	owners   []common.Address
	assets   []contract.AssetID
	balances Balances
}

// NewBlockchainStore creates a snapshot tracking the given owners and assets.
func NewBlockchainStore(querier Querier, owners []common.Address, assets []contract.AssetID) *BlockchainStore {
	return &BlockchainStore{
		querier:  querier,
		owners:   owners,
		assets:   assets,
		balances: Balances{},
	}
}

// Track adds owners to the tracked set.
func (s *BlockchainStore) Track(owners ...common.Address) {
	for _, owner := range owners {
		known := false
		for _, o := range s.owners {
			if o == owner {
				known = true
				break
			}
		}
		if !known {
			s.owners = append(s.owners, owner)
		}
	}
}

// Owners returns the tracked owners.
func (s *BlockchainStore) Owners() []common.Address {
	return s.owners
}

// UpdateBalances fetches all tracked balances. Owners are queried in parallel.
func (s *BlockchainStore) UpdateBalances(ctx context.Context) error {
	rows := make([]map[contract.AssetID]*uint256.Int, len(s.owners))
	g, ctx := errgroup.WithContext(ctx)
	for i, owner := range s.owners {
		g.Go(func() error {
			row := make(map[contract.AssetID]*uint256.Int, len(s.assets))
			for _, asset := range s.assets {
				v, err := s.querier.BalanceOf(ctx, owner, asset)
				if err != nil {
					return errors.Wrapf(err, "cannot fetch balance of %v in %v", owner.Hex(), asset)
				}
				row[asset] = v
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	balances := make(Balances, len(s.owners))
	for i, owner := range s.owners {
		balances[owner] = rows[i]
	}
	s.balances = balances
	return nil
}

// Balances returns the balances of the last refresh.
func (s *BlockchainStore) Balances() Balances {
	return s.balances
}

// NewLocalStoreFromSnapshot refreshes the snapshot and seeds a shadow ledger from it.
func NewLocalStoreFromSnapshot(ctx context.Context, snapshot Snapshot) (*LocalStore, error) {
	if err := snapshot.UpdateBalances(ctx); err != nil {
		return nil, err
	}
	return NewLocalStore(snapshot.Balances()), nil
}
