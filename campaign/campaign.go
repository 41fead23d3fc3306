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

// Package campaign assembles fuzz campaigns: a fresh deployment, funded
// actors, the shadow ledger, the models checking them and the driver that
// picks their actions.
package campaign

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/0xsoniclabs/shadowfuzz/actor"
	"github.com/0xsoniclabs/shadowfuzz/balance"
	"github.com/0xsoniclabs/shadowfuzz/config"
	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/0xsoniclabs/shadowfuzz/devnet"
	"github.com/0xsoniclabs/shadowfuzz/logger"
	"github.com/0xsoniclabs/shadowfuzz/matching"
	"github.com/0xsoniclabs/shadowfuzz/pools"
	"github.com/0xsoniclabs/shadowfuzz/simulation"
	"github.com/0xsoniclabs/shadowfuzz/staking"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"
)

// FeeRecipient receives the order fees of all makers.
var FeeRecipient = common.HexToAddress("0x00000000000000000000000000000000000fee01")

const (
	// native funding per unit of the initial balance, reserved for gas
	gasReservePerUnit = 1_000_000
	maxPoolsPerOperator = 3
	maxOrderAmount      = 1_000
	maxOrderFee         = 10
)

// Campaign is a deployment together with the simulation fuzzing it.
type Campaign struct {
	Name       string
	Chain      *devnet.Chain
	Registry   *simulation.Registry
	Simulation *simulation.Simulation
	Store      *balance.LocalStore
	Snapshot   *balance.BlockchainStore
}

// Fuzz runs the configured number of steps.
func (c *Campaign) Fuzz(ctx context.Context, steps int) error {
	return c.Simulation.Fuzz(ctx, steps)
}

// New creates the campaign selected by cfg.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*Campaign, error) {
	switch cfg.Campaign {
	case config.StakeCampaign:
		return NewStakeManagement(ctx, cfg, log)
	case config.PoolCampaign:
		return NewPoolManagement(ctx, cfg, log)
	case config.MatchCampaign:
		return NewOrderMatching(ctx, cfg, log)
	case config.CombinedCampaign:
		return NewCombined(ctx, cfg, log)
	}
	return nil, errors.Newf("unknown campaign %q", cfg.Campaign)
}

// NewStakeManagement fuzzes stakers depositing and withdrawing stake while a
// keeper ends epochs.
func NewStakeManagement(ctx context.Context, cfg *config.Config, log logger.Logger) (*Campaign, error) {
	return build(ctx, cfg, log, config.StakeCampaign, roster{stakers: cfg.NumStakers, keeper: true})
}

// NewPoolManagement fuzzes operators running pools and stakers delegating to
// them across epochs.
func NewPoolManagement(ctx context.Context, cfg *config.Config, log logger.Logger) (*Campaign, error) {
	return build(ctx, cfg, log, config.PoolCampaign, roster{stakers: cfg.NumStakers, operators: cfg.NumOperators, keeper: true})
}

// NewOrderMatching fuzzes takers matching orders of makers.
func NewOrderMatching(ctx context.Context, cfg *config.Config, log logger.Logger) (*Campaign, error) {
	return build(ctx, cfg, log, config.MatchCampaign, roster{makers: cfg.NumMakers, takers: cfg.NumTakers})
}

// NewCombined interleaves staking and order matching on one deployment and
// one shadow ledger.
func NewCombined(ctx context.Context, cfg *config.Config, log logger.Logger) (*Campaign, error) {
	return build(ctx, cfg, log, config.CombinedCampaign, roster{
		stakers:   cfg.NumStakers,
		operators: cfg.NumOperators,
		keeper:    true,
		makers:    cfg.NumMakers,
		takers:    cfg.NumTakers,
	})
}

// roster lists the actors of a campaign.
type roster struct {
	stakers, operators, makers, takers int
	keeper                             bool
}

func (r roster) staking() bool {
	return r.stakers > 0 || r.operators > 0 || r.keeper
}

func (r roster) trading() bool {
	return r.makers > 0 || r.takers > 0
}

// builder collects the parts of a campaign under construction.
type builder struct {
	cfg   *config.Config
	log   logger.Logger
	rg    *rand.Rand
	chain *devnet.Chain

	owners    []common.Address // actors
	contracts []common.Address // accounts of the deployment holding tracked assets
	assets    []contract.AssetID
	mints  []mint
	wraps  []mint
}

type mint struct {
	owner  common.Address
	asset  contract.AssetID
	amount *uint256.Int
}

func build(ctx context.Context, cfg *config.Config, log logger.Logger, name string, r roster) (*Campaign, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Noticef("Building campaign %v with seed %v", name, cfg.RandomSeed)

	chainCfg := devnet.DefaultConfig()
	chainCfg.GasPrice = uint256.NewInt(cfg.GasPrice)
	chainCfg.ProtocolFeeMultiplier = uint256.NewInt(cfg.ProtocolFeeMultiplier)
	chainCfg.MinimumPoolStake = uint256.NewInt(cfg.MinimumPoolStake)
	b := &builder{
		cfg:    cfg,
		log:    log,
		rg:     rand.New(rand.NewSource(cfg.RandomSeed)),
		chain:  devnet.New(chainCfg, log),
		assets: []contract.AssetID{balance.Native},
	}

	// identities first, so that they are funded before the ledger is seeded
	newActor := func(role string, i int) (*actor.Actor, error) {
		a, err := actor.NewActor(fmt.Sprintf("%v-%d", role, i), rand.New(rand.NewSource(b.rg.Int63())), log)
		if err != nil {
			return nil, err
		}
		b.owners = append(b.owners, a.Address())
		b.fund(a.Address(), balance.Native, b.gasReserve())
		return a, nil
	}
	var stakers, operators, makers, takers []*actor.Actor
	var keeper *actor.Actor
	for i := range r.stakers {
		a, err := newActor("staker", i)
		if err != nil {
			return nil, err
		}
		b.fund(a.Address(), chainCfg.StakingToken, b.initialBalance())
		stakers = append(stakers, a)
	}
	for i := range r.operators {
		a, err := newActor("operator", i)
		if err != nil {
			return nil, err
		}
		b.fund(a.Address(), chainCfg.StakingToken, b.initialBalance())
		operators = append(operators, a)
	}
	if r.keeper {
		a, err := newActor("keeper", 0)
		if err != nil {
			return nil, err
		}
		keeper = a
	}
	for i := range r.makers {
		a, err := newActor("maker", i)
		if err != nil {
			return nil, err
		}
		b.fund(a.Address(), tradeAsset(i), b.initialBalance())
		makers = append(makers, a)
	}
	for i := range r.takers {
		a, err := newActor("taker", i)
		if err != nil {
			return nil, err
		}
		b.wraps = append(b.wraps, mint{owner: a.Address(), asset: chainCfg.WrappedAsset, amount: b.initialBalance()})
		takers = append(takers, a)
	}
	if r.staking() {
		b.contracts = append(b.contracts, devnet.VaultAddress)
		b.assets = append(b.assets, chainCfg.StakingToken)
	}
	if r.trading() {
		b.contracts = append(b.contracts, FeeRecipient, devnet.StakingAddress)
		b.assets = append(b.assets, chainCfg.WrappedAsset)
		for i := range r.makers {
			b.assets = append(b.assets, tradeAsset(i))
		}
	}

	if err := b.fundAll(ctx); err != nil {
		return nil, err
	}
	snapshot := balance.NewBlockchainStore(b.chain, b.owners, b.assets)
	snapshot.Track(b.contracts...)
	log.Infof("Tracking %d owners and %d assets", len(snapshot.Owners()), len(b.assets))
	store, err := balance.NewLocalStoreFromSnapshot(ctx, snapshot)
	if err != nil {
		return nil, errors.Wrap(err, "cannot seed shadow ledger")
	}

	registry := simulation.NewRegistry()
	var participants []actor.Participant
	if r.staking() {
		env, err := pools.NewSimulationEnvironment(ctx, b.chain.Staking(), store, snapshot, pools.Config{
			GasPrice:         chainCfg.GasPrice,
			MinimumPoolStake: chainCfg.MinimumPoolStake,
		}, log)
		if err != nil {
			return nil, err
		}
		stakerCfg := actor.StakerConfig{MaxAmount: new(uint256.Int).Div(b.initialBalance(), uint256.NewInt(10))}
		for _, a := range stakers {
			s, err := actor.NewStakerActor(a, stakerCfg, env)
			if err != nil {
				return nil, err
			}
			participants = append(participants, s)
		}
		for _, a := range operators {
			o, err := actor.NewOperatorActor(a, actor.OperatorConfig{
				MaxPools:         maxPoolsPerOperator,
				MaxOperatorShare: staking.PPMDenominator,
			}, stakerCfg, env)
			if err != nil {
				return nil, err
			}
			participants = append(participants, o)
		}
		if keeper != nil {
			participants = append(participants, actor.NewKeeperActor(keeper, env))
		}
	}
	if r.trading() {
		var orderMakers []actor.Maker
		for i, a := range makers {
			m, err := actor.NewMakerActor(a, actor.MakerConfig{
				Assets:        []contract.AssetID{tradeAsset(i)},
				MaxAmount:     maxOrderAmount,
				MaxFee:        maxOrderFee,
				FeeRecipient:  FeeRecipient,
				TakerFeeAsset: chainCfg.WrappedAsset,
			})
			if err != nil {
				return nil, err
			}
			orderMakers = append(orderMakers, m)
		}
		fees := matching.ProtocolFees{
			Multiplier:   chainCfg.ProtocolFeeMultiplier,
			GasPrice:     chainCfg.GasPrice,
			Collector:    b.chain.Exchange().ProtocolFeeCollector(),
			WrappedAsset: chainCfg.WrappedAsset,
		}
		tester := matching.NewMatchOrderTester(b.chain.Exchange(), store, snapshot, fees, log)
		for _, a := range takers {
			t, err := actor.NewTakerActor(a, actor.TakerConfig{
				Makers:      orderMakers,
				ProtocolFee: new(uint256.Int).Mul(fees.Multiplier, fees.GasPrice),
			}, tester)
			if err != nil {
				return nil, err
			}
			participants = append(participants, t)
		}
	}
	if err := actor.Register(registry, participants...); err != nil {
		return nil, err
	}

	var generator simulation.Generator
	switch cfg.Policy {
	case config.WeightedPolicy:
		generator = simulation.NewMetaGenerator(registry, b.rg, cfg.Weights)
	default:
		generator = simulation.NewUniformGenerator(registry, b.rg)
	}
	log.Infof("Campaign %v has %d actors and %d actions", name, len(participants), registry.Len())
	return &Campaign{
		Name:       name,
		Chain:      b.chain,
		Registry:   registry,
		Simulation: simulation.NewSimulation(generator, log).WithTrace(cfg.Debug),
		Store:      store,
		Snapshot:   snapshot,
	}, nil
}

func (b *builder) initialBalance() *uint256.Int {
	return uint256.NewInt(b.cfg.InitialBalance)
}

func (b *builder) gasReserve() *uint256.Int {
	return new(uint256.Int).Mul(b.initialBalance(), uint256.NewInt(gasReservePerUnit))
}

func (b *builder) fund(owner common.Address, asset contract.AssetID, amount *uint256.Int) {
	b.mints = append(b.mints, mint{owner: owner, asset: asset, amount: amount})
}

// fundAll mints all balances, then wraps native for the takers. Each phase
// runs in parallel and completes before the next one starts.
func (b *builder) fundAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, m := range b.mints {
		g.Go(func() error {
			return b.chain.Mint(gctx, m.owner, m.asset, m.amount)
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "cannot fund actors")
	}

	g, gctx = errgroup.WithContext(ctx)
	deposit := b.chain.Deposit()
	for _, w := range b.wraps {
		g.Go(func() error {
			_, err := deposit.Submit(gctx, devnet.WethArgs{Owner: w.owner, Amount: w.amount})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "cannot wrap native asset of takers")
	}
	return nil
}

func tradeAsset(i int) contract.AssetID {
	return contract.AssetID(fmt.Sprintf("TKN%d", i))
}
