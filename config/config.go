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

package config

import (
	"strconv"
	"strings"

	"github.com/0xsoniclabs/shadowfuzz/logger"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"
)

// campaigns
const (
	StakeCampaign    = "stake"
	PoolCampaign     = "pool"
	MatchCampaign    = "match"
	CombinedCampaign = "combined"
)

// action selection policies
const (
	UniformPolicy  = "uniform"
	WeightedPolicy = "weighted"
)

// Config summarizes the configuration of a fuzz campaign. It is threaded
// through the constructors of the driver, the shadow ledger and the actors.
type Config struct {
	AppName     string
	CommandName string

	Campaign              string         // campaign to run
	Policy                string         // action selection policy
	Weights               map[string]int // per action weight for the weighted policy
	Steps                 int            // number of steps; <= 0 runs forever
	RandomSeed            int64          // seed of the random generator
	LogLevel              string         // level of the logger
	Debug                 bool           // trace every action
	NumMakers             int            // number of makers
	NumTakers             int            // number of takers
	NumStakers            int            // number of stakers
	NumOperators          int            // number of pool operators
	InitialBalance        uint64         // funding of every actor and asset
	ProtocolFeeMultiplier uint64         // protocol fee multiplier
	GasPrice              uint64         // gas price of submitted transactions
	MinimumPoolStake      uint64         // minimum delegated stake of a pool
	RegisterRun           string         // path of the run registry; empty disables it
}

// Default returns the configuration used when no flags are given.
func Default() *Config {
	return &Config{
		AppName:               "shadowfuzz",
		Campaign:              CampaignFlag.Value,
		Policy:                PolicyFlag.Value,
		Weights:               map[string]int{},
		Steps:                 StepsFlag.Value,
		RandomSeed:            RandomSeedFlag.Value,
		LogLevel:              logger.LogLevelFlag.Value,
		NumMakers:             NumMakersFlag.Value,
		NumTakers:             NumTakersFlag.Value,
		NumStakers:            NumStakersFlag.Value,
		NumOperators:          NumOperatorsFlag.Value,
		InitialBalance:        InitialBalanceFlag.Value,
		ProtocolFeeMultiplier: ProtocolFeeMultiplierFlag.Value,
		GasPrice:              GasPriceFlag.Value,
		MinimumPoolStake:      MinimumPoolStakeFlag.Value,
	}
}

// NewConfig creates and validates the configuration from the command line context.
func NewConfig(ctx *cli.Context) (*Config, error) {
	weights, err := parseWeights(getFlagValue(ctx, WeightsFlag).([]string))
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		AppName:     ctx.App.HelpName,
		CommandName: ctx.Command.Name,

		Campaign:              getFlagValue(ctx, CampaignFlag).(string),
		Policy:                getFlagValue(ctx, PolicyFlag).(string),
		Weights:               weights,
		Steps:                 getFlagValue(ctx, StepsFlag).(int),
		RandomSeed:            getFlagValue(ctx, RandomSeedFlag).(int64),
		LogLevel:              getFlagValue(ctx, logger.LogLevelFlag).(string),
		Debug:                 getFlagValue(ctx, TraceDebugFlag).(bool),
		NumMakers:             getFlagValue(ctx, NumMakersFlag).(int),
		NumTakers:             getFlagValue(ctx, NumTakersFlag).(int),
		NumStakers:            getFlagValue(ctx, NumStakersFlag).(int),
		NumOperators:          getFlagValue(ctx, NumOperatorsFlag).(int),
		InitialBalance:        getFlagValue(ctx, InitialBalanceFlag).(uint64),
		ProtocolFeeMultiplier: getFlagValue(ctx, ProtocolFeeMultiplierFlag).(uint64),
		GasPrice:              getFlagValue(ctx, GasPriceFlag).(uint64),
		MinimumPoolStake:      getFlagValue(ctx, MinimumPoolStakeFlag).(uint64),
		RegisterRun:           getFlagValue(ctx, RegisterRunFlag).(string),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the consistency of the configuration.
func (cfg *Config) Validate() error {
	switch cfg.Campaign {
	case StakeCampaign, PoolCampaign, MatchCampaign, CombinedCampaign:
	default:
		return errors.Newf("unknown campaign %q", cfg.Campaign)
	}
	switch cfg.Policy {
	case UniformPolicy, WeightedPolicy:
	default:
		return errors.Newf("unknown policy %q", cfg.Policy)
	}
	if cfg.Policy == UniformPolicy && len(cfg.Weights) > 0 {
		return errors.New("action weights require the weighted policy")
	}
	needsStakers := cfg.Campaign == StakeCampaign || cfg.Campaign == CombinedCampaign
	if needsStakers && cfg.NumStakers <= 0 {
		return errors.Newf("campaign %v needs at least one staker", cfg.Campaign)
	}
	needsOperators := cfg.Campaign == PoolCampaign || cfg.Campaign == CombinedCampaign
	if needsOperators && cfg.NumOperators <= 0 {
		return errors.Newf("campaign %v needs at least one pool operator", cfg.Campaign)
	}
	needsTraders := cfg.Campaign == MatchCampaign || cfg.Campaign == CombinedCampaign
	if needsTraders && (cfg.NumMakers < 2 || cfg.NumTakers <= 0) {
		return errors.Newf("campaign %v needs at least two makers and one taker", cfg.Campaign)
	}
	if cfg.InitialBalance == 0 {
		return errors.New("initial balance must be greater than zero")
	}
	return nil
}

// parseWeights parses <action>=<weight> pairs.
func parseWeights(pairs []string) (map[string]int, error) {
	weights := make(map[string]int, len(pairs))
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, errors.Newf("invalid action weight %q; expected <action>=<weight>", pair)
		}
		w, err := strconv.Atoi(value)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid weight of action %v", name)
		}
		if w < 1 {
			return nil, errors.Newf("weight of action %v must be positive; got %d", name, w)
		}
		weights[name] = w
	}
	return weights, nil
}

// getFlagValue returns value specified by user if flag is present in cli context, otherwise return default flag value
func getFlagValue(ctx *cli.Context, flag interface{}) interface{} {
	cmdFlags := ctx.Command.Flags
	for _, cmdFlag := range cmdFlags {
		switch f := flag.(type) {
		case cli.IntFlag:
			if cmdFlag.Names()[0] == f.Name {
				return ctx.Int(f.Name)
			}
		case cli.Uint64Flag:
			if cmdFlag.Names()[0] == f.Name {
				return ctx.Uint64(f.Name)
			}
		case cli.Int64Flag:
			if cmdFlag.Names()[0] == f.Name {
				return ctx.Int64(f.Name)
			}
		case cli.StringFlag:
			if cmdFlag.Names()[0] == f.Name {
				return ctx.String(f.Name)
			}
		case cli.PathFlag:
			if cmdFlag.Names()[0] == f.Name {
				return ctx.Path(f.Name)
			}
		case cli.BoolFlag:
			if cmdFlag.Names()[0] == f.Name {
				return ctx.Bool(f.Name)
			}
		case cli.StringSliceFlag:
			if cmdFlag.Names()[0] == f.Name {
				return ctx.StringSlice(f.Name)
			}
		}
	}

	// If flag not found, return the default value of the flag
	switch f := flag.(type) {
	case cli.IntFlag:
		return f.Value
	case cli.Uint64Flag:
		return f.Value
	case cli.Int64Flag:
		return f.Value
	case cli.StringFlag:
		return f.Value
	case cli.PathFlag:
		return f.Value
	case cli.BoolFlag:
		return f.Value
	case cli.StringSliceFlag:
		if f.Value == nil {
			return []string{}
		}
		return f.Value.Value()
	}

	return nil
}
