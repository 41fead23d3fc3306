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

import "github.com/urfave/cli/v2"

// command line flags
var (
	CampaignFlag = cli.StringFlag{
		Name:  "campaign",
		Usage: "fuzz campaign to run (\"stake\", \"pool\", \"match\", \"combined\")",
		Value: CombinedCampaign,
	}
	PolicyFlag = cli.StringFlag{
		Name:  "policy",
		Usage: "action selection policy (\"uniform\", \"weighted\")",
		Value: UniformPolicy,
	}
	WeightsFlag = cli.StringSliceFlag{
		Name:  "weight",
		Usage: "action weight for the weighted policy as <action>=<weight>, may be repeated",
	}
	StepsFlag = cli.IntFlag{
		Name:  "steps",
		Usage: "number of fuzz steps; zero or less runs until interrupted or a violation is found",
		Value: 1000,
	}
	RandomSeedFlag = cli.Int64Flag{
		Name:  "random-seed",
		Usage: "seed for the random generator of the campaign",
		Value: 1,
	}
	TraceDebugFlag = cli.BoolFlag{
		Name:  "trace-debug",
		Usage: "log every executed action with its arguments",
	}
	NumMakersFlag = cli.IntFlag{
		Name:  "makers",
		Usage: "number of maker actors",
		Value: 2,
	}
	NumTakersFlag = cli.IntFlag{
		Name:  "takers",
		Usage: "number of taker actors",
		Value: 1,
	}
	NumStakersFlag = cli.IntFlag{
		Name:  "stakers",
		Usage: "number of staker actors",
		Value: 3,
	}
	NumOperatorsFlag = cli.IntFlag{
		Name:  "operators",
		Usage: "number of pool operator actors",
		Value: 2,
	}
	InitialBalanceFlag = cli.Uint64Flag{
		Name:  "initial-balance",
		Usage: "amount of every asset each actor is funded with",
		Value: 1_000_000_000,
	}
	ProtocolFeeMultiplierFlag = cli.Uint64Flag{
		Name:  "protocol-fee-multiplier",
		Usage: "protocol fee per fill in units of the gas price",
		Value: 150_000,
	}
	GasPriceFlag = cli.Uint64Flag{
		Name:  "gas-price",
		Usage: "gas price used for every submitted transaction",
		Value: 1,
	}
	MinimumPoolStakeFlag = cli.Uint64Flag{
		Name:  "minimum-pool-stake",
		Usage: "delegated stake a pool needs to earn rewards",
		Value: 100,
	}
	RegisterRunFlag = cli.PathFlag{
		Name:  "register-run",
		Usage: "sqlite file the executed actions of the run are registered in",
	}
)
