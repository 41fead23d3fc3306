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

package main

import (
	"fmt"
	"os"

	"github.com/0xsoniclabs/shadowfuzz/config"
	"github.com/0xsoniclabs/shadowfuzz/logger"
	"github.com/urfave/cli/v2"
)

// FuzzCommand runs a fuzz campaign against a fresh deployment.
var FuzzCommand = cli.Command{
	Action: RunFuzz,
	Name:   "fuzz",
	Usage:  "runs randomized actions of simulated actors and checks every outcome against a shadow model",
	Flags: []cli.Flag{
		&config.CampaignFlag,
		&config.PolicyFlag,
		&config.WeightsFlag,
		&config.StepsFlag,
		&config.RandomSeedFlag,
		&config.TraceDebugFlag,
		&config.NumMakersFlag,
		&config.NumTakersFlag,
		&config.NumStakersFlag,
		&config.NumOperatorsFlag,
		&config.InitialBalanceFlag,
		&config.ProtocolFeeMultiplierFlag,
		&config.GasPriceFlag,
		&config.MinimumPoolStakeFlag,
		&config.RegisterRunFlag,
		&logger.LogLevelFlag,
	},
}

var shadowfuzzApp = &cli.App{
	Name:      "Shadow model fuzzer",
	HelpName:  "shadowfuzz",
	Usage:     "property-based fuzzing of exchange and staking deployments",
	Copyright: "(c) 2025 Sonic Labs",
	Commands: []*cli.Command{
		&FuzzCommand,
	},
}

func main() {
	if err := shadowfuzzApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
