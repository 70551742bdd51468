// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeledger/api/admin"
	"github.com/vechain/stakeledger/api/subscriptions"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/pos"
	"github.com/vechain/stakeledger/pos/params"
	"github.com/vechain/stakeledger/thor"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "stakeledger")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "stakeledger",
		Usage:     "Epoched proof-of-stake ledger",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Commands: []cli.Command{
			{
				Name:      "run",
				Usage:     "replay a scenario against a ledger",
				ArgsUsage: "<scenario.yaml>",
				Flags: []cli.Flag{
					dataDirFlag,
					cacheFlag,
					apiAddrFlag,
					apiCorsFlag,
					apiHistoryLimitFlag,
					enableAPILogsFlag,
					apiSlowQueriesThresholdFlag,
					apiLog5xxErrorsFlag,
					pprofFlag,
					verbosityFlag,
					jsonLogsFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					enableAdminFlag,
					adminAddrFlag,
					epochIntervalFlag,
					stepFlag,
					keepServingFlag,
				},
				Action: runAction,
			},
			{
				Name:   "params",
				Usage:  "print the default ledger params as yaml",
				Action: paramsAction,
			},
			{
				Name:  "inspect",
				Usage: "print the validator sets of a persisted ledger",
				Flags: []cli.Flag{
					dataDirFlag,
					cacheFlag,
					verbosityFlag,
					epochFlag,
					rawFlag,
				},
				Action: inspectAction,
			},
			{
				Name:      "verify",
				Usage:     "replay a scenario and check the persisted history and state match",
				ArgsUsage: "<scenario.yaml>",
				Flags: []cli.Flag{
					dataDirFlag,
					cacheFlag,
					verbosityFlag,
				},
				Action: verifyAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func scenarioArg(ctx *cli.Context) (*Scenario, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("expect one scenario file")
	}
	return LoadScenario(ctx.Args().First())
}

func runAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel, err := initLogger(ctx)
	if err != nil {
		return err
	}

	s, err := scenarioArg(ctx)
	if err != nil {
		return err
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeFunc, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping metrics server..."); closeFunc() }()
		logger.Info("metrics server started", "url", url)
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing ledger database..."); store.Close() }()

	logDB, err := openLogDB(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing history database..."); logDB.Close() }()

	ledger, err := loadLedger(store, s)
	if err != nil {
		return err
	}

	r := newRunner(s, ledger)
	if err := r.withStore(store); err != nil {
		return err
	}
	if err := r.withLogDB(logDB); err != nil {
		return err
	}
	r.onReport = func(report *pos.EpochReport) {
		if ctx.Bool(stepFlag.Name) {
			printReport(os.Stdout, report)
		}
	}

	if ctx.Bool(enableAdminFlag.Name) {
		url, closeFunc, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel, ledger)
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping admin server..."); closeFunc() }()
		logger.Info("admin server started", "url", url)
	}

	serving := ctx.String(apiAddrFlag.Name) != ""
	if serving {
		feed := subscriptions.NewFeed()
		r.withFeed(feed)
		url, closeFunc, err := startAPIServer(ctx, ledger, logDB, feed)
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping API server..."); closeFunc() }()
		logger.Info("API server started", "url", url)
	}

	if ctx.Bool(stepFlag.Name) {
		st, closeTTY, err := newTTYStepper(os.Stdout, ledger)
		if err != nil {
			return err
		}
		defer closeTTY()
		r.beforeAdvance = st.wait
	}

	interval := time.Duration(ctx.Uint64(epochIntervalFlag.Name)) * time.Millisecond
	err = r.Run(exitSignal, interval)
	switch {
	case errors.Is(err, errStepQuit), errors.Is(err, context.Canceled):
		logger.Info("run stopped", "epoch", ledger.CurrentEpoch())
		return nil
	case err != nil:
		return err
	}

	printSets(os.Stdout, ledger, ledger.CurrentEpoch())
	if serving && ctx.Bool(keepServingFlag.Name) {
		logger.Info("scenario finished, serving until interrupted", "epoch", ledger.CurrentEpoch())
		<-exitSignal.Done()
	}
	return nil
}

func paramsAction(ctx *cli.Context) error {
	data, err := params.Default().Encode()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func inspectAction(ctx *cli.Context) error {
	if _, err := initLogger(ctx); err != nil {
		return err
	}

	if ctx.String(dataDirFlag.Name) == "" {
		return errors.New("inspect requires --data-dir")
	}
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	ledger, err := store.Restore()
	if err != nil {
		return err
	}
	e := epochOf(ctx.Int64(epochFlag.Name), ledger.CurrentEpoch())

	if ctx.Bool(rawFlag.Name) {
		dumpValidators(os.Stdout, ledger, e)
		return nil
	}
	root, err := ledger.Root()
	if err != nil {
		return err
	}
	fmt.Printf("ledger at epoch %d, root %v\n", ledger.CurrentEpoch(), root)
	printSets(os.Stdout, ledger, e)
	return nil
}

func verifyAction(ctx *cli.Context) error {
	if _, err := initLogger(ctx); err != nil {
		return err
	}

	s, err := scenarioArg(ctx)
	if err != nil {
		return err
	}
	if ctx.String(dataDirFlag.Name) == "" {
		return errors.New("verify requires --data-dir")
	}
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	logDB, err := openLogDB(ctx)
	if err != nil {
		return err
	}
	defer logDB.Close()

	if err := verifyHistory(handleExitSignal(), os.Stdout, s, logDB, store); err != nil {
		return err
	}
	fmt.Println("history verified")
	return nil
}

// epochOf converts the inspect flag value, negative meaning the ledger's current epoch.
func epochOf(v int64, current thor.Epoch) thor.Epoch {
	if v < 0 {
		return current
	}
	return thor.Epoch(v)
}
