// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"path/filepath"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/stasisprotocol/stasis/api"
	"github.com/stasisprotocol/stasis/cmd/stasisd/solo"
	"github.com/stasisprotocol/stasis/eventdb"
	"github.com/stasisprotocol/stasis/health"
	"github.com/stasisprotocol/stasis/log"
	"github.com/stasisprotocol/stasis/lvldb"
	"github.com/stasisprotocol/stasis/metrics"
	"github.com/stasisprotocol/stasis/staking"
	"github.com/stasisprotocol/stasis/state"
	"github.com/stasisprotocol/stasis/xenv"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
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
		Name:      "Stasisd",
		Usage:     "Node of the Stasis stake ledger",
		Copyright: "2026 The Stasis developers",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiEventsLimitFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			pprofFlag,
			enableMetricsFlag,
			metricsAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "solo",
				Usage: "in-memory ledger for test & dev",
				Flags: []cli.Flag{
					apiAddrFlag,
					apiCorsFlag,
					apiEventsLimitFlag,
					enableAPILogsFlag,
					verbosityFlag,
					jsonLogsFlag,
					pprofFlag,
				},
				Action: soloAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	configPath := ctx.String(configFlag.Name)
	if configPath == "" {
		cli.ShowAppHelp(ctx)
		fmt.Println("config flag not specified")
		os.Exit(1)
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		fatal(err)
	}

	dataDir := makeDataDir(ctx)

	mainDB, err := lvldb.New(filepath.Join(dataDir, "main.db"), lvldb.Options{})
	if err != nil {
		fatal(fmt.Sprintf("open main database: %v", err))
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	eventDB, err := eventdb.New(filepath.Join(dataDir, "events.db"))
	if err != nil {
		fatal(fmt.Sprintf("open event database: %v", err))
	}
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		_, closeMetrics := startHTTPServer(ctx.String(metricsAddrFlag.Name), metrics.HTTPHandler())
		defer func() { logger.Info("stopping metrics server..."); closeMetrics() }()
	}

	st := state.New(mainDB)
	ledger := staking.New(cfg.LedgerAddress, st, eventDB.Sink())
	if err := initLedger(ledger, st, cfg); err != nil {
		fatal(fmt.Sprintf("initialize ledger: %v", err))
	}

	healthStatus := &health.Health{}
	best := func() uint32 {
		n, err := eventDB.MaxBlockNumber()
		if err != nil {
			logger.Warn("failed to read best block", "err", err)
			return 0
		}
		healthStatus.NewBestBlock(n)
		return n
	}
	best()

	handler := api.New(ledger, eventDB, best, healthStatus, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EventsLimit:     ctx.Uint64(apiEventsLimitFlag.Name),
	})
	apiURL, closeAPI := startHTTPServer(ctx.String(apiAddrFlag.Name), handler)
	defer func() { logger.Info("stopping API server..."); closeAPI() }()

	printStartupMessage(cfg, dataDir, apiURL)

	<-handleExitSignal()
	return nil
}

// initLedger runs the one-shot genesis initialization. When the ledger
// state already carries a schema version it only applies pending schema
// migrations, if any.
func initLedger(ledger *staking.Staking, st *state.State, cfg *Config) error {
	env := xenv.New(st,
		&xenv.BlockContext{Number: 0, Time: cfg.Kickoff},
		&xenv.TransactionContext{Origin: cfg.Owner})

	err := ledger.Initialize(env, cfg.Owner, cfg.FeeCollector, cfg.Kickoff)
	if err == staking.ErrAlreadyInitialized {
		if err := ledger.UpgradeSchema(env); err != nil {
			return err
		}
		return st.Commit()
	}
	if err != nil {
		return err
	}
	return st.Commit()
}

func soloAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	sol, err := solo.New()
	if err != nil {
		fatal(fmt.Sprintf("setup solo ledger: %v", err))
	}
	defer sol.Close()

	healthStatus := &health.Health{}
	healthStatus.NewBestBlock(sol.Best())

	handler := api.New(sol.Ledger(), sol.EventDB(), sol.Best, healthStatus, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EventsLimit:     ctx.Uint64(apiEventsLimitFlag.Name),
	})
	apiURL, closeAPI := startHTTPServer(ctx.String(apiAddrFlag.Name), handler)
	defer func() { logger.Info("stopping API server..."); closeAPI() }()

	logger.Info("solo ledger ready", "api", apiURL)
	sol.PrintAccounts()

	<-handleExitSignal()
	return nil
}

func printStartupMessage(cfg *Config, dataDir string, apiURL string) {
	fmt.Printf(`Starting Stasisd %v
    Ledger       [ %v ]
    Owner        [ %v ]
    Kickoff      [ %v ]
    Data dir     [ %v ]
    API portal   [ %v ]
`,
		fullVersion(),
		cfg.LedgerAddress,
		cfg.Owner,
		cfg.Kickoff,
		dataDir,
		apiURL)
}
