// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/driplabs/drip/api"
	"github.com/driplabs/drip/distributor"
	"github.com/driplabs/drip/drip"
	"github.com/driplabs/drip/log"
	"github.com/driplabs/drip/metrics"
	"github.com/driplabs/drip/oracle/static"
	"github.com/driplabs/drip/state"
	"github.com/driplabs/drip/token"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")

	distributorAddr = drip.BytesToAddress([]byte("drip-distributor"))
	vaultAddr       = drip.BytesToAddress([]byte("drip-vault"))
)

// marks the state as initialized, written on first run
var initializedKey = []byte("dripd-initialized")

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
		Name:      "dripd",
		Usage:     "epoch-based stake-weighted reward distributor",
		Copyright: "2025 The Drip developers",
		Flags: []cli.Flag{
			dataDirFlag,
			memFlag,
			oracleFlag,
			genesisTimeFlag,
			apiAddrFlag,
			apiCorsFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableAPILogsFlag,
			enableMetricsFlag,
			pprofFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	oraclePath := ctx.String(oracleFlag.Name)
	if oraclePath == "" {
		fatal("no weight oracle config, use -oracle to specify one")
	}
	oracle, err := static.FromFile(oraclePath)
	if err != nil {
		fatal(err)
	}

	mainDB := openMainDB(ctx)
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	recordDB := openRecordDB(ctx)
	defer func() { logger.Info("closing record database..."); recordDB.Close() }()

	genesisTime := ctx.Uint64(genesisTimeFlag.Name)
	st := state.New(mainDB)
	vault := token.New(vaultAddr, st)
	eng := distributor.New(distributorAddr, st, oracle, vault)

	initialized, err := mainDB.Has(initializedKey)
	if err != nil {
		fatal(err)
	}
	if !initialized {
		startEpoch := drip.EpochAt(uint64(time.Now().Unix()), genesisTime)
		if err := eng.Initialize(startEpoch); err != nil {
			fatal(err)
		}
		if err := st.Commit(); err != nil {
			fatal(err)
		}
		if err := mainDB.Put(initializedKey, []byte{1}); err != nil {
			fatal(err)
		}
	}

	handler := api.New(eng, st, recordDB, genesisTime, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
	})

	listener, err := net.Listen("tcp", ctx.String(apiAddrFlag.Name))
	if err != nil {
		fatal(fmt.Sprintf("listen API addr [%v]: %v", ctx.String(apiAddrFlag.Name), err))
	}
	srv := &http.Server{Handler: handler}
	srvDone := make(chan error, 1)
	go func() {
		srvDone <- srv.Serve(listener)
	}()
	defer func() {
		logger.Info("stopping API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	startEpoch, err := eng.StartEpoch()
	if err != nil {
		fatal(err)
	}
	logger.Info("distributor started",
		"version", fullVersion(),
		"apiAddr", "http://"+listener.Addr().String(),
		"genesisTime", genesisTime,
		"startEpoch", startEpoch,
		"currentEpoch", drip.EpochAt(uint64(time.Now().Unix()), genesisTime),
	)

	select {
	case sig := <-handleExitSignal():
		logger.Info("exit signal received", "signal", sig)
		return nil
	case err := <-srvDone:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
