// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/driplabs/drip/log"
	"github.com/driplabs/drip/lvldb"
	"github.com/driplabs/drip/recorddb"
)

func fatal(args ...any) {
	var w *os.File
	if isatty.IsTerminal(os.Stderr.Fd()) {
		w = os.Stderr
	} else {
		w = os.Stdout
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".drip")
	}
	return ""
}

func initLogger(ctx *cli.Context) {
	var level slog.Level
	switch ctx.Int(verbosityFlag.Name) {
	case 0:
		level = slog.LevelError
	case 1:
		level = slog.LevelWarn
	case 2:
		level = slog.LevelInfo
	case 3:
		level = slog.LevelInfo
	case 4:
		level = slog.LevelDebug
	default:
		level = log.LevelTrace
	}
	var lv slog.LevelVar
	lv.Set(level)

	output := os.Stdout
	if ctx.Bool(jsonLogsFlag.Name) || !isatty.IsTerminal(output.Fd()) {
		log.SetDefault(log.JSONHandlerWithLevel(output, &lv))
	} else {
		log.SetDefault(log.LogfmtHandlerWithLevel(output, &lv))
	}
}

func makeDataDir(ctx *cli.Context) string {
	dir := ctx.String(dataDirFlag.Name)
	if dir == "" {
		fatal("unable to infer default data dir, use -data-dir to specify one")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		fatal(fmt.Sprintf("create data dir [%v]: %v", dir, err))
	}
	return dir
}

func openMainDB(ctx *cli.Context) *lvldb.LevelDB {
	if ctx.Bool(memFlag.Name) {
		db, err := lvldb.NewMem()
		if err != nil {
			fatal(fmt.Sprintf("open memory main database: %v", err))
		}
		return db
	}
	path := filepath.Join(makeDataDir(ctx), "main.db")
	db, err := lvldb.New(path, lvldb.Options{})
	if err != nil {
		fatal(fmt.Sprintf("open main database [%v]: %v", path, err))
	}
	return db
}

func openRecordDB(ctx *cli.Context) *recorddb.RecordDB {
	if ctx.Bool(memFlag.Name) {
		db, err := recorddb.NewMem()
		if err != nil {
			fatal(fmt.Sprintf("open memory record database: %v", err))
		}
		return db
	}
	path := filepath.Join(makeDataDir(ctx), "records.db")
	db, err := recorddb.New(path)
	if err != nil {
		fatal(fmt.Sprintf("open record database [%v]: %v", path, err))
	}
	return db
}

func handleExitSignal() <-chan os.Signal {
	exitSignalCh := make(chan os.Signal, 1)
	signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)
	return exitSignalCh
}
