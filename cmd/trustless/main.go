// Copyright 2021 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// trustless is the command line interface of the trustless agent registry.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/probeum/go-trustless/core"
	"github.com/probeum/go-trustless/core/registry"
	"github.com/probeum/go-trustless/internal/debug"
	"github.com/probeum/go-trustless/trust"
	"github.com/probeum/go-trustless/trust/trustconfig"
	"golang.org/x/sync/errgroup"
	"gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the ledger database",
		Value: trustconfig.Defaults.DataDir,
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Usage: "Megabytes of memory allocated to the database",
		Value: trustconfig.Defaults.DatabaseCache,
	}
	enforceActiveFlag = cli.BoolFlag{
		Name:  "registry.enforceactive",
		Usage: "Reject jobs and feedback against deactivated agents",
	}
	httpHostFlag = cli.StringFlag{
		Name:  "http.addr",
		Usage: "HTTP API listening interface, empty to disable",
		Value: trustconfig.Defaults.HTTPHost,
	}
	httpPortFlag = cli.IntFlag{
		Name:  "http.port",
		Usage: "HTTP API listening port",
		Value: trustconfig.Defaults.HTTPPort,
	}
	httpCorsFlag = cli.StringFlag{
		Name:  "http.corsdomain",
		Usage: "Comma separated list of domains from which to accept cross origin requests",
	}
	metricsFlag = cli.BoolFlag{
		Name:  "metrics",
		Usage: "Enable metrics collection and serve them on the HTTP API",
	}
)

var app = cli.NewApp()

func init() {
	app.Name = "trustless"
	app.Usage = "the trustless agent reputation registry"
	app.Flags = append([]cli.Flag{
		configFileFlag,
		dataDirFlag,
		cacheFlag,
		enforceActiveFlag,
		httpHostFlag,
		httpPortFlag,
		httpCorsFlag,
		metricsFlag,
	}, debug.Flags...)
	app.Commands = []cli.Command{
		initCommand,
		serveCommand,
		applyCommand,
		txCommand,
		inspectCommand,
		keygenCommand,
		dumpConfigCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))

	app.Before = func(ctx *cli.Context) error {
		return debug.Setup(ctx)
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Fatalf formats a message to standard error and exits the program.
func Fatalf(format string, args ...interface{}) {
	w := io.MultiWriter(os.Stdout, os.Stderr)
	if stdoutIsStderr() {
		w = os.Stderr
	}
	fmt.Fprintf(w, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}

func stdoutIsStderr() bool {
	outf, _ := os.Stdout.Stat()
	errf, _ := os.Stderr.Stat()
	return outf != nil && errf != nil && os.SameFile(outf, errf)
}

// splitAndTrim splits input separated by a comma and trims excessive white
// space from the substrings.
func splitAndTrim(input string) (ret []string) {
	for _, r := range strings.Split(input, ",") {
		if r = strings.TrimSpace(r); r != "" {
			ret = append(ret, r)
		}
	}
	return ret
}

var serveCommand = cli.Command{
	Action:    serve,
	Name:      "serve",
	Usage:     "Run the ledger and serve its HTTP API",
	ArgsUsage: "",
	Category:  "LEDGER COMMANDS",
	Description: `
The serve command opens the ledger, initialising it with the default genesis if
the database is empty, and serves the HTTP API until interrupted.`,
}

func serve(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	// Meters are only live if enabled on the command line at start up.
	if cfg.Trust.Metrics && !metrics.Enabled {
		log.Warn("Metrics enabled in config but not on the command line, use --metrics")
	}
	service, err := trust.New(&cfg.Trust)
	if err != nil {
		return err
	}
	if err := service.Start(); err != nil {
		service.Stop()
		return err
	}
	sctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)

		select {
		case sig := <-sigc:
			log.Info("Got interrupt, shutting down...", "signal", sig)
			cancel()
		case <-gctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		return watchLogs(gctx, service.Ledger())
	})
	if err := g.Wait(); err != nil {
		log.Error("Log watcher failed", "err", err)
	}
	return service.Stop()
}

// watchLogs reports the registry notifications of the ledger until ctx is
// cancelled.
func watchLogs(ctx context.Context, ledger *core.Ledger) error {
	ch := make(chan core.NewLogsEvent, 16)
	sub := ledger.SubscribeLogsEvent(ch)
	defer sub.Unsubscribe()

	program := ledger.Registry().Address()
	for {
		select {
		case ev := <-ch:
			for _, l := range ev.Logs {
				if l.Address != program {
					continue
				}
				event, err := registry.ParseEvent(l)
				if err != nil {
					log.Warn("Undecodable registry log", "seq", l.Sequence, "err", err)
					continue
				}
				log.Info("Registry event", "seq", l.Sequence, "event", event.EventName(), "tx", l.TxHash)
			}
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("ledger subscription closed")
			}
			return err
		case <-ctx.Done():
			return nil
		}
	}
}
