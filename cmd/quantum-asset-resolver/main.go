package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantumauth-io/quantum-go-utils/log"

	resolverconfig "github.com/quantumauth-io/quantum-asset-resolver/cmd/quantum-asset-resolver/config"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/assets"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/chains"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/effects"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/metadoc"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

type command struct {
	name  string
	usage string
	// needsChain commands get configured chain clients
	needsChain bool
	run        func(ctx context.Context, a *app, args []string) (any, error)
}

var commands = []command{
	{name: "standard", usage: "-network N|0xID -asset SLUG", needsChain: true, run: runStandard},
	{name: "balance", usage: "-network N|0xID -asset SLUG -account ADDR [-standard S] [-decimals D]", needsChain: true, run: runBalance},
	{name: "balances", usage: "-network N|0xID -account ADDR -assets SLUG[:STANDARD],... [-wait]", needsChain: true, run: runBalances},
	{name: "metadata", usage: "-network N|0xID -asset SLUG", needsChain: true, run: runMetadata},
	{name: "effects", usage: "-network N|0xID -from ADDR -to ADDR -data HEX [-value WEI] [-explain]", needsChain: true, run: runEffects},
	{name: "tezos-expenses", usage: "-account ADDR [-file PATH]", run: runTezosExpenses},
}

type app struct {
	cfg         *resolverconfig.Config
	chains      *chains.Service
	assets      *assets.Manager
	interpreter *effects.Interpreter
}

func main() {
	log.Info("quantum-asset-resolver",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	if code := run(os.Args[1:]); code != 0 {
		os.Exit(code)
	}
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return 2
	}
	cmd, ok := lookup(args[0])
	if !ok {
		usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var a *app
	if cmd.needsChain {
		var err error
		a, err = newApp()
		if err != nil {
			log.Error("failed to init", "error", err)
			return 1
		}
		defer func() {
			if err := a.chains.Close(); err != nil {
				log.Error("failed to close chain clients", "error", err)
			}
		}()
	}

	out, err := cmd.run(ctx, a, args[1:])
	if err != nil {
		log.Error("command failed", "command", cmd.name, "error", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Error("failed to write output", "error", err)
		return 1
	}
	return 0
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: quantum-asset-resolver <command> [flags]")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-15s %s\n", c.name, c.usage)
	}
}

func newApp() (*app, error) {
	cfg, err := resolverconfig.Load()
	if err != nil {
		return nil, err
	}

	chainsService, err := chains.NewService(cfg.ChainConfig())
	if err != nil {
		return nil, err
	}

	manager, err := assets.NewManager(chainsService, metadoc.NewHTTPFetcher(cfg.DocumentConfig()),
		assets.WithMulticallTimeout(cfg.MulticallTimeout()),
	)
	if err != nil {
		return nil, err
	}

	interpreter, err := effects.NewInterpreter(chainsService, manager)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:         cfg,
		chains:      chainsService,
		assets:      manager,
		interpreter: interpreter,
	}, nil
}
