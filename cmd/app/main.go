package main

import (
	"flag"
	"fmt"
	"os"

	"RegimeWatch/internal/di"
	"RegimeWatch/pkg/config"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code: 2 for bad configuration, 1 for a runtime failure.
func run() int {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	checkOnly := flag.Bool("check", false, "validate the configuration and exit")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	if *checkOnly {
		fmt.Printf("config ok: symbol=%s depth_cap=%d trade_cap=%d snapshot=%s\n",
			cfg.Feed.Symbol, cfg.DepthCapacity(), cfg.TradeCapacity(), cfg.Snapshot.Backend)
		return 0
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		return 1
	}

	// blocks until SIGINT/SIGTERM or the feed gives up
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "regimewatch: %v\n", err)
		return 1
	}
	return 0
}
