package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fundops/fundledger/internal/app"
	"github.com/fundops/fundledger/internal/config"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const usage = `usage: fundledger [-config path] <command>

commands:
  serve        run the admin API, notification dispatcher and auto payout runner
  migrate      create or update database tables
  auto-payout  run one monthly profit payout pass and exit
`

func main() {
	_ = godotenv.Load()

	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config.yaml (defaults to $FUNDLEDGER_CONFIG or ./config.yaml)")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	command := "serve"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.AppConfig{ConfigPath: configPath}
	var err error
	switch command {
	case "serve":
		err = app.RunServer(ctx, cfg)
	case "migrate":
		err = app.Migrate(ctx, cfg)
	case "auto-payout":
		err = app.RunAutoPayout(ctx, cfg)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.WithError(err).Errorf("%s failed", command)
		stop()
		os.Exit(1)
	}
}
