package main

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/vestlabs/vestd/internal/config"
)

func main() {
	app := &cli.App{
		Name:   "vestd",
		Usage:  "custodial vesting daemon",
		Flags:  config.Flags,
		Action: start,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func start(c *cli.Context) error {
	cfg, err := config.NewConfig(c)
	if err != nil {
		log.Fatalf("invalid config: %s", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	log.Infof("vestd config: %s", cfg)

	svc, err := cfg.AppService()
	if err != nil {
		log.Fatalf("failed to create service: %s", err)
	}
	log.Infof("funding mode: %s", svc.FundingMode())

	repo, err := cfg.RepoManager()
	if err != nil {
		log.Fatalf("failed to create repo manager: %s", err)
	}
	log.RegisterExitHandler(repo.Close)

	log.Info("vestd started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(
		sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGHUP, os.Interrupt,
	)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)
	return nil
}
