package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophdrive/internal/buildinfo"
	"github.com/dmitrijs2005/gophdrive/internal/client/cli"
	"github.com/dmitrijs2005/gophdrive/internal/client/client"
	"github.com/dmitrijs2005/gophdrive/internal/client/config"
	"github.com/dmitrijs2005/gophdrive/internal/client/services"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/transfer"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewTextLogger(os.Stderr, slog.LevelWarn)

	repos, err := client.InitDatabase(ctx, cfg.DBPath)
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	defer repos.Close()

	apiClient, err := client.NewHTTPClient(cfg.ServerURL, cfg.HTTPTimeout, cfg.HealthAddr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	session := transfer.NewSession()
	as := services.NewAuthService(apiClient, repos.Metadata, session, logger)
	fs := services.NewFileService(apiClient, repos.Transfers, session, cfg.Parallelism, logger)

	app := cli.NewApp(cfg, as, fs, logger, os.Stdin, os.Stdout)
	app.Run(ctx)

}
