package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hitbim/bimio/internal/client/cli"
	"github.com/hitbim/bimio/internal/client/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	cfg := config.LoadConfig(args)

	app := cli.NewApp(ctx, cfg)
	defer app.Close()

	return app.Run(ctx, config.CommandArgs(args))
}
