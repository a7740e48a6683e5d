package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cakeshop/internal/delivery/cli"
)

// Set at build time via -ldflags "-X main.version=...".
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root := cli.NewRootCmd(cli.BuildInfo{Version: version, Commit: commit, BuildTime: buildTime})
	code := cli.Run(ctx, root)
	stop()
	os.Exit(code)
}
