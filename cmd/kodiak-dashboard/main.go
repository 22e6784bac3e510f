package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/olliecrow/kodiak_dashboard/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cli.Execute(ctx, version, args, os.Stdout, os.Stderr)
}
