package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pseudomuto/mach/pkg/cmd"
	"github.com/pseudomuto/mach/pkg/commands/b2g"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cmd.Main(ctx, os.Args[1:], b2g.Module)
	stop()

	os.Exit(code)
}
