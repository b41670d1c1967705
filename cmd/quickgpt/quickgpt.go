package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd"
	_ "go.uber.org/automaxprocs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	command := cmd.NewDefaultQuickGPTCommand()
	err := command.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
