package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	langchatcmder "github.com/papercomputeco/langchat/cmd/langchat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := langchatcmder.NewLangchatCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
