package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"

	"github.com/japaniel/etymoagent/pkg/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := NewRootCmd(app.Version)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		cancel()
		os.Exit(1)
	}
}
