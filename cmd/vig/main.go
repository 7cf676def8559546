package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/a-luna/vigorish-sub003/cmd/vig/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := commands.ExecuteContext(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
