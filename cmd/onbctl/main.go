package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/onbscore/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("onbctl: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
