package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/reqcheck/internal/cli"
	rqerrors "github.com/matzehuels/reqcheck/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli.New(os.Stderr, cli.LogInfo)
	if err := c.Execute(ctx); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			os.Exit(130) // Standard shell convention for SIGINT
		case errors.Is(err, cli.ErrFindings):
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "reqcheck:", rqerrors.UserMessage(err))
		os.Exit(1)
	}
}
