package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lowji194/bumx/cli"
	"github.com/lowji194/bumx/devices"
	"github.com/lowji194/bumx/utils"
)

// device loops get this long to notice cancellation before cleanup runs anyway
const shutdownGrace = 5 * time.Second

func main() {
	hooks := devices.NewShutdownHook()
	cli.SetShutdownHook(hooks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// run command in goroutine
	done := make(chan error, 1)
	go func() {
		done <- cli.Execute(ctx)
	}()

	var err error
	select {
	case <-sigChan:
		cancel()
		select {
		case err = <-done:
		case <-time.After(shutdownGrace):
			utils.Warn("command did not stop within %s", shutdownGrace)
		}
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	case err = <-done:
	}

	if cleanupErr := hooks.Shutdown(); cleanupErr != nil {
		utils.Warn("cleanup failed: %v", cleanupErr)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
