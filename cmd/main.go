package main

import (
	"os"
	"os/signal"
	"syscall"

	"estimator/internal/bootstrap"
	"estimator/pkg/logger"
)

func main() {
	c := bootstrap.NewContainer()
	c.MustInit()
	defer logger.Sync()

	c.Start()

	// Wait for shutdown signal or a fatal server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		c.Log.Infow("Shutting down...", "signal", sig.String())
	case <-c.Context.Done():
		c.Log.Warn("Shutting down after server failure")
	}

	c.Shutdown()
}
