package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/thisisjab/usersearch/api"
	"github.com/thisisjab/usersearch/config"
	"github.com/thisisjab/usersearch/engine"
)

func main() {
	parser := argparse.NewParser("usersearch-server", "Serves user searches over HTTP")
	cfgPath := parser.String("c", "config", &argparse.Options{
		Default: "./config.yaml",
		Help:    "Path to config file",
	})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Println(parser.Usage(err))
		os.Exit(1)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	if cfg.API == nil {
		panic("config has no api section")
	}

	engineCfg, logger, err := cfg.Parse()
	if err != nil {
		if logger != nil {
			logger.Error("cannot parse config file", "error", err)
			os.Exit(1)
		}
		panic(fmt.Errorf("cannot parse config file: %w", err))
	}

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			logger.Error("server panic", "error", r)
		}
	}()

	// Setup signal handling to catch Ctrl+C (SIGINT) or Terminate (SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal. shutting down.", "signal", sig)
		cancel()
	}()

	if engineCfg.Storage != nil {
		if err := engineCfg.Storage.Connect(ctx); err != nil {
			logger.Error("storage error.", "error", err)
			os.Exit(1)
		}
		defer engineCfg.Storage.Close(context.Background()) //nolint:errcheck
	}

	eng, err := engine.New(*engineCfg, logger)
	if err != nil {
		logger.Error("engine error.", "error", err)
		os.Exit(1)
	}

	server, err := api.NewServer(*cfg.API, logger, eng)
	if err != nil {
		logger.Error("server error.", "error", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup
	wg.Go(func() {
		if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("engine error.", "error", err)
			cancel()
		}
	})

	// Serve only once the schema is known.
	select {
	case <-eng.Ready():
	case <-ctx.Done():
		wg.Wait()
		return
	}

	if err := server.Serve(ctx); err != nil {
		logger.Error("server error.", "error", err)
		cancel()
	}

	wg.Wait()
	logger.Info("server stopped.")
}
