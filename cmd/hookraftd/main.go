// Command hookraftd runs a single hook-raft node: it loads settings from a
// TOML file, wires the default script hook and HTTP transport, and runs
// the node's main role loop until SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/adrien-zinger/hook-raft/config"
	"github.com/adrien-zinger/hook-raft/raft"
	"github.com/adrien-zinger/hook-raft/raft/hook"
	"github.com/adrien-zinger/hook-raft/raft/transport"
)

func main() {
	settingsPath := flag.String("config", "hookraft.toml", "path to the TOML settings file")
	devLog := flag.Bool("dev", false, "use a human-readable development logger instead of JSON")
	flag.Parse()

	logger, err := buildLogger(*devLog)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(*settingsPath, logger); err != nil {
		logger.Error("exiting on fatal error", zap.Error(err))
		os.Exit(1)
	}
}

func buildLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(settingsPath string, logger *zap.Logger) error {
	settings, err := config.Load(settingsPath)
	if err != nil {
		return err
	}

	h := hook.NewScriptHook(settings.HookDir, settings.HookPrefix, logger.Named("hook"))
	tr := transport.NewHTTPTransport()
	node := raft.NewNode(settings.ToRaftConfig(), h, tr, logger.Named("raft"))

	server := transport.NewServer(node, settings.Addr, settings.Port, logger.Named("transport"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrs := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			serverErrs <- err
		}
	}()

	nodeErrs := make(chan error, 1)
	go func() {
		nodeErrs <- node.Run(ctx)
	}()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.ToRaftConfig().ResponseTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("rpc server shutdown error", zap.Error(err))
		}
		<-nodeErrs
		return nil
	case err := <-nodeErrs:
		stop()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("rpc server shutdown error", zap.Error(shutdownErr))
		}
		return err
	case err := <-serverErrs:
		stop()
		return &raft.FatalError{Err: raft.ErrCannotStartRPCServer, Context: err.Error()}
	}
}
