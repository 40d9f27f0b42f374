package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"gbswap/internal/logging"
	"gbswap/internal/web"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web upload tool until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx, bind)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override server.bind (host:port)")
	return cmd
}

func runServe(cmdCtx context.Context, ctx *commandContext, bind string) error {
	if ctx == nil {
		return fmt.Errorf("command context is required")
	}
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if trimmed := strings.TrimSpace(bind); trimmed != "" {
		cfg.Server.Bind = trimmed
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if ctx.configSeen {
		logger.Info("configuration loaded", logging.String("path", ctx.configPath))
	} else {
		logger.Info("no configuration file found, using defaults", logging.String("path", ctx.configPath))
	}

	srv, err := web.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create web server: %w", err)
	}
	if err := srv.Start(signalCtx); err != nil {
		return fmt.Errorf("start web server: %w", err)
	}
	defer srv.Stop()

	<-signalCtx.Done()
	logger.Info("gbswap shutting down")
	return nil
}
