package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/k2-chat/backend/internal/analysis/keyword"
	"github.com/zhouzirui/k2-chat/backend/internal/config"
	"github.com/zhouzirui/k2-chat/backend/internal/logging"
	"github.com/zhouzirui/k2-chat/backend/internal/model/profile"
	"github.com/zhouzirui/k2-chat/backend/internal/service/chat"
	"github.com/zhouzirui/k2-chat/backend/internal/service/remote"
)

type rootOptions struct {
	configFile string
	logLevel   string
}

// app carries the dependencies shared by every subcommand.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	table    keyword.Table
	profiles *profile.MemoryStore
	opts     chat.Options
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "k2chat",
		Short:         "K2 policy assistant chat backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (environment variables take precedence)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL")

	cmd.AddCommand(newServeCmd(opts), newChatCmd(opts))
	return cmd
}

// bootstrap loads configuration and builds the shared services.
func bootstrap(opts *rootOptions) (*app, error) {
	envErr := godotenv.Load()

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	if envErr != nil {
		logger.Debug("no .env file loaded, using process environment", zap.Error(envErr))
	}

	table := keyword.DefaultTable()
	if cfg.Chat.ResponsesFile != "" {
		table, err = keyword.LoadTable(cfg.Chat.ResponsesFile)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded keyword table",
			zap.String("file", cfg.Chat.ResponsesFile),
			zap.Int("rules", len(table.Rules)))
	}

	var responder chat.Responder = table
	if cfg.Remote.Enabled() {
		responder = remote.NewClient(cfg.Remote.Endpoint, cfg.Remote.Timeout, logger.Named("remote"))
		logger.Info("replies delegated to remote endpoint", zap.String("endpoint", cfg.Remote.Endpoint))
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		table:    table,
		profiles: profile.NewMemoryStore(profile.Seed()),
		opts: chat.Options{
			MinDelay:  cfg.Chat.MinDelay,
			MaxDelay:  cfg.Chat.MaxDelay,
			IdleTTL:   cfg.Chat.IdleTTL,
			Responder: responder,
			Logger:    logger.Named("chat"),
		},
	}, nil
}
