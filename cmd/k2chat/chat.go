package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/k2-chat/backend/internal/service/chat"
	"github.com/zhouzirui/k2-chat/backend/internal/terminal"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var profileID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.logLevel == "" && os.Getenv("LOG_LEVEL") == "" {
				// Keep info logs off the conversation.
				opts.logLevel = "warn"
			}
			a, err := bootstrap(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			p, ok := a.profiles.Resolve(profileID)
			if !ok {
				return fmt.Errorf("unknown profile %q", profileID)
			}

			chatSvc := chat.NewService(a.opts)
			defer chatSvc.Close()
			session, err := chatSvc.CreateSession(cmd.Context(), p.ID)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return terminal.New(session, p, cmd.InOrStdin(), cmd.OutOrStdout(), a.logger.Named("terminal")).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&profileID, "profile", "", "assistant profile to talk to (default profile when empty)")
	return cmd
}
