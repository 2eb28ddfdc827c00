package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tanpawarit/Chative-Commerce-Relay/mcpserver"
)

var mcpToken string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "serve the commerce tools over MCP stdio",
	Long: `Serve every commerce tool as an MCP tool on stdin/stdout. Calls share one
session for the life of the process, so a cart created by one call is used
by the next.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.SilenceUsage = true
	mcpCmd.Flags().StringVar(&mcpToken, "customer-token", "", "storefront customer access token")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	initLogger(true)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := buildStack(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	srv, err := mcpserver.New(s.dispatcher, version, mcpserver.WithBuyerToken(mcpToken))
	if err != nil {
		return err
	}

	cliLog().Info().Int("tools", len(srv.Tools())).Msg("mcp server listening on stdio")
	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(ctx.Err(), context.Canceled) {
		return err
	}
	return nil
}
