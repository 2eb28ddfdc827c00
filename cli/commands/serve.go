package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/spf13/cobra"

	"github.com/tanpawarit/Chative-Commerce-Relay/agent/bridge"
	"github.com/tanpawarit/Chative-Commerce-Relay/server/handler"
	"github.com/tanpawarit/Chative-Commerce-Relay/server/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the HTTP API",
	Long: `Run the relay HTTP API: intent extraction, tool dispatch, the full chat
turn, customer login and the storefront cart bridge.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.SilenceUsage = true
}

func runServe(cmd *cobra.Command, _ []string) error {
	initLogger(false)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	s, err := buildStack(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	api, err := handler.New(handler.Deps{
		Agent:      s.agent,
		Relay:      s.relay,
		Dispatcher: s.dispatcher,
		Gateway:    s.gateway,
		Customers:  s.customers,
		Prefs:      s.prefs,
		Bridges:    bridge.NewHub(s.cfg.BridgeTimeout),
		ShopURL:    s.shopURL,
		ModelErr:   s.modelErr,
	})
	if err != nil {
		return fmt.Errorf("build handlers: %w", err)
	}

	h := server.New(server.WithHostPorts(s.cfg.HTTPAddr))
	router.Setup(h, api, handler.NewHealthHandler(s.checks...))

	cliLog().Info().Str("addr", s.cfg.HTTPAddr).Msg("relay server started")

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server run failed: %w", err)
		}
		return nil
	case <-quit:
	}

	cliLog().Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := h.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
