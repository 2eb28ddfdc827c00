package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	statex "github.com/tanpawarit/Chative-Commerce-Relay/agent/state"
	"github.com/tanpawarit/Chative-Commerce-Relay/cli/client"
	"github.com/tanpawarit/Chative-Commerce-Relay/cli/config"
	"github.com/tanpawarit/Chative-Commerce-Relay/cli/ui"
)

var (
	chatServer  string
	chatState   string
	chatTimeout time.Duration
	chatEmail   string
	chatReset   bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "chat with the relay from the terminal",
	Long: `Start an interactive shopping chat against a running relay server.

The cart id and customer token are kept in a TOML file under the user config
directory, so the cart survives restarts. Type /reset to forget the cart,
/quit to leave.`,
	Example: `  # Chat against a local server
  $ relay chat

  # Log in first so order lookups and carts belong to the customer
  $ relay chat --login shopper@example.com`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.SilenceUsage = true
	chatCmd.Flags().StringVarP(&chatServer, "server", "s", "", "relay server address (saved for later runs)")
	chatCmd.Flags().StringVar(&chatState, "state", "", "path to the chat state file")
	chatCmd.Flags().DurationVar(&chatTimeout, "timeout", 60*time.Second, "per-message timeout")
	chatCmd.Flags().StringVar(&chatEmail, "login", "", "customer email to log in with (password read from stdin)")
	chatCmd.Flags().BoolVar(&chatReset, "reset", false, "forget the saved cart before starting")
}

func runChat(cmd *cobra.Command, _ []string) error {
	path := chatState
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		ui.PrintError("failed to load config: %v", err)
		return fmt.Errorf("config load failed")
	}
	if chatServer != "" {
		cfg.Server = chatServer
	}
	if chatReset {
		cfg.Forget()
	}

	api, err := client.NewAPIClient(cfg.Server, cfg.AccessToken, chatTimeout)
	if err != nil {
		ui.PrintError("failed to create client: %v", err)
		return fmt.Errorf("client creation failed")
	}

	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	if chatEmail != "" {
		if err := login(cmd.Context(), api, cfg, in, out); err != nil {
			ui.PrintError("login failed: %v", err)
			return fmt.Errorf("login failed")
		}
	}

	s := &chatSession{api: api, cfg: cfg, path: path, timeout: chatTimeout}
	s.restore(cmd.Context())
	if err := cfg.Save(path); err != nil {
		ui.PrintError("failed to save state: %v", err)
	}
	return s.loop(cmd.Context(), in, out)
}

func login(ctx context.Context, api *client.APIClient, cfg *config.Config, in *bufio.Scanner, out io.Writer) error {
	fmt.Fprint(out, "password: ")
	if !in.Scan() {
		return fmt.Errorf("no password given")
	}
	token, err := api.Login(ctx, chatEmail, in.Text())
	if err != nil {
		return err
	}
	cfg.AccessToken = token
	api.SetToken(token)
	fmt.Fprintln(out, ui.Styles.Muted.Render("logged in as "+chatEmail))
	return nil
}

type chatSession struct {
	api     *client.APIClient
	cfg     *config.Config
	path    string
	timeout time.Duration
	session *statex.Session
}

// restore seeds a fresh session from the saved preferences. A logged-in
// customer without a saved cart gets their last open cart from the server.
func (s *chatSession) restore(ctx context.Context) {
	s.session = statex.NewSession(s.cfg.SessionID, time.Now())
	s.cfg.SessionID = s.session.ID

	if s.cfg.CartID == "" && s.cfg.IsAuthenticated() {
		if id, err := s.api.ActiveCart(ctx); err == nil && id != "" {
			s.cfg.CartID = id
		}
	}
	s.session.ApplyPreferences(statex.Preferences{CartID: s.cfg.CartID, AuthToken: s.cfg.AccessToken})
}

func (s *chatSession) loop(ctx context.Context, in *bufio.Scanner, out io.Writer) error {
	fmt.Fprintln(out, ui.Styles.Muted.Render("connected to "+s.cfg.Server+", /quit to leave"))
	for {
		fmt.Fprint(out, ui.Styles.Bold.Render("you")+"  ")
		if !in.Scan() {
			return in.Err()
		}
		text := strings.TrimSpace(in.Text())
		switch text {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			s.cfg.Forget()
			s.restore(ctx)
			s.save()
			fmt.Fprintln(out, ui.Styles.Muted.Render("cart forgotten"))
			continue
		}

		if err := s.send(ctx, text, out); err != nil {
			ui.PrintError("%v", err)
		}
	}
}

func (s *chatSession) send(ctx context.Context, text string, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.api.Chat(ctx, client.ChatRequest{Session: s.session, Message: text})
	if err != nil {
		return err
	}
	if resp.Session != nil {
		s.session = resp.Session
		prefs := s.session.Preferences()
		s.cfg.CartID = prefs.CartID
		if prefs.AuthToken != "" {
			s.cfg.AccessToken = prefs.AuthToken
		}
		s.save()
	}
	fmt.Fprintln(out, ui.RenderReply(resp.Reply))
	return nil
}

func (s *chatSession) save() {
	if err := s.cfg.Save(s.path); err != nil {
		fmt.Fprintln(os.Stderr, ui.Styles.Muted.Render("could not save chat state: "+err.Error()))
	}
}
