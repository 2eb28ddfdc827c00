package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tanpawarit/Chative-Commerce-Relay/cli/ui"
	configx "github.com/tanpawarit/Chative-Commerce-Relay/pkg/config"
)

const version = "0.1.0"

var envFile string

var rootCmd = &cobra.Command{
	Use:     "relay",
	Short:   "Conversational commerce relay",
	Version: version,
	Long: `Turns shopper messages into storefront cart and catalog actions.
Runs the HTTP API, an MCP tool server over stdio, or a terminal chat client.`,
	Example: `  # Start the HTTP API
  $ relay serve --env .env

  # Expose the commerce tools to an MCP host
  $ relay mcp

  # Chat against a running server
  $ relay chat -s http://localhost:8080`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configx.SetEnvFile(envFile)
	},
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SetVersionTemplate(fmt.Sprintf("relay version %s\n", version))
	return rootCmd.Execute()
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(chatCmd)

	rootCmd.SetUsageTemplate(usageTemplate())
	rootCmd.SetHelpTemplate(usageTemplate())
}

func usageTemplate() string {
	return `{{if .Long}}{{.Long}}

{{end}}` + ui.Styles.Bold.Render("USAGE") + `
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}

{{if .HasExample}}` + ui.Styles.Bold.Render("EXAMPLES") + `
{{.Example}}

{{end}}{{if .HasAvailableSubCommands}}` + ui.Styles.Bold.Render("COMMANDS") + `{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableLocalFlags}}` + ui.Styles.Bold.Render("OPTIONS") + `
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
}
