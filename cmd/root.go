package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teemow/inboxsorter/internal/config"
	"github.com/teemow/inboxsorter/internal/logging"
)

// rootCmd represents the base command for the inboxsorter application
var rootCmd = &cobra.Command{
	Use:   "inboxsorter",
	Short: "Sorts Gmail inbox messages into labels using a language model",
	Long: `inboxsorter classifies the most recent messages in your Gmail inbox with a
language model, applies the matching label and archives them. Messages the
model is unsure about are labeled for manual review instead.

It can run as:
  - A standalone CLI tool (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// version will be set by main
var version = "dev"

var (
	configFile string

	// cfg and logger are populated by loadConfig before any command runs.
	cfg    *config.Config
	logger *slog.Logger
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxsorter version %s\n" .Version}}`)

	// If no subcommand is provided, run the sort command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "sort")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/inboxsorter/config.yaml)")
	rootCmd.PersistentFlags().String("account", "default", "Google account name to use")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(newSortCmd())
	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newLabelsCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}

// loadConfig resolves flags, environment, config file and defaults into cfg
// and builds the logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return err
	}

	loaded, err := config.Load(v, configFile)
	if err != nil {
		return err
	}

	l, err := logging.NewLogger(loaded.Log.Level, loaded.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("invalid log settings: %w", err)
	}

	cfg = loaded
	logger = l
	slog.SetDefault(l)
	return nil
}
