package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/b-harvest/gasp-e2e/internal/config"
	"github.com/b-harvest/gasp-e2e/internal/output"
	"github.com/b-harvest/gasp-e2e/internal/paths"
)

// Global configuration variables
var (
	flags      config.Flags
	configPath string // Path to config.toml file (--config flag)

	// cfg is the merged configuration, set by the root pre-run.
	cfg *config.EffectiveConfig

	// logger writes to the command's output streams.
	logger = output.DefaultLogger
)

// Command group IDs for organized help output.
const (
	GroupMain   = "main"
	GroupPallet = "pallet"
	GroupSetup  = "setup"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gasp-e2e",
		Short: "End-to-end test harness for the GASP rollup chain",
		Long: `gasp-e2e drives a GASP node through the Substrate API Sidecar: it creates
test users, mints and moves tokens, operates pools, bootstrap and rolldown, and
waits on block-level conditions.

With --sim every command runs against an in-process dev chain instead of a
node. The dev chain lives for one invocation; use 'gasp-e2e menu' to keep one
around across operations.

Examples:
  # Check a dev account's native balance
  gasp-e2e balance //Alice

  # Mint 1000 of currency 4 to a test user, as sudo
  gasp-e2e mint 4 //testUser_1 1000

  # Wait for five finalized blocks
  gasp-e2e wait blocks 5

  # Interactive menu against the dev chain
  gasp-e2e menu --sim`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return handleCommandError(cmd, loadConfig(cmd))
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Close()
		},
	}

	// Global flags available on all commands
	cmd.PersistentFlags().StringVarP(&flags.Home, "home", "H", paths.DefaultHomeDir(),
		"Base directory for keys, logs and config.toml")
	cmd.PersistentFlags().BoolVar(&flags.JSON, "json", false,
		"Output in JSON format")
	cmd.PersistentFlags().BoolVar(&flags.NoColor, "no-color", false,
		"Disable colored output")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false,
		"Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.LogFile, "log-file", false,
		"Also write output to <home>/"+paths.LogsDir+"/"+paths.LogFile)
	cmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config.toml file")
	cmd.PersistentFlags().StringVar(&flags.SidecarURL, "sidecar", config.DefaultSidecarURL,
		"Substrate API Sidecar URL")
	cmd.PersistentFlags().StringVar(&flags.NodeWS, "node-ws", config.DefaultNodeWS,
		"Node websocket URL for new-head subscriptions")
	cmd.PersistentFlags().StringVar(&flags.L1RPC, "l1-rpc", config.DefaultL1RPC,
		"L1 JSON-RPC URL")
	cmd.PersistentFlags().StringVar(&flags.Sudo, "sudo", config.DefaultSudo,
		"Secret URI or 0x seed of the sudo key")
	cmd.PersistentFlags().BoolVar(&flags.Sim, "sim", false,
		"Run against an in-process dev chain")
	cmd.PersistentFlags().DurationVar(&flags.SealInterval, "seal-interval", 0,
		"Dev chain block time (0 seals one block per extrinsic)")

	cmd.AddGroup(
		&cobra.Group{ID: GroupMain, Title: "Main Commands:"},
		&cobra.Group{ID: GroupPallet, Title: "Pallet Commands:"},
		&cobra.Group{ID: GroupSetup, Title: "Setup Commands:"},
	)

	for _, c := range []*cobra.Command{NewMenuCmd(), NewBalanceCmd(), NewMintCmd(), NewWaitCmd()} {
		c.GroupID = GroupMain
		cmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{NewPoolCmd(), NewBootstrapCmd(), NewRolldownCmd()} {
		c.GroupID = GroupPallet
		cmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{NewKeysCmd(), NewConfigCmd(), NewLogsCmd(), NewVersionCmd()} {
		c.GroupID = GroupSetup
		cmd.AddCommand(c)
	}

	return cmd
}

// loadConfig resolves the configuration and sets up the logger.
// Priority: default < config.toml < env < flag
func loadConfig(cmd *cobra.Command) error {
	home := flags.Home
	if !cmd.Flags().Changed("home") {
		if env := os.Getenv(config.EnvHome); env != "" {
			home = env
		}
	}

	if _, err := config.LoadDotEnv(".env", filepath.Join(home, ".env")); err != nil {
		return err
	}

	logger = output.NewLoggerWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr())

	loader := config.NewConfigLoader(home, configPath, logger)
	c, err := loader.Load(os.LookupEnv)
	if err != nil {
		return err
	}
	c.ApplyFlags(cmd, &flags)
	if err := c.Validate(); err != nil {
		return err
	}

	logger.SetNoColor(c.NoColor.Value)
	logger.SetVerbose(c.Verbose.Value)
	logger.SetJSONMode(c.JSON.Value)

	if c.LogFile.Value {
		path, err := logger.TeeToFile(c.Home.Value)
		if err != nil {
			return err
		}
		logger.Debug("Writing log file: %s", path)
	}
	if c.ConfigFilePath != "" {
		logger.Debug("Using config file: %s", c.ConfigFilePath)
	}

	cfg = c
	return nil
}
