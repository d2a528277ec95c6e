package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/b-harvest/gasp-e2e/internal/application/ports"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/keyring"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/persistence"
	"github.com/b-harvest/gasp-e2e/internal/output"
	"github.com/b-harvest/gasp-e2e/internal/paths"
)

var keysPassword string

// KeyInfo is one entry of 'keys list' and the output of the other key commands.
type KeyInfo struct {
	Address chain.Address `json:"address"`
	Name    string        `json:"name,omitempty"`
	Store   string        `json:"store"`
}

func NewKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Export and import signing keys",
		Long: `Manage encrypted signing keys so test users can be reused across sessions.

Keys are stored as Web3 Secret Storage JSON, one entry per address, in
<home>/keys or in redis when key_store = "redis". Without --password the
password is read from the terminal.`,
	}
	cmd.PersistentFlags().StringVar(&keysPassword, "password", "",
		"Key encryption password (prompted when empty)")

	cmd.AddCommand(
		newKeysNewCmd(),
		newKeysExportCmd(),
		newKeysImportCmd(),
		newKeysListCmd(),
		newKeysDeleteCmd(),
	)
	return cmd
}

func newKeysNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Generate a random key and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := keyring.Generate("")
			if err != nil {
				return handleCommandError(cmd, err)
			}
			return handleCommandError(cmd, saveKey(cmd, kp))
		},
	}
}

func newKeysExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <uri>",
		Short: "Encrypt the key derived from a secret URI and store it",
		Long: `Derive the key for a secret URI (e.g. //Alice or a generated //testUser_ name)
and store it encrypted under its address.

Examples:
  gasp-e2e keys export //testUser_ci --password secret`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := keyring.FromURI(args[0])
			if err != nil {
				return handleCommandError(cmd, err)
			}
			return handleCommandError(cmd, saveKey(cmd, kp))
		},
	}
}

func newKeysImportCmd() *cobra.Command {
	var showSecret bool
	cmd := &cobra.Command{
		Use:   "import <address>",
		Short: "Decrypt a stored key and check the password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withKeyStore(cmd.Context(), func(store ports.KeyStore) error {
				addr, err := chain.ParseAddress(args[0])
				if err != nil {
					return err
				}
				data, err := store.Load(cmd.Context(), addr)
				if err != nil {
					return err
				}
				password, err := readPassword(false)
				if err != nil {
					return err
				}
				kp, err := keyring.FromKeyJSON(data, password)
				if err != nil {
					return err
				}
				if kp.Address() != addr {
					return fmt.Errorf("stored key decrypts to %s, not %s", kp.Address(), addr)
				}

				if jsonOutput() {
					return printJSON(cmd.OutOrStdout(), KeyInfo{Address: addr, Store: cfg.KeyStore.Value})
				}
				logger.Success("Decrypted key %s", addr)
				if showSecret {
					logger.Info("  private key: %s", kp.PrivateKeyHex())
				}
				return nil
			})
			return handleCommandError(cmd, err)
		},
	}
	cmd.Flags().BoolVar(&showSecret, "show-secret", false,
		"Print the private key, usable as --sudo or a secret URI")
	return cmd
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withKeyStore(cmd.Context(), func(store ports.KeyStore) error {
				addrs, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				infos := make([]KeyInfo, 0, len(addrs))
				for _, a := range addrs {
					infos = append(infos, KeyInfo{Address: a, Store: cfg.KeyStore.Value})
				}

				if jsonOutput() {
					return printJSON(cmd.OutOrStdout(), infos)
				}
				if len(infos) == 0 {
					logger.Info("No keys stored.")
					return nil
				}
				tw := tabwriter.NewWriter(logger.Writer(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ADDRESS\tSTORE")
				for _, k := range infos {
					fmt.Fprintf(tw, "%s\t%s\n", k.Address, k.Store)
				}
				return tw.Flush()
			})
			return handleCommandError(cmd, err)
		},
	}
}

func newKeysDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <address>",
		Short: "Delete a stored key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := chain.ParseAddress(args[0])
			if err != nil {
				return handleCommandError(cmd, err)
			}
			if !yes {
				ok, err := output.ConfirmPrompt(fmt.Sprintf("Delete key %s?", addr))
				if err != nil {
					return wrapInteractiveError(cmd, err, "confirm")
				}
				if !ok {
					logger.Info("Operation cancelled.")
					return nil
				}
			}
			err = withKeyStore(cmd.Context(), func(store ports.KeyStore) error {
				if err := store.Delete(cmd.Context(), addr); err != nil {
					return err
				}
				logger.Success("Deleted key %s", addr)
				return nil
			})
			return handleCommandError(cmd, err)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func saveKey(cmd *cobra.Command, kp *keyring.KeyPair) error {
	password, err := readPassword(true)
	if err != nil {
		return err
	}
	data, err := kp.ToJSON(password)
	if err != nil {
		return err
	}
	return withKeyStore(cmd.Context(), func(store ports.KeyStore) error {
		if err := store.Save(cmd.Context(), kp.Address(), data); err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(cmd.OutOrStdout(), KeyInfo{Address: kp.Address(), Store: cfg.KeyStore.Value})
		}
		logger.Success("Stored key %s in %s key store", kp.Address(), cfg.KeyStore.Value)
		return nil
	})
}

func readPassword(confirm bool) (string, error) {
	if keysPassword != "" {
		return keysPassword, nil
	}
	return output.PasswordPrompt("Key password", confirm)
}

// withKeyStore opens the configured key store for the duration of fn.
func withKeyStore(ctx context.Context, fn func(store ports.KeyStore) error) error {
	if cfg.KeyStore.Value == "redis" {
		store, err := persistence.DialRedisKeyStore(ctx, cfg.RedisURL.Value)
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(store)
	}
	return fn(persistence.NewFileKeyStore(paths.KeysPath(cfg.Home.Value)))
}
