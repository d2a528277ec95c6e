package config

import (
	"time"

	"github.com/spf13/cobra"
)

// ApplyFlag sets v from the flag value when the flag was explicitly set on
// the command line. Flags win over every other source.
func ApplyFlag[T any](cmd *cobra.Command, flagName string, flagValue T, v *Value[T]) {
	f := cmd.Flags().Lookup(flagName)
	if f == nil || !f.Changed {
		return
	}
	v.Value = flagValue
	v.Source = SourceFlag
}

// Flags are the values bound to the root command's persistent flags.
type Flags struct {
	Home         string
	NoColor      bool
	Verbose      bool
	JSON         bool
	LogFile      bool
	SidecarURL   string
	NodeWS       string
	L1RPC        string
	Sudo         string
	Sim          bool
	SealInterval time.Duration
}

// ApplyFlags overlays every explicitly set flag onto c.
func (c *EffectiveConfig) ApplyFlags(cmd *cobra.Command, f *Flags) {
	ApplyFlag(cmd, "home", f.Home, &c.Home)
	ApplyFlag(cmd, "no-color", f.NoColor, &c.NoColor)
	ApplyFlag(cmd, "verbose", f.Verbose, &c.Verbose)
	ApplyFlag(cmd, "json", f.JSON, &c.JSON)
	ApplyFlag(cmd, "log-file", f.LogFile, &c.LogFile)
	ApplyFlag(cmd, "sidecar", f.SidecarURL, &c.SidecarURL)
	ApplyFlag(cmd, "node-ws", f.NodeWS, &c.NodeWS)
	ApplyFlag(cmd, "l1-rpc", f.L1RPC, &c.L1RPC)
	ApplyFlag(cmd, "sudo", f.Sudo, &c.Sudo)
	ApplyFlag(cmd, "sim", f.Sim, &c.Sim)
	ApplyFlag(cmd, "seal-interval", f.SealInterval, &c.SealInterval)
}
