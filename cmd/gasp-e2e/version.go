package main

import (
	"fmt"

	goversion "github.com/caarlos0/go-version"
	"github.com/spf13/cobra"
)

// Set at build time via ldflags; empty values fall back to the module build info.
var (
	Version   = ""
	GitCommit = ""
	BuildDate = ""
)

const asciiName = `
  __ _  __ _ ___ _ __        ___ ___  ___
 / _' |/ _' / __| '_ \ _____/ _ \_  )/ _ \
| (_| | (_| \__ \ |_) |_____|  __// /|  __/
 \__, |\__,_|___/ .__/       \___/___|\___|
 |___/          |_|
`

func buildVersion() goversion.Info {
	return goversion.GetVersionInfo(
		goversion.WithAppDetails("gasp-e2e", "end-to-end test harness for the GASP rollup chain", "https://github.com/b-harvest/gasp-e2e"),
		goversion.WithASCIIName(asciiName),
		func(i *goversion.Info) {
			if Version != "" {
				i.GitVersion = Version
			}
			if GitCommit != "" {
				i.GitCommit = GitCommit
			}
			if BuildDate != "" {
				i.BuildDate = BuildDate
			}
		},
	)
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Show version information including build details.",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := buildVersion()

	if jsonOutput() {
		data, err := info.JSONString()
		if err != nil {
			return handleCommandError(cmd, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), data)
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), info.String())
	return nil
}
