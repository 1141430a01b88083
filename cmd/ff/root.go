package main

import (
	"fmt"

	"github.com/kstaniek/go-fftp/internal/client"
	"github.com/spf13/cobra"
)

// newRootCmd builds the ff client tree. ADDR is taken by each
// subcommand as its first positional argument (ff ls ADDR [PATH], ff
// get ADDR PATH...) rather than as a root-level flag, since Cobra
// resolves subcommands before positional arguments.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ff",
		Short:         "Fast File Transfer client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newLsCmd(), newGetCmd())
	return cmd
}

func dial(addr string) (*client.Client, error) {
	c, err := client.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return c, nil
}
