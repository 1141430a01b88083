package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kstaniek/go-fftp/internal/client"
	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	var outDir string
	var force bool
	cmd := &cobra.Command{
		Use:   "get ADDR PATH...",
		Short: "Download one or more files",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(args[0], args[1:], outDir, force)
		},
	}
	cmd.Flags().StringVar(&outDir, "output", "", "Write each file under this directory instead of concatenating to stdout")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file instead of failing (only with --output)")
	return cmd
}

func runGet(addr string, paths []string, outDir string, force bool) error {
	c, err := dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	for _, p := range paths {
		data, err := c.Download(p)
		if err != nil {
			if err == client.ErrNotAllowed {
				return fmt.Errorf("%s: not allowed", p)
			}
			return fmt.Errorf("%s: %w", p, err)
		}

		if outDir == "" {
			if _, err := os.Stdout.Write(data); err != nil {
				return fmt.Errorf("%s: write stdout: %w", p, err)
			}
			continue
		}

		dest := filepath.Join(outDir, filepath.Base(p))
		flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
		if force {
			flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		}
		f, err := os.OpenFile(dest, flags, 0o644)
		if err != nil {
			return fmt.Errorf("%s: open %s: %w", p, dest, err)
		}
		_, werr := f.Write(data)
		cerr := f.Close()
		if werr != nil {
			return fmt.Errorf("%s: write %s: %w", p, dest, werr)
		}
		if cerr != nil {
			return fmt.Errorf("%s: close %s: %w", p, dest, cerr)
		}
	}
	return nil
}
