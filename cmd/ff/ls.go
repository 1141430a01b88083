package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kstaniek/go-fftp/internal/client"
	"github.com/spf13/cobra"
)

func newLsCmd() *cobra.Command {
	var csvOut bool
	cmd := &cobra.Command{
		Use:   "ls ADDR [PATH]",
		Short: "List contents held remotely",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 2 {
				path = args[1]
			}
			return runLs(args[0], path, csvOut)
		},
	}
	cmd.Flags().BoolVar(&csvOut, "csv", false, "Print the listing as CSV instead of columns")
	return cmd
}

func runLs(addr, path string, csvOut bool) error {
	c, err := dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	entries, err := c.List(path)
	if err != nil {
		if err == client.ErrNotAllowed {
			return fmt.Errorf("not allowed")
		}
		return err
	}

	if csvOut {
		w := csv.NewWriter(os.Stdout)
		defer w.Flush()
		_ = w.Write([]string{"path", "created", "size"})
		for _, f := range entries {
			_ = w.Write([]string{
				f.Path,
				strconv.FormatInt(f.Created.Milliseconds(), 10),
				strconv.FormatUint(f.Size, 10),
			})
		}
		return nil
	}

	fmt.Printf("%-20s | %-20s | %-20s\n", "Path", "Created", "Size")
	fmt.Println(strings.Repeat("-", 66))
	for _, f := range entries {
		fmt.Printf("%-20s | %-20d | %-20d\n", f.Path, f.Created.Milliseconds(), f.Size)
	}
	return nil
}
