package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/ritual"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ritual",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ritual version %s\n", strings.TrimSpace(ritual.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
