package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"thoreinstein.com/relnote/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the relnote version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
