package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"aktis-collector-wonderdesk/internal/common"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints version information.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), common.GetFullVersion())
	},
}
