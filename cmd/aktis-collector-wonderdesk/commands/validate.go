package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"aktis-collector-wonderdesk/internal/common"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Checks configuration and agency credentials without opening a browser.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		for _, t := range rt.tenants {
			common.PrintInfo(fmt.Sprintf("%s (%s)", t.Name(), t.Code))
		}
		common.PrintSuccess("Configuration is valid")
		return nil
	},
}
