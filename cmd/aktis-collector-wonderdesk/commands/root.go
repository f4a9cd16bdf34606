package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"aktis-collector-wonderdesk/internal/common"
)

var (
	configPath string
	mode       string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:           common.AppName,
	Short:         "Collects WonderDesk helpdesk ticket metrics for every configured agency.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "", "Environment mode: 'dev', 'development', 'prod', or 'production'")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress banner output")
}

// ExecuteContext runs the selected command and returns the process exit code
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		common.PrintError(err.Error())
		return 1
	}
	return 0
}

func parseMode(mode string) string {
	switch strings.ToLower(mode) {
	case "prod", "production":
		return "production"
	default:
		return "development"
	}
}
