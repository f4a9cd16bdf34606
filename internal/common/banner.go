package common

import (
	"fmt"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner
func PrintBanner(cfg *Config, command string, tenants int, logFile string) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorPurple).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(80)

	fmt.Printf("\n")

	b.PrintTopLine()
	b.PrintCenteredText("AKTIS COLLECTOR - WONDERDESK")
	b.PrintCenteredText("Helpdesk Ticket Metrics")
	b.PrintSeparatorLine()

	b.PrintKeyValue("Version", GetVersion(), 15)
	b.PrintKeyValue("Build", GetBuild(), 15)
	b.PrintKeyValue("Environment", cfg.Collector.Environment, 15)
	b.PrintKeyValue("Command", command, 15)
	b.PrintKeyValue("Engine", cfg.Helpdesk.Engine, 15)
	b.PrintBottomLine()

	fmt.Printf("\n")

	fmt.Printf("📋 Configuration:\n")
	fmt.Printf("   • Helpdesk: %s\n", cfg.Helpdesk.BaseURL)
	fmt.Printf("   • Agencies: %d\n", tenants)
	fmt.Printf("   • Output Dir: %s\n", cfg.Collector.OutputDir)
	if cfg.Sheets.Enabled {
		fmt.Printf("   • Spreadsheet: %s\n", cfg.Sheets.SpreadsheetID)
	}
	if logFile != "" {
		pattern := strings.Replace(logFile, ".log", ".{YYYY-MM-DDTHH-MM-SS}.log", 1)
		fmt.Printf("   • Log File: %s\n", pattern)
	}
	fmt.Printf("\n")
}

// PrintColorizedMessage prints a message with specified color
func PrintColorizedMessage(color, message string) {
	fmt.Printf("%s%s%s\n", color, message, banner.ColorReset)
}

// PrintSuccess prints a success message in green
func PrintSuccess(message string) {
	PrintColorizedMessage(banner.ColorGreen, fmt.Sprintf("✓ %s", message))
}

// PrintError prints an error message in red
func PrintError(message string) {
	PrintColorizedMessage(banner.ColorRed, fmt.Sprintf("✗ %s", message))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(message string) {
	PrintColorizedMessage(banner.ColorYellow, fmt.Sprintf("⚠ %s", message))
}

// PrintInfo prints an info message in cyan
func PrintInfo(message string) {
	PrintColorizedMessage(banner.ColorCyan, fmt.Sprintf("ℹ %s", message))
}
