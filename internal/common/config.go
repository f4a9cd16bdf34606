package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const DefaultBaseURL = "https://helpdesk.grupoiris.net"

type Config struct {
	Collector CollectorConfig `toml:"collector"`
	Helpdesk  HelpdeskConfig  `toml:"helpdesk"`
	Scan      ScanConfig      `toml:"scan"`
	Issues    IssuesConfig    `toml:"issues"`
	Sheets    SheetsConfig    `toml:"sheets"`
	Storage   StorageConfig   `toml:"storage"`
	Logging   LoggingConfig   `toml:"logging"`
}

type CollectorConfig struct {
	Name        string `toml:"name"`
	Environment string `toml:"environment"`
	OutputDir   string `toml:"output_dir"`
}

type HelpdeskConfig struct {
	BaseURL             string `toml:"base_url"`
	Timezone            string `toml:"timezone"`
	Engine              string `toml:"engine"`
	Headful             bool   `toml:"headful"`
	RemoteDebugURL      string `toml:"remote_debug_url"`
	ClickTimeoutMs      int    `toml:"click_timeout_ms"`
	SettleTimeoutMs     int    `toml:"settle_timeout_ms"`
	NavigationTimeoutMs int    `toml:"navigation_timeout_ms"`
}

type ScanConfig struct {
	MaxPagesClosed      int `toml:"max_pages_closed"`
	MaxPagesOpen        int `toml:"max_pages_open"`
	WindowDays          int `toml:"window_days"`
	HeaderScanRows      int `toml:"header_scan_rows"`
	MinValidRows        int `toml:"min_valid_rows"`
	ClosedRetryAttempts int `toml:"closed_retry_attempts"`
	ClosedRetryDelayMs  int `toml:"closed_retry_delay_ms"`
}

type IssuesConfig struct {
	Prefixes         []string `toml:"prefixes"`
	MinDigits        int      `toml:"min_digits"`
	Source           string   `toml:"source"`
	CountOccurrences bool     `toml:"count_occurrences"`
	RollupOrder      string   `toml:"rollup_order"`
	RollupScope      string   `toml:"rollup_scope"`
}

type SheetsConfig struct {
	Enabled         bool   `toml:"enabled"`
	SpreadsheetID   string `toml:"spreadsheet_id"`
	CredentialsFile string `toml:"credentials_file"`
	DailyTab        string `toml:"daily_tab"`
	RowStride       int    `toml:"row_stride"`
	APIBaseURL      string `toml:"api_base_url"`
}

type StorageConfig struct {
	Enabled      bool   `toml:"enabled"`
	DatabasePath string `toml:"database_path"`
}

type LoggingConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	Output     string `toml:"output"`
	MaxSize    int    `toml:"max_size"`
	MaxBackups int    `toml:"max_backups"`
}

func executableName() (string, string) {
	execPath, _ := os.Executable()
	execDir := filepath.Dir(execPath)
	execName := filepath.Base(execPath)
	execName = execName[:len(execName)-len(filepath.Ext(execName))]
	return execDir, execName
}

func DefaultConfig() *Config {
	execDir, execName := executableName()

	return &Config{
		Collector: CollectorConfig{
			Name:        execName,
			Environment: "development",
			OutputDir:   ".",
		},
		Helpdesk: HelpdeskConfig{
			BaseURL:             DefaultBaseURL,
			Timezone:            "Europe/Madrid",
			Engine:              "chromedp",
			ClickTimeoutMs:      1200,
			SettleTimeoutMs:     8000,
			NavigationTimeoutMs: 30000,
		},
		Scan: ScanConfig{
			MaxPagesClosed:      200,
			MaxPagesOpen:        500,
			WindowDays:          7,
			HeaderScanRows:      3,
			MinValidRows:        3,
			ClosedRetryAttempts: 2,
			ClosedRetryDelayMs:  1500,
		},
		Issues: IssuesConfig{
			Prefixes:    []string{"DS", "IS"},
			MinDigits:   3,
			Source:      "subject",
			RollupOrder: "agencies",
			RollupScope: "open",
		},
		Sheets: SheetsConfig{
			DailyTab:   "DATOS-Daily",
			RowStride:  22,
			APIBaseURL: "https://sheets.googleapis.com",
		},
		Storage: StorageConfig{
			Enabled:      true,
			DatabasePath: filepath.Join(execDir, "data", execName+".db"),
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "both",
			MaxSize:    100,
			MaxBackups: 3,
		},
	}
}

func LoadConfig(configFile string) (*Config, error) {
	config := DefaultConfig()

	// .env is optional; values already in the environment win
	_ = godotenv.Load()

	if configFile == "" {
		execDir, execName := executableName()

		possiblePaths := []string{
			filepath.Join(execDir, execName+".toml"),
			filepath.Join(execDir, "config.toml"),
			"config.toml",
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}
	}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, NewConfigurationError("CONFIG_READ", fmt.Sprintf("failed to read config file %s", configFile)).WithCause(err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, NewConfigurationError("CONFIG_PARSE", "failed to parse config file").WithCause(err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func applyEnvOverrides(config *Config) {
	if baseURL := os.Getenv("HELPDESK_BASE_URL"); baseURL != "" {
		config.Helpdesk.BaseURL = baseURL
	}
	if tz := os.Getenv("HELPDESK_TIMEZONE"); tz != "" {
		config.Helpdesk.Timezone = tz
	}
	if engine := os.Getenv("HELPDESK_ENGINE"); engine != "" {
		config.Helpdesk.Engine = engine
	}
	if v, ok := envBool("HEADFUL"); ok {
		config.Helpdesk.Headful = v
	}
	if debugURL := os.Getenv("CHROME_REMOTE_DEBUG_URL"); debugURL != "" {
		config.Helpdesk.RemoteDebugURL = debugURL
	}

	if outDir := os.Getenv("OUTPUT_DIR"); outDir != "" {
		config.Collector.OutputDir = outDir
	}

	if v, ok := envBool("GOOGLE_SHEETS_PUSH"); ok {
		config.Sheets.Enabled = v
	}
	if id := os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"); id != "" {
		config.Sheets.SpreadsheetID = id
	}
	if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" {
		config.Sheets.CredentialsFile = creds
	}
	if tab := os.Getenv("SHEET_DAILY_TAB"); tab != "" {
		config.Sheets.DailyTab = tab
	}
	if stride := os.Getenv("SHEET_ROW_STRIDE"); stride != "" {
		if n, err := strconv.Atoi(stride); err == nil {
			config.Sheets.RowStride = n
		}
	}

	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		config.Storage.DatabasePath = dbPath
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.Logging.Level = logLevel
	}
	if v, ok := envBool("DEBUG"); ok && v {
		config.Logging.Level = "debug"
	}
	if logOutput := os.Getenv("LOG_OUTPUT"); logOutput != "" {
		config.Logging.Output = logOutput
	}
}

func envBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	default:
		return false, true
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Helpdesk.BaseURL) == "" {
		return NewConfigurationError("BASE_URL_MISSING", "helpdesk base_url is required")
	}
	c.Helpdesk.BaseURL = strings.TrimRight(c.Helpdesk.BaseURL, "/")

	if _, err := c.Location(); err != nil {
		return NewConfigurationError("TIMEZONE_INVALID", fmt.Sprintf("invalid timezone: %s", c.Helpdesk.Timezone)).WithCause(err)
	}

	if c.Helpdesk.Engine != "chromedp" && c.Helpdesk.Engine != "playwright" {
		return NewConfigurationError("ENGINE_INVALID", fmt.Sprintf("invalid engine: %s", c.Helpdesk.Engine))
	}

	if c.Helpdesk.ClickTimeoutMs <= 0 {
		c.Helpdesk.ClickTimeoutMs = 1200
	}
	if c.Helpdesk.SettleTimeoutMs <= 0 {
		c.Helpdesk.SettleTimeoutMs = 8000
	}
	if c.Helpdesk.NavigationTimeoutMs <= 0 {
		c.Helpdesk.NavigationTimeoutMs = 30000
	}

	if c.Scan.MaxPagesClosed <= 0 {
		c.Scan.MaxPagesClosed = 200
	}
	if c.Scan.MaxPagesOpen <= 0 {
		c.Scan.MaxPagesOpen = 500
	}
	if c.Scan.WindowDays <= 0 {
		c.Scan.WindowDays = 7
	}
	if c.Scan.HeaderScanRows <= 0 {
		c.Scan.HeaderScanRows = 3
	}
	if c.Scan.MinValidRows <= 0 {
		c.Scan.MinValidRows = 3
	}
	if c.Sheets.RowStride <= 0 {
		c.Sheets.RowStride = 22
	}

	if len(c.Issues.Prefixes) == 0 {
		return NewConfigurationError("ISSUE_PREFIXES_MISSING", "issues prefixes must not be empty")
	}
	if c.Issues.MinDigits <= 0 {
		c.Issues.MinDigits = 3
	}
	switch c.Issues.Source {
	case "subject", "category", "row":
	default:
		return NewConfigurationError("ISSUE_SOURCE_INVALID", fmt.Sprintf("invalid issues source: %s", c.Issues.Source))
	}
	if c.Issues.RollupOrder != "agencies" && c.Issues.RollupOrder != "numeric" {
		return NewConfigurationError("ROLLUP_ORDER_INVALID", fmt.Sprintf("invalid rollup order: %s", c.Issues.RollupOrder))
	}
	if c.Issues.RollupScope != "open" && c.Issues.RollupScope != "all" {
		return NewConfigurationError("ROLLUP_SCOPE_INVALID", fmt.Sprintf("invalid rollup scope: %s", c.Issues.RollupScope))
	}

	if c.Sheets.Enabled {
		if c.Sheets.SpreadsheetID == "" {
			return NewConfigurationError("SHEETS_ID_MISSING", "GOOGLE_SHEETS_SPREADSHEET_ID is required when sheets push is enabled")
		}
		if c.Sheets.CredentialsFile == "" {
			return NewConfigurationError("SHEETS_CREDENTIALS_MISSING", "GOOGLE_APPLICATION_CREDENTIALS is required when sheets push is enabled")
		}
	}

	if c.Storage.Enabled && c.Storage.DatabasePath == "" {
		return NewConfigurationError("DATABASE_PATH_MISSING", "storage database_path is required")
	}

	validLogLevels := []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}
	validLevel := false
	for _, level := range validLogLevels {
		if c.Logging.Level == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return NewConfigurationError("LOG_LEVEL_INVALID", fmt.Sprintf("invalid log level: %s", c.Logging.Level))
	}

	validOutputs := []string{"console", "file", "both"}
	validOutput := false
	for _, output := range validOutputs {
		if c.Logging.Output == output {
			validOutput = true
			break
		}
	}
	if !validOutput {
		return NewConfigurationError("LOG_OUTPUT_INVALID", fmt.Sprintf("invalid log output: %s", c.Logging.Output))
	}

	return nil
}

// Location resolves the configured helpdesk time zone
func (c *Config) Location() (*time.Location, error) {
	if c.Helpdesk.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Helpdesk.Timezone)
}

func (c *HelpdeskConfig) ClickTimeout() time.Duration {
	return time.Duration(c.ClickTimeoutMs) * time.Millisecond
}

func (c *HelpdeskConfig) SettleTimeout() time.Duration {
	return time.Duration(c.SettleTimeoutMs) * time.Millisecond
}

func (c *HelpdeskConfig) NavigationTimeout() time.Duration {
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}
