package common

import "fmt"

const AppName = "aktis-collector-wonderdesk"

// Set via ldflags during build
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

func GetVersion() string {
	return Version
}

func GetBuild() string {
	return Build
}

// GetFullVersion returns "<name> v<version> (build: <build>, commit: <commit>)"
func GetFullVersion() string {
	return fmt.Sprintf("%s v%s (build: %s, commit: %s)", AppName, Version, Build, GitCommit)
}
