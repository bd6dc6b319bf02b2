// Package misc holds build time information.
package misc

// Set with -ldflags "-X stylekit/misc.version=... -X stylekit/misc.gitHash=..."
var (
	version = "dev"
	gitHash = "unknown"
)

const appName = "stylecheck"

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
