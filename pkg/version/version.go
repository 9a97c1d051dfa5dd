// Package version exposes the build metadata stamped into the stelae
// binary.
package version

import (
	"fmt"
	"runtime"
)

// Values injected at build time via -ldflags. A plain `go build`
// leaves the development defaults in place.
var (
	// Version is the release version, or "dev".
	Version = "dev"

	// Commit is the git commit hash.
	Commit = "unknown"

	// Date is the build date in RFC3339 format.
	Date = "unknown"
)

// GoVersion is the Go toolchain the binary was built with.
var GoVersion = runtime.Version()

// BuildInfo is the structured form of the build metadata, for the
// CLI's JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// String renders the one-line human-readable version banner.
func String() string {
	return fmt.Sprintf("stelae %s (commit: %s, built: %s, go: %s)",
		Version, Commit, Date, GoVersion)
}

// Short returns just the version string.
func Short() string {
	return Version
}

// GetInfo collects the build metadata into a BuildInfo.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
