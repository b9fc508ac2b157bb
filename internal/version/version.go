// Package version provides the engine version.
package version

import (
	"fmt"
	"strings"
)

// Version is the semver release of the engine, set at build time via
// -ldflags "-X github.com/ramify-app/ramify/internal/version.Version=...".
var Version = "0.4.0"

// DevVersion is the version suffix used for development builds.
var DevVersion = "dev"

func GetCurrentVersion(mode string) string {
	if mode == "dev" {
		return fmt.Sprintf("%s-%s", Version, DevVersion)
	}
	return Version
}

// GetMinorVersion returns the major.minor prefix of a semver string.
func GetMinorVersion(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}
