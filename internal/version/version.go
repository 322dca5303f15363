// Package version provides version information.
package version

import "runtime/debug"

// Version is set at build time via -ldflags "-X github.com/VoxDroid/lintrunner/internal/version.Version=<value>".
// When empty, the module version recorded by `go install` is used.
var Version = ""

// String returns the version to display.
func String() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
