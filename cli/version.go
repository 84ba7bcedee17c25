package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// version is set with -ldflags "-X github.com/brimdata/arbor/cli.version=...".
var version string

// Version returns the linker-set version, else the main module version
// from the build info, else "unknown".
func Version() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "unknown"
}

// VersionLine is the text printed by -version.
func VersionLine(tool string) string {
	return fmt.Sprintf("%s version %s (%s %s/%s)", tool, Version(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
