// Package version reports the mcpchat build version.
package version

import "runtime/debug"

// Version is overridden at build time with
// -ldflags "-X github.com/mcpjungle/mcpchat/pkg/version.Version=v0.1.0"
var Version = "dev"

// GetVersion returns the version injected at build time.
// If none was injected, it falls back to the module version recorded by the go toolchain.
func GetVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
