// Package version reports the build version of alf.
package version

import "runtime/debug"

// Version can be overridden at build time via -ldflags; when left at "dev",
// init fills it from the module's build info if that carries a version.
var Version = "dev"

func init() {
	if Version != "dev" {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
}
