// Package version holds build provenance populated by linker flags at
// build time (-ldflags "-X ...") and falls back to defaults for a plain
// local `go build` that never sets them.
package version

import (
	"fmt"
	"runtime"
	"time"
)

var (
	// Version is the release tag this build was cut from, e.g. "v0.3.0".
	// Left as "dev" until ldflags overrides it.
	Version = "dev"

	// Commit is the git commit hash this build was made from.
	Commit = "unknown"

	// BuiltAt is when the binary was linked, set at init time if ldflags
	// never supplied one.
	BuiltAt string

	goVersion = runtime.Version()
	platform  = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
)

func init() {
	if BuiltAt == "" {
		BuiltAt = time.Now().UTC().Format(time.RFC3339)
	}
}

// Short is the one-line form the CLI's usage banner prints: the release
// tag, or a "dev-<commit>" fallback when no tag was baked in.
func Short() string {
	if Version != "dev" {
		return Version
	}
	if len(Commit) >= 7 {
		return "dev-" + Commit[:7]
	}
	return Version
}

// Full is the multi-line form `pl0c --version` prints: release, commit,
// link time, toolchain, and target platform.
func Full() string {
	return fmt.Sprintf("pl0c %s\ncommit:   %s\nbuilt:    %s\ngo:       %s\nplatform: %s",
		Short(), Commit, BuiltAt, goVersion, platform)
}
