// Package version reports the build identity baked into the binary.
package version

import (
	"runtime/debug"
	"sync"
)

// AppName prefixes version strings in logs and the health envelope.
const AppName = "openevent"

// commit can be injected with -ldflags "-X .../pkg/version.commit=<sha>"
// for builds where no VCS metadata is embedded (container builds).
var commit string

var resolve = sync.OnceValue(func() string {
	if commit != "" {
		return short(commit)
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return short(s.Value)
			}
		}
	}
	return "dev"
})

func short(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}

// GitCommit returns the short commit hash, or "dev" when the binary was
// built without one (go test, non-git checkouts).
func GitCommit() string { return resolve() }

// Full returns "openevent/<commit>" for logging and user-agent strings.
func Full() string { return AppName + "/" + GitCommit() }
