// Package version holds build metadata injected via ldflags.
package version

//nolint:revive // Overridden via ldflags at release time.
var (
	Version = "dev"
	Commit  = "unknown"
	BuiltAt = "unknown"
)
