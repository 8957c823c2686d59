// Package version holds the build version, overridden at link time.
package version

// Version is set via -ldflags "-X thoreinstein.com/relnote/pkg/version.Version=...".
var Version = "0.1.0-dev"
