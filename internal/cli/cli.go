// Package cli provides the command-line interface for tickerview
package cli

// Version is overridden at build time with -ldflags.
var Version = "dev"
