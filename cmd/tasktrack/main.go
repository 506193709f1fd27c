// Package main is the single-binary entrypoint for tasktrack.
package main

import "github.com/tasktrack/tasktrack/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
