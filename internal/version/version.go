// Package version holds build metadata for the tsolver CLI.
// The variables can be overridden at build time via -ldflags.
package version

import (
	"strings"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var partColors = []*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Colored renders Version with its major, minor and patch parts in
// distinct colors. A pre-release suffix is left plain.
func Colored() string {
	v := strings.TrimSpace(Version)
	if v == "" {
		return "dev"
	}
	core, suffix, _ := strings.Cut(v, "-")
	parts := strings.SplitN(core, ".", len(partColors))
	for i, p := range parts {
		parts[i] = partColors[i].Sprint(p)
	}
	out := strings.Join(parts, ".")
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}
