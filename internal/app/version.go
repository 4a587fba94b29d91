// Package app wires the cgbench application together: configuration,
// logging, the benchmark driver, its observers and the optional metrics
// server.
package app

import (
	"fmt"
	"io"
	"runtime"
)

// Build-time variables set via -ldflags, e.g.
//
//	go build -ldflags="-X github.com/agbru/cgbench/internal/app.Version=v1.2.3 -X github.com/agbru/cgbench/internal/app.Commit=abc123"
var (
	// Version is the semantic version stamped into every report.
	Version = "dev"
	// Commit is the short Git commit hash.
	Commit = "unknown"
	// BuildDate is the ISO 8601 timestamp of the build.
	BuildDate = "unknown"
)

// HasVersionFlag reports whether any argument asks for the version, so that
// -version works even alongside an otherwise invalid command line.
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "-version", "--version", "-V":
			return true
		}
	}
	return false
}

// PrintVersion writes the version, commit, build date and runtime to out.
func PrintVersion(out io.Writer) {
	fmt.Fprintf(out, "cgbench %s\n", Version)
	fmt.Fprintf(out, "  Commit:     %s\n", Commit)
	fmt.Fprintf(out, "  Built:      %s\n", BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// VersionData is the machine-readable form of PrintVersion.
type VersionData struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	OS        string `json:"os" yaml:"os"`
	Arch      string `json:"arch" yaml:"arch"`
}

// GetVersionInfo returns the current version information.
func GetVersionInfo() VersionData {
	return VersionData{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
