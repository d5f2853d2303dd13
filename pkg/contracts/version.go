// Package contracts holds the build information shared by the batch
// programs. Column names and labels of the exports live in the domain
// subpackage.
package contracts

import (
	"fmt"
	"runtime"
)

// Version is the release of the batch programs.
const Version = "1.0.0"

// Set during build with -ldflags "-X loyaltycli/pkg/contracts.GitCommit=...".
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Program      string `json:"program"`
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
}

// GetVersionInfo returns the build information of program.
func GetVersionInfo(program string) VersionInfo {
	return VersionInfo{
		Program:      program,
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
}

// String renders the version line printed by -version.
func (v VersionInfo) String() string {
	return fmt.Sprintf("%s v%s (built: %s, commit: %s, go: %s, os: %s/%s)",
		v.Program, v.Version, v.BuildTime, v.GitCommit, v.GoVersion, v.OS, v.Architecture)
}
