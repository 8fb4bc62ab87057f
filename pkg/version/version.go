// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-s3console.
//
// go-s3console is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package version reports the build version of the console.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version, Commit and BuildDate are set at build time:
//
//	go build -ldflags "-X github.com/jeremyhahn/go-s3console/pkg/version.Version=1.0.0 \
//	  -X github.com/jeremyhahn/go-s3console/pkg/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version   = "0.1.0-dev"
	Commit    = ""
	BuildDate = ""
)

// Get returns the application version string.
func Get() string {
	return Version
}

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns the build information. A commit not set by ldflags is
// taken from the VCS stamp of the Go toolchain when present.
func GetInfo() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info.Commit == "" {
		info.Commit, info.BuildDate = vcsStamp(info.BuildDate)
	}
	return info
}

func vcsStamp(buildDate string) (string, string) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "", buildDate
	}
	var commit string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value
			if len(commit) > 12 {
				commit = commit[:12]
			}
		case "vcs.time":
			if buildDate == "" {
				buildDate = s.Value
			}
		}
	}
	return commit, buildDate
}

// String formats the information on one line.
func (i Info) String() string {
	s := "s3console " + i.Version
	if i.Commit != "" {
		s += " (" + i.Commit + ")"
	}
	if i.BuildDate != "" {
		s += " built " + i.BuildDate
	}
	return fmt.Sprintf("%s %s %s", s, i.GoVersion, i.Platform)
}
