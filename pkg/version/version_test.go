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

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	if Get() == "" {
		t.Error("Expected non-empty version")
	}
	if v := Get(); v != strings.TrimSpace(v) {
		t.Errorf("Get() returned untrimmed version: %q", v)
	}
}

func TestGet_Override(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "1.2.3"
	if got := Get(); got != "1.2.3" {
		t.Errorf("Get() = %q, want 1.2.3", got)
	}
}

func TestGetInfo(t *testing.T) {
	oldCommit, oldDate := Commit, BuildDate
	t.Cleanup(func() { Commit, BuildDate = oldCommit, oldDate })

	Commit = "abc1234"
	BuildDate = "2025-11-05T10:00:00Z"

	info := GetInfo()
	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.Commit != "abc1234" || info.BuildDate != "2025-11-05T10:00:00Z" {
		t.Errorf("ldflags values not reported: %+v", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %q", info.Platform)
	}
}

func TestInfo_String(t *testing.T) {
	info := Info{Version: "1.0.0", Commit: "abc1234", BuildDate: "2025-11-05", GoVersion: "go1.24.0", Platform: "linux/amd64"}
	want := "s3console 1.0.0 (abc1234) built 2025-11-05 go1.24.0 linux/amd64"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	info = Info{Version: "1.0.0", GoVersion: "go1.24.0", Platform: "linux/amd64"}
	if got := info.String(); got != "s3console 1.0.0 go1.24.0 linux/amd64" {
		t.Errorf("String() = %q", got)
	}
}

func BenchmarkGet(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Get()
	}
}
