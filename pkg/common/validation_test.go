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

package common_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/jeremyhahn/go-s3console/pkg/common"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid simple key",
			key:     "myfile.txt",
			wantErr: false,
		},
		{
			name:    "valid nested key",
			key:     "path/to/myfile.txt",
			wantErr: false,
		},
		{
			name:    "folder marker",
			key:     "photos/2024/",
			wantErr: false,
		},
		{
			name:    "dots inside a segment",
			key:     "archive/v1..2.tar",
			wantErr: false,
		},
		{
			name:    "empty key",
			key:     "",
			wantErr: true,
			errMsg:  "key cannot be empty",
		},
		{
			name:    "path traversal with ..",
			key:     "../etc/passwd",
			wantErr: true,
			errMsg:  "path traversal",
		},
		{
			name:    "path traversal in middle",
			key:     "path/../etc/passwd",
			wantErr: true,
			errMsg:  "path traversal",
		},
		{
			name:    "absolute path",
			key:     "/etc/passwd",
			wantErr: true,
			errMsg:  "absolute paths",
		},
		{
			name:    "null byte",
			key:     "file\x00.txt",
			wantErr: true,
			errMsg:  "null bytes",
		},
		{
			name:    "control character",
			key:     "file\n.txt",
			wantErr: true,
			errMsg:  "control characters",
		},
		{
			name:    "too long",
			key:     strings.Repeat("a", common.MaxKeyLength+1),
			wantErr: true,
			errMsg:  "exceeds maximum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := common.ValidateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var verr *common.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestValidatePrefix(t *testing.T) {
	valid := []string{"", "docs/", "a/b/c/"}
	for _, p := range valid {
		if err := common.ValidatePrefix(p); err != nil {
			t.Errorf("ValidatePrefix(%q) unexpected error: %v", p, err)
		}
	}

	invalid := []string{"docs", "/docs/", "a/../b/", "a\tb/"}
	for _, p := range invalid {
		err := common.ValidatePrefix(p)
		if err == nil {
			t.Errorf("ValidatePrefix(%q) expected error", p)
			continue
		}
		var verr *common.ValidationError
		if !errors.As(err, &verr) || verr.Field != "prefix" {
			t.Errorf("ValidatePrefix(%q) = %v, want prefix ValidationError", p, err)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: "report.pdf", want: "report.pdf"},
		{name: "unicode kept", input: "报告 2024.pdf", want: "报告 2024.pdf"},
		{name: "traversal stripped", input: "../../etc/passwd", want: "passwd"},
		{name: "windows path", input: `C:\Users\me\notes.txt`, want: "notes.txt"},
		{name: "reserved characters", input: `a<b>c:d"e|f?g*.txt`, want: "abcdefg.txt"},
		{name: "control characters", input: "bad\x00name\r\n.txt", want: "badname.txt"},
		{name: "surrounding spaces", input: "  spaced.txt  ", want: "spaced.txt"},
		{name: "empty", input: "", wantErr: true},
		{name: "dot dot only", input: "..", wantErr: true},
		{name: "trailing slash", input: "dir/", wantErr: true},
		{name: "only reserved", input: "???", wantErr: true},
		{name: "too long", input: strings.Repeat("x", common.MaxFilenameLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := common.SanitizeFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizeFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if strings.ContainsAny(got, `/\`) {
				t.Errorf("sanitized name %q still contains a separator", got)
			}
		})
	}
}

func TestNormalizeFolderName(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "photos", want: "photos/"},
		{input: "photos/", want: "photos/"},
		{input: "  /photos//  ", want: "photos/"},
		{input: "2024/q1", want: "2024/q1/"},
		{input: "", wantErr: true},
		{input: "   ", wantErr: true},
		{input: "/", wantErr: true},
		{input: "a//b", wantErr: true},
		{input: "../up", wantErr: true},
		{input: "./here", wantErr: true},
		{input: "tab\there", wantErr: true},
	}

	for _, tt := range tests {
		got, err := common.NormalizeFolderName(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeFolderName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeFolderName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateBucketName(t *testing.T) {
	for _, name := range []string{"my-bucket", "logs.example.com", "Legacy_Bucket"} {
		if err := common.ValidateBucketName(name); err != nil {
			t.Errorf("ValidateBucketName(%q) unexpected error: %v", name, err)
		}
	}
	for _, name := range []string{"", "a", "-bad", "bad-", "has space", "a..b", "x/y"} {
		if err := common.ValidateBucketName(name); err == nil {
			t.Errorf("ValidateBucketName(%q) expected error", name)
		}
	}
}

func TestValidateEndpoint(t *testing.T) {
	for _, ep := range []string{"https://s3.example.com", "http://localhost:9000"} {
		if err := common.ValidateEndpoint(ep); err != nil {
			t.Errorf("ValidateEndpoint(%q) unexpected error: %v", ep, err)
		}
	}
	for _, ep := range []string{"", "s3.example.com", "ftp://host", "https://"} {
		if err := common.ValidateEndpoint(ep); !errors.Is(err, common.ErrInvalidEndpoint) {
			t.Errorf("ValidateEndpoint(%q) = %v, want ErrInvalidEndpoint", ep, err)
		}
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := common.SanitizeForLog("line1\nline2\x1b[31m"); got != "line1line2[31m" {
		t.Errorf("SanitizeForLog() = %q", got)
	}

	long := strings.Repeat("a", common.MaxLogLength+10)
	got := common.SanitizeForLog(long)
	if !strings.HasSuffix(got, "...[truncated]") {
		t.Errorf("expected truncation marker, got suffix %q", got[len(got)-20:])
	}
	if len(got) != common.MaxLogLength+len("...[truncated]") {
		t.Errorf("unexpected length %d", len(got))
	}
}
