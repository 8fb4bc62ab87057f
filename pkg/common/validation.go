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

package common

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const (
	// MaxKeyLength is the maximum allowed length for storage keys (S3 limit is 1024 bytes)
	MaxKeyLength = 1024

	// MaxFilenameLength is the maximum length of a single uploaded filename.
	MaxFilenameLength = 255

	// MaxLogLength caps user-supplied strings written to logs.
	MaxLogLength = 1000
)

// bucketNamePattern matches DNS-compatible and legacy path-style bucket names.
var bucketNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{1,253}[a-zA-Z0-9]$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateEndpoint checks that endpoint is an absolute http or https URL.
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}
	return nil
}

// ValidateBucketName checks that name is a plausible bucket name.
func ValidateBucketName(name string) error {
	if name == "" {
		return invalid("bucket", "bucket name cannot be empty")
	}
	if !bucketNamePattern.MatchString(name) {
		return invalid("bucket", "invalid bucket name %q", SanitizeForLog(name))
	}
	if strings.Contains(name, "..") {
		return invalid("bucket", "bucket name contains consecutive dots")
	}
	return nil
}

// ValidateKey validates an object key for downloads and deletes.
// Keys ending in "/" are folder markers and are allowed.
func ValidateKey(key string) error {
	if key == "" {
		return invalid("key", "key cannot be empty")
	}
	if len(key) > MaxKeyLength {
		return invalid("key", "key length %d exceeds maximum of %d", len(key), MaxKeyLength)
	}
	if strings.HasPrefix(key, "/") {
		return invalid("key", "absolute paths not allowed")
	}
	for _, r := range key {
		if r == 0 {
			return invalid("key", "null bytes not allowed")
		}
		if r < 32 || r == 127 {
			return invalid("key", "control characters not allowed")
		}
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return invalid("key", "path traversal not allowed")
		}
	}
	return nil
}

// ValidatePrefix checks a folder prefix supplied by a client. The empty
// prefix is the bucket root; anything else must end with the delimiter.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	if !strings.HasSuffix(prefix, Delimiter) {
		return invalid("prefix", "prefix must end with %q", Delimiter)
	}
	if err := ValidateKey(prefix); err != nil {
		return &ValidationError{Field: "prefix", Message: err.(*ValidationError).Message}
	}
	return nil
}

// SanitizeFilename reduces an uploaded filename to a single safe path
// segment. Directory components are discarded, so "../../etc/passwd"
// becomes "passwd".
func SanitizeFilename(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsControl(r) || strings.ContainsRune(`<>:"|?*`, r) {
			continue
		}
		b.WriteRune(r)
	}
	clean := strings.TrimSpace(b.String())

	switch {
	case clean == "", clean == ".", clean == "..":
		return "", invalid("filename", "no usable filename in %q", SanitizeForLog(name))
	case len(clean) > MaxFilenameLength:
		return "", invalid("filename", "filename exceeds %d bytes", MaxFilenameLength)
	}
	return clean, nil
}

// NormalizeFolderName turns user input into a folder path relative to the
// current prefix. Surrounding whitespace and slashes are removed and exactly
// one trailing delimiter is added. Nested names such as "a/b" are allowed.
func NormalizeFolderName(name string) (string, error) {
	name = strings.Trim(strings.TrimSpace(name), Delimiter)
	if name == "" {
		return "", invalid("folder_name", "folder name cannot be empty")
	}
	for _, seg := range strings.Split(name, Delimiter) {
		switch seg {
		case "", ".", "..":
			return "", invalid("folder_name", "invalid path segment %q", seg)
		}
		for _, r := range seg {
			if unicode.IsControl(r) {
				return "", invalid("folder_name", "control characters not allowed")
			}
		}
	}
	return name + Delimiter, nil
}

// SanitizeForLog strips control characters from user input before it is
// logged and truncates it to MaxLogLength.
func SanitizeForLog(s string) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	if len(clean) > MaxLogLength {
		return clean[:MaxLogLength] + "...[truncated]"
	}
	return clean
}
