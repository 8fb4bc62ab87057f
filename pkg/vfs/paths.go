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

package vfs

import (
	"strings"

	"github.com/jeremyhahn/go-s3console/pkg/common"
)

// Crumb is one step of the breadcrumb trail for a prefix.
type Crumb struct {
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

// IsFolderKey reports whether key names a folder rather than an object.
func IsFolderKey(key string) bool {
	return strings.HasSuffix(key, common.Delimiter)
}

// JoinKey places name under prefix. An empty prefix is the bucket root.
func JoinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + name
}

// ParentPrefix returns the prefix a user is sent back to after acting on key:
// every segment but the last, joined and suffixed with the delimiter, or the
// empty string when key has no delimiter.
//
//	"a/b/c.txt" -> "a/b/"
//	"c.txt"     -> ""
//	"a/b/"      -> "a/b/"
func ParentPrefix(key string) string {
	i := strings.LastIndex(key, common.Delimiter)
	if i < 0 {
		return ""
	}
	return key[:i+1]
}

// FolderParent returns the prefix containing a folder key, so "a/b/" -> "a/".
func FolderParent(prefix string) string {
	return ParentPrefix(strings.TrimSuffix(prefix, common.Delimiter))
}

// SuggestedFilename is the last delimiter-separated segment of key, or the
// whole key when it has none.
func SuggestedFilename(key string) string {
	trimmed := strings.TrimSuffix(key, common.Delimiter)
	if i := strings.LastIndex(trimmed, common.Delimiter); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// DisplayName strips prefix from key and drops one trailing delimiter.
// It is empty for a folder made by a doubled delimiter, such as "e//"
// under "e/".
func DisplayName(prefix, key string) string {
	return strings.TrimSuffix(strings.TrimPrefix(key, prefix), common.Delimiter)
}

// EmptySegmentLabel stands in for a folder or breadcrumb with an empty name.
const EmptySegmentLabel = "(empty name)"

// SegmentLabel returns name, or EmptySegmentLabel when name is empty.
func SegmentLabel(name string) string {
	if name == "" {
		return EmptySegmentLabel
	}
	return name
}

// Breadcrumbs splits prefix into navigable steps, root first. The root crumb
// has an empty prefix and carries the bucket name.
func Breadcrumbs(bucket, prefix string) []Crumb {
	crumbs := []Crumb{{Name: bucket, Prefix: ""}}
	if prefix == "" {
		return crumbs
	}
	acc := ""
	for _, seg := range strings.Split(strings.TrimSuffix(prefix, common.Delimiter), common.Delimiter) {
		acc += seg + common.Delimiter
		crumbs = append(crumbs, Crumb{Name: seg, Prefix: acc})
	}
	return crumbs
}
