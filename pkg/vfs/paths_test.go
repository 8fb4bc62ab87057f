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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParentPrefix(t *testing.T) {
	tests := map[string]string{
		"a/b/c.txt": "a/b/",
		"c.txt":     "",
		"a/b/":      "a/b/",
		"a/":        "a/",
		"":          "",
	}
	for key, want := range tests {
		assert.Equal(t, want, ParentPrefix(key), key)
	}
}

func TestFolderParent(t *testing.T) {
	assert.Equal(t, "a/", FolderParent("a/b/"))
	assert.Equal(t, "", FolderParent("a/"))
	assert.Equal(t, "", FolderParent(""))
}

func TestSuggestedFilename(t *testing.T) {
	assert.Equal(t, "c.txt", SuggestedFilename("a/b/c.txt"))
	assert.Equal(t, "c.txt", SuggestedFilename("c.txt"))
	assert.Equal(t, "b", SuggestedFilename("a/b/"))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "b", DisplayName("a/", "a/b/"))
	assert.Equal(t, "x.txt", DisplayName("a/", "a/x.txt"))
	assert.Equal(t, "a", DisplayName("", "a/"))
	assert.Equal(t, "", DisplayName("e/", "e//"))
}

func TestSegmentLabel(t *testing.T) {
	assert.Equal(t, "q1", SegmentLabel("q1"))
	assert.Equal(t, EmptySegmentLabel, SegmentLabel(""))
	assert.NotContains(t, EmptySegmentLabel, "/")
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "f.txt", JoinKey("", "f.txt"))
	assert.Equal(t, "p/q/f.txt", JoinKey("p/q/", "f.txt"))
}

func TestBreadcrumbs(t *testing.T) {
	assert.Equal(t, []Crumb{{Name: "docs", Prefix: ""}}, Breadcrumbs("docs", ""))
	assert.Equal(t, []Crumb{
		{Name: "docs", Prefix: ""},
		{Name: "2024", Prefix: "2024/"},
		{Name: "q1", Prefix: "2024/q1/"},
	}, Breadcrumbs("docs", "2024/q1/"))
}

func TestIsFolderKey(t *testing.T) {
	assert.True(t, IsFolderKey("a/"))
	assert.False(t, IsFolderKey("a"))
}
