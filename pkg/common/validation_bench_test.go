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
	"testing"
)

func BenchmarkValidateKey(b *testing.B) {
	keys := []string{
		"simple-key",
		"path/to/object",
		"deeply/nested/path/to/object.txt",
		"folder/marker/",
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		key := keys[i%len(keys)]
		if err := ValidateKey(key); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSanitizeFilename(b *testing.B) {
	names := []string{
		"report.pdf",
		"../../../etc/passwd",
		`C:\Users\me\Desktop\photo<1>.jpg`,
		"报告 2024 final.docx",
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := SanitizeFilename(names[i%len(names)]); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNormalizeFolderName(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := NormalizeFolderName(" /2024/q1/reports/ "); err != nil {
			b.Fatal(err)
		}
	}
}
