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

package web

import (
	"embed"
	"html/template"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin/render"

	"github.com/jeremyhahn/go-s3console/pkg/vfs"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages maps page names to their template file. Each page is parsed
// together with the layout so that every page can define "content".
var pages = map[string]string{
	"index":  "templates/index.html",
	"bucket": "templates/bucket.html",
}

var templateFuncs = template.FuncMap{
	"bytes":       humanBytes,
	"datetime":    func(t time.Time) string { return t.Local().Format("2006-01-02 15:04:05") },
	"ago":         humanize.Time,
	"label":       vfs.SegmentLabel,
	"browseURL":   browseURL,
	"downloadURL": downloadURL,
	"deleteURL":   deleteURL,
	"uploadURL":   func(bucket string) string { return "/upload/" + url.PathEscape(bucket) },
	"folderURL":   func(bucket string) string { return "/create-folder/" + url.PathEscape(bucket) },
}

// humanBytes formats n with binary units, as 1.5 KiB.
func humanBytes(n int64) string {
	if n < 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(n))
}

// pageRenderer implements gin's render.HTMLRender over one template set per page.
type pageRenderer struct {
	pages map[string]*template.Template
}

func newPageRenderer() (*pageRenderer, error) {
	r := &pageRenderer{pages: make(map[string]*template.Template, len(pages))}
	for name, file := range pages {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", file)
		if err != nil {
			return nil, err
		}
		r.pages[name] = t
	}
	return r, nil
}

// Instance returns the renderer for page name.
func (r *pageRenderer) Instance(name string, data any) render.Render {
	return render.HTML{
		Template: r.pages[name],
		Name:     "layout",
		Data:     data,
	}
}
