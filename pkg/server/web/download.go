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
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jeremyhahn/go-s3console/pkg/audit"
	"github.com/jeremyhahn/go-s3console/pkg/common"
	"github.com/jeremyhahn/go-s3console/pkg/vfs"
)

// stream opens key and copies it to the response as an attachment. It
// returns an error only when nothing has been written yet.
func (h *Handler) stream(c *gin.Context, a *vfs.Adapter, conn common.Connection, bucket, key string) error {
	event := audit.NewEvent(audit.EventObjectDownloaded, conn, bucket, key)

	d, err := a.DownloadObject(c.Request.Context(), bucket, key)
	if err != nil {
		h.audit(c, event, err)
		return err
	}
	defer d.Body.Close()

	headers := map[string]string{
		"Content-Disposition": contentDisposition(d.Filename),
	}
	if d.ETag != "" {
		headers["ETag"] = d.ETag
	}
	if !d.LastModified.IsZero() {
		headers["Last-Modified"] = d.LastModified.UTC().Format(http.TimeFormat)
	}

	if d.Size > 0 {
		event.BytesTransferred = d.Size
	}
	h.audit(c, event, nil)

	c.DataFromReader(http.StatusOK, d.Size, d.ContentType, d.Body, headers)
	return nil
}

// contentDisposition builds an attachment header with an ASCII fallback
// filename and the RFC 6266 UTF-8 form.
func contentDisposition(filename string) string {
	var fallback strings.Builder
	ascii := true
	for _, r := range filename {
		switch {
		case r < 0x20 || r == 0x7f || r == '"' || r == '\\':
			fallback.WriteByte('_')
		case r > 0x7e:
			fallback.WriteByte('_')
			ascii = false
		default:
			fallback.WriteRune(r)
		}
	}
	v := `attachment; filename="` + fallback.String() + `"`
	if !ascii || fallback.String() != filename {
		v += "; filename*=UTF-8''" + encodeExtValue(filename)
	}
	return v
}

// encodeExtValue percent-encodes every byte outside the RFC 5987 attr-char set.
func encodeExtValue(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if isAttrChar(ch) {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[ch>>4])
		b.WriteByte(hex[ch&0x0f])
	}
	return b.String()
}

func isAttrChar(ch byte) bool {
	switch {
	case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", ch) >= 0
}
