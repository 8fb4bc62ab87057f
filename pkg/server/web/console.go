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
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jeremyhahn/go-s3console/pkg/adapters"
	"github.com/jeremyhahn/go-s3console/pkg/audit"
	"github.com/jeremyhahn/go-s3console/pkg/common"
	"github.com/jeremyhahn/go-s3console/pkg/factory"
	"github.com/jeremyhahn/go-s3console/pkg/session"
	"github.com/jeremyhahn/go-s3console/pkg/vfs"
)

type indexPage struct {
	Flashes    []session.Flash
	Connection *ConnectionResponse
	Defaults   StorageDefaults
	Backends   []string
	Buckets    []common.Bucket
	Error      string
}

type bucketPage struct {
	Flashes       []session.Flash
	Connection    ConnectionResponse
	Listing       *vfs.Listing
	Crumbs        []vfs.Crumb
	ParentPrefix  string
	MaxUploadSize int64
}

func (h *Handler) popFlashes(c *gin.Context) []session.Flash {
	flashes, err := h.sessions.PopFlashes(session.ID(c))
	if err != nil {
		return nil
	}
	return flashes
}

// redirect sends the browser to location with 303 so that a POST is
// followed by a GET.
func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

// failAndRedirect flashes err and redirects. A missing configuration
// always goes back to the configuration form.
func (h *Handler) failAndRedirect(c *gin.Context, err error, location string) {
	_ = c.Error(err)
	if errors.Is(err, common.ErrConfigurationMissing) {
		h.flash(c, session.FlashError, "Configure a storage connection first")
		redirect(c, "/")
		return
	}
	h.flash(c, session.FlashError, errorMessage(err))
	redirect(c, location)
}

// Index renders the configuration form and, once configured, the bucket list.
func (h *Handler) Index(c *gin.Context) {
	page := indexPage{
		Flashes:  h.popFlashes(c),
		Defaults: h.defaults,
		Backends: factory.Types(),
	}

	a, conn, err := h.adapter(c)
	switch {
	case errors.Is(err, common.ErrConfigurationMissing):
	case err != nil:
		page.Connection = ptr(connectionResponse(conn))
		page.Error = errorMessage(err)
	default:
		page.Connection = ptr(connectionResponse(conn))
		buckets, err := a.ListBuckets(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			page.Error = errorMessage(err)
		}
		page.Buckets = buckets
	}

	c.HTML(http.StatusOK, "index", page)
}

// Configure stores the connection settings from the form in the session.
func (h *Handler) Configure(c *gin.Context) {
	conn, err := h.newConnection(ConfigRequest{
		Backend:   c.PostForm("backend"),
		Endpoint:  c.PostForm("endpoint_url"),
		AccessKey: c.PostForm("access_key"),
		SecretKey: c.PostForm("secret_key"),
		Region:    c.PostForm("region"),
	})
	event := audit.NewEvent(audit.EventConfigUpdated, conn, "", "")
	if err == nil {
		err = h.sessions.SetConnection(session.Ensure(c), conn)
	}
	h.audit(c, event, err)

	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, common.ErrConfigurationMissing) {
			h.flash(c, session.FlashError, "Endpoint, access key and secret key are all required")
		} else {
			h.flash(c, session.FlashError, errorMessage(err))
		}
		redirect(c, "/")
		return
	}

	h.logger.Info(c.Request.Context(), "Connection configured",
		adapters.Field{Key: "connection", Value: conn})
	h.flash(c, session.FlashSuccess, "Connection settings saved")
	redirect(c, "/")
}

// Logout drops the session's connection settings.
func (h *Handler) Logout(c *gin.Context) {
	conn, _ := h.connection(c)
	err := h.clearConnection(c)
	h.audit(c, audit.NewEvent(audit.EventConfigCleared, conn, "", ""), err)

	h.flash(c, session.FlashInfo, "Connection settings cleared")
	redirect(c, "/")
}

// Browse renders the folders and files at the prefix query parameter.
func (h *Handler) Browse(c *gin.Context) {
	bucket := c.Param("bucket")
	prefix := c.Query("prefix")

	a, conn, err := h.adapter(c)
	if err != nil {
		h.failAndRedirect(c, err, "/")
		return
	}
	listing, err := a.ListFolder(c.Request.Context(), bucket, prefix)
	if err != nil {
		h.failAndRedirect(c, err, "/")
		return
	}

	c.HTML(http.StatusOK, "bucket", bucketPage{
		Flashes:       h.popFlashes(c),
		Connection:    connectionResponse(conn),
		Listing:       listing,
		Crumbs:        vfs.Breadcrumbs(bucket, prefix),
		ParentPrefix:  vfs.FolderParent(prefix),
		MaxUploadSize: h.maxUploadSize,
	})
}

// Upload stores the multipart file under the form's prefix.
func (h *Handler) Upload(c *gin.Context) {
	bucket := c.Param("bucket")
	prefix := c.PostForm("prefix")
	back := browseURL(bucket, prefix)

	a, conn, err := h.adapter(c)
	if err != nil {
		h.failAndRedirect(c, err, back)
		return
	}

	event := audit.NewEvent(audit.EventObjectUploaded, conn, bucket, prefix)
	key, size, err := h.uploadFromForm(c, a, bucket, prefix)
	if key != "" {
		event.Key = common.SanitizeForLog(key)
	}
	event.BytesTransferred = size
	h.audit(c, event, err)

	if err != nil {
		h.failAndRedirect(c, err, back)
		return
	}
	h.flash(c, session.FlashSuccess, fmt.Sprintf("File %s uploaded", vfs.DisplayName(prefix, key)))
	redirect(c, back)
}

// uploadFromForm streams the "file" part to the backend.
func (h *Handler) uploadFromForm(c *gin.Context, a *vfs.Adapter, bucket, prefix string) (string, int64, error) {
	header, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", 0, err
		}
		return "", 0, &common.ValidationError{Field: "file", Message: "no file selected"}
	}
	f, err := header.Open()
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	key, err := a.UploadObject(c.Request.Context(), bucket, prefix, header.Filename, f,
		header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		return "", 0, err
	}
	return key, header.Size, nil
}

// CreateFolder writes a folder marker under the form's prefix.
func (h *Handler) CreateFolder(c *gin.Context) {
	bucket := c.Param("bucket")
	prefix := c.PostForm("prefix")
	name := c.PostForm("folder_name")
	back := browseURL(bucket, prefix)

	a, conn, err := h.adapter(c)
	if err != nil {
		h.failAndRedirect(c, err, back)
		return
	}

	path, err := a.CreateFolder(c.Request.Context(), bucket, prefix, name)
	event := audit.NewEvent(audit.EventFolderCreated, conn, bucket, prefix)
	if path != "" {
		event.Key = common.SanitizeForLog(path)
	}
	h.audit(c, event, err)

	if err != nil {
		h.failAndRedirect(c, err, back)
		return
	}
	h.flash(c, session.FlashSuccess, fmt.Sprintf("Folder %s created", strings.TrimSuffix(vfs.DisplayName(prefix, path), "/")))
	redirect(c, back)
}

// Download streams an object as an attachment.
func (h *Handler) Download(c *gin.Context) {
	bucket := c.Param("bucket")
	key := keyParam(c)

	a, conn, err := h.adapter(c)
	if err != nil {
		h.failAndRedirect(c, err, browseURL(bucket, vfs.ParentPrefix(key)))
		return
	}
	if err := h.stream(c, a, conn, bucket, key); err != nil {
		h.failAndRedirect(c, err, browseURL(bucket, vfs.ParentPrefix(key)))
	}
}

// Delete removes a file, or a whole folder when the key ends with "/".
func (h *Handler) Delete(c *gin.Context) {
	bucket := c.Param("bucket")
	key := keyParam(c)

	a, conn, err := h.adapter(c)
	if err != nil {
		h.failAndRedirect(c, err, browseURL(bucket, vfs.ParentPrefix(key)))
		return
	}

	result, err := a.DeleteEntry(c.Request.Context(), bucket, key)
	h.auditDelete(c, conn, bucket, key, result, err)

	back := browseURL(bucket, vfs.ParentPrefix(key))
	if result != nil {
		back = browseURL(bucket, result.ReturnPrefix)
	}

	var partial *common.PartialFailureError
	switch {
	case errors.As(err, &partial):
		_ = c.Error(err)
		h.flash(c, session.FlashError, partialMessage(partial))
		redirect(c, back)
	case err != nil:
		h.failAndRedirect(c, err, back)
	default:
		h.flash(c, session.FlashSuccess, capitalize(deleteMessage(result)))
		redirect(c, back)
	}
}

func (h *Handler) auditDelete(c *gin.Context, conn common.Connection, bucket, key string, result *vfs.DeleteResult, err error) {
	eventType := audit.EventObjectDeleted
	if vfs.IsFolderKey(key) {
		eventType = audit.EventFolderDeleted
	}
	event := audit.NewEvent(eventType, conn, bucket, key)
	if result != nil && result.Folder {
		event.Metadata = map[string]any{
			"deleted": result.Deleted,
			"failed":  len(result.Failed),
		}
	}
	h.audit(c, event, err)
}

// partialMessage reports what a folder delete removed, the first keys it
// could not remove, and why it stopped early if listing failed.
func partialMessage(err *common.PartialFailureError) string {
	msg := fmt.Sprintf("Deleted %d objects under %s", err.Deleted, err.Prefix)
	if len(err.Failed) > 0 {
		msg += fmt.Sprintf(", but %d could not be deleted: %s",
			len(err.Failed), common.ListKeys(err.Failed, common.MaxListedKeys))
	}
	if err.Cause != nil {
		msg += "; stopped before the folder was empty: " + errorMessage(err.Cause)
	}
	return msg
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func ptr[T any](v T) *T {
	return &v
}
