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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jeremyhahn/go-s3console/pkg/audit"
	"github.com/jeremyhahn/go-s3console/pkg/common"
	"github.com/jeremyhahn/go-s3console/pkg/session"
	"github.com/jeremyhahn/go-s3console/pkg/version"
)

// HealthCheck handles health check requests
// @Summary Health check
// @Description Check if the server is healthy
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.Get(),
	})
}

// PutConfig stores connection settings for the session
// @Summary Configure the storage connection
// @Description Validate and store endpoint credentials for this session. The backend is not contacted.
// @Tags config
// @Accept json
// @Produce json
// @Param config body ConfigRequest true "Connection settings"
// @Success 200 {object} SuccessResponse{data=ConnectionResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 428 {object} ErrorResponse
// @Router /config [put]
func (h *Handler) PutConfig(c *gin.Context) {
	var req ConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	conn, err := h.newConnection(req)
	if err == nil {
		err = h.sessions.SetConnection(session.Ensure(c), conn)
	}
	h.audit(c, audit.NewEvent(audit.EventConfigUpdated, conn, "", ""), err)
	if err != nil {
		respondWithErr(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, "configuration saved", connectionResponse(conn))
}

// DeleteConfig drops the session's connection settings
// @Summary Clear the storage connection
// @Tags config
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /config [delete]
func (h *Handler) DeleteConfig(c *gin.Context) {
	conn, _ := h.connection(c)
	err := h.clearConnection(c)
	h.audit(c, audit.NewEvent(audit.EventConfigCleared, conn, "", ""), err)
	if err != nil {
		respondWithErr(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, "configuration cleared", nil)
}

// ListBuckets lists the buckets of the configured connection
// @Summary List buckets
// @Tags buckets
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]BucketResponse}
// @Failure 428 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /buckets [get]
func (h *Handler) ListBuckets(c *gin.Context) {
	a, _, err := h.adapter(c)
	if err != nil {
		respondWithErr(c, err)
		return
	}
	buckets, err := a.ListBuckets(c.Request.Context())
	if err != nil {
		respondWithErr(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, "buckets listed", bucketResponses(buckets))
}

// ListFolder lists the child folders and files at a prefix
// @Summary List a folder
// @Description Drain every page of a delimiter listing and split it into folders and files
// @Tags folders
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param prefix query string false "Folder prefix, empty or ending with /"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 428 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /buckets/{bucket}/folders [get]
func (h *Handler) ListFolder(c *gin.Context) {
	a, _, err := h.adapter(c)
	if err != nil {
		respondWithErr(c, err)
		return
	}
	listing, err := a.ListFolder(c.Request.Context(), c.Param("bucket"), c.Query("prefix"))
	if err != nil {
		respondWithErr(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, "folder listed", listing)
}

// PostFolder creates a folder marker
// @Summary Create a folder
// @Tags folders
// @Accept json
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param folder body CreateFolderRequest true "Folder to create"
// @Success 201 {object} SuccessResponse{data=KeyResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 428 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /buckets/{bucket}/folders [post]
func (h *Handler) PostFolder(c *gin.Context) {
	bucket := c.Param("bucket")
	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	a, conn, err := h.adapter(c)
	if err != nil {
		respondWithErr(c, err)
		return
	}
	path, err := a.CreateFolder(c.Request.Context(), bucket, req.Prefix, req.Name)
	event := audit.NewEvent(audit.EventFolderCreated, conn, bucket, req.Prefix)
	if path != "" {
		event.Key = common.SanitizeForLog(path)
	}
	h.audit(c, event, err)
	if err != nil {
		respondWithErr(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusCreated, "folder created", KeyResponse{Bucket: bucket, Key: path})
}

// PostObject uploads a file into a folder
// @Summary Upload a file
// @Tags objects
// @Accept multipart/form-data
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param file formData file true "File to upload"
// @Param prefix formData string false "Target folder prefix"
// @Success 201 {object} SuccessResponse{data=KeyResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 428 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /buckets/{bucket}/objects [post]
func (h *Handler) PostObject(c *gin.Context) {
	bucket := c.Param("bucket")
	prefix := c.PostForm("prefix")

	a, conn, err := h.adapter(c)
	if err != nil {
		respondWithErr(c, err)
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
		respondWithErr(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusCreated, "object uploaded", KeyResponse{Bucket: bucket, Key: key})
}

// GetObject streams an object
// @Summary Download a file
// @Tags objects
// @Produce application/octet-stream
// @Param bucket path string true "Bucket name"
// @Param key path string true "Object key"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 428 {object} ErrorResponse
// @Router /buckets/{bucket}/objects/{key} [get]
func (h *Handler) GetObject(c *gin.Context) {
	a, conn, err := h.adapter(c)
	if err != nil {
		respondWithErr(c, err)
		return
	}
	if err := h.stream(c, a, conn, c.Param("bucket"), keyParam(c)); err != nil {
		respondWithErr(c, err)
	}
}

// DeleteObject deletes a file, or a folder and its contents
// @Summary Delete a file or folder
// @Description A key ending with / deletes every object under that prefix. Objects that could not be deleted are reported with status 207.
// @Tags objects
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param key path string true "Object key or folder prefix"
// @Success 200 {object} SuccessResponse
// @Success 207 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 428 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /buckets/{bucket}/objects/{key} [delete]
func (h *Handler) DeleteObject(c *gin.Context) {
	bucket := c.Param("bucket")
	key := keyParam(c)

	a, conn, err := h.adapter(c)
	if err != nil {
		respondWithErr(c, err)
		return
	}

	result, err := a.DeleteEntry(c.Request.Context(), bucket, key)
	h.auditDelete(c, conn, bucket, key, result, err)

	var partial *common.PartialFailureError
	switch {
	case errors.As(err, &partial):
		_ = c.Error(err)
		RespondWithSuccess(c, http.StatusMultiStatus, partialMessage(partial), result)
	case err != nil:
		respondWithErr(c, err)
	default:
		RespondWithSuccess(c, http.StatusOK, deleteMessage(result), result)
	}
}
