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

package minio

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jeremyhahn/go-s3console/pkg/common"
	"github.com/jeremyhahn/go-s3console/pkg/memory"
)

// fakeS3 serves the handful of S3 REST calls the backend issues, backed by
// the in-memory store. Path-style addressing only.
type fakeS3 struct {
	store *memory.Memory

	mu          sync.Mutex
	denyDelete  map[string]string
	rejectBatch bool
	listCalls   int
}

func newFakeS3(store *memory.Memory) *fakeS3 {
	return &fakeS3{store: store, denyDelete: map[string]string{}}
}

func (f *fakeS3) deny(key, code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.denyDelete[key] = code
}

func (f *fakeS3) setRejectBatch(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectBatch = v
}

func (f *fakeS3) listRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		f.listBuckets(w, r)
		return
	}
	bucket, key, _ := strings.Cut(path, "/")
	q := r.URL.Query()

	switch {
	case key == "" && r.Method == http.MethodGet && q.Get("list-type") == "2":
		f.listObjects(w, r, bucket)
	case key == "" && r.Method == http.MethodPost && q.Has("delete"):
		f.deleteObjects(w, r, bucket)
	case key != "" && r.Method == http.MethodPut:
		f.putObject(w, r, bucket, key)
	case key != "" && r.Method == http.MethodGet:
		f.getObject(w, r, bucket, key)
	case key != "" && r.Method == http.MethodDelete:
		f.deleteObject(w, r, bucket, key)
	default:
		writeError(w, http.StatusNotImplemented, "NotImplemented", "unsupported request")
	}
}

type xmlBucket struct {
	Name         string
	CreationDate string
}

type listAllMyBucketsResult struct {
	XMLName xml.Name    `xml:"ListAllMyBucketsResult"`
	Buckets []xmlBucket `xml:"Buckets>Bucket"`
}

func (f *fakeS3) listBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := f.store.ListBuckets(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := listAllMyBucketsResult{}
	for _, b := range buckets {
		out.Buckets = append(out.Buckets, xmlBucket{
			Name:         b.Name,
			CreationDate: b.CreationDate.UTC().Format(time.RFC3339),
		})
	}
	writeXML(w, out)
}

type xmlContent struct {
	Key          string
	LastModified string
	ETag         string
	Size         int64
}

type xmlPrefix struct {
	Prefix string
}

type listBucketResult struct {
	XMLName               xml.Name `xml:"ListBucketResult"`
	Name                  string
	Prefix                string
	Delimiter             string `xml:",omitempty"`
	MaxKeys               int
	KeyCount              int
	IsTruncated           bool
	ContinuationToken     string       `xml:",omitempty"`
	NextContinuationToken string       `xml:",omitempty"`
	Contents              []xmlContent `xml:"Contents"`
	CommonPrefixes        []xmlPrefix  `xml:"CommonPrefixes"`
}

func (f *fakeS3) listObjects(w http.ResponseWriter, r *http.Request, bucket string) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()

	q := r.URL.Query()
	opts := &common.ListOptions{
		Prefix:            q.Get("prefix"),
		Delimiter:         q.Get("delimiter"),
		ContinuationToken: q.Get("continuation-token"),
	}
	if mk := q.Get("max-keys"); mk != "" {
		n, err := strconv.Atoi(mk)
		if err != nil {
			writeError(w, http.StatusBadRequest, "InvalidArgument", "bad max-keys")
			return
		}
		opts.MaxKeys = n
	}

	page, err := f.store.ListObjects(r.Context(), bucket, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := listBucketResult{
		Name:                  bucket,
		Prefix:                opts.Prefix,
		Delimiter:             opts.Delimiter,
		MaxKeys:               opts.MaxKeys,
		KeyCount:              len(page.Objects) + len(page.CommonPrefixes),
		IsTruncated:           page.Truncated,
		ContinuationToken:     opts.ContinuationToken,
		NextContinuationToken: page.NextToken,
	}
	for _, obj := range page.Objects {
		out.Contents = append(out.Contents, xmlContent{
			Key:          obj.Key,
			LastModified: obj.LastModified.UTC().Format(time.RFC3339),
			ETag:         obj.ETag,
			Size:         obj.Size,
		})
	}
	for _, p := range page.CommonPrefixes {
		out.CommonPrefixes = append(out.CommonPrefixes, xmlPrefix{Prefix: p})
	}
	writeXML(w, out)
}

func (f *fakeS3) putObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	body, err := readPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "IncompleteBody", err.Error())
		return
	}
	if err := f.store.PutObject(r.Context(), bucket, key, bytes.NewReader(body), int64(len(body)), r.Header.Get("Content-Type")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("ETag", `"fake"`)
	w.WriteHeader(http.StatusOK)
}

func (f *fakeS3) getObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	rc, info, err := f.store.GetObject(r.Context(), bucket, key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer rc.Close()

	h := w.Header()
	h.Set("Content-Length", strconv.FormatInt(info.Size, 10))
	h.Set("Content-Type", info.ContentType)
	h.Set("ETag", info.ETag)
	h.Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

func (f *fakeS3) deleteObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	f.mu.Lock()
	code, denied := f.denyDelete[key]
	f.mu.Unlock()
	if denied {
		writeError(w, http.StatusForbidden, code, "denied by test")
		return
	}
	if err := f.store.DeleteObject(r.Context(), bucket, key); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deleteRequest struct {
	XMLName xml.Name `xml:"Delete"`
	Objects []struct {
		Key string
	} `xml:"Object"`
}

type xmlDeleteError struct {
	Key     string
	Code    string
	Message string
}

type xmlDeleted struct {
	Key string
}

type deleteResult struct {
	XMLName xml.Name         `xml:"DeleteResult"`
	Deleted []xmlDeleted     `xml:"Deleted"`
	Errors  []xmlDeleteError `xml:"Error"`
}

func (f *fakeS3) deleteObjects(w http.ResponseWriter, r *http.Request, bucket string) {
	f.mu.Lock()
	reject := f.rejectBatch
	f.mu.Unlock()
	if reject {
		writeError(w, http.StatusForbidden, "AccessDenied", "multi-object delete is disabled")
		return
	}

	var req deleteRequest
	if err := xml.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "MalformedXML", err.Error())
		return
	}

	out := deleteResult{}
	for _, o := range req.Objects {
		f.mu.Lock()
		code, denied := f.denyDelete[o.Key]
		f.mu.Unlock()
		if denied {
			out.Errors = append(out.Errors, xmlDeleteError{Key: o.Key, Code: code, Message: "denied by test"})
			continue
		}
		if err := f.store.DeleteObject(r.Context(), bucket, o.Key); err != nil {
			out.Errors = append(out.Errors, xmlDeleteError{Key: o.Key, Code: "AccessDenied", Message: err.Error()})
			continue
		}
		out.Deleted = append(out.Deleted, xmlDeleted{Key: o.Key})
	}
	writeXML(w, out)
}

// readPayload returns the request body, decoding aws-chunked framing when
// the client used a streaming signature.
func readPayload(r *http.Request) ([]byte, error) {
	if !strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") {
		return io.ReadAll(r.Body)
	}

	var out bytes.Buffer
	br := bufio.NewReader(r.Body)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, err
		}
		header := strings.TrimRight(line, "\r\n")
		sizeHex, _, _ := strings.Cut(header, ";")
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("bad chunk header %q: %w", header, err)
		}
		if size == 0 {
			return out.Bytes(), nil
		}
		if _, err := io.CopyN(&out, br, size); err != nil {
			return nil, err
		}
		if _, err := br.Discard(2); err != nil {
			return nil, err
		}
	}
}

type xmlError struct {
	XMLName xml.Name `xml:"Error"`
	Code    string
	Message string
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_ = xml.NewEncoder(w).Encode(xmlError{Code: code, Message: message})
}

func writeServiceError(w http.ResponseWriter, err error) {
	var svc *common.ServiceError
	if errors.As(err, &svc) {
		writeError(w, svc.StatusCode, svc.Code, svc.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, "InternalError", err.Error())
}

func writeXML(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, xml.Header)
	_ = xml.NewEncoder(w).Encode(v)
}
