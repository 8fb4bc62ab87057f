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

package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultCookieName is the session cookie name.
const DefaultCookieName = "s3console_session"

const (
	sessionIDKey    = "session_id"
	sessionStartKey = "session_start"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	// Name of the cookie (default: s3console_session)
	Name string

	// Secure sets the Secure attribute
	Secure bool

	// MaxAge is refreshed on every request so the cookie slides with the
	// server-side TTL
	MaxAge time.Duration
}

// Middleware loads the session named by the cookie and exposes its ID to
// handlers through ID. Requests without a live session get none until a
// handler calls Ensure, so read-only traffic never grows the store.
func Middleware(store Store, cfg CookieConfig) gin.HandlerFunc {
	if cfg.Name == "" {
		cfg.Name = DefaultCookieName
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultTTL
	}

	return func(c *gin.Context) {
		setCookie := func(id string) {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.Name, id, int(cfg.MaxAge.Seconds()), "/", "", cfg.Secure, true)
			c.Set(sessionIDKey, id)
		}

		if id, err := c.Cookie(cfg.Name); err == nil && id != "" {
			if _, err := store.Get(id); err == nil {
				setCookie(id)
			}
		}

		c.Set(sessionStartKey, func() string {
			id := store.Create().ID
			setCookie(id)
			return id
		})

		c.Next()
	}
}

// ID returns the session ID set by Middleware, or "" when the request has
// no session yet.
func ID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// Ensure returns the request's session ID, starting a session and issuing
// its cookie when there is none. It must run before the response body is
// written.
func Ensure(c *gin.Context) string {
	if id := ID(c); id != "" {
		return id
	}
	v, ok := c.Get(sessionStartKey)
	if !ok {
		return ""
	}
	start, ok := v.(func() string)
	if !ok {
		return ""
	}
	return start()
}
