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

// Package factory builds storage backends from a session connection.
// Backends register themselves by type from init functions.
package factory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jeremyhahn/go-s3console/pkg/common"
)

// BackendCreator builds a backend for one connection.
type BackendCreator func(ctx context.Context, conn common.Connection) (common.Backend, error)

var (
	mu       sync.RWMutex
	registry = make(map[string]BackendCreator)
)

// Register registers a backend creator, replacing any previous one for the
// same type.
func Register(backendType string, creator BackendCreator) {
	mu.Lock()
	defer mu.Unlock()
	registry[backendType] = creator
}

// New validates conn and builds the backend registered for its type.
func New(ctx context.Context, conn common.Connection) (common.Backend, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}

	mu.RLock()
	creator, exists := registry[conn.BackendType()]
	mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, conn.BackendType())
	}
	return creator(ctx, conn)
}

// Types returns the registered backend types in sorted order.
func Types() []string {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Supported reports whether backendType has a registered creator.
func Supported(backendType string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[backendType]
	return ok
}
