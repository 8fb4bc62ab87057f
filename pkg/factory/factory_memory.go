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

package factory

import (
	"context"
	"sync"

	"github.com/jeremyhahn/go-s3console/pkg/common"
	"github.com/jeremyhahn/go-s3console/pkg/memory"
)

// DemoBucket is created in the shared in-memory store.
const DemoBucket = "demo"

var (
	demoOnce  sync.Once
	demoStore *memory.Memory
)

// DemoStore returns the process-wide in-memory store served to every
// session that selects the memory backend.
func DemoStore() *memory.Memory {
	demoOnce.Do(func() {
		demoStore = memory.New(memory.WithBuckets(DemoBucket))
	})
	return demoStore
}

func init() {
	Register(common.BackendMemory, func(_ context.Context, _ common.Connection) (common.Backend, error) {
		return DemoStore(), nil
	})
}
