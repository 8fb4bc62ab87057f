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

	"github.com/jeremyhahn/go-s3console/pkg/common"
	"github.com/jeremyhahn/go-s3console/pkg/s3"
)

func init() {
	Register(common.BackendS3, func(ctx context.Context, conn common.Connection) (common.Backend, error) {
		backend, err := s3.NewFromConnection(ctx, conn)
		if err != nil {
			return nil, err
		}
		return backend, nil
	})
}
