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

import "context"

// Paginator walks every page of a listing, following continuation tokens.
type Paginator struct {
	backend Backend
	bucket  string
	opts    ListOptions
	done    bool
	pages   int
}

// NewPaginator returns a Paginator over bucket with the given options.
// opts is copied; its ContinuationToken is used as the starting point.
func NewPaginator(backend Backend, bucket string, opts ListOptions) *Paginator {
	return &Paginator{backend: backend, bucket: bucket, opts: opts}
}

// HasMorePages reports whether NextPage may be called.
func (p *Paginator) HasMorePages() bool {
	return !p.done
}

// Pages returns the number of pages fetched so far.
func (p *Paginator) Pages() int {
	return p.pages
}

// NextPage fetches the next page. After an error the paginator is exhausted.
func (p *Paginator) NextPage(ctx context.Context) (*ListPage, error) {
	if p.done {
		return nil, ErrNoMorePages
	}
	if err := ctx.Err(); err != nil {
		p.done = true
		return nil, err
	}

	opts := p.opts
	page, err := p.backend.ListObjects(ctx, p.bucket, &opts)
	if err != nil {
		p.done = true
		return nil, err
	}
	p.pages++

	if !page.Truncated {
		p.done = true
		return page, nil
	}
	if page.NextToken == "" || page.NextToken == p.opts.ContinuationToken {
		p.done = true
		return nil, ErrPaginationStalled
	}
	p.opts.ContinuationToken = page.NextToken
	return page, nil
}
