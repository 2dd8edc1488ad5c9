package gateway

import (
	"context"
	"encoding/json"
	"iter"
	"net/url"
)

// fetchAll lazily drives fetchPage across a paged endpoint whose payload is
// a JSON array, yielding items in the order the API returns them, across
// pages, without reordering or deduplication. Iteration ends on an empty
// page or when the Link header carries no continuation.
func (g *Gateway) fetchAll(ctx context.Context, path string, query url.Values) iter.Seq2[json.RawMessage, error] {
	return func(yield func(json.RawMessage, error) bool) {
		pageNum := 0
		for {
			p, err := g.fetchPage(ctx, path, query, pageNum)
			if err != nil {
				yield(nil, err)
				return
			}
			var items []json.RawMessage
			if err := json.Unmarshal(p.Body, &items); err != nil {
				yield(nil, &PermanentError{Path: path, Err: err})
				return
			}
			if len(items) == 0 {
				return
			}
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
			if p.NextPage == 0 {
				return
			}
			pageNum = p.NextPage
		}
	}
}

// collect materializes a raw item sequence into typed values.
func collect[T any](path string, seq iter.Seq2[json.RawMessage, error]) ([]T, error) {
	var out []T
	for raw, err := range seq {
		if err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &PermanentError{Path: path, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}
