package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v84/github"

	"github.com/prstats/prstats/internal/cache"
)

// page is the unit the cache stores: one raw response payload plus the
// continuation pointer extracted from the Link header.
type page struct {
	Body     json.RawMessage `json:"body"`
	NextPage int             `json:"next_page"`
}

// fetchPage retrieves a single page of a paged endpoint. Cache hits return
// immediately, bypassing the governor and the network. Misses go through the
// governor gate, then the request, with transient failures retried under
// exponential backoff with jitter.
func (g *Gateway) fetchPage(ctx context.Context, path string, query url.Values, pageNum int) (*page, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	if pageNum > 0 {
		q.Set("page", strconv.Itoa(pageNum))
	}
	urlStr := path
	if enc := q.Encode(); enc != "" {
		urlStr += "?" + enc
	}

	key := cache.Key(path, q)
	if raw, ok := g.cache.Get(key); ok {
		var p page
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
		// A corrupt entry (e.g. from a hand-edited snapshot) falls through
		// to a fresh fetch and gets overwritten.
	}

	var p *page
	attempts := 0
	op := func() error {
		attempts++
		res, err := g.doOnce(ctx, urlStr)
		if err != nil {
			g.logger.Printf("fetch %s attempt %d failed: %v", urlStr, attempts, err)
			return err
		}
		p = res
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.retry.BaseDelay
	bo.MaxInterval = g.retry.MaxDelay
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(g.retry.MaxAttempts-1)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		var perm *PermanentError
		if errors.As(err, &perm) {
			return nil, perm
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientError{Path: path, Attempts: attempts, Err: err}
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding cache entry for %s: %w", path, err)
	}
	g.cache.Set(key, data)
	return p, nil
}

// doOnce performs exactly one governed request. Errors it returns are
// retryable unless wrapped with backoff.Permanent.
func (g *Gateway) doOnce(ctx context.Context, urlStr string) (*page, error) {
	if err := g.governor.BeforeRequest(ctx); err != nil {
		return nil, backoff.Permanent(err)
	}
	req, err := g.rest.NewRequest(http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, backoff.Permanent(&PermanentError{Path: urlStr, Err: err})
	}
	resp, err := g.rest.BareDo(ctx, req)
	if resp != nil {
		// Rate headers are parsed even on error responses; let the governor
		// learn the reset time from a 403 before the next attempt.
		g.governor.AfterResponse(resp)
	}
	if err != nil {
		return nil, classifyOutcome(urlStr, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body for %s: %w", urlStr, err)
	}
	if !json.Valid(body) {
		return nil, backoff.Permanent(&PermanentError{
			Path: urlStr,
			Err:  errors.New("malformed JSON payload"),
		})
	}
	return &page{Body: body, NextPage: resp.NextPage}, nil
}

// classifyOutcome decides whether a failed request may be retried.
// Transient: network errors, 5xx, primary and secondary rate-limit signals
// (the governor gates the next attempt on the primary quota). Permanent:
// any other 4xx, or a cancelled caller.
func classifyOutcome(urlStr string, err error) error {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return err
	}
	var arle *github.AbuseRateLimitError
	if errors.As(err, &arle) {
		return err
	}
	var ger *github.ErrorResponse
	if errors.As(err, &ger) && ger.Response != nil {
		if ger.Response.StatusCode >= 500 {
			return err
		}
		return backoff.Permanent(&PermanentError{
			Path:       urlStr,
			StatusCode: ger.Response.StatusCode,
			Err:        err,
		})
	}
	if errors.Is(err, context.Canceled) {
		return backoff.Permanent(err)
	}
	// Network errors and per-request deadlines are transient.
	return err
}
