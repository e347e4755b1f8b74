// internal/adapters/backend/client.go
package backend

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"staybook/internal/adapters/observability"
	"staybook/internal/domain"
)

const maxBody = 4 << 20

type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", base)
	}
	if rps <= 0 {
		rps = 20
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: u.String(),
		hc:   &http.Client{Timeout: timeout},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API ----

func (c *Client) ListLocations(ctx context.Context, q domain.LocationQuery) ([]byte, error) {
	v := url.Values{}
	if q.Name != "" {
		v.Set("name", q.Name)
	}
	addIDs(v, q.IDs)
	return c.get(ctx, "locations", c.url("/locations", v))
}

func (c *Client) ListHotels(ctx context.Context, q domain.HotelQuery) ([]byte, error) {
	v := url.Values{}
	if q.LocationID != nil {
		v.Set("locationId", strconv.FormatInt(*q.LocationID, 10))
	}
	addIDs(v, q.IDs)
	return c.get(ctx, "hotels", c.url("/hotels", v))
}

func (c *Client) GetHotel(ctx context.Context, id int64) ([]byte, error) {
	return c.get(ctx, "hotel", c.url(fmt.Sprintf("/hotels/%d", id), nil))
}

func (c *Client) GetUser(ctx context.Context, id int64) ([]byte, error) {
	return c.get(ctx, "user", c.url(fmt.Sprintf("/users/%d", id), nil))
}

// PutUser overwrites the whole user record. It is never retried.
func (c *Client) PutUser(ctx context.Context, id int64, body []byte) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url(fmt.Sprintf("/users/%d", id), nil), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "staybook/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("backend", "user_put", 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("backend", "user_put", resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return statusErr(resp)
}

// ---- Internals ----

func (c *Client) url(path string, v url.Values) string {
	if len(v) == 0 {
		return c.base + path
	}
	return c.base + path + "?" + v.Encode()
}

func addIDs(v url.Values, ids []int64) {
	for _, id := range ids {
		v.Add("id", strconv.FormatInt(id, 10))
	}
}

// get performs a GET with client-side rate limiting and retries, returning the raw body.
// Retries on transport errors, 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, endpoint, u string) ([]byte, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "staybook/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("backend", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}
		observability.ObserveExternal("backend", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
			resp.Body.Close()
			return b, err

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = &domain.StatusError{Code: resp.StatusCode}
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			err := statusErr(resp)
			resp.Body.Close()
			return nil, err
		}
	}

	if lastErr == nil {
		lastErr = errors.New("backend: retries exhausted")
	}
	return nil, lastErr
}

func statusErr(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &domain.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 100ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 100 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
