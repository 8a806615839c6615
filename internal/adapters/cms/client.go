// internal/adapters/cms/client.go
package cms

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hostel_booking/internal/adapters/observability"
	"hostel_booking/internal/domain"
)

// Client reads hostel documents from the headless CMS query API
// (GET {base}?query=<GROQ>&$param=<json>, answering {"result": ...}).
type Client struct {
	base  string
	hc    *http.Client
	token string
	rl    *rate.Limiter
}

func New(base, token string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("CMS base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		hc:    &http.Client{Timeout: 20 * time.Second},
		token: token,
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

const hostelProjection = `{
  ...,
  "id": _id,
  "image": image.asset->url,
  "images": images[].asset->url,
  "warden": warden->{name, phone, email, "image": image.asset->url}
}`

const (
	queryHostelIDs = `*[_type == "hostel"]._id`
	queryHostels   = `*[_type == "hostel"] | order(name asc)` + hostelProjection
	queryHostel    = `*[_type == "hostel" && _id == $id][0]` + hostelProjection
)

// ---- domain.HostelSource ----

func (c *Client) ListHostelIDs(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.query(ctx, "hostel_ids", queryHostelIDs, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchHostel(ctx context.Context, id string) (domain.RawHostel, error) {
	return c.GetHostel(ctx, id)
}

// ---- domain.HostelRepository ----

func (c *Client) ListHostels(ctx context.Context) ([]domain.RawHostel, error) {
	var out []domain.RawHostel
	if err := c.query(ctx, "hostels", queryHostels, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetHostel(ctx context.Context, id string) (domain.RawHostel, error) {
	var out domain.RawHostel
	if err := c.query(ctx, "hostel", queryHostel, map[string]any{"id": id}, &out); err != nil {
		return nil, err
	}
	// the query API answers a missing document with result: null
	if out == nil {
		return nil, domain.NotFoundError{Resource: "hostel", ID: id}
	}
	return out, nil
}

// ---- Internals ----

type envelope struct {
	Result json.RawMessage `json:"result"`
}

func (c *Client) query(ctx context.Context, endpoint, groq string, params map[string]any, out any) error {
	q := url.Values{}
	q.Set("query", groq)
	for k, v := range params {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		q.Set("$"+k, string(b))
	}

	var env envelope
	start := time.Now()
	status, err := c.get(ctx, c.base+"?"+q.Encode(), &env)
	observability.ObserveExternal("cms", endpoint, status, time.Since(start))
	if err != nil {
		return err
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("cms: decode %s: %w", endpoint, err)
	}
	return nil
}

// get performs a GET with client-side rate limiting, retries and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
// It returns the last HTTP status seen (0 when none).
func (c *Client) get(ctx context.Context, u string, out any) (int, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return 0, err
	}

	const attempts = 4
	var lastErr error
	status := 0
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return 0, err
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "hostel-booking/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return status, ctx.Err()
			}
			lastErr = fmt.Errorf("cms: %w", err)
			if i < attempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return status, firstErr(ctx.Err(), lastErr)
		}
		status = resp.StatusCode

		switch {
		case status >= 200 && status < 300:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if errors.Is(err, io.EOF) {
				return status, nil
			}
			return status, err

		case status == http.StatusNotFound:
			resp.Body.Close()
			return status, fmt.Errorf("cms: %w", domain.NotFoundError{Resource: "document"})

		case status == http.StatusUnauthorized:
			resp.Body.Close()
			return status, fmt.Errorf("cms: %w", domain.ErrUnauthorized)

		case status == http.StatusForbidden:
			resp.Body.Close()
			return status, fmt.Errorf("cms: %w", domain.ErrForbidden)

		case status == http.StatusTooManyRequests || status >= 500:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("cms: remote %d", status)
			if i < attempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			return status, firstErr(ctx.Err(), lastErr)

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return status, fmt.Errorf("cms: bad status %d: %s", status, strings.TrimSpace(string(b)))
		}
	}
	return status, lastErr
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// sleepCtx waits for d or returns false early if ctx is done.
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
	h := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	return base + time.Duration(0.5*float64(b[0])/255.0*float64(base))
}
