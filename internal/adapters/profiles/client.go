package profiles

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"homio/internal/adapters/observability"
	"homio/internal/domain"
)

var ErrUnauthorized = errors.New("profiles: unauthorized")

// Client talks to the profiles service. Profiles are owned elsewhere; this
// service only needs lookups and token resolution.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("profiles base URL is required")
	}
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: 10 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type profilePayload struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	DisplayName string `json:"displayName"`
}

func (c *Client) GetProfile(ctx context.Context, id int64) (domain.Profile, error) {
	return c.fetch(ctx, fmt.Sprintf("%s/v1/profiles/%d", c.base, id), "", "get_profile")
}

// Authenticate resolves a bearer token to the profile it belongs to.
func (c *Client) Authenticate(ctx context.Context, token string) (domain.Profile, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Profile{}, ErrUnauthorized
	}
	return c.fetch(ctx, c.base+"/v1/profiles/me", token, "authenticate")
}

// fetch performs a GET with client-side rate limiting and retries. Auth checks
// sit on the hot request path, so transient 429/5xx answers are retried with
// backoff, honoring Retry-After.
func (c *Client) fetch(ctx context.Context, url, bearer, endpoint string) (domain.Profile, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return domain.Profile{}, err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return domain.Profile{}, err
		}
		req.Header.Set("Accept", "application/json")
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return domain.Profile{}, ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return domain.Profile{}, ctx.Err()
			}
			return domain.Profile{}, lastErr
		}
		observability.ObserveExternal("profiles", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			var p profilePayload
			err := json.NewDecoder(resp.Body).Decode(&p)
			resp.Body.Close()
			if err != nil {
				return domain.Profile{}, err
			}
			return domain.Profile{
				ID:          p.ID,
				Type:        domain.ProfileType(strings.ToUpper(p.Type)),
				DisplayName: p.DisplayName,
			}, nil

		case http.StatusNotFound:
			resp.Body.Close()
			return domain.Profile{}, fmt.Errorf("profile: %w", domain.ErrNotFound)

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return domain.Profile{}, ErrUnauthorized

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("profiles: remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return domain.Profile{}, ctx.Err()
			}
			return domain.Profile{}, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return domain.Profile{}, fmt.Errorf("profiles: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return domain.Profile{}, lastErr
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

// retryAfter parses Retry-After (seconds or HTTP-date). 0 if absent/invalid.
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

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% crypto/rand jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
