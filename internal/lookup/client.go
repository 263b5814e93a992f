package lookup

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"worldprod/internal"
	"worldprod/internal/config"
)

const maxAttempts = 5

// Client talks to the page mapping service.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

type pagesPayload struct {
	Entries []apiEntry `json:"entries"`
	Cursor  *string    `json:"cursor"`
}

type apiEntry struct {
	Page      json.Number `json:"page"`
	Commodity string      `json:"commodity"`
	Units     string      `json:"units"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.LookupTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.LookupRateLimitRPS),
	}
}

// FetchAll pages through the mapping service until the cursor runs out or
// repeats.
func (c *Client) FetchAll(ctx context.Context) ([]internal.LookupEntry, error) {
	var all []internal.LookupEntry
	seen := map[string]struct{}{}
	cursor := ""

	for {
		query := map[string]string{}
		if cursor != "" {
			query["cursor"] = cursor
		}
		body, err := c.fetchJSON(ctx, "pages", query)
		if err != nil {
			return nil, err
		}

		var payload pagesPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, eris.Wrap(err, "lookup: decode pages")
		}
		for _, raw := range payload.Entries {
			page, err := raw.Page.Int64()
			if err != nil || strings.TrimSpace(raw.Commodity) == "" {
				continue
			}
			all = append(all, internal.LookupEntry{
				Page:     int(page),
				Category: strings.TrimSpace(raw.Commodity),
				Unit:     strings.TrimSpace(raw.Units),
			})
		}

		if payload.Cursor == nil || *payload.Cursor == "" || len(payload.Entries) == 0 {
			break
		}
		if _, ok := seen[*payload.Cursor]; ok {
			break
		}
		seen[*payload.Cursor] = struct{}{}
		cursor = *payload.Cursor
	}

	return all, nil
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	if strings.TrimSpace(c.cfg.LookupAPIToken) == "" {
		return nil, eris.New("lookup: missing LOOKUP_API_TOKEN")
	}
	if strings.TrimSpace(c.cfg.LookupAPIBaseURL) == "" {
		return nil, eris.New("lookup: missing LOOKUP_API_BASE_URL")
	}

	baseURL := strings.TrimRight(c.cfg.LookupAPIBaseURL, "/") + "/"
	u, err := url.Parse(baseURL + endpoint)
	if err != nil {
		return nil, eris.Wrap(err, "lookup: build url")
	}

	q := u.Query()
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.LookupAPIToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < maxAttempts {
				lastErr = eris.Errorf("lookup: status %d", resp.StatusCode)
				if err := sleepCtx(ctx, backoff(attempt)); err != nil {
					return nil, err
				}
				continue
			}
			return nil, eris.Errorf("lookup: api error status=%d body=%s", resp.StatusCode, string(body))
		}

		var apiResp apiResponse
		if err := json.Unmarshal(body, &apiResp); err != nil {
			return nil, eris.Wrap(err, "lookup: decode response")
		}
		if !apiResp.Success {
			return nil, eris.Errorf("lookup: api unsuccessful: %s %s", apiResp.Message, string(apiResp.Errors))
		}
		return apiResp.Data, nil
	}

	if lastErr == nil {
		lastErr = eris.New("lookup request failed")
	}
	return nil, lastErr
}

func backoff(attempt int) time.Duration {
	return time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
