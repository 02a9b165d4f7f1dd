package linnworks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/orderdash/backend/internal/domain/orders"
	"github.com/orderdash/backend/internal/domain/syncstate"
)

// maxResponseSize is the maximum allowed response size from the Linnworks API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// fetchBackoff is the delay before each retry of a failed page request.
// A page is abandoned after the ladder is exhausted.
var fetchBackoff = []time.Duration{time.Second, 3 * time.Second, 10 * time.Second}

// timeFormat is the timestamp format the Linnworks API expects.
const timeFormat = "2006-01-02 15:04:05"

// Client talks to the region API server assigned by the session manager.
// All order payloads come back as raw maps; interpreting them is the
// normalizer's job, not the transport's.
type Client struct {
	config     *LinnworksConfig
	sessions   *SessionManager
	httpClient *http.Client
	logger     *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates an API client on top of an authorized session manager.
func NewClient(config *LinnworksConfig, sessions *SessionManager, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config:   config,
		sessions: sessions,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger,
		sleep:  sleepContext,
	}, nil
}

// ---------------------------------------------------------------------------
// Open Orders
// ---------------------------------------------------------------------------

// OpenOrdersCount returns how many orders the configured open-orders view
// currently holds, which bounds the page loop.
func (c *Client) OpenOrdersCount(ctx context.Context) (int, error) {
	params := url.Values{}
	params.Set("ViewId", strconv.Itoa(c.config.OpenOrdersViewID))
	params.Set("LocationId", c.config.LocationID)

	body, err := c.postWithRetry(ctx, "/api/OpenOrders/GetOpenOrdersCount", params)
	if err != nil {
		return 0, err
	}

	// The endpoint returns either a bare number or a stats object
	// depending on API version.
	var count int
	if err := json.Unmarshal(body, &count); err == nil {
		return count, nil
	}
	var stats OpenOrdersViewStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return 0, fmt.Errorf("%w: failed to parse open orders count: %v", syncstate.ErrFetchFailed, err)
	}
	return stats.TotalOrders, nil
}

// FetchOpenOrdersPage fetches a single page of the configured open-orders
// view, optionally bounded to a receipt-date window.
func (c *Client) FetchOpenOrdersPage(ctx context.Context, window OpenOrdersWindow, pageNumber int) (*OpenOrdersPage, error) {
	params := url.Values{}
	params.Set("ViewId", strconv.Itoa(c.config.OpenOrdersViewID))
	params.Set("LocationId", c.config.LocationID)
	params.Set("EntriesPerPage", strconv.Itoa(c.config.PageSize))
	params.Set("PageNumber", strconv.Itoa(pageNumber))
	if !window.From.IsZero() {
		params.Set("receivedFrom", window.From.UTC().Format(timeFormat))
	}
	if !window.To.IsZero() {
		params.Set("receivedTo", window.To.UTC().Format(timeFormat))
	}

	body, err := c.postWithRetry(ctx, "/api/OpenOrders/GetOpenOrders", params)
	if err != nil {
		return nil, err
	}

	var page OpenOrdersPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: failed to parse open orders page %d: %v", syncstate.ErrFetchFailed, pageNumber, err)
	}
	return &page, nil
}

// FetchAllOpenOrders pages through the whole open-orders view and returns
// every raw order row. The view-stats call bounds the page loop; a page that
// fails after all retries is logged and skipped, and the pages that did
// arrive are still returned. An empty view yields an empty slice, not an
// error.
func (c *Client) FetchAllOpenOrders(ctx context.Context) ([]orders.RawOrder, error) {
	count, err := c.OpenOrdersCount(ctx)
	switch {
	case err != nil:
		// The stats call is advisory; the loop bounds itself on TotalPages
		// when it is unavailable.
		c.logger.Warn("open orders count unavailable", zap.Error(err))
		count = -1
	case count == 0:
		return []orders.RawOrder{}, nil
	}

	first, err := c.FetchOpenOrdersPage(ctx, OpenOrdersWindow{}, 1)
	if err != nil {
		return nil, err
	}

	result := make([]orders.RawOrder, 0, len(first.Data))
	result = appendRawOrders(result, first.Data)

	totalPages := first.TotalPages
	if count > 0 {
		if pages := (count + c.config.PageSize - 1) / c.config.PageSize; pages < totalPages {
			totalPages = pages
		}
	}
	for page := 2; page <= totalPages; page++ {
		if len(result) >= c.config.MaxItems {
			c.logger.Warn("open orders fetch hit item cap",
				zap.Int("max_items", c.config.MaxItems),
				zap.Int("page", page))
			break
		}
		p, err := c.FetchOpenOrdersPage(ctx, OpenOrdersWindow{}, page)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			c.logger.Error("skipping open orders page after retries",
				zap.Int("page", page),
				zap.Error(err))
			continue
		}
		result = appendRawOrders(result, p.Data)
	}

	return capOrders(result, c.config.MaxItems), nil
}

// ---------------------------------------------------------------------------
// Processed Orders
// ---------------------------------------------------------------------------

// SearchProcessedOrdersPage runs one page of a processed-orders date search.
// The filter's narrowing fields (channel, status, reference, SKU, tag,
// min/max order value) are serialized only when set.
func (c *Client) SearchProcessedOrdersPage(ctx context.Context, filter ProcessedOrderFilter) (*ProcessedOrdersPage, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = c.config.PageSize
	}
	if filter.PageNumber <= 0 {
		filter.PageNumber = 1
	}

	params := url.Values{}
	params.Set("from", filter.From.UTC().Format(timeFormat))
	params.Set("to", filter.To.UTC().Format(timeFormat))
	params.Set("dateType", "processed")
	params.Set("pageNum", strconv.Itoa(filter.PageNumber))
	params.Set("numEntriesPerPage", strconv.Itoa(filter.PageSize))
	filter.applySearch(params)

	body, err := c.postWithRetry(ctx, "/api/ProcessedOrders/SearchProcessedOrdersPaged", params)
	if err != nil {
		return nil, err
	}

	var envelope processedOrdersEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: failed to parse processed orders page %d: %v", syncstate.ErrFetchFailed, filter.PageNumber, err)
	}
	return &envelope.ProcessedOrders, nil
}

// FetchAllProcessedOrders pages through every processed order in the window.
// Failed pages are logged and skipped the same way open-order pages are.
func (c *Client) FetchAllProcessedOrders(ctx context.Context, from, to time.Time) ([]orders.RawOrder, error) {
	filter := ProcessedOrderFilter{From: from, To: to, PageNumber: 1, PageSize: c.config.PageSize}

	first, err := c.SearchProcessedOrdersPage(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := make([]orders.RawOrder, 0, len(first.Data))
	result = appendRawOrders(result, first.Data)

	totalPages := first.TotalPages
	for page := 2; page <= totalPages; page++ {
		if len(result) >= c.config.MaxItems {
			c.logger.Warn("processed orders fetch hit item cap",
				zap.Int("max_items", c.config.MaxItems),
				zap.Int("page", page))
			break
		}
		filter.PageNumber = page
		p, err := c.SearchProcessedOrdersPage(ctx, filter)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			c.logger.Error("skipping processed orders page after retries",
				zap.Int("page", page),
				zap.Error(err))
			continue
		}
		result = appendRawOrders(result, p.Data)
	}

	return capOrders(result, c.config.MaxItems), nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// postWithRetry performs a POST against the session's API server, retrying
// transient failures on the backoff ladder. Authentication failures
// invalidate the cached session once before the next attempt.
func (c *Client) postWithRetry(ctx context.Context, path string, params url.Values) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= len(fetchBackoff); attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, fetchBackoff[attempt-1]); err != nil {
				return nil, err
			}
			c.logger.Warn("retrying linnworks request",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
		}

		body, retryable, err := c.doRequest(ctx, path, params)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s: %v", syncstate.ErrFetchFailed, path, lastErr)
}

// doRequest performs one HTTP round trip. The second return value reports
// whether the failure is worth retrying.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, bool, error) {
	session, err := c.sessions.GetValidSession(ctx)
	if err != nil {
		return nil, false, err
	}

	endpoint := session.Server + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader([]byte(params.Encode())))
	if err != nil {
		return nil, false, fmt.Errorf("linnworks: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", session.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport errors are transient by assumption.
		return nil, true, fmt.Errorf("%w: %v", syncstate.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, true, fmt.Errorf("linnworks: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, false, nil
	case resp.StatusCode == http.StatusUnauthorized:
		// The token died server-side; drop it so the retry re-authorizes.
		c.sessions.Invalidate()
		return nil, true, fmt.Errorf("%w: HTTP 401: %s", syncstate.ErrAuthenticationFailed, truncate(string(body), 200))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("%w: %s", syncstate.ErrRateLimited, path)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("%w: HTTP %d: %s", syncstate.ErrFetchFailed, resp.StatusCode, truncate(string(body), 200))
	default:
		return nil, false, fmt.Errorf("%w: HTTP %d: %s", syncstate.ErrFetchFailed, resp.StatusCode, truncate(string(body), 200))
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func appendRawOrders(dst []orders.RawOrder, rows []map[string]any) []orders.RawOrder {
	for _, row := range rows {
		if row == nil {
			continue
		}
		dst = append(dst, orders.RawOrder(row))
	}
	return dst
}

func capOrders(raw []orders.RawOrder, max int) []orders.RawOrder {
	if max > 0 && len(raw) > max {
		return raw[:max]
	}
	return raw
}

// sleepContext waits for the duration unless the context is cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
