package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// httpStatusError is a non-2xx ORS response.
type httpStatusError struct {
	Code    int
	Message string
	// RetryAfter is the server-requested delay on 429/503, zero when absent.
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("ors status %d: %s", e.Code, e.Message)
}

// ORS reports failures either as {"error": "text"} or
// {"error": {"code": 2010, "message": "text"}}.
type orsErrorBody struct {
	Error json.RawMessage `json:"error"`
}

func orsErrorMessage(body []byte) string {
	var decoded orsErrorBody
	if err := json.Unmarshal(body, &decoded); err == nil && len(decoded.Error) > 0 {
		var text string
		if json.Unmarshal(decoded.Error, &text) == nil {
			return text
		}
		var detailed struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(decoded.Error, &detailed) == nil && detailed.Message != "" {
			return fmt.Sprintf("%s (ors code %d)", detailed.Message, detailed.Code)
		}
	}
	return strings.TrimSpace(string(body))
}

func (o *ORSClient) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// do sends one attempt. Every attempt, retries included, spends a limiter token.
func (o *ORSClient) do(req *http.Request) (*http.Response, error) {
	if err := o.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := o.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code:       resp.StatusCode,
			Message:    orsErrorMessage(b),
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return resp, nil
}

func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// retryable reports whether a failed attempt is worth repeating:
// quota and gateway statuses, and network errors not caused by ctx.
func retryable(ctx context.Context, err error) bool {
	var he *httpStatusError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr) && ctx.Err() == nil
}

// doWithRetry runs up to maxAttempts attempts with exponential backoff.
// A Retry-After header longer than the current backoff wins, unless it would
// outlive ctx, in which case the last error is returned immediately.
func (o *ORSClient) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	backoff := o.backoff

	var lastErr error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := o.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(ctx, err) || attempt == o.maxAttempts {
			return nil, lastErr
		}

		wait := backoff
		var he *httpStatusError
		if errors.As(err, &he) && he.RetryAfter > wait {
			wait = he.RetryAfter
		}
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
			return nil, lastErr
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}

// postJSON sends payload to endpoint with retries and decodes the reply into out.
func (o *ORSClient) postJSON(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		if strings.HasSuffix(endpoint, "/geojson") {
			req.Header.Set("Accept", "application/geo+json, application/json")
		}
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
