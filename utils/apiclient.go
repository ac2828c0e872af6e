package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// APIClient performs outbound JSON calls with retry. 4xx responses other
// than 429 are not retried.
type APIClient struct {
	client  *fasthttp.Client
	retry   RetryConfig
	timeout time.Duration
}

func NewAPIClient(retry RetryConfig) *APIClient {
	return &APIClient{
		client: &fasthttp.Client{
			Name:                "momentum",
			MaxConnsPerHost:     32,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: time.Minute,
		},
		retry:   retry,
		timeout: 10 * time.Second,
	}
}

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api call failed with status %d: %s", e.StatusCode, e.Body)
}

// Call sends body to url and returns the response body of the first 2xx
// answer.
func (a *APIClient) Call(ctx context.Context, method, url string, headers map[string]string, body []byte) ([]byte, error) {
	var out []byte
	err := Retry(ctx, a.retry, func(ctx context.Context) error {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(url)
		req.Header.SetMethod(method)
		req.Header.SetContentType("application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if body != nil {
			req.SetBody(body)
		}

		timeout := a.timeout
		if deadline, ok := ctx.Deadline(); ok {
			if remaining := time.Until(deadline); remaining < timeout {
				timeout = remaining
			}
		}
		if err := a.client.DoTimeout(req, resp, timeout); err != nil {
			return err
		}

		status := resp.StatusCode()
		if status >= 200 && status < 300 {
			out = append([]byte(nil), resp.Body()...)
			return nil
		}
		apiErr := &APIError{StatusCode: status, Body: string(resp.Body())}
		if status >= 400 && status < 500 && status != fasthttp.StatusTooManyRequests {
			return Permanent(apiErr)
		}
		return apiErr
	})
	if err != nil {
		LogError("api_call_failed", err, map[string]interface{}{
			"method": method,
			"url":    url,
		})
		return nil, err
	}
	return out, nil
}
