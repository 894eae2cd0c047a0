package util

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/ordishs/gocore"
)

var (
	// seconds, used when ctx carries no deadline
	httpRequestTimeout, _ = gocore.Config().GetInt("http_timeout", 60)
)

// DoHTTPRequest GETs url, or POSTs requestBody as JSON when one is given, and
// returns the response body. Connection failures and 5xx responses map to
// retryable error codes, any other non 2xx status does not.
func DoHTTPRequest(ctx context.Context, url string, requestBody ...[]byte) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, time.Duration(httpRequestTimeout)*time.Second)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("failed to create http request", err)
	}

	if len(requestBody) > 0 && requestBody[0] != nil {
		req.Body = io.NopCloser(bytes.NewReader(requestBody[0]))
		req.ContentLength = int64(len(requestBody[0]))
		req.Method = http.MethodPost
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewNetworkTimeoutError("http request [%s] timed out", url, err)
		}

		return nil, errors.NewNetworkError("failed to do http request [%s]", url, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetworkError("http request [%s] failed to read body", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errFn := errors.NewInvalidArgumentError

		switch {
		case resp.StatusCode == http.StatusNotFound:
			errFn = errors.NewNotFoundError
		case resp.StatusCode >= 500:
			errFn = errors.NewServiceUnavailableError
		}

		if len(body) > 0 {
			return nil, errFn("http request [%s] returned status code [%d] with body [%s]", url, resp.StatusCode, string(body))
		}

		return nil, errFn("http request [%s] returned status code [%d]", url, resp.StatusCode)
	}

	if resp.Header.Get("Content-Type") == "text/html" {
		return nil, errors.NewServiceError("http request [%s] returned HTML - assume bad URL", url)
	}

	return body, nil
}
