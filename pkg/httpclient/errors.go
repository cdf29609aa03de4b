package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// UpstreamErrorResponse matches the error body shape used by OpenAI-compatible
// chat completion APIs.
type UpstreamErrorResponse struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and produces a
// descriptive error. If the body matches the OpenAI-style error format the
// message and code are preserved; otherwise the raw body is included.
//
// The caller should only invoke this when resp.StatusCode indicates an error.
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var upstream UpstreamErrorResponse
	if json.Unmarshal(bodyBytes, &upstream) == nil && upstream.Error != nil {
		return fmt.Errorf("%s returned status %d (%s): %s",
			serviceName, resp.StatusCode, upstream.Error.Code, upstream.Error.Message)
	}

	return fmt.Errorf("%s returned status %d: %s", serviceName, resp.StatusCode, string(bodyBytes))
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
// Client errors indicate a malformed request and are not worth retrying.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
