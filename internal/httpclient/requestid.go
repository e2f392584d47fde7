// ABOUTME: Request interceptor stamping each request with an X-Request-Id
// ABOUTME: Retries keep the id of the request they replay

package httpclient

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries a per-request correlation id
const RequestIDHeader = "X-Request-Id"

// RequestID returns a request interceptor that sets X-Request-Id when absent.
// A resubmitted request keeps the id of the original call.
func RequestID() RequestInterceptor {
	return func(req *http.Request) (*http.Request, error) {
		if req.Header.Get(RequestIDHeader) == "" {
			req.Header.Set(RequestIDHeader, uuid.NewString())
		}
		return req, nil
	}
}
