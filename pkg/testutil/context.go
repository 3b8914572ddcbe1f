package testutil

import (
	"net/http"

	"regoffice/pkg/requestcontext"
)

// WithUser stamps an authenticated back-office user onto the request,
// simulating what the auth middleware does.
func WithUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithRequestID stamps a correlation ID onto the request.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
