package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blogia/internal/apperror"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation", apperror.ValidationFailed("title", "title is required"), http.StatusBadRequest, "validation_error"},
		{"authentication", apperror.Unauthenticated("no token"), http.StatusUnauthorized, "unauthorized"},
		{"authorization", apperror.Forbidden("post"), http.StatusForbidden, "forbidden"},
		{"not found", apperror.NotFound("post", "abc"), http.StatusNotFound, "not_found"},
		{"rate limited", apperror.RateLimited(30 * time.Second), http.StatusTooManyRequests, "rate_limited"},
		{"configuration", apperror.Configuration(), http.StatusServiceUnavailable, "not_configured"},
		{"timeout", apperror.Timeout("fetch posts", time.Second), http.StatusGatewayTimeout, "timeout"},
		{"network", apperror.Network(errors.New("connection refused")), http.StatusBadGateway, "upstream_unreachable"},
		{"server", apperror.FromBackend(500, "", "", "post"), http.StatusBadGateway, "upstream_error"},
		{"unclassified", errors.New("surprise"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantType, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestWriteErrorRetryAfterHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, apperror.RateLimited(30*time.Second))
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))

	rec = httptest.NewRecorder()
	writeError(rec, apperror.RateLimited(200*time.Millisecond))
	assert.Equal(t, "1", rec.Header().Get("Retry-After"), "sub-second waits round up")
}

func TestWriteErrorCarriesValidationField(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, apperror.ValidationFailed("email", "email format is invalid"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "email", body.Field)
}

func TestWriteErrorNeverLeaksInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("pq: connection string postgres://admin:hunter2@db"))

	assert.NotContains(t, rec.Body.String(), "hunter2")
}

func TestWriteErrorWrappedErrorsStillMap(t *testing.T) {
	wrapped := fmt.Errorf("loading comments: %w", apperror.NotFound("comment", "c-1"))

	rec := httptest.NewRecorder()
	writeError(rec, wrapped)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
