package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestRequestLogger_AssignsID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/reports/docx", nil)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(t, req, rec)

	require.NoError(t, RequestLogger(zaptest.NewLogger(t))(e))

	id := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err, "expected a uuid request id, got %q", id)
	assert.NotSame(t, zap.L(), GetLogger(e.Request))
}

func TestRequestLogger_KeepsClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "trial-42")
	rec := httptest.NewRecorder()

	require.NoError(t, RequestLogger(zap.NewNop())(newTestRequestEvent(t, req, rec)))
	assert.Equal(t, "trial-42", rec.Header().Get(RequestIDHeader))
}

func TestGetLogger_Fallback(t *testing.T) {
	assert.Same(t, zap.L(), GetLogger(nil))
	assert.Same(t, zap.L(), GetLogger(httptest.NewRequest(http.MethodGet, "/", nil)))
}
