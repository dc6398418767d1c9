package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap/zaptest"

	"dpreport/services"
	"dpreport/testhelpers"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(t *testing.T, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = testhelpers.NewTestApp(t)
	e.Request = req
	e.Response = rec
	return e
}

// testDefaults are the default settings with a logo path that does not exist.
func testDefaults(t *testing.T) services.DocumentConfig {
	cfg := services.DefaultDocumentConfig()
	cfg.LogoPath = filepath.Join(t.TempDir(), "logo.png")
	return cfg
}

func testGenerator(t *testing.T) *services.Generator {
	return services.NewGenerator(zaptest.NewLogger(t), nil)
}

// postForm runs handler against a multipart POST and returns the recorder.
func postForm(t *testing.T, handler func(*core.RequestEvent) error, path string, fields map[string]string, files map[string]testhelpers.FormFile) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := testhelpers.Multipart(t, fields, files)
	return post(t, handler, path, body, contentType)
}

func post(t *testing.T, handler func(*core.RequestEvent) error, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	if err := handler(newTestRequestEvent(t, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}
