package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toastFrom(t *testing.T, rec *httptest.ResponseRecorder) (map[string]json.RawMessage, toast) {
	t.Helper()
	trigger := rec.Header().Get("HX-Trigger")
	require.NotEmpty(t, trigger, "expected HX-Trigger header")

	var events map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(trigger), &events), "HX-Trigger is not valid JSON")

	var got toast
	require.Contains(t, events, toastEvent)
	require.NoError(t, json.Unmarshal(events[toastEvent], &got))
	return events, got
}

func TestSetToast(t *testing.T) {
	tests := []struct {
		toastType string
		message   string
	}{
		{"success", "Generated 12 tests in 3 sections"},
		{"error", `sheet "Tests" not found in workbook`},
		{"info", "line1\nline2"},
		{"warning", `<script>alert("x")</script>`},
		{"success", "Final PDF has 42 pages ✔"},
	}
	for _, tt := range tests {
		t.Run(tt.toastType+"/"+tt.message, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e := &core.RequestEvent{}
			e.Response = rec

			SetToast(e, tt.toastType, tt.message)

			_, got := toastFrom(t, rec)
			assert.Equal(t, toast{Message: tt.message, Type: tt.toastType}, got)
		})
	}
}

func TestSetToast_KeepsOtherEvents(t *testing.T) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec
	rec.Header().Set("HX-Trigger", `{"reportReady":{"pages":"5"}}`)

	SetToast(e, "success", "Final PDF has 5 pages")

	events, got := toastFrom(t, rec)
	assert.Equal(t, "Final PDF has 5 pages", got.Message)
	assert.JSONEq(t, `{"pages":"5"}`, string(events["reportReady"]))
}

func TestSetToast_ReplacesInvalidTrigger(t *testing.T) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec
	rec.Header().Set("HX-Trigger", "notValidJSON")

	SetToast(e, "error", "Overwritten")

	events, got := toastFrom(t, rec)
	assert.Len(t, events, 1)
	assert.Equal(t, "Overwritten", got.Message)
}

func TestSetToast_FlashCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec

	SetToast(e, "success", "Generated 2 tests in 1 sections")

	res := rec.Result()
	var flash *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == flashCookie {
			flash = c
		}
	}
	require.NotNil(t, flash)
	assert.Equal(t, 10, flash.MaxAge)

	raw, err := url.QueryUnescape(flash.Value)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Generated 2 tests in 1 sections","type":"success"}`, raw)
}

func TestErrorToast(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/reports/docx", nil)
	e := &core.RequestEvent{}
	e.Request = req
	e.Response = rec

	err := ErrorToast(e, http.StatusBadRequest, "missing required columns: Step")
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "none", rec.Header().Get("HX-Reswap"))
	assert.Equal(t, "missing required columns: Step", rec.Body.String())

	_, got := toastFrom(t, rec)
	assert.Equal(t, "error", got.Type)
}
