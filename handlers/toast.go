package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"
)

const (
	toastEvent  = "showToast"
	flashCookie = "flash_toast"
)

type toast struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// SetToast queues a toast for the client. HTMX requests pick it up from the
// HX-Trigger header, plain form posts from a short-lived flash cookie.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	t := toast{Message: message, Type: toastType}
	addTrigger(e.Response.Header(), toastEvent, t)

	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	http.SetCookie(e.Response, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(string(data)),
		Path:     "/",
		MaxAge:   10,
		HttpOnly: false, // read by the page script
		SameSite: http.SameSiteLaxMode,
	})
}

// addTrigger sets one event in the HX-Trigger header, keeping any other
// events already present. A malformed existing header is replaced.
func addTrigger(h http.Header, event string, payload any) {
	events := map[string]any{}
	if existing := h.Get("HX-Trigger"); existing != "" {
		if err := json.Unmarshal([]byte(existing), &events); err != nil {
			zap.L().Warn("HX-Trigger is not valid JSON, replacing it", zap.String("value", existing))
			events = map[string]any{}
		}
	}
	events[event] = payload

	data, err := json.Marshal(events)
	if err != nil {
		zap.L().Warn("failed to encode HX-Trigger", zap.Error(err))
		return
	}
	h.Set("HX-Trigger", string(data))
}

// ErrorToast reports a failed generation. HX-Reswap: none keeps HTMX from
// swapping the plain-text body into the page while the toast still fires.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	SetToast(e, "error", message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.String(statusCode, message)
}
