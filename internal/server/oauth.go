package server

import (
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"github.com/desertthunder/mcpspotify/internal/shared"
)

var (
	//go:embed templates/callback_success.html
	callbackSuccessHTML string

	//go:embed templates/callback_failure.html
	callbackFailureHTML string

	successPage = template.Must(template.New("success").Parse(callbackSuccessHTML))
	failurePage = template.Must(template.New("failure").Parse(callbackFailureHTML))
)

// CallbackResult contains the outcome of the single authorization redirect.
type CallbackResult struct {
	Code string
	err  error
}

func (c CallbackResult) Error() error {
	return c.err
}

// CallbackHandler captures the authorization code from exactly one redirect.
//
// It does not exchange the code; the result is handed to whoever reads [CallbackHandler.Result].
type CallbackHandler struct {
	path        string
	state       string
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a handler serving path. When state is non-empty the redirect must echo it.
func NewCallbackHandler(path, state string) *CallbackHandler {
	if path == "" {
		path = "/"
	}
	return &CallbackHandler{
		path:       path,
		state:      state,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP handles the redirect: 200 and the code when present, 400 otherwise.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	query := r.URL.Query()

	if h.state != "" && query.Get("state") != h.state {
		h.fail(w, "The response did not match this login attempt.", fmt.Errorf("%w: %w", shared.ErrAuthorizationDenied, shared.ErrStateMismatch))
		return
	}

	code := query.Get("code")
	if code == "" {
		reason := strings.TrimSpace(strings.Join([]string{query.Get("error"), query.Get("error_description")}, " "))
		if reason == "" {
			reason = "no authorization code in redirect"
		}
		h.fail(w, reason, fmt.Errorf("%w: %s", shared.ErrAuthorizationDenied, reason))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = successPage.Execute(w, nil)

	h.Send(CallbackResult{Code: code})
}

func (h *CallbackHandler) fail(w http.ResponseWriter, reason string, err error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	_ = failurePage.Execute(w, map[string]string{"Reason": reason})

	h.Send(CallbackResult{err: err})
}

// Send sends the result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}
