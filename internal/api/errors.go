package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Every request failure is classified into exactly one of these before it
// leaves this package. Callers match with errors.Is.
var (
	// ErrAuth: the backend rejected the credential (401). The stored
	// credential has already been cleared by the time this is returned.
	ErrAuth = errors.New("faq api: unauthorized")

	// ErrValidation: the backend rejected the payload (4xx other than 401).
	ErrValidation = errors.New("faq api: invalid request")

	// ErrServer: backend-side failure (5xx) or an unparseable response body.
	ErrServer = errors.New("faq api: server error")

	// ErrNetwork: no response received.
	ErrNetwork = errors.New("faq api: network error")
)

type errorBody struct {
	Detail string `json:"detail"`
}

// errorDetail extracts the backend's {detail} message, falling back to a
// generic status line.
func errorDetail(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
	var decoded errorBody
	if err := json.Unmarshal(body, &decoded); err == nil && strings.TrimSpace(decoded.Detail) != "" {
		return strings.TrimSpace(decoded.Detail)
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}

func classifyStatus(status int, detail string) error {
	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrAuth, detail)
	case status >= 400 && status < 500:
		return fmt.Errorf("%w: %s", ErrValidation, detail)
	default:
		return fmt.Errorf("%w: %s", ErrServer, detail)
	}
}
