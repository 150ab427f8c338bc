package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/faq-chat/internal/chat"
)

type stubSession struct {
	submitErr error
	submitted []string
}

func (s *stubSession) SessionID() string         { return "01TESTSESSION0000000000000" }
func (s *stubSession) State() chat.State         { return chat.StateIdle }
func (s *stubSession) Transcript() []chat.Turn   { return nil }
func (s *stubSession) Retry(ctx context.Context) {}

func (s *stubSession) Submit(ctx context.Context, question string) error {
	s.submitted = append(s.submitted, question)
	return s.submitErr
}

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func postAsk(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/chat/ask", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Submit(c)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return w, env
}

func TestSubmit_NoCredentialMapsToUnauthorized(t *testing.T) {
	sess := &stubSession{submitErr: chat.ErrNoCredential}
	h := NewHandler(sess, nil, nil)

	w, env := postAsk(t, h, `{"question":"q"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if env.Code != 40101 {
		t.Fatalf("expected code 40101, got %d", env.Code)
	}
}

func TestSubmit_BusyMapsToConflict(t *testing.T) {
	sess := &stubSession{submitErr: chat.ErrBusy}
	h := NewHandler(sess, nil, nil)

	w, env := postAsk(t, h, `{"question":"q"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if env.Code != 40901 {
		t.Fatalf("expected code 40901, got %d", env.Code)
	}
}

func TestSubmit_AcceptedReportsState(t *testing.T) {
	sess := &stubSession{}
	h := NewHandler(sess, nil, nil)

	w, env := postAsk(t, h, `{"question":"how do refunds work"}`)
	if w.Code != http.StatusOK || env.Code != 0 {
		t.Fatalf("expected ok envelope, got status %d code %d", w.Code, env.Code)
	}
	if len(sess.submitted) != 1 || sess.submitted[0] != "how do refunds work" {
		t.Fatalf("question not forwarded: %v", sess.submitted)
	}
}
