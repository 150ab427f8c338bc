// Package handlers maps the chat controller onto a local HTTP surface.
// Thin glue only: no transcript or credential logic lives here.
package handlers

import (
	"context"

	"github.com/suPer8Hu/faq-chat/internal/api"
	"github.com/suPer8Hu/faq-chat/internal/chat"
	"github.com/suPer8Hu/faq-chat/internal/credential"
)

// Session is the controller surface the handlers need. The host may swap
// the controller behind it when a session is discarded and reopened.
type Session interface {
	SessionID() string
	State() chat.State
	Transcript() []chat.Turn
	Submit(ctx context.Context, question string) error
	Retry(ctx context.Context)
}

type Handler struct {
	Sess    Session
	Gateway *credential.Gateway
	API     *api.Client
}

func NewHandler(sess Session, gw *credential.Gateway, client *api.Client) *Handler {
	return &Handler{Sess: sess, Gateway: gw, API: client}
}
