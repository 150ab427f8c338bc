package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/faq-chat/internal/api"
	"github.com/suPer8Hu/faq-chat/internal/chat"
	"github.com/suPer8Hu/faq-chat/internal/common"
	"github.com/suPer8Hu/faq-chat/internal/credential"
)

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

// BackendHealth probes the FAQ backend through the API client, so the
// caller sees the same classification the session would.
func (h *Handler) BackendHealth(c *gin.Context) {
	res, err := h.API.Health(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, api.ErrAuth):
			common.Fail(c, http.StatusUnauthorized, 40100, "api key rejected")
		case errors.Is(err, api.ErrNetwork):
			common.Fail(c, http.StatusBadGateway, 50210, "backend unreachable")
		default:
			common.Fail(c, http.StatusBadGateway, 50211, "backend unhealthy")
		}
		return
	}
	common.OK(c, res)
}

func (h *Handler) GetTranscript(c *gin.Context) {
	common.OK(c, gin.H{
		"session_id": h.Sess.SessionID(),
		"state":      h.Sess.State().String(),
		"turns":      h.Sess.Transcript(),
	})
}

type submitReq struct {
	Question string `json:"question"`
}

func (h *Handler) Submit(c *gin.Context) {
	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	err := h.Sess.Submit(c.Request.Context(), req.Question)
	switch {
	case err == nil:
		// accepted; the answer lands in the transcript when it resolves
		common.OK(c, gin.H{"state": h.Sess.State().String()})
	case errors.Is(err, chat.ErrEmptyQuestion):
		common.Fail(c, http.StatusBadRequest, 10002, "question is empty")
	case errors.Is(err, chat.ErrQuestionTooLong):
		common.Fail(c, http.StatusBadRequest, 10003, "question is too long")
	case errors.Is(err, chat.ErrNoCredential):
		common.Fail(c, http.StatusUnauthorized, 40101, "no api key; store one first")
	case errors.Is(err, chat.ErrBusy):
		common.Fail(c, http.StatusConflict, 40901, "a request is already in flight")
	case errors.Is(err, chat.ErrClosed):
		common.Fail(c, http.StatusGone, 41001, "session is closed")
	default:
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}

// Search proxies a one-shot FAQ lookup to the backend, outside any
// session. Variant parameters mirror the backend's own defaults.
func (h *Handler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		common.Fail(c, http.StatusBadRequest, 10005, "q is required")
		return
	}

	generate := true
	if v := c.Query("generate_variants"); v != "" {
		generate, _ = strconv.ParseBool(v)
	}
	num, _ := strconv.Atoi(c.Query("num_variants"))

	res, err := h.API.SearchFAQs(c.Request.Context(), q, generate, num)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrAuth):
			common.Fail(c, http.StatusUnauthorized, 40100, "api key rejected")
		case errors.Is(err, api.ErrValidation):
			common.Fail(c, http.StatusBadRequest, 10006, "backend rejected the query")
		case errors.Is(err, api.ErrNetwork):
			common.Fail(c, http.StatusBadGateway, 50210, "backend unreachable")
		default:
			common.Fail(c, http.StatusBadGateway, 50211, "backend failed")
		}
		return
	}
	common.OK(c, res)
}

func (h *Handler) Retry(c *gin.Context) {
	h.Sess.Retry(c.Request.Context())
	common.OK(c, gin.H{"redirected": true})
}

type putCredentialReq struct {
	APIKey string `json:"api_key"`
}

func (h *Handler) PutCredential(c *gin.Context) {
	var req putCredentialReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := h.Gateway.Set(c.Request.Context(), req.APIKey); err != nil {
		if errors.Is(err, credential.ErrEmpty) {
			common.Fail(c, http.StatusBadRequest, 10004, "api key is empty")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to store api key")
		return
	}
	common.OK(c, gin.H{"stored": true})
}

func (h *Handler) DeleteCredential(c *gin.Context) {
	if err := h.Gateway.Clear(c.Request.Context()); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to clear api key")
		return
	}
	common.OK(c, gin.H{"cleared": true})
}
