package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/faq-chat/internal/common"
	"github.com/suPer8Hu/faq-chat/internal/httpapi/handlers"
	"github.com/suPer8Hu/faq-chat/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	r.GET("/ping", h.Ping)
	r.GET("/health", h.BackendHealth)

	r.GET("/chat/transcript", h.GetTranscript)
	r.GET("/chat/search", h.Search)
	r.POST("/chat/ask", h.Submit)
	r.POST("/chat/retry", h.Retry)

	r.PUT("/credential", h.PutCredential)
	r.DELETE("/credential", h.DeleteCredential)

	return r
}
