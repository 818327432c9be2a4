package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Healthz reports liveness and collection sizes.
func (h *Handler) Healthz(c *gin.Context) {
	articles, categories := h.store.Counts()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"articles":   articles,
		"categories": categories,
	})
}
