package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports service health and a summary of the ledger.
func (h *Handler) HealthCheck(c *gin.Context) {
	state := h.store.Snapshot()

	response := gin.H{
		"status":    "ok",
		"service":   "marketplace",
		"timestamp": time.Now().Unix(),
		"ledger": gin.H{
			"schema_version": state.SchemaVersion,
			"jobs":           len(state.Jobs),
			"users":          len(state.Users),
			"transactions":   len(state.Transactions),
		},
	}
	if h.reconciler != nil {
		response["sync"] = h.reconciler.Status()
	}
	c.JSON(http.StatusOK, response)
}
