package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentdao/talentdao-backend/internal/marketplace/metrics"
)

// TriggerSync reconciles the ledger against the chain. Unforced syncs inside
// the cooldown window are acknowledged without hitting the chain; ?force=true
// bypasses the cooldown.
func (h *Handler) TriggerSync(c *gin.Context) {
	if h.reconciler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sync requires chain connectivity"})
		return
	}

	force := c.Query("force") == "true"
	track := metrics.TrackSync()

	result, err := h.reconciler.Sync(c.Request.Context(), force)
	if err != nil {
		track("error")
		h.respondError(c, err)
		return
	}
	if result.Skipped {
		track("skipped")
	} else {
		track("success")
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) SyncStatus(c *gin.Context) {
	if h.reconciler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sync requires chain connectivity"})
		return
	}
	c.JSON(http.StatusOK, h.reconciler.Status())
}
