package handlers

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// ListCredentials returns the wallet's completion NFTs with resolved
// metadata. Unavailable in local mode.
func (h *Handler) ListCredentials(c *gin.Context) {
	if h.credentials == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "credential lookups require chain connectivity"})
		return
	}

	address := c.Param("wallet")
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	}

	list, err := h.credentials.List(c.Request.Context(), common.HexToAddress(address))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"credentials": list, "total": len(list)})
}
