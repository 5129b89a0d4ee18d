package handlers

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/talentdao/talentdao-backend/internal/ledger"
)

// GetBalance returns the tracked ledger balance and, with a chain configured,
// the live reward-token balance. The token read is best effort; its failure
// never hides the tracked value.
func (h *Handler) GetBalance(c *gin.Context) {
	address := c.Param("wallet")
	state := h.store.Snapshot()

	response := gin.H{
		"wallet":  address,
		"balance": state.BalanceOf(address).String(),
	}
	if h.token != nil && common.IsHexAddress(address) {
		tokenBalance, err := h.token.BalanceOf(c.Request.Context(), common.HexToAddress(address))
		if err != nil {
			h.logger.Warnf("Token balance read failed for %s: %v", address, err)
		} else {
			response["token_balance"] = tokenBalance.String()
		}
	}
	c.JSON(http.StatusOK, response)
}

// GetTransactions returns the wallet's audit log, newest first.
func (h *Handler) GetTransactions(c *gin.Context) {
	address := c.Param("wallet")
	state := h.store.Snapshot()

	transactions := make([]ledger.Transaction, 0)
	for _, tx := range state.Transactions {
		if tx.User == address {
			transactions = append(transactions, tx)
		}
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "total": len(transactions)})
}
