package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentdao/talentdao-backend/internal/ledger"
	"github.com/talentdao/talentdao-backend/internal/marketplace/metrics"
	"github.com/talentdao/talentdao-backend/internal/wallet"
)

// ConnectWallet establishes a wallet session. A user record is created on
// first connect; a decline in the wallet UI is a normal outcome, not an
// error.
func (h *Handler) ConnectWallet(c *gin.Context) {
	session, err := h.sessions.Connect(c.Request.Context())
	if err != nil {
		if errors.Is(err, wallet.ErrUserCancelled) {
			c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
			return
		}
		h.respondError(c, err)
		return
	}

	address := session.Address.Hex()
	err = h.store.Mutate(c.Request.Context(), func(s *ledger.State) error {
		s.CurrentUser = address
		if _, exists := s.Users[address]; !exists {
			s.Users[address] = ledger.User{Wallet: address, Role: ledger.RoleWorker}
		}
		return nil
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	metrics.WalletSessionsActive.Set(1)
	c.JSON(http.StatusOK, gin.H{
		"status":  "connected",
		"wallet":  address,
		"source":  session.Source,
	})
}

// DisconnectWallet clears the local session. On-chain approvals are not
// revoked.
func (h *Handler) DisconnectWallet(c *gin.Context) {
	h.sessions.Disconnect()
	err := h.store.Mutate(c.Request.Context(), func(s *ledger.State) error {
		s.CurrentUser = ""
		return nil
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	metrics.WalletSessionsActive.Set(0)
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.sessions.Active()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"connected": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"connected": true,
		"wallet":    session.Address.Hex(),
		"source":    session.Source,
	})
}

func (h *Handler) GetUser(c *gin.Context) {
	address := c.Param("wallet")
	state := h.store.Snapshot()
	user, ok := state.Users[address]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

type updateProfileRequest struct {
	Role    ledger.Role `json:"role"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Company string      `json:"company"`
	Website string      `json:"website"`
	Skills  []string    `json:"skills"`
}

// UpdateProfile updates the connected user's profile. Role can only be set
// here, never inferred.
func (h *Handler) UpdateProfile(c *gin.Context) {
	address, ok := h.activeWallet(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role != "" && req.Role != ledger.RoleWorker && req.Role != ledger.RoleRequester {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be worker or requester"})
		return
	}

	var updated ledger.User
	err := h.store.Mutate(c.Request.Context(), func(s *ledger.State) error {
		user := s.Users[address]
		user.Wallet = address
		if req.Role != "" {
			user.Role = req.Role
		}
		if req.Name != "" {
			user.Name = req.Name
		}
		if req.Email != "" {
			user.Email = req.Email
		}
		if req.Company != "" {
			user.Company = req.Company
		}
		if req.Website != "" {
			user.Website = req.Website
		}
		if req.Skills != nil {
			user.Skills = req.Skills
		}
		s.Users[address] = user
		updated = user
		return nil
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// CompleteKYC marks the connected user as verified. Verification itself
// happens with an external provider; this records the outcome.
func (h *Handler) CompleteKYC(c *gin.Context) {
	address, ok := h.activeWallet(c)
	if !ok {
		return
	}

	err := h.store.Mutate(c.Request.Context(), func(s *ledger.State) error {
		user := s.Users[address]
		user.Wallet = address
		user.KYCCompleted = true
		s.Users[address] = user
		return nil
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.logger.Infof("KYC completed for %s", address)
	c.JSON(http.StatusOK, gin.H{"status": "verified", "wallet": address})
}
