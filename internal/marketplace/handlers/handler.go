package handlers

import (
	"context"
	"errors"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/talentdao/talentdao-backend/internal/credentials"
	"github.com/talentdao/talentdao-backend/internal/ledger"
	"github.com/talentdao/talentdao-backend/internal/lifecycle"
	"github.com/talentdao/talentdao-backend/internal/reconcile"
	"github.com/talentdao/talentdao-backend/internal/wallet"
	"github.com/talentdao/talentdao-backend/pkg/logging"
)

// Reconciler is the sync surface the handler needs. Satisfied by
// reconcile.Service.
type Reconciler interface {
	Sync(ctx context.Context, force bool) (reconcile.Result, error)
	Status() reconcile.Status
}

// CredentialLister lists a worker's completion credentials. Satisfied by
// credentials.Service.
type CredentialLister interface {
	List(ctx context.Context, owner common.Address) ([]credentials.Credential, error)
}

// TokenBalanceReader reads the wallet's live reward-token balance from the
// chain. Satisfied by contracts.RewardToken.
type TokenBalanceReader interface {
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
}

type Handler struct {
	store       *ledger.Store
	engine      *lifecycle.Engine
	sessions    *wallet.SessionManager
	reconciler  Reconciler
	credentials CredentialLister
	token       TokenBalanceReader
	logger      logging.Logger
}

// NewHandler wires the request handlers. reconciler, credentialLister, and
// token may be nil in local mode; the matching endpoints then report
// unavailable (balances fall back to the tracked ledger value).
func NewHandler(
	store *ledger.Store,
	engine *lifecycle.Engine,
	sessions *wallet.SessionManager,
	reconciler Reconciler,
	credentialLister CredentialLister,
	token TokenBalanceReader,
	logger logging.Logger,
) *Handler {
	return &Handler{
		store:       store,
		engine:      engine,
		sessions:    sessions,
		reconciler:  reconciler,
		credentials: credentialLister,
		token:       token,
		logger:      logger,
	}
}

// respondError maps domain errors onto HTTP status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrNotAuthorized),
		errors.Is(err, lifecycle.ErrKYCRequired),
		errors.Is(err, lifecycle.ErrSelfAssignment):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrAlreadyCompleted),
		errors.Is(err, reconcile.ErrSyncInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrInsufficientBalance):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, wallet.ErrNoSession):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		h.logger.Errorf("Request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// activeWallet returns the connected session's address, or fails the request
// with 401.
func (h *Handler) activeWallet(c *gin.Context) (string, bool) {
	session, err := h.sessions.Active()
	if err != nil {
		h.respondError(c, err)
		return "", false
	}
	return session.Address.Hex(), true
}
