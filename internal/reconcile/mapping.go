package reconcile

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/talentdao/talentdao-backend/internal/ledger"
	"github.com/talentdao/talentdao-backend/pkg/contracts"
)

var zeroAddress common.Address

// MapStatus translates the contract's status enum into the ledger status.
// Status code 0 covers both open and assigned jobs; the zero-address worker
// sentinel tells them apart.
func MapStatus(code contracts.JobStatusCode, worker common.Address) (ledger.JobStatus, error) {
	switch code {
	case contracts.StatusCreated:
		if worker == zeroAddress {
			return ledger.JobStatusOpen, nil
		}
		return ledger.JobStatusInProgress, nil
	case contracts.StatusSubmitted:
		return ledger.JobStatusSubmitted, nil
	case contracts.StatusPaid:
		return ledger.JobStatusCompleted, nil
	case contracts.StatusCancelled:
		return ledger.JobStatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown on-chain job status %d", code)
	}
}

// DeadlineLabel renders an absolute unix deadline as the relative label the
// ledger stores, rounding partial days up. Past deadlines read "expired".
func DeadlineLabel(deadline *big.Int, now time.Time) string {
	if deadline == nil || deadline.Sign() <= 0 {
		return ""
	}
	remaining := time.Unix(deadline.Int64(), 0).Sub(now)
	if remaining <= 0 {
		return "expired"
	}
	days := int64((remaining + 24*time.Hour - 1) / (24 * time.Hour))
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
