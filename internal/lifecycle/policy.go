package lifecycle

import (
	"errors"
	"strings"

	"github.com/talentdao/talentdao-backend/internal/ledger"
)

var (
	// ErrKYCRequired means the applicant has not completed identity
	// verification and may not take work.
	ErrKYCRequired = errors.New("applicant has not completed KYC verification")

	// ErrSelfAssignment means the requester tried to take their own job.
	ErrSelfAssignment = errors.New("requesters cannot take their own jobs")
)

// ApplyPolicy decides whether an applicant may take a job. The engine runs
// the policy before any on-chain call so a rejected application costs no gas.
type ApplyPolicy interface {
	Authorize(state *ledger.State, job *ledger.Job, applicant string) error
}

type defaultApplyPolicy struct{}

// DefaultApplyPolicy requires completed KYC and rejects self-assignment.
func DefaultApplyPolicy() ApplyPolicy { return defaultApplyPolicy{} }

func (defaultApplyPolicy) Authorize(state *ledger.State, job *ledger.Job, applicant string) error {
	user, ok := state.Users[applicant]
	if !ok || !user.KYCCompleted {
		return ErrKYCRequired
	}
	if strings.EqualFold(applicant, job.RequesterWallet) {
		return ErrSelfAssignment
	}
	return nil
}
