package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/talentdao/talentdao-backend/internal/ledger"
	"github.com/talentdao/talentdao-backend/pkg/eventbus"
	"github.com/talentdao/talentdao-backend/pkg/events"
	"github.com/talentdao/talentdao-backend/pkg/logging"
	"github.com/talentdao/talentdao-backend/pkg/types"
)

var (
	ErrJobNotFound         = errors.New("job not found")
	ErrInvalidTransition   = errors.New("operation not allowed in current job status")
	ErrNotAuthorized       = errors.New("wallet is not authorized for this operation")
	ErrAlreadyCompleted    = errors.New("work has already been approved")
	ErrInsufficientBalance = errors.New("insufficient balance to escrow reward")
)

// TreasuryAccount is the ledger balance key that accumulates the program's
// share of every settlement.
const TreasuryAccount = "treasury"

// Remote performs the on-chain half of each lifecycle operation. A nil Remote
// puts the engine in local mode: writes commit to the ledger immediately and
// created jobs stay Pending until reconciliation observes them on-chain.
type Remote interface {
	CreateJob(ctx context.Context, reward, deadline *big.Int, title, description string) (jobID uint64, txHash string, err error)
	TakeJob(ctx context.Context, jobID uint64) (txHash string, err error)
	SubmitWork(ctx context.Context, jobID uint64, proofLink string) (txHash string, err error)
	ApproveWork(ctx context.Context, jobID uint64) (txHash string, err error)
	CancelJob(ctx context.Context, jobID uint64) (txHash string, err error)
}

// Engine drives the job lifecycle: OPEN -> IN_PROGRESS -> SUBMITTED ->
// COMPLETED, with CANCELLED reachable only from OPEN. Every write follows the
// same shape: validate against a snapshot, call the chain, then commit the
// ledger mutation. A failed chain call leaves the ledger untouched.
type Engine struct {
	store  *ledger.Store
	remote Remote
	policy ApplyPolicy
	bus    *eventbus.EventBus
	logger logging.Logger
}

func NewEngine(store *ledger.Store, remote Remote, policy ApplyPolicy, bus *eventbus.EventBus, logger logging.Logger) *Engine {
	if policy == nil {
		policy = DefaultApplyPolicy()
	}
	return &Engine{
		store:  store,
		remote: remote,
		policy: policy,
		bus:    bus,
		logger: logger,
	}
}

// CreateJobParams carries the user-supplied fields of a new job. Reward is in
// token base units; DeadlineDays counts from now.
type CreateJobParams struct {
	Title        string
	Description  string
	Reward       *big.Int
	Category     ledger.JobCategory
	DeadlineDays int
	Tags         []string
}

func (p CreateJobParams) validate() error {
	if p.Title == "" {
		return errors.New("title is required")
	}
	if p.Reward == nil || p.Reward.Sign() <= 0 {
		return errors.New("reward must be positive")
	}
	if !ledger.IsValidCategory(p.Category) {
		return fmt.Errorf("unknown category %q", p.Category)
	}
	if p.DeadlineDays <= 0 {
		return errors.New("deadline must be in the future")
	}
	return nil
}

// CreateJob escrows the reward and lists a new job. The requester's tracked
// balance is debited by the full reward up front; the escrow is released back
// only through approval (80/20 settlement) or cancellation (full refund).
func (e *Engine) CreateJob(ctx context.Context, requester string, p CreateJobParams) (ledger.Job, error) {
	if err := p.validate(); err != nil {
		return ledger.Job{}, err
	}

	snapshot := e.store.Snapshot()
	user, ok := snapshot.Users[requester]
	if !ok || user.Role != ledger.RoleRequester {
		return ledger.Job{}, fmt.Errorf("%w: only requesters can create jobs", ErrNotAuthorized)
	}
	if snapshot.BalanceOf(requester).Cmp(p.Reward) < 0 {
		return ledger.Job{}, ErrInsufficientBalance
	}

	job := ledger.Job{
		Title:           p.Title,
		Description:     p.Description,
		Reward:          types.NewBigInt(new(big.Int).Set(p.Reward)),
		Status:          ledger.JobStatusOpen,
		Category:        p.Category,
		Requester:       user.Name,
		RequesterWallet: requester,
		Deadline:        fmt.Sprintf("%d days", p.DeadlineDays),
		Tags:            append([]string(nil), p.Tags...),
	}

	if e.remote != nil {
		deadline := big.NewInt(time.Now().Add(time.Duration(p.DeadlineDays) * 24 * time.Hour).Unix())
		jobID, txHash, err := e.remote.CreateJob(ctx, p.Reward, deadline, p.Title, p.Description)
		if err != nil {
			return ledger.Job{}, fmt.Errorf("on-chain job creation failed: %w", err)
		}
		job.ID = int64(jobID)
		job.TxHash = txHash
	} else {
		job.ID = nextLocalJobID(snapshot)
		job.Pending = true
	}

	err := e.store.Mutate(ctx, func(s *ledger.State) error {
		balance := s.BalanceOf(requester)
		if balance.Cmp(p.Reward) < 0 {
			return ErrInsufficientBalance
		}
		s.SetBalance(requester, balance.Sub(balance, p.Reward))
		s.PrependJob(job)
		s.AppendTransaction(ledger.Transaction{
			ID:        uuid.New().String(),
			User:      requester,
			Type:      ledger.TxJobCreation,
			Amount:    types.NewBigInt(new(big.Int).Set(p.Reward)),
			JobID:     job.ID,
			Timestamp: time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		return ledger.Job{}, err
	}

	e.logger.Infof("Job %d created by %s (reward=%s)", job.ID, requester, p.Reward.String())
	e.bus.Publish(events.Event{
		Type: events.JobCreated,
		Payload: events.JobCreatedEvent{
			JobID:     job.ID,
			Requester: requester,
			Reward:    p.Reward.String(),
			TxHash:    job.TxHash,
			CreatedAt: time.Now().UTC(),
		},
	})
	return job, nil
}

// ApplyForJob assigns an open job to the worker. The apply policy runs first
// so a rejected application never reaches the chain.
func (e *Engine) ApplyForJob(ctx context.Context, worker string, jobID int64) error {
	snapshot := e.store.Snapshot()
	job := snapshot.FindJob(jobID)
	if job == nil {
		return ErrJobNotFound
	}
	if job.Status != ledger.JobStatusOpen {
		return fmt.Errorf("%w: job %d is %s", ErrInvalidTransition, jobID, job.Status)
	}
	if err := e.policy.Authorize(snapshot, job, worker); err != nil {
		return err
	}

	var txHash string
	if e.remote != nil && !job.Pending {
		var err error
		txHash, err = e.remote.TakeJob(ctx, uint64(jobID))
		if err != nil {
			return fmt.Errorf("on-chain job assignment failed: %w", err)
		}
	}

	err := e.store.Mutate(ctx, func(s *ledger.State) error {
		j := s.FindJob(jobID)
		if j == nil {
			return ErrJobNotFound
		}
		if j.Status != ledger.JobStatusOpen {
			return fmt.Errorf("%w: job %d is %s", ErrInvalidTransition, jobID, j.Status)
		}
		j.Status = ledger.JobStatusInProgress
		j.ApplicantWallet = worker
		if txHash != "" {
			j.TxHash = txHash
		}
		s.AppendTransaction(ledger.Transaction{
			ID:        uuid.New().String(),
			User:      worker,
			Type:      ledger.TxJobApplication,
			JobID:     jobID,
			Timestamp: time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Infof("Job %d taken by %s", jobID, worker)
	e.bus.Publish(events.Event{
		Type:    events.JobTaken,
		Payload: events.JobTakenEvent{JobID: jobID, Worker: worker},
	})
	return nil
}

// SubmitWork records the worker's delivery link and moves the job to
// SUBMITTED. Only the assigned worker may submit.
func (e *Engine) SubmitWork(ctx context.Context, worker string, jobID int64, submissionLink string) error {
	if submissionLink == "" {
		return errors.New("submission link is required")
	}

	snapshot := e.store.Snapshot()
	job := snapshot.FindJob(jobID)
	if job == nil {
		return ErrJobNotFound
	}
	if job.Status != ledger.JobStatusInProgress {
		return fmt.Errorf("%w: job %d is %s", ErrInvalidTransition, jobID, job.Status)
	}
	if job.ApplicantWallet != worker {
		return fmt.Errorf("%w: job %d is assigned to a different worker", ErrNotAuthorized, jobID)
	}

	var txHash string
	if e.remote != nil && !job.Pending {
		var err error
		txHash, err = e.remote.SubmitWork(ctx, uint64(jobID), submissionLink)
		if err != nil {
			return fmt.Errorf("on-chain work submission failed: %w", err)
		}
	}

	submittedAt := time.Now().UTC()
	err := e.store.Mutate(ctx, func(s *ledger.State) error {
		j := s.FindJob(jobID)
		if j == nil {
			return ErrJobNotFound
		}
		if j.Status != ledger.JobStatusInProgress || j.ApplicantWallet != worker {
			return fmt.Errorf("%w: job %d changed underneath the submission", ErrInvalidTransition, jobID)
		}
		j.Status = ledger.JobStatusSubmitted
		j.SubmissionLink = submissionLink
		j.SubmittedAt = &submittedAt
		if txHash != "" {
			j.TxHash = txHash
		}
		s.AppendTransaction(ledger.Transaction{
			ID:        uuid.New().String(),
			User:      worker,
			Type:      ledger.TxJobSubmission,
			JobID:     jobID,
			Timestamp: submittedAt,
			Metadata:  map[string]interface{}{"submission_link": submissionLink},
		})
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Infof("Work submitted for job %d by %s", jobID, worker)
	e.bus.Publish(events.Event{
		Type: events.WorkSubmitted,
		Payload: events.WorkSubmittedEvent{
			JobID:          jobID,
			Worker:         worker,
			SubmissionLink: submissionLink,
			SubmittedAt:    submittedAt,
		},
	})
	return nil
}

// ApproveWork settles a submitted job: the worker is credited 80% of the
// escrowed reward, the treasury takes the remainder, and the worker's
// completion credential is recorded. Approving an already-completed job is
// rejected so the settlement can never run twice.
func (e *Engine) ApproveWork(ctx context.Context, requester string, jobID int64) error {
	snapshot := e.store.Snapshot()
	job := snapshot.FindJob(jobID)
	if job == nil {
		return ErrJobNotFound
	}
	if job.Status == ledger.JobStatusCompleted {
		return ErrAlreadyCompleted
	}
	if job.Status != ledger.JobStatusSubmitted {
		return fmt.Errorf("%w: job %d is %s", ErrInvalidTransition, jobID, job.Status)
	}
	if job.RequesterWallet != requester {
		return fmt.Errorf("%w: only the requester can approve work", ErrNotAuthorized)
	}

	reward := new(big.Int)
	if job.Reward != nil && job.Reward.Int != nil {
		reward.Set(job.Reward.Int)
	}
	workerShare, programShare, err := Split(reward)
	if err != nil {
		return err
	}
	worker := job.ApplicantWallet

	var txHash string
	if e.remote != nil && !job.Pending {
		txHash, err = e.remote.ApproveWork(ctx, uint64(jobID))
		if err != nil {
			return fmt.Errorf("on-chain approval failed: %w", err)
		}
	}

	now := time.Now().UTC()
	err = e.store.Mutate(ctx, func(s *ledger.State) error {
		j := s.FindJob(jobID)
		if j == nil {
			return ErrJobNotFound
		}
		if j.Status == ledger.JobStatusCompleted {
			return ErrAlreadyCompleted
		}
		if j.Status != ledger.JobStatusSubmitted {
			return fmt.Errorf("%w: job %d is %s", ErrInvalidTransition, jobID, j.Status)
		}
		j.Status = ledger.JobStatusCompleted
		j.Pending = false
		if txHash != "" {
			j.TxHash = txHash
		}

		workerBalance := s.BalanceOf(worker)
		s.SetBalance(worker, workerBalance.Add(workerBalance, workerShare))
		treasury := s.BalanceOf(TreasuryAccount)
		s.SetBalance(TreasuryAccount, treasury.Add(treasury, programShare))

		s.AppendTransaction(ledger.Transaction{
			ID:        uuid.New().String(),
			User:      requester,
			Type:      ledger.TxJobApproval,
			JobID:     jobID,
			Timestamp: now,
		})
		s.AppendTransaction(ledger.Transaction{
			ID:        uuid.New().String(),
			User:      worker,
			Type:      ledger.TxPaymentRelease,
			Amount:    types.NewBigInt(new(big.Int).Set(workerShare)),
			JobID:     jobID,
			Timestamp: now,
			Metadata:  map[string]interface{}{"program_share": programShare.String()},
		})
		s.AppendTransaction(ledger.Transaction{
			ID:        uuid.New().String(),
			User:      worker,
			Type:      ledger.TxNFTMint,
			JobID:     jobID,
			Timestamp: now,
		})
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Infof("Job %d approved: worker %s credited %s, treasury %s",
		jobID, worker, workerShare.String(), programShare.String())
	e.bus.Publish(events.Event{
		Type: events.WorkApproved,
		Payload: events.WorkApprovedEvent{
			JobID:       jobID,
			Worker:      worker,
			WorkerShare: workerShare.String(),
			TxHash:      txHash,
		},
	})
	e.bus.Publish(events.Event{
		Type: events.PaymentReleased,
		Payload: events.PaymentReleasedEvent{
			JobID:  jobID,
			Worker: worker,
			Amount: workerShare.String(),
		},
	})
	e.bus.Publish(events.Event{
		Type:    events.CredentialMinted,
		Payload: events.CredentialMintedEvent{JobID: jobID, Worker: worker},
	})
	return nil
}

// CancelJob withdraws an open job and refunds the escrowed reward in full.
// Jobs with an assigned worker cannot be cancelled.
func (e *Engine) CancelJob(ctx context.Context, requester string, jobID int64) error {
	snapshot := e.store.Snapshot()
	job := snapshot.FindJob(jobID)
	if job == nil {
		return ErrJobNotFound
	}
	if job.Status != ledger.JobStatusOpen {
		return fmt.Errorf("%w: only open jobs can be cancelled", ErrInvalidTransition)
	}
	if job.RequesterWallet != requester {
		return fmt.Errorf("%w: only the requester can cancel the job", ErrNotAuthorized)
	}

	var txHash string
	if e.remote != nil && !job.Pending {
		var err error
		txHash, err = e.remote.CancelJob(ctx, uint64(jobID))
		if err != nil {
			return fmt.Errorf("on-chain cancellation failed: %w", err)
		}
	}

	refund := new(big.Int)
	if job.Reward != nil && job.Reward.Int != nil {
		refund.Set(job.Reward.Int)
	}

	err := e.store.Mutate(ctx, func(s *ledger.State) error {
		j := s.FindJob(jobID)
		if j == nil {
			return ErrJobNotFound
		}
		if j.Status != ledger.JobStatusOpen {
			return fmt.Errorf("%w: only open jobs can be cancelled", ErrInvalidTransition)
		}
		j.Status = ledger.JobStatusCancelled
		j.Pending = false
		if txHash != "" {
			j.TxHash = txHash
		}
		balance := s.BalanceOf(requester)
		s.SetBalance(requester, balance.Add(balance, refund))
		s.AppendTransaction(ledger.Transaction{
			ID:        uuid.New().String(),
			User:      requester,
			Type:      ledger.TxDeposit,
			Amount:    types.NewBigInt(new(big.Int).Set(refund)),
			JobID:     jobID,
			Timestamp: time.Now().UTC(),
			Metadata:  map[string]interface{}{"reason": "job_cancellation_refund"},
		})
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Infof("Job %d cancelled by %s, refunded %s", jobID, requester, refund.String())
	return nil
}

func nextLocalJobID(s *ledger.State) int64 {
	var max int64
	for i := range s.Jobs {
		if s.Jobs[i].ID > max {
			max = s.Jobs[i].ID
		}
	}
	return max + 1
}
