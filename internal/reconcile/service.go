package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/talentdao/talentdao-backend/internal/ledger"
	"github.com/talentdao/talentdao-backend/pkg/contracts"
	"github.com/talentdao/talentdao-backend/pkg/logging"
	"github.com/talentdao/talentdao-backend/pkg/types"
)

// DefaultCooldown is the minimum interval between unforced syncs.
const DefaultCooldown = 30 * time.Second

// ErrSyncInProgress means another sync is already running; callers should
// treat it as "try again later", not a failure.
var ErrSyncInProgress = errors.New("reconciliation already in progress")

// Phase is the service's externally visible state.
type Phase string

const (
	PhaseIdle    Phase = "IDLE"
	PhaseSyncing Phase = "SYNCING"
)

// JobFetcher reads every job's basic info from the chain. Satisfied by
// contracts.Marketplace.
type JobFetcher interface {
	GetAllJobsBasic(ctx context.Context) ([]contracts.JobBasicInfo, error)
}

// Result summarizes one sync attempt.
type Result struct {
	Skipped  bool      `json:"skipped"`
	Fetched  int       `json:"fetched"`
	Retained int       `json:"retained_pending"`
	SyncedAt time.Time `json:"synced_at,omitempty"`
}

// Status is a snapshot of the service for the sync endpoint.
type Status struct {
	Phase    Phase     `json:"phase"`
	LastSync time.Time `json:"last_sync,omitempty"`
}

// Service reconciles the local job ledger against the chain. The chain is
// authoritative: each sync replaces the ledger's job list with the fetched
// set, except that locally created jobs still pending are retained until
// their id appears on-chain.
type Service struct {
	store    *ledger.Store
	fetcher  JobFetcher
	cooldown time.Duration
	logger   logging.Logger

	mu       sync.Mutex
	phase    Phase
	lastSync time.Time
	now      func() time.Time
}

func NewService(store *ledger.Store, fetcher JobFetcher, cooldown time.Duration, logger logging.Logger) *Service {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Service{
		store:    store,
		fetcher:  fetcher,
		cooldown: cooldown,
		logger:   logger,
		phase:    PhaseIdle,
		now:      time.Now,
	}
}

// Status reports the current phase and last successful sync time.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Phase: s.phase, LastSync: s.lastSync}
}

// Sync fetches the chain state and replaces the ledger's job list. Within the
// cooldown window an unforced sync is skipped without touching the chain;
// force bypasses the cooldown but never a sync already in flight.
func (s *Service) Sync(ctx context.Context, force bool) (Result, error) {
	s.mu.Lock()
	if s.phase == PhaseSyncing {
		s.mu.Unlock()
		return Result{}, ErrSyncInProgress
	}
	if !force && !s.lastSync.IsZero() && s.now().Sub(s.lastSync) < s.cooldown {
		s.mu.Unlock()
		s.logger.Debugf("Sync skipped, cooldown active (last sync %s ago)", s.now().Sub(s.lastSync))
		return Result{Skipped: true, SyncedAt: s.lastSync}, nil
	}
	s.phase = PhaseSyncing
	// The cooldown window runs from when a sync starts, not when it
	// finishes.
	startedAt := s.now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.phase = PhaseIdle
		s.mu.Unlock()
	}()

	chainJobs, err := s.fetcher.GetAllJobsBasic(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("chain fetch failed: %w", err)
	}

	var retained int
	err = s.store.Mutate(ctx, func(state *ledger.State) error {
		merged, kept, mergeErr := s.merge(state, chainJobs, startedAt)
		if mergeErr != nil {
			return mergeErr
		}
		state.Jobs = merged
		retained = kept
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	s.lastSync = startedAt
	s.mu.Unlock()

	s.logger.Infof("Reconciled %d on-chain jobs, retained %d pending local jobs", len(chainJobs), retained)
	return Result{Fetched: len(chainJobs), Retained: retained, SyncedAt: startedAt}, nil
}

// merge builds the replacement job list: every chain job mapped to ledger
// form, carrying over local-only detail (description, category, tags,
// submission metadata) for ids the session already knows, followed by pending
// local jobs the chain has not surfaced yet.
func (s *Service) merge(state *ledger.State, chainJobs []contracts.JobBasicInfo, now time.Time) ([]ledger.Job, int, error) {
	seen := make(map[int64]bool, len(chainJobs))
	merged := make([]ledger.Job, 0, len(chainJobs))

	for _, info := range chainJobs {
		status, err := MapStatus(info.Status, info.Worker)
		if err != nil {
			s.logger.Warnf("Skipping job %d during reconciliation: %v", info.ID, err)
			continue
		}

		id := int64(info.ID)
		seen[id] = true

		job := ledger.Job{
			ID:              id,
			Title:           info.Title,
			Status:          status,
			RequesterWallet: info.Requester.Hex(),
			Deadline:        DeadlineLabel(info.Deadline, now),
		}
		if info.Reward != nil {
			job.Reward = types.NewBigInt(new(big.Int).Set(info.Reward))
		}
		if info.Worker != (common.Address{}) {
			job.ApplicantWallet = info.Worker.Hex()
		}
		if requester, ok := state.Users[info.Requester.Hex()]; ok {
			job.Requester = requester.Name
		}
		if local := state.FindJob(id); local != nil {
			job.Description = local.Description
			job.Category = local.Category
			job.Tags = local.Tags
			job.SubmissionLink = local.SubmissionLink
			job.SubmittedAt = local.SubmittedAt
			job.TxHash = local.TxHash
			if job.Requester == "" {
				job.Requester = local.Requester
			}
		}
		merged = append(merged, job)
	}

	var retained int
	for i := range state.Jobs {
		local := state.Jobs[i]
		if local.Pending && !seen[local.ID] {
			merged = append(merged, local)
			retained++
		}
	}
	return merged, retained, nil
}
