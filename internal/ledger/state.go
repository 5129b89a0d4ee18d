package ledger

import (
	"math/big"
	"time"

	"github.com/talentdao/talentdao-backend/pkg/types"
)

// SchemaVersion tags persisted snapshots. A mismatch on load discards the
// stored ledger and starts from seeded defaults.
const SchemaVersion = "2"

type JobStatus string

const (
	JobStatusOpen       JobStatus = "OPEN"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusSubmitted  JobStatus = "SUBMITTED"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusCancelled  JobStatus = "CANCELLED"
)

type JobCategory string

const (
	CategoryFrontend  JobCategory = "FRONTEND"
	CategoryBackend   JobCategory = "BACKEND"
	CategoryDesign    JobCategory = "DESIGN"
	CategoryMarketing JobCategory = "MARKETING"
)

func IsValidCategory(c JobCategory) bool {
	switch c {
	case CategoryFrontend, CategoryBackend, CategoryDesign, CategoryMarketing:
		return true
	}
	return false
}

type Role string

const (
	RoleWorker    Role = "worker"
	RoleRequester Role = "requester"
)

type TransactionType string

const (
	TxDeposit        TransactionType = "deposit"
	TxJobCreation    TransactionType = "job_creation"
	TxJobApplication TransactionType = "job_application"
	TxJobSubmission  TransactionType = "job_submission"
	TxJobApproval    TransactionType = "job_approval"
	TxPaymentRelease TransactionType = "payment_release"
	TxNFTMint        TransactionType = "nft_mint"
)

// Job is one unit of requested work. Reward amounts are kept in the token's
// smallest unit.
type Job struct {
	ID              int64          `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Reward          *types.BigInt  `json:"reward"`
	Status          JobStatus      `json:"status"`
	Category        JobCategory    `json:"category"`
	Requester       string         `json:"requester"`
	RequesterWallet string         `json:"requester_wallet,omitempty"`
	Deadline        string         `json:"deadline"`
	Tags            []string       `json:"tags,omitempty"`
	ApplicantWallet string         `json:"applicant_wallet,omitempty"`
	SubmissionLink  string         `json:"submission_link,omitempty"`
	SubmittedAt     *time.Time     `json:"submitted_at,omitempty"`
	TxHash          string         `json:"tx_hash,omitempty"`
	// Pending marks an optimistic local job whose creation has not yet been
	// observed on-chain. Pending jobs survive reconciliation.
	Pending bool `json:"pending,omitempty"`
}

type User struct {
	Wallet       string   `json:"wallet"`
	Role         Role     `json:"role"`
	Name         string   `json:"name,omitempty"`
	Email        string   `json:"email,omitempty"`
	Company      string   `json:"company,omitempty"`
	Website      string   `json:"website,omitempty"`
	Skills       []string `json:"skills,omitempty"`
	KYCCompleted bool     `json:"kyc_completed"`
}

// Transaction is an append-only audit record. Never mutated after creation.
type Transaction struct {
	ID        string                 `json:"id"`
	User      string                 `json:"user"`
	Type      TransactionType        `json:"type"`
	Amount    *types.BigInt          `json:"amount,omitempty"`
	JobID     int64                  `json:"job_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// State is the whole session ledger. Mutations go through Store.Mutate, which
// replaces the state wholesale.
type State struct {
	SchemaVersion string                   `json:"schema_version"`
	CurrentUser   string                   `json:"current_user,omitempty"`
	Users         map[string]User          `json:"users"`
	Jobs          []Job                    `json:"jobs"`
	Balances      map[string]*types.BigInt `json:"balances"`
	Transactions  []Transaction            `json:"transactions"`
}

func NewState() *State {
	return &State{
		SchemaVersion: SchemaVersion,
		Users:         make(map[string]User),
		Balances:      make(map[string]*types.BigInt),
	}
}

// Clone returns a deep copy so callers can never alias the store's snapshot.
func (s *State) Clone() *State {
	c := &State{
		SchemaVersion: s.SchemaVersion,
		CurrentUser:   s.CurrentUser,
		Users:         make(map[string]User, len(s.Users)),
		Jobs:          make([]Job, len(s.Jobs)),
		Balances:      make(map[string]*types.BigInt, len(s.Balances)),
		Transactions:  append([]Transaction(nil), s.Transactions...),
	}
	for addr, u := range s.Users {
		u.Skills = append([]string(nil), u.Skills...)
		c.Users[addr] = u
	}
	for i, j := range s.Jobs {
		j.Tags = append([]string(nil), j.Tags...)
		if j.Reward != nil && j.Reward.Int != nil {
			j.Reward = types.NewBigInt(new(big.Int).Set(j.Reward.Int))
		}
		if j.SubmittedAt != nil {
			at := *j.SubmittedAt
			j.SubmittedAt = &at
		}
		c.Jobs[i] = j
	}
	for addr, b := range s.Balances {
		if b != nil && b.Int != nil {
			c.Balances[addr] = types.NewBigInt(new(big.Int).Set(b.Int))
		}
	}
	return c
}

// FindJob returns a pointer into s.Jobs for the given id, or nil.
func (s *State) FindJob(id int64) *Job {
	for i := range s.Jobs {
		if s.Jobs[i].ID == id {
			return &s.Jobs[i]
		}
	}
	return nil
}

// BalanceOf returns the tracked balance for the address, zero if absent.
func (s *State) BalanceOf(address string) *big.Int {
	if b, ok := s.Balances[address]; ok && b != nil && b.Int != nil {
		return new(big.Int).Set(b.Int)
	}
	return new(big.Int)
}

// SetBalance replaces the tracked balance for the address.
func (s *State) SetBalance(address string, amount *big.Int) {
	s.Balances[address] = types.NewBigInt(new(big.Int).Set(amount))
}

// AppendTransaction prepends the record so the log reads newest first.
func (s *State) AppendTransaction(tx Transaction) {
	s.Transactions = append([]Transaction{tx}, s.Transactions...)
}

// PrependJob inserts the job at the head of the list.
func (s *State) PrependJob(job Job) {
	s.Jobs = append([]Job{job}, s.Jobs...)
}
