package events

import (
	"time"
)

type EventType string

const (
	JobCreated    EventType = "JOB_CREATED"
	JobTaken      EventType = "JOB_TAKEN"
	WorkSubmitted EventType = "WORK_SUBMITTED"
	WorkApproved  EventType = "WORK_APPROVED"

	PaymentReleased  EventType = "PAYMENT_RELEASED"
	CredentialMinted EventType = "CREDENTIAL_MINTED"

	LedgerReplaced EventType = "LEDGER_REPLACED"
)

// Event is the envelope published on the event bus.
type Event struct {
	Type    EventType
	Payload interface{}
}

type JobCreatedEvent struct {
	JobID     int64     `json:"job_id"`
	Requester string    `json:"requester"`
	Reward    string    `json:"reward"`
	TxHash    string    `json:"tx_hash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type JobTakenEvent struct {
	JobID  int64  `json:"job_id"`
	Worker string `json:"worker"`
}

type WorkSubmittedEvent struct {
	JobID          int64     `json:"job_id"`
	Worker         string    `json:"worker"`
	SubmissionLink string    `json:"submission_link"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// WorkApprovedEvent is published exactly once per approval and drives the
// one-time completion notification.
type WorkApprovedEvent struct {
	JobID       int64  `json:"job_id"`
	Worker      string `json:"worker"`
	WorkerShare string `json:"worker_share"`
	TxHash      string `json:"tx_hash,omitempty"`
}

type PaymentReleasedEvent struct {
	JobID  int64  `json:"job_id"`
	Worker string `json:"worker"`
	Amount string `json:"amount"`
}

type CredentialMintedEvent struct {
	JobID  int64  `json:"job_id"`
	Worker string `json:"worker"`
}

// LedgerReplacedEvent signals that another session's write replaced the local
// ledger snapshot.
type LedgerReplacedEvent struct {
	SchemaVersion string    `json:"schema_version"`
	ReplacedAt    time.Time `json:"replaced_at"`
}
