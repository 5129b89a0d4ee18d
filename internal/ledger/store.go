package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talentdao/talentdao-backend/pkg/events"
	"github.com/talentdao/talentdao-backend/pkg/eventbus"
	"github.com/talentdao/talentdao-backend/pkg/logging"
)

// Persistence is the storage backend for the serialized ledger: one
// namespaced key for the snapshot, one for the schema version, and an
// optional change feed so other sessions observe writes.
type Persistence interface {
	LoadSnapshot(ctx context.Context) ([]byte, error)
	StoreSnapshot(ctx context.Context, data []byte) error
	LoadVersion(ctx context.Context) (string, error)
	StoreVersion(ctx context.Context, version string) error
	// Watch invokes handler for every snapshot written by any session,
	// including this one. Backends without a change feed may make this a
	// no-op. Blocks until ctx is done.
	Watch(ctx context.Context, handler func(data []byte)) error
	Close() error
}

// snapshotEnvelope wraps the persisted state with the id of the session that
// wrote it, so a session can ignore its own change notifications.
type snapshotEnvelope struct {
	Origin string `json:"origin"`
	State  *State `json:"state"`
}

// Store is the single source of truth for session state. All mutations are
// whole-state replacements: read, copy, modify, swap, persist. Persistence is
// best-effort; a failed write keeps the in-memory state authoritative.
type Store struct {
	mu        sync.RWMutex
	state     *State
	sessionID string

	persistence Persistence
	bus         *eventbus.EventBus
	logger      logging.Logger
}

// NewStore loads the persisted ledger, or seeds a fresh one when nothing is
// stored or the stored schema version does not match. Version mismatch is a
// deliberate full reset, not a migration.
func NewStore(ctx context.Context, persistence Persistence, seed *State, bus *eventbus.EventBus, logger logging.Logger) (*Store, error) {
	s := &Store{
		sessionID:   uuid.New().String(),
		persistence: persistence,
		bus:         bus,
		logger:      logger,
	}

	version, err := persistence.LoadVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger schema version: %w", err)
	}

	if version == SchemaVersion {
		data, err := persistence.LoadSnapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger snapshot: %w", err)
		}
		if len(data) > 0 {
			var envelope snapshotEnvelope
			if err := json.Unmarshal(data, &envelope); err == nil && envelope.State != nil {
				s.state = envelope.State
				logger.Infof("Loaded ledger snapshot: %d jobs, %d users, %d transactions",
					len(s.state.Jobs), len(s.state.Users), len(s.state.Transactions))
			} else {
				logger.Warnf("Stored ledger snapshot is undecodable, resetting: %v", err)
			}
		}
	} else if version != "" {
		logger.Warnf("Ledger schema version %q does not match %q, discarding stored state", version, SchemaVersion)
	}

	if s.state == nil {
		if seed == nil {
			s.state = NewState()
		} else {
			s.state = seed.Clone()
			s.state.SchemaVersion = SchemaVersion
		}
		s.persist(ctx, s.state)
		if err := persistence.StoreVersion(ctx, SchemaVersion); err != nil {
			logger.Errorf("Failed to store ledger schema version: %v", err)
		}
	}

	return s, nil
}

// SessionID identifies this store instance in the cross-session change feed.
func (s *Store) SessionID() string { return s.sessionID }

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Mutate applies fn to a copy of the current state and swaps it in if fn
// succeeds. The new state is persisted best-effort: a storage failure is
// logged and the in-memory state stays authoritative for the session.
func (s *Store) Mutate(ctx context.Context, fn func(*State) error) error {
	s.mu.Lock()
	next := s.state.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = next
	persisted := next.Clone()
	s.mu.Unlock()

	s.persist(ctx, persisted)
	return nil
}

// ApplyExternalSnapshot replaces the whole state with a snapshot written by
// another session. Last write observed wins; there is no merge.
func (s *Store) ApplyExternalSnapshot(data []byte) {
	var envelope snapshotEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.State == nil {
		s.logger.Warnf("Ignoring undecodable external ledger snapshot: %v", err)
		return
	}
	if envelope.Origin == s.sessionID {
		return
	}
	if envelope.State.SchemaVersion != SchemaVersion {
		s.logger.Warnf("Ignoring external snapshot with schema version %q", envelope.State.SchemaVersion)
		return
	}

	s.mu.Lock()
	s.state = envelope.State
	s.mu.Unlock()

	s.logger.Debugf("Replaced ledger state from session %s", envelope.Origin)
	s.bus.Publish(events.Event{
		Type: events.LedgerReplaced,
		Payload: events.LedgerReplacedEvent{
			SchemaVersion: envelope.State.SchemaVersion,
			ReplacedAt:    time.Now().UTC(),
		},
	})
}

// WatchExternal blocks consuming the persistence change feed until ctx is
// done. Run it on its own goroutine.
func (s *Store) WatchExternal(ctx context.Context) error {
	return s.persistence.Watch(ctx, s.ApplyExternalSnapshot)
}

func (s *Store) persist(ctx context.Context, state *State) {
	data, err := json.Marshal(snapshotEnvelope{Origin: s.sessionID, State: state})
	if err != nil {
		s.logger.Errorf("Failed to serialize ledger snapshot: %v", err)
		return
	}
	if err := s.persistence.StoreSnapshot(ctx, data); err != nil {
		s.logger.Errorf("Failed to persist ledger snapshot, continuing in-memory: %v", err)
	}
}
