package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentdao/talentdao-backend/pkg/eventbus"
	"github.com/talentdao/talentdao-backend/pkg/events"
	"github.com/talentdao/talentdao-backend/pkg/logging"
	"github.com/talentdao/talentdao-backend/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return newTestStoreWithSeed(t, DefaultSeed())
}

func newTestStoreWithSeed(t *testing.T, seed *State) *Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	store, err := NewStore(context.Background(), fs, seed, eventbus.New(logging.NewNoopLogger()), logging.NewNoopLogger())
	require.NoError(t, err)
	return store
}

func TestNewStoreSeedsWhenEmpty(t *testing.T) {
	store := newTestStore(t)
	state := store.Snapshot()

	assert.Len(t, state.Jobs, 4)
	assert.Len(t, state.Users, 2)
	assert.Equal(t, SchemaVersion, state.SchemaVersion)
}

func TestStoreReloadsPersistedState(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	bus := eventbus.New(logging.NewNoopLogger())
	logger := logging.NewNoopLogger()

	store, err := NewStore(context.Background(), fs, DefaultSeed(), bus, logger)
	require.NoError(t, err)

	require.NoError(t, store.Mutate(context.Background(), func(s *State) error {
		s.CurrentUser = DemoWorkerWallet
		return nil
	}))

	reopened, err := NewStore(context.Background(), fs, DefaultSeed(), bus, logger)
	require.NoError(t, err)
	assert.Equal(t, DemoWorkerWallet, reopened.Snapshot().CurrentUser)
}

func TestStoreResetsOnSchemaVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	bus := eventbus.New(logging.NewNoopLogger())
	logger := logging.NewNoopLogger()

	store, err := NewStore(context.Background(), fs, DefaultSeed(), bus, logger)
	require.NoError(t, err)
	require.NoError(t, store.Mutate(context.Background(), func(s *State) error {
		s.CurrentUser = DemoWorkerWallet
		return nil
	}))

	// Simulate an old session having written a previous schema.
	require.NoError(t, fs.StoreVersion(context.Background(), "1"))

	reopened, err := NewStore(context.Background(), fs, DefaultSeed(), bus, logger)
	require.NoError(t, err)
	assert.Empty(t, reopened.Snapshot().CurrentUser, "mismatched schema must reset to seed")

	version, err := fs.LoadVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestMutateRejectsFailedMutation(t *testing.T) {
	store := newTestStore(t)
	before := store.Snapshot()

	err := store.Mutate(context.Background(), func(s *State) error {
		s.Jobs = nil
		return errors.New("validation failed")
	})
	require.Error(t, err)
	assert.Equal(t, len(before.Jobs), len(store.Snapshot().Jobs))
}

func TestSnapshotIsIsolated(t *testing.T) {
	store := newTestStore(t)
	snap := store.Snapshot()
	snap.Jobs[0].Title = "mutated copy"
	snap.SetBalance(DemoWorkerWallet, big.NewInt(999999))

	fresh := store.Snapshot()
	assert.Equal(t, "Smart Contract Audit Review", fresh.Jobs[0].Title)
	assert.Equal(t, int64(1234), fresh.BalanceOf(DemoWorkerWallet).Int64())
}

func TestApplyExternalSnapshotReplacesState(t *testing.T) {
	storeA := newTestStore(t)
	storeB := newTestStore(t)

	replaced := make(chan struct{})
	bus := eventbus.New(logging.NewNoopLogger())
	storeB.bus = bus
	bus.Subscribe(events.LedgerReplaced, func(e events.Event) { close(replaced) })

	// Session A creates a job, session B receives A's snapshot.
	require.NoError(t, storeA.Mutate(context.Background(), func(s *State) error {
		s.PrependJob(Job{
			ID:        99,
			Title:     "API Integration",
			Reward:    types.NewBigInt(big.NewInt(100)),
			Status:    JobStatusOpen,
			Category:  CategoryBackend,
			Requester: "TechCorp Inc.",
		})
		return nil
	}))

	data, err := json.Marshal(snapshotEnvelope{Origin: storeA.SessionID(), State: storeA.Snapshot()})
	require.NoError(t, err)
	storeB.ApplyExternalSnapshot(data)

	<-replaced
	job := storeB.Snapshot().FindJob(99)
	require.NotNil(t, job)
	assert.Equal(t, "API Integration", job.Title)
	assert.Equal(t, int64(100), job.Reward.Int64())
}

func TestApplyExternalSnapshotIgnoresOwnWrites(t *testing.T) {
	store := newTestStore(t)
	before := store.Snapshot()

	foreign := before.Clone()
	foreign.CurrentUser = "0xshould-not-apply"
	data, err := json.Marshal(snapshotEnvelope{Origin: store.SessionID(), State: foreign})
	require.NoError(t, err)

	store.ApplyExternalSnapshot(data)
	assert.Equal(t, before.CurrentUser, store.Snapshot().CurrentUser)
}

type failingPersistence struct{}

func (f *failingPersistence) LoadSnapshot(ctx context.Context) ([]byte, error) { return nil, nil }
func (f *failingPersistence) StoreSnapshot(ctx context.Context, data []byte) error {
	return errors.New("disk full")
}
func (f *failingPersistence) LoadVersion(ctx context.Context) (string, error)        { return "", nil }
func (f *failingPersistence) StoreVersion(ctx context.Context, version string) error { return nil }
func (f *failingPersistence) Watch(ctx context.Context, handler func([]byte)) error {
	<-ctx.Done()
	return ctx.Err()
}
func (f *failingPersistence) Close() error { return nil }

func TestPersistenceFailureIsNonFatal(t *testing.T) {
	store, err := NewStore(context.Background(), &failingPersistence{}, DefaultSeed(),
		eventbus.New(logging.NewNoopLogger()), logging.NewNoopLogger())
	require.NoError(t, err)

	require.NoError(t, store.Mutate(context.Background(), func(s *State) error {
		s.CurrentUser = DemoWorkerWallet
		return nil
	}))
	assert.Equal(t, DemoWorkerWallet, store.Snapshot().CurrentUser, "in-memory state stays authoritative")
}
