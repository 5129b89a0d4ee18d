package lifecycle

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentdao/talentdao-backend/internal/ledger"
	"github.com/talentdao/talentdao-backend/pkg/eventbus"
	"github.com/talentdao/talentdao-backend/pkg/events"
	"github.com/talentdao/talentdao-backend/pkg/logging"
)

const (
	testRequester  = "0xB0b0000000000000000000000000000000000222"
	testWorker     = "0xA11Ce00000000000000000000000000000000111"
	testUnverified = "0xDead000000000000000000000000000000000333"
	initialBalance = 1000
)

type fakeRemote struct {
	nextJobID   uint64
	failWith    error
	createCalls int
	takeCalls   int
	submitCalls int
	approveCall int
	cancelCalls int
}

func (f *fakeRemote) CreateJob(ctx context.Context, reward, deadline *big.Int, title, description string) (uint64, string, error) {
	f.createCalls++
	if f.failWith != nil {
		return 0, "", f.failWith
	}
	return f.nextJobID, "0xcreate", nil
}

func (f *fakeRemote) TakeJob(ctx context.Context, jobID uint64) (string, error) {
	f.takeCalls++
	if f.failWith != nil {
		return "", f.failWith
	}
	return "0xtake", nil
}

func (f *fakeRemote) SubmitWork(ctx context.Context, jobID uint64, proofLink string) (string, error) {
	f.submitCalls++
	if f.failWith != nil {
		return "", f.failWith
	}
	return "0xsubmit", nil
}

func (f *fakeRemote) ApproveWork(ctx context.Context, jobID uint64) (string, error) {
	f.approveCall++
	if f.failWith != nil {
		return "", f.failWith
	}
	return "0xapprove", nil
}

func (f *fakeRemote) CancelJob(ctx context.Context, jobID uint64) (string, error) {
	f.cancelCalls++
	if f.failWith != nil {
		return "", f.failWith
	}
	return "0xcancel", nil
}

func testSeed() *ledger.State {
	seed := ledger.NewState()
	seed.Users[testRequester] = ledger.User{
		Wallet:       testRequester,
		Role:         ledger.RoleRequester,
		Name:         "TechCorp Inc.",
		KYCCompleted: true,
	}
	seed.Users[testWorker] = ledger.User{
		Wallet:       testWorker,
		Role:         ledger.RoleWorker,
		Name:         "Bob the Developer",
		KYCCompleted: true,
	}
	seed.Users[testUnverified] = ledger.User{
		Wallet: testUnverified,
		Role:   ledger.RoleWorker,
	}
	seed.SetBalance(testRequester, big.NewInt(initialBalance))
	return seed
}

func newTestEngine(t *testing.T, remote Remote) (*Engine, *ledger.Store, *eventbus.EventBus) {
	t.Helper()
	persistence, err := ledger.NewFileStore(t.TempDir())
	require.NoError(t, err)

	bus := eventbus.New(logging.NewNoopLogger())
	store, err := ledger.NewStore(context.Background(), persistence, testSeed(), bus, logging.NewNoopLogger())
	require.NoError(t, err)

	return NewEngine(store, remote, nil, bus, logging.NewNoopLogger()), store, bus
}

func createParams(reward int64) CreateJobParams {
	return CreateJobParams{
		Title:        "Build landing page",
		Description:  "Responsive marketing site",
		Reward:       big.NewInt(reward),
		Category:     ledger.CategoryFrontend,
		DeadlineDays: 7,
		Tags:         []string{"react"},
	}
}

func TestCreateJobEscrowsReward(t *testing.T) {
	engine, store, _ := newTestEngine(t, nil)

	job, err := engine.CreateJob(context.Background(), testRequester, createParams(100))
	require.NoError(t, err)

	assert.Equal(t, ledger.JobStatusOpen, job.Status)
	assert.True(t, job.Pending, "local-mode jobs stay pending until seen on-chain")
	assert.Equal(t, "7 days", job.Deadline)

	state := store.Snapshot()
	assert.Equal(t, int64(initialBalance-100), state.BalanceOf(testRequester).Int64())
	require.NotEmpty(t, state.Transactions)
	assert.Equal(t, ledger.TxJobCreation, state.Transactions[0].Type)
	assert.Equal(t, int64(100), state.Transactions[0].Amount.Int64())
}

func TestCreateJobRejectsInsufficientBalance(t *testing.T) {
	engine, store, _ := newTestEngine(t, nil)

	_, err := engine.CreateJob(context.Background(), testRequester, createParams(initialBalance+1))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, store.Snapshot().Jobs)
}

func TestCreateJobRejectsWorkers(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)

	_, err := engine.CreateJob(context.Background(), testWorker, createParams(50))
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestCreateJobCallsChainFirst(t *testing.T) {
	remote := &fakeRemote{nextJobID: 7}
	engine, store, _ := newTestEngine(t, remote)

	job, err := engine.CreateJob(context.Background(), testRequester, createParams(100))
	require.NoError(t, err)

	assert.Equal(t, int64(7), job.ID)
	assert.Equal(t, "0xcreate", job.TxHash)
	assert.False(t, job.Pending)
	assert.Equal(t, 1, remote.createCalls)
	assert.Equal(t, int64(initialBalance-100), store.Snapshot().BalanceOf(testRequester).Int64())
}

func TestChainFailureLeavesLedgerUntouched(t *testing.T) {
	remote := &fakeRemote{failWith: errors.New("execution reverted")}
	engine, store, _ := newTestEngine(t, remote)

	_, err := engine.CreateJob(context.Background(), testRequester, createParams(100))
	require.Error(t, err)

	state := store.Snapshot()
	assert.Empty(t, state.Jobs)
	assert.Empty(t, state.Transactions)
	assert.Equal(t, int64(initialBalance), state.BalanceOf(testRequester).Int64())
}

func TestApplyPolicyEnforced(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	job, err := engine.CreateJob(context.Background(), testRequester, createParams(100))
	require.NoError(t, err)

	err = engine.ApplyForJob(context.Background(), testUnverified, job.ID)
	assert.ErrorIs(t, err, ErrKYCRequired)

	err = engine.ApplyForJob(context.Background(), testRequester, job.ID)
	assert.ErrorIs(t, err, ErrSelfAssignment)
}

func TestSubmitRequiresAssignedWorker(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	job, err := engine.CreateJob(context.Background(), testRequester, createParams(100))
	require.NoError(t, err)
	require.NoError(t, engine.ApplyForJob(context.Background(), testWorker, job.ID))

	err = engine.SubmitWork(context.Background(), testUnverified, job.ID, "https://github.com/pr/1")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	err = engine.SubmitWork(context.Background(), testWorker, job.ID, "")
	assert.Error(t, err)
}

func TestFullLifecycleSettlement(t *testing.T) {
	engine, store, bus := newTestEngine(t, nil)

	approved := make(chan events.WorkApprovedEvent, 4)
	bus.Subscribe(events.WorkApproved, func(event events.Event) {
		approved <- event.Payload.(events.WorkApprovedEvent)
	})

	ctx := context.Background()
	job, err := engine.CreateJob(ctx, testRequester, createParams(100))
	require.NoError(t, err)
	assert.Equal(t, int64(initialBalance-100), store.Snapshot().BalanceOf(testRequester).Int64())

	require.NoError(t, engine.ApplyForJob(ctx, testWorker, job.ID))
	assert.Equal(t, ledger.JobStatusInProgress, store.Snapshot().FindJob(job.ID).Status)

	require.NoError(t, engine.SubmitWork(ctx, testWorker, job.ID, "https://github.com/pr/1"))
	submitted := store.Snapshot().FindJob(job.ID)
	assert.Equal(t, ledger.JobStatusSubmitted, submitted.Status)
	assert.Equal(t, "https://github.com/pr/1", submitted.SubmissionLink)
	require.NotNil(t, submitted.SubmittedAt)

	require.NoError(t, engine.ApproveWork(ctx, testRequester, job.ID))

	state := store.Snapshot()
	assert.Equal(t, ledger.JobStatusCompleted, state.FindJob(job.ID).Status)
	assert.Equal(t, int64(80), state.BalanceOf(testWorker).Int64())
	assert.Equal(t, int64(20), state.BalanceOf(TreasuryAccount).Int64())

	var release *ledger.Transaction
	for i := range state.Transactions {
		if state.Transactions[i].Type == ledger.TxPaymentRelease {
			release = &state.Transactions[i]
			break
		}
	}
	require.NotNil(t, release, "settlement must record a payment_release")
	assert.Equal(t, int64(80), release.Amount.Int64())
	assert.Equal(t, testWorker, release.User)

	select {
	case event := <-approved:
		assert.Equal(t, job.ID, event.JobID)
		assert.Equal(t, "80", event.WorkerShare)
	case <-time.After(time.Second):
		t.Fatal("expected a work-approved notification")
	}

	// A second approval is rejected and must not notify or settle again.
	err = engine.ApproveWork(ctx, testRequester, job.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.Equal(t, int64(80), store.Snapshot().BalanceOf(testWorker).Int64())

	select {
	case <-approved:
		t.Fatal("double approval must not publish a second notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestApproveRequiresSubmittedStatus(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	job, err := engine.CreateJob(context.Background(), testRequester, createParams(100))
	require.NoError(t, err)

	err = engine.ApproveWork(context.Background(), testRequester, job.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelRefundsEscrow(t *testing.T) {
	engine, store, _ := newTestEngine(t, nil)
	ctx := context.Background()

	job, err := engine.CreateJob(ctx, testRequester, createParams(100))
	require.NoError(t, err)
	require.NoError(t, engine.CancelJob(ctx, testRequester, job.ID))

	state := store.Snapshot()
	assert.Equal(t, ledger.JobStatusCancelled, state.FindJob(job.ID).Status)
	assert.Equal(t, int64(initialBalance), state.BalanceOf(testRequester).Int64())
}

func TestCancelRejectedOnceTaken(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	job, err := engine.CreateJob(ctx, testRequester, createParams(100))
	require.NoError(t, err)
	require.NoError(t, engine.ApplyForJob(ctx, testWorker, job.ID))

	err = engine.CancelJob(ctx, testRequester, job.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
