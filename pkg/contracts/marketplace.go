package contracts

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/talentdao/talentdao-backend/pkg/logging"
)

// JobStatusCode is the marketplace contract's status enum.
// 0 = Created (open or in progress), 1 = Submitted, 2 = Paid, 3 = Cancelled.
type JobStatusCode uint8

const (
	StatusCreated   JobStatusCode = 0
	StatusSubmitted JobStatusCode = 1
	StatusPaid      JobStatusCode = 2
	StatusCancelled JobStatusCode = 3
)

// JobBasicInfo mirrors the tuple returned by getJobBasicInfo.
type JobBasicInfo struct {
	ID        uint64
	Requester common.Address
	Worker    common.Address
	Reward    *big.Int
	Deadline  *big.Int
	Title     string
	Status    JobStatusCode
}

// JobRecord mirrors the tuple returned by getJob.
type JobRecord struct {
	ID          uint64
	Requester   common.Address
	Worker      common.Address
	Reward      *big.Int
	Deadline    *big.Int
	Title       string
	Description string
	DeliveryURL string
	Status      JobStatusCode
}

// Marketplace wraps the escrow marketplace contract.
type Marketplace struct {
	address        common.Address
	abi            abi.ABI
	contract       *bind.BoundContract
	client         *Client
	confirmTimeout time.Duration
	logger         logging.Logger
}

func NewMarketplace(address common.Address, client *Client, confirmTimeout time.Duration, logger logging.Logger) (*Marketplace, error) {
	parsed, err := abi.JSON(strings.NewReader(marketplaceABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse marketplace abi: %w", err)
	}
	return &Marketplace{
		address:        address,
		abi:            parsed,
		contract:       bind.NewBoundContract(address, parsed, client.Eth, client.Eth, client.Eth),
		client:         client,
		confirmTimeout: confirmTimeout,
		logger:         logger,
	}, nil
}

func (m *Marketplace) Address() common.Address { return m.address }

// NextJobID returns the sequential job counter, i.e. the number of jobs
// created so far.
func (m *Marketplace) NextJobID(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := m.contract.Call(&bind.CallOpts{Context: ctx}, &out, "nextJobId"); err != nil {
		return 0, fmt.Errorf("nextJobId call failed: %w", err)
	}
	count, ok := out[0].(*big.Int)
	if !ok {
		return 0, errors.New("nextJobId: unexpected output type")
	}
	return count.Uint64(), nil
}

// GetJob fetches the full record for one job, including description and
// delivery URL.
func (m *Marketplace) GetJob(ctx context.Context, jobID uint64) (JobRecord, error) {
	var out []interface{}
	if err := m.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getJob", new(big.Int).SetUint64(jobID)); err != nil {
		return JobRecord{}, fmt.Errorf("getJob(%d) call failed: %w", jobID, err)
	}
	return decodeJobRecord(out)
}

// GetAllJobsBasic reads the job counter and then fetches every job's basic
// info in a single batched RPC round trip. Individual decode failures are
// skipped rather than failing the whole batch.
func (m *Marketplace) GetAllJobsBasic(ctx context.Context) ([]JobBasicInfo, error) {
	total, err := m.NextJobID(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	method := m.abi.Methods["getJobBasicInfo"]
	batch := make([]rpc.BatchElem, total)
	results := make([]hexutil.Bytes, total)
	for i := uint64(0); i < total; i++ {
		data, err := m.abi.Pack("getJobBasicInfo", new(big.Int).SetUint64(i))
		if err != nil {
			return nil, fmt.Errorf("failed to pack getJobBasicInfo(%d): %w", i, err)
		}
		batch[i] = rpc.BatchElem{
			Method: "eth_call",
			Args: []interface{}{
				map[string]interface{}{
					"to":   m.address,
					"data": hexutil.Bytes(data),
				},
				"latest",
			},
			Result: &results[i],
		}
	}

	if err := m.client.RPC.BatchCallContext(ctx, batch); err != nil {
		return nil, fmt.Errorf("batched job fetch failed: %w", err)
	}

	jobs := make([]JobBasicInfo, 0, total)
	for i := uint64(0); i < total; i++ {
		if batch[i].Error != nil {
			m.logger.Warnf("Skipping job %d: %v", i, batch[i].Error)
			continue
		}
		values, err := method.Outputs.Unpack(results[i])
		if err != nil {
			m.logger.Warnf("Skipping job %d: undecodable response: %v", i, err)
			continue
		}
		info, err := decodeJobBasicInfo(i, values)
		if err != nil {
			m.logger.Warnf("Skipping job %d: %v", i, err)
			continue
		}
		jobs = append(jobs, info)
	}
	return jobs, nil
}

// CreateJob escrows the reward and creates the job on-chain, returning the
// job id emitted by the JobCreated event.
func (m *Marketplace) CreateJob(ctx context.Context, opts *bind.TransactOpts, reward, deadline *big.Int, title, description string) (uint64, *types.Receipt, error) {
	tx, err := m.contract.Transact(withContext(opts, ctx), "createJob", reward, deadline, title, description)
	if err != nil {
		return 0, nil, fmt.Errorf("createJob transaction failed: %w", err)
	}
	receipt, err := m.client.waitMined(ctx, tx, m.confirmTimeout)
	if err != nil {
		return 0, nil, err
	}
	jobID, err := m.jobIDFromReceipt(receipt)
	if err != nil {
		return 0, receipt, err
	}
	return jobID, receipt, nil
}

func (m *Marketplace) TakeJob(ctx context.Context, opts *bind.TransactOpts, jobID uint64) (*types.Receipt, error) {
	return m.transactAndWait(ctx, opts, "takeJob", new(big.Int).SetUint64(jobID))
}

func (m *Marketplace) SubmitWork(ctx context.Context, opts *bind.TransactOpts, jobID uint64, proofLink string) (*types.Receipt, error) {
	return m.transactAndWait(ctx, opts, "submitWork", new(big.Int).SetUint64(jobID), proofLink)
}

func (m *Marketplace) ApproveWork(ctx context.Context, opts *bind.TransactOpts, jobID uint64) (*types.Receipt, error) {
	return m.transactAndWait(ctx, opts, "approveWork", new(big.Int).SetUint64(jobID))
}

func (m *Marketplace) CancelJob(ctx context.Context, opts *bind.TransactOpts, jobID uint64) (*types.Receipt, error) {
	return m.transactAndWait(ctx, opts, "cancelJob", new(big.Int).SetUint64(jobID))
}

func (m *Marketplace) transactAndWait(ctx context.Context, opts *bind.TransactOpts, method string, args ...interface{}) (*types.Receipt, error) {
	tx, err := m.contract.Transact(withContext(opts, ctx), method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s transaction failed: %w", method, err)
	}
	return m.client.waitMined(ctx, tx, m.confirmTimeout)
}

// jobIDFromReceipt extracts the job id from the indexed first topic of the
// JobCreated event.
func (m *Marketplace) jobIDFromReceipt(receipt *types.Receipt) (uint64, error) {
	jobCreatedTopic := m.abi.Events["JobCreated"].ID
	for _, log := range receipt.Logs {
		if log.Address != m.address || len(log.Topics) < 2 {
			continue
		}
		if log.Topics[0] == jobCreatedTopic {
			return new(big.Int).SetBytes(log.Topics[1].Bytes()).Uint64(), nil
		}
	}
	return 0, errors.New("JobCreated event not found in receipt")
}

func decodeJobBasicInfo(id uint64, values []interface{}) (JobBasicInfo, error) {
	if len(values) != 6 {
		return JobBasicInfo{}, fmt.Errorf("getJobBasicInfo: expected 6 outputs, got %d", len(values))
	}
	requester, ok1 := values[0].(common.Address)
	worker, ok2 := values[1].(common.Address)
	reward, ok3 := values[2].(*big.Int)
	deadline, ok4 := values[3].(*big.Int)
	title, ok5 := values[4].(string)
	status, ok6 := values[5].(*big.Int)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		return JobBasicInfo{}, errors.New("getJobBasicInfo: unexpected output types")
	}
	return JobBasicInfo{
		ID:        id,
		Requester: requester,
		Worker:    worker,
		Reward:    reward,
		Deadline:  deadline,
		Title:     title,
		Status:    JobStatusCode(status.Uint64()),
	}, nil
}

func decodeJobRecord(values []interface{}) (JobRecord, error) {
	if len(values) != 9 {
		return JobRecord{}, fmt.Errorf("getJob: expected 9 outputs, got %d", len(values))
	}
	id, ok0 := values[0].(*big.Int)
	requester, ok1 := values[1].(common.Address)
	worker, ok2 := values[2].(common.Address)
	reward, ok3 := values[3].(*big.Int)
	deadline, ok4 := values[4].(*big.Int)
	title, ok5 := values[5].(string)
	description, ok6 := values[6].(string)
	deliveryURL, ok7 := values[7].(string)
	status, ok8 := values[8].(*big.Int)
	if !(ok0 && ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7 && ok8) {
		return JobRecord{}, errors.New("getJob: unexpected output types")
	}
	return JobRecord{
		ID:          id.Uint64(),
		Requester:   requester,
		Worker:      worker,
		Reward:      reward,
		Deadline:    deadline,
		Title:       title,
		Description: description,
		DeliveryURL: deliveryURL,
		Status:      JobStatusCode(status.Uint64()),
	}, nil
}

func withContext(opts *bind.TransactOpts, ctx context.Context) *bind.TransactOpts {
	copied := *opts
	copied.Context = ctx
	return &copied
}
