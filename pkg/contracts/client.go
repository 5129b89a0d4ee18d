package contracts

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/talentdao/talentdao-backend/pkg/logging"
)

var (
	// ErrExecutionReverted is returned when a confirmed transaction ended with
	// a failed receipt status.
	ErrExecutionReverted = errors.New("contract execution reverted")
	// ErrConfirmationTimeout is returned when the confirmation wait for a sent
	// transaction exceeded the configured deadline.
	ErrConfirmationTimeout = errors.New("transaction confirmation timed out")
)

// DefaultConfirmTimeout bounds the wait for a transaction receipt.
// Block inclusion on congested chains can take minutes.
const DefaultConfirmTimeout = 3 * time.Minute

// Client bundles the HTTP and raw RPC connections to one chain endpoint. The
// raw connection is kept for batched eth_call reads.
type Client struct {
	Eth     *ethclient.Client
	RPC     *rpc.Client
	ChainID *big.Int
	logger  logging.Logger
}

// Dial connects to the chain RPC endpoint and resolves its chain id.
func Dial(ctx context.Context, rpcURL string, logger logging.Logger) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc endpoint: %w", err)
	}
	ethClient := ethclient.NewClient(rpcClient)

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}

	logger.Infof("Connected to chain %s via %s", chainID.String(), rpcURL)
	return &Client{Eth: ethClient, RPC: rpcClient, ChainID: chainID, logger: logger}, nil
}

func (c *Client) Close() {
	c.RPC.Close()
}

// waitMined waits for the receipt of tx and verifies it succeeded. A deadline
// exceeded during the wait is reported as ErrConfirmationTimeout so callers
// can distinguish it from a revert.
func (c *Client) waitMined(ctx context.Context, tx *types.Transaction, confirmTimeout time.Duration) (*types.Receipt, error) {
	if confirmTimeout <= 0 {
		confirmTimeout = DefaultConfirmTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, c.Eth, tx)
	if err != nil {
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: tx %s", ErrConfirmationTimeout, tx.Hash().Hex())
		}
		return nil, fmt.Errorf("failed waiting for tx %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: tx %s", ErrExecutionReverted, tx.Hash().Hex())
	}
	return receipt, nil
}
