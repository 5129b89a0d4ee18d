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
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/talentdao/talentdao-backend/pkg/logging"
)

// RewardToken wraps the ERC-20 token used for job payments.
type RewardToken struct {
	address        common.Address
	contract       *bind.BoundContract
	client         *Client
	confirmTimeout time.Duration
	logger         logging.Logger
}

func NewRewardToken(address common.Address, client *Client, confirmTimeout time.Duration, logger logging.Logger) (*RewardToken, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 abi: %w", err)
	}
	return &RewardToken{
		address:        address,
		contract:       bind.NewBoundContract(address, parsed, client.Eth, client.Eth, client.Eth),
		client:         client,
		confirmTimeout: confirmTimeout,
		logger:         logger,
	}, nil
}

func (t *RewardToken) Address() common.Address { return t.address }

func (t *RewardToken) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	var out []interface{}
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", account); err != nil {
		return nil, fmt.Errorf("balanceOf call failed: %w", err)
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("balanceOf: unexpected output type")
	}
	return balance, nil
}

func (t *RewardToken) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	var out []interface{}
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, spender); err != nil {
		return nil, fmt.Errorf("allowance call failed: %w", err)
	}
	allowance, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("allowance: unexpected output type")
	}
	return allowance, nil
}

func (t *RewardToken) Approve(ctx context.Context, opts *bind.TransactOpts, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	tx, err := t.contract.Transact(withContext(opts, ctx), "approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("approve transaction failed: %w", err)
	}
	return t.client.waitMined(ctx, tx, t.confirmTimeout)
}

// EnsureAllowance approves the spender for amount when the current allowance
// is insufficient. No-op when enough allowance already exists.
func (t *RewardToken) EnsureAllowance(ctx context.Context, opts *bind.TransactOpts, spender common.Address, amount *big.Int) error {
	current, err := t.Allowance(ctx, opts.From, spender)
	if err != nil {
		return err
	}
	if current.Cmp(amount) >= 0 {
		return nil
	}
	t.logger.Infof("Allowance %s below required %s, approving spender %s", current, amount, spender.Hex())
	_, err = t.Approve(ctx, opts, spender, amount)
	return err
}
