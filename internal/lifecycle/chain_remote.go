package lifecycle

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/talentdao/talentdao-backend/pkg/contracts"
)

// Signer supplies signing options for contract writes. Satisfied by
// wallet.Session.
type Signer interface {
	Transactor() (*bind.TransactOpts, error)
}

// ChainRemote binds the marketplace and reward token contracts to one signing
// session. Job creation approves the escrow allowance first when needed.
type ChainRemote struct {
	marketplace *contracts.Marketplace
	token       *contracts.RewardToken
	signer      Signer
}

var _ Remote = (*ChainRemote)(nil)

func NewChainRemote(marketplace *contracts.Marketplace, token *contracts.RewardToken, signer Signer) *ChainRemote {
	return &ChainRemote{marketplace: marketplace, token: token, signer: signer}
}

func (r *ChainRemote) CreateJob(ctx context.Context, reward, deadline *big.Int, title, description string) (uint64, string, error) {
	opts, err := r.signer.Transactor()
	if err != nil {
		return 0, "", err
	}
	if err := r.token.EnsureAllowance(ctx, opts, r.marketplace.Address(), reward); err != nil {
		return 0, "", fmt.Errorf("failed to approve escrow allowance: %w", err)
	}
	jobID, receipt, err := r.marketplace.CreateJob(ctx, opts, reward, deadline, title, description)
	if err != nil {
		return 0, "", err
	}
	return jobID, receiptHash(receipt), nil
}

func (r *ChainRemote) TakeJob(ctx context.Context, jobID uint64) (string, error) {
	return r.write(ctx, func(opts *bind.TransactOpts) (*gethtypes.Receipt, error) {
		return r.marketplace.TakeJob(ctx, opts, jobID)
	})
}

func (r *ChainRemote) SubmitWork(ctx context.Context, jobID uint64, proofLink string) (string, error) {
	return r.write(ctx, func(opts *bind.TransactOpts) (*gethtypes.Receipt, error) {
		return r.marketplace.SubmitWork(ctx, opts, jobID, proofLink)
	})
}

func (r *ChainRemote) ApproveWork(ctx context.Context, jobID uint64) (string, error) {
	return r.write(ctx, func(opts *bind.TransactOpts) (*gethtypes.Receipt, error) {
		return r.marketplace.ApproveWork(ctx, opts, jobID)
	})
}

func (r *ChainRemote) CancelJob(ctx context.Context, jobID uint64) (string, error) {
	return r.write(ctx, func(opts *bind.TransactOpts) (*gethtypes.Receipt, error) {
		return r.marketplace.CancelJob(ctx, opts, jobID)
	})
}

func (r *ChainRemote) write(ctx context.Context, fn func(*bind.TransactOpts) (*gethtypes.Receipt, error)) (string, error) {
	opts, err := r.signer.Transactor()
	if err != nil {
		return "", err
	}
	receipt, err := fn(opts)
	if err != nil {
		return "", err
	}
	return receiptHash(receipt), nil
}

func receiptHash(receipt *gethtypes.Receipt) string {
	if receipt == nil {
		return ""
	}
	return receipt.TxHash.Hex()
}
