package contracts

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/talentdao/talentdao-backend/pkg/logging"
)

// ErrEnumerationUnsupported is returned when the credential contract does not
// implement the ERC-721 enumeration extension.
var ErrEnumerationUnsupported = errors.New("credential contract does not support tokenOfOwnerByIndex")

// CredentialToken wraps the ERC-721 contract minted to workers on approval.
type CredentialToken struct {
	address  common.Address
	contract *bind.BoundContract
	client   *Client
	logger   logging.Logger
}

func NewCredentialToken(address common.Address, client *Client, logger logging.Logger) (*CredentialToken, error) {
	parsed, err := abi.JSON(strings.NewReader(erc721ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc721 abi: %w", err)
	}
	return &CredentialToken{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, client.Eth, client.Eth, client.Eth),
		client:   client,
		logger:   logger,
	}, nil
}

func (c *CredentialToken) Address() common.Address { return c.address }

func (c *CredentialToken) BalanceOf(ctx context.Context, owner common.Address) (uint64, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", owner); err != nil {
		return 0, fmt.Errorf("balanceOf call failed: %w", err)
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return 0, errors.New("balanceOf: unexpected output type")
	}
	return balance.Uint64(), nil
}

// TokenOfOwnerByIndex returns the owner's token at the given index. Some
// deployments omit the enumeration extension; those surface as
// ErrEnumerationUnsupported so callers can fall back to an ownerOf scan.
func (c *CredentialToken) TokenOfOwnerByIndex(ctx context.Context, owner common.Address, index uint64) (*big.Int, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "tokenOfOwnerByIndex", owner, new(big.Int).SetUint64(index))
	if err != nil {
		if strings.Contains(err.Error(), "execution reverted") {
			return nil, ErrEnumerationUnsupported
		}
		return nil, fmt.Errorf("tokenOfOwnerByIndex call failed: %w", err)
	}
	tokenID, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("tokenOfOwnerByIndex: unexpected output type")
	}
	return tokenID, nil
}

func (c *CredentialToken) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "tokenURI", tokenID); err != nil {
		return "", fmt.Errorf("tokenURI call failed: %w", err)
	}
	uri, ok := out[0].(string)
	if !ok {
		return "", errors.New("tokenURI: unexpected output type")
	}
	return uri, nil
}

// OwnerOf returns the owner of tokenID, or an error for nonexistent tokens.
func (c *CredentialToken) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "ownerOf", tokenID); err != nil {
		return common.Address{}, fmt.Errorf("ownerOf call failed: %w", err)
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, errors.New("ownerOf: unexpected output type")
	}
	return owner, nil
}
