package credentials

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/talentdao/talentdao-backend/pkg/contracts"
	"github.com/talentdao/talentdao-backend/pkg/logging"
)

// fallbackScanLimit bounds the ownerOf scan used against credential contracts
// that omit the ERC-721 enumeration extension.
const fallbackScanLimit = 100

// TokenReader is the read surface of the credential contract. Satisfied by
// contracts.CredentialToken.
type TokenReader interface {
	BalanceOf(ctx context.Context, owner common.Address) (uint64, error)
	TokenOfOwnerByIndex(ctx context.Context, owner common.Address, index uint64) (*big.Int, error)
	TokenURI(ctx context.Context, tokenID *big.Int) (string, error)
	OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error)
}

// Credential is one completion NFT with its resolved metadata. Metadata is
// nil when resolution failed; the token itself is still listed.
type Credential struct {
	TokenID  string    `json:"token_id"`
	TokenURI string    `json:"token_uri,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Service lists a worker's completion credentials.
type Service struct {
	token    TokenReader
	resolver *MetadataResolver
	logger   logging.Logger
}

func NewService(token TokenReader, resolver *MetadataResolver, logger logging.Logger) *Service {
	return &Service{token: token, resolver: resolver, logger: logger}
}

// List returns every credential the owner holds. Token ids come from the
// enumeration extension when available, otherwise from a bounded ownerOf
// scan; either way each token's metadata is resolved best-effort.
func (s *Service) List(ctx context.Context, owner common.Address) ([]Credential, error) {
	balance, err := s.token.BalanceOf(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("credential balance lookup failed: %w", err)
	}
	if balance == 0 {
		return nil, nil
	}

	tokenIDs, err := s.enumerate(ctx, owner, balance)
	if err != nil {
		return nil, err
	}

	credentials := make([]Credential, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		credential := Credential{TokenID: tokenID.String()}
		uri, err := s.token.TokenURI(ctx, tokenID)
		if err != nil {
			s.logger.Warnf("tokenURI for credential %s failed: %v", tokenID, err)
			credentials = append(credentials, credential)
			continue
		}
		credential.TokenURI = uri
		meta, err := s.resolver.Resolve(ctx, uri)
		if err != nil {
			s.logger.Warnf("Metadata for credential %s unresolved: %v", tokenID, err)
		} else {
			credential.Metadata = meta
		}
		credentials = append(credentials, credential)
	}
	return credentials, nil
}

func (s *Service) enumerate(ctx context.Context, owner common.Address, balance uint64) ([]*big.Int, error) {
	tokenIDs := make([]*big.Int, 0, balance)
	for i := uint64(0); i < balance; i++ {
		tokenID, err := s.token.TokenOfOwnerByIndex(ctx, owner, i)
		if err != nil {
			if errors.Is(err, contracts.ErrEnumerationUnsupported) {
				s.logger.Infof("Enumeration unsupported, falling back to ownerOf scan for %s", owner.Hex())
				return s.scan(ctx, owner, balance)
			}
			return nil, fmt.Errorf("credential enumeration failed: %w", err)
		}
		tokenIDs = append(tokenIDs, tokenID)
	}
	return tokenIDs, nil
}

// scan probes token ids 1..fallbackScanLimit, stopping early once the owner's
// full balance is accounted for. Nonexistent-token errors are expected and
// skipped.
func (s *Service) scan(ctx context.Context, owner common.Address, balance uint64) ([]*big.Int, error) {
	tokenIDs := make([]*big.Int, 0, balance)
	for id := int64(1); id <= fallbackScanLimit; id++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		tokenID := big.NewInt(id)
		holder, err := s.token.OwnerOf(ctx, tokenID)
		if err != nil {
			continue
		}
		if holder == owner {
			tokenIDs = append(tokenIDs, tokenID)
			if uint64(len(tokenIDs)) == balance {
				break
			}
		}
	}
	return tokenIDs, nil
}
