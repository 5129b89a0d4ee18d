package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/talentdao/talentdao-backend/pkg/logging"
)

// SourceDev identifies the development fallback that hands out a fixed
// address without any signing capability.
const SourceDev Source = "dev"

// DevAuthenticator connects as a preconfigured address. Used in local mode
// where no wallet host or keystore is configured; sessions it creates cannot
// sign transactions.
type DevAuthenticator struct {
	address common.Address
	logger  logging.Logger
}

var _ Authenticator = (*DevAuthenticator)(nil)

func NewDevAuthenticator(address common.Address, logger logging.Logger) *DevAuthenticator {
	return &DevAuthenticator{address: address, logger: logger}
}

func (a *DevAuthenticator) Source() Source { return SourceDev }

func (a *DevAuthenticator) Authenticate(ctx context.Context) (*Session, error) {
	a.logger.Warnf("Using development wallet %s; transactions cannot be signed", a.address.Hex())
	return &Session{Address: a.address, Source: SourceDev}, nil
}
