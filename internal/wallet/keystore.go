package wallet

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"

	"github.com/talentdao/talentdao-backend/pkg/logging"
)

// KeystoreAuthenticator unlocks a local geth keystore file. Development-only
// path; production identities come from the hosted wallet.
type KeystoreAuthenticator struct {
	keystorePath string
	passphrase   string
	chainID      *big.Int
	logger       logging.Logger
}

var _ Authenticator = (*KeystoreAuthenticator)(nil)

func NewKeystoreAuthenticator(keystorePath, passphrase string, chainID *big.Int, logger logging.Logger) *KeystoreAuthenticator {
	return &KeystoreAuthenticator{
		keystorePath: keystorePath,
		passphrase:   passphrase,
		chainID:      chainID,
		logger:       logger,
	}
}

func (a *KeystoreAuthenticator) Source() Source { return SourceKeystore }

func (a *KeystoreAuthenticator) Authenticate(ctx context.Context) (*Session, error) {
	keyJSON, err := os.ReadFile(a.keystorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore file: %w", err)
	}

	key, err := keystore.DecryptKey(keyJSON, a.passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore: %w", err)
	}

	transactor, err := bind.NewKeyedTransactorWithChainID(key.PrivateKey, a.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to build transactor: %w", err)
	}

	a.logger.Debugf("Unlocked keystore account %s", key.Address.Hex())
	return &Session{
		Address:    key.Address,
		Source:     SourceKeystore,
		transactor: transactor,
	}, nil
}
