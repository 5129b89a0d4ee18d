package wallet

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/talentdao/talentdao-backend/pkg/logging"
)

// Source names an identity provider.
type Source string

const (
	SourceHosted   Source = "hosted"
	SourceKeystore Source = "keystore"
)

// Session is one authenticated wallet identity.
type Session struct {
	Address    common.Address
	Source     Source
	transactor *bind.TransactOpts
}

// Transactor returns signing options for contract writes. Hosted sessions
// authenticate only; they cannot sign from this process.
func (s *Session) Transactor() (*bind.TransactOpts, error) {
	if s.transactor == nil {
		return nil, ErrNoTransactor
	}
	return s.transactor, nil
}

// Authenticator obtains a wallet identity from one source. Authenticate may
// block while the user approves in their wallet UI; a declined approval is
// reported as ErrUserCancelled.
type Authenticator interface {
	Authenticate(ctx context.Context) (*Session, error)
	Source() Source
}

// SessionManager holds at most one active wallet session. Switching address
// requires an explicit Disconnect followed by Connect; there is no silent
// account-switch handling.
type SessionManager struct {
	mu     sync.Mutex
	auth   Authenticator
	active *Session
	logger logging.Logger
}

func NewSessionManager(auth Authenticator, logger logging.Logger) *SessionManager {
	return &SessionManager{auth: auth, logger: logger}
}

// Connect establishes a session through the configured authenticator. When a
// session is already active it is returned unchanged.
func (m *SessionManager) Connect(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return m.active, nil
	}

	session, err := m.auth.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	m.active = session
	m.logger.Infof("Wallet connected: %s (source=%s)", session.Address.Hex(), session.Source)
	return session, nil
}

// Disconnect clears the local identity. It does not revoke any on-chain
// approval.
func (m *SessionManager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		m.logger.Infof("Wallet disconnected: %s", m.active.Address.Hex())
	}
	m.active = nil
}

// Active returns the current session or ErrNoSession.
func (m *SessionManager) Active() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil, ErrNoSession
	}
	return m.active, nil
}
