package wallet

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentdao/talentdao-backend/pkg/logging"
)

type stubAuthenticator struct {
	session *Session
	err     error
	calls   int
}

func (s *stubAuthenticator) Authenticate(ctx context.Context) (*Session, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func (s *stubAuthenticator) Source() Source { return SourceKeystore }

func TestConnectEstablishesSingleSession(t *testing.T) {
	address := common.HexToAddress("0x1111111111111111111111111111111111111111")
	auth := &stubAuthenticator{session: &Session{Address: address, Source: SourceKeystore}}
	manager := NewSessionManager(auth, logging.NewNoopLogger())

	session, err := manager.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, address, session.Address)

	// Connecting again must not re-authenticate; the active session wins.
	again, err := manager.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session, again)
	assert.Equal(t, 1, auth.calls)
}

func TestDisconnectClearsSession(t *testing.T) {
	auth := &stubAuthenticator{session: &Session{
		Address: common.HexToAddress("0x1111111111111111111111111111111111111111"),
	}}
	manager := NewSessionManager(auth, logging.NewNoopLogger())

	_, err := manager.Connect(context.Background())
	require.NoError(t, err)

	manager.Disconnect()
	_, err = manager.Active()
	assert.ErrorIs(t, err, ErrNoSession)

	// Reconnect after disconnect goes back through the authenticator.
	_, err = manager.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, auth.calls)
}

func TestConnectPropagatesCancellation(t *testing.T) {
	auth := &stubAuthenticator{err: ErrUserCancelled}
	manager := NewSessionManager(auth, logging.NewNoopLogger())

	_, err := manager.Connect(context.Background())
	assert.ErrorIs(t, err, ErrUserCancelled)

	_, err = manager.Active()
	assert.ErrorIs(t, err, ErrNoSession, "cancelled connect must leave no session behind")
}

func TestHostedAuthenticatorSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"SUCCESS","data":{"wallet":"0x2222222222222222222222222222222222222222"}}`))
	}))
	defer server.Close()

	auth := NewHostedAuthenticator(server.URL, time.Second, logging.NewNoopLogger())
	session, err := auth.Authenticate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress("0x2222222222222222222222222222222222222222"), session.Address)
	assert.Equal(t, SourceHosted, session.Source)

	_, err = session.Transactor()
	assert.ErrorIs(t, err, ErrNoTransactor, "hosted sessions cannot sign locally")
}

func TestHostedAuthenticatorCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"CANCELLED"}`))
	}))
	defer server.Close()

	auth := NewHostedAuthenticator(server.URL, time.Second, logging.NewNoopLogger())
	_, err := auth.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrUserCancelled)
}

func TestHostedAuthenticatorRejectsBadAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"SUCCESS","data":{"wallet":"not-an-address"}}`))
	}))
	defer server.Close()

	auth := NewHostedAuthenticator(server.URL, time.Second, logging.NewNoopLogger())
	_, err := auth.Authenticate(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUserCancelled))
}

func TestHostedAuthenticatorWaitsWithoutRetrying(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		// Simulate the user taking a while to approve in the host UI.
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"result":"SUCCESS","data":{"wallet":"0x2222222222222222222222222222222222222222"}}`))
	}))
	defer server.Close()

	auth := NewHostedAuthenticator(server.URL, 5*time.Second, logging.NewNoopLogger())
	_, err := auth.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, requests, "a pending approval must not be re-prompted")
}
