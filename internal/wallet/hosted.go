package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/talentdao/talentdao-backend/pkg/logging"
)

const (
	hostedResultSuccess   = "SUCCESS"
	hostedResultCancelled = "CANCELLED"
)

// hostedAuthResponse is the embedded wallet host's authentication reply.
type hostedAuthResponse struct {
	Result string `json:"result"`
	Data   struct {
		Wallet    string `json:"wallet"`
		Message   string `json:"message,omitempty"`
		Signature string `json:"signature,omitempty"`
	} `json:"data"`
}

// HostedAuthenticator drives the embedded wallet host's authentication flow.
// When the host is configured it is used exclusively; the keystore path never
// runs alongside it.
type HostedAuthenticator struct {
	authURL string
	client  *http.Client
	logger  logging.Logger
}

var _ Authenticator = (*HostedAuthenticator)(nil)

// NewHostedAuthenticator builds a host client with a confirmation-class
// timeout. The request is sent exactly once: the host blocks while the user
// decides, so a retry would prompt them again.
func NewHostedAuthenticator(authURL string, timeout time.Duration, logger logging.Logger) *HostedAuthenticator {
	return &HostedAuthenticator{
		authURL: authURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (a *HostedAuthenticator) Source() Source { return SourceHosted }

// Authenticate requests an identity from the host. The call suspends until
// the user approves or declines in the host UI.
func (a *HostedAuthenticator) Authenticate(ctx context.Context) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.authURL, bytes.NewReader([]byte(`{}`)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wallet host authentication failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wallet host returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet host response: %w", err)
	}

	var auth hostedAuthResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return nil, fmt.Errorf("undecodable wallet host response: %w", err)
	}

	switch auth.Result {
	case hostedResultSuccess:
		if !common.IsHexAddress(auth.Data.Wallet) {
			return nil, fmt.Errorf("wallet host returned invalid address %q", auth.Data.Wallet)
		}
		return &Session{
			Address: common.HexToAddress(auth.Data.Wallet),
			Source:  SourceHosted,
		}, nil
	case hostedResultCancelled:
		return nil, ErrUserCancelled
	default:
		return nil, fmt.Errorf("wallet host authentication returned %q", auth.Result)
	}
}
