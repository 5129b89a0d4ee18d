package credentials

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentdao/talentdao-backend/pkg/contracts"
	httppkg "github.com/talentdao/talentdao-backend/pkg/http"
	"github.com/talentdao/talentdao-backend/pkg/logging"
)

var holder = common.HexToAddress("0xA11Ce00000000000000000000000000000000111")

type fakeToken struct {
	balance      uint64
	ownedTokens  []int64
	enumerable   bool
	uris         map[int64]string
	ownerOfCalls int
	indexCalls   int
}

func (f *fakeToken) BalanceOf(ctx context.Context, owner common.Address) (uint64, error) {
	return f.balance, nil
}

func (f *fakeToken) TokenOfOwnerByIndex(ctx context.Context, owner common.Address, index uint64) (*big.Int, error) {
	f.indexCalls++
	if !f.enumerable {
		return nil, contracts.ErrEnumerationUnsupported
	}
	if index >= uint64(len(f.ownedTokens)) {
		return nil, errors.New("index out of bounds")
	}
	return big.NewInt(f.ownedTokens[index]), nil
}

func (f *fakeToken) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	uri, ok := f.uris[tokenID.Int64()]
	if !ok {
		return "", errors.New("no uri")
	}
	return uri, nil
}

func (f *fakeToken) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	f.ownerOfCalls++
	for _, id := range f.ownedTokens {
		if id == tokenID.Int64() {
			return holder, nil
		}
	}
	return common.Address{}, errors.New("execution reverted: nonexistent token")
}

func inlineURI(name string) string {
	doc := fmt.Sprintf(`{"name":%q,"description":"Completion credential","image":"ipfs://img"}`, name)
	return base64JSONPrefix + base64.StdEncoding.EncodeToString([]byte(doc))
}

func newTestService(t *testing.T, token TokenReader, gateway string) *Service {
	t.Helper()
	client, err := httppkg.NewHTTPClient(nil, logging.NewNoopLogger())
	require.NoError(t, err)
	resolver := NewMetadataResolver(client, nil, gateway, logging.NewNoopLogger())
	return NewService(token, resolver, logging.NewNoopLogger())
}

func TestListUsesEnumerationWhenSupported(t *testing.T) {
	token := &fakeToken{
		balance:     2,
		ownedTokens: []int64{3, 7},
		enumerable:  true,
		uris: map[int64]string{
			3: inlineURI("Job #3 Completed"),
			7: inlineURI("Job #7 Completed"),
		},
	}
	service := newTestService(t, token, "")

	credentials, err := service.List(context.Background(), holder)
	require.NoError(t, err)
	require.Len(t, credentials, 2)

	assert.Equal(t, "3", credentials[0].TokenID)
	require.NotNil(t, credentials[0].Metadata)
	assert.Equal(t, "Job #3 Completed", credentials[0].Metadata.Name)
	assert.Zero(t, token.ownerOfCalls, "enumeration path must not scan")
}

func TestListFallsBackToOwnerScan(t *testing.T) {
	token := &fakeToken{
		balance:     2,
		ownedTokens: []int64{5, 42},
		enumerable:  false,
		uris: map[int64]string{
			5:  inlineURI("Job #5 Completed"),
			42: inlineURI("Job #42 Completed"),
		},
	}
	service := newTestService(t, token, "")

	credentials, err := service.List(context.Background(), holder)
	require.NoError(t, err)
	require.Len(t, credentials, 2)
	assert.Equal(t, "5", credentials[0].TokenID)
	assert.Equal(t, "42", credentials[1].TokenID)
	assert.Equal(t, 42, token.ownerOfCalls, "scan stops once the balance is accounted for")
}

func TestListEmptyBalance(t *testing.T) {
	service := newTestService(t, &fakeToken{balance: 0}, "")

	credentials, err := service.List(context.Background(), holder)
	require.NoError(t, err)
	assert.Empty(t, credentials)
}

func TestListKeepsTokenWhenMetadataUnresolvable(t *testing.T) {
	token := &fakeToken{
		balance:     1,
		ownedTokens: []int64{1},
		enumerable:  true,
		uris:        map[int64]string{1: "ftp://nope"},
	}
	service := newTestService(t, token, "")

	credentials, err := service.List(context.Background(), holder)
	require.NoError(t, err)
	require.Len(t, credentials, 1)
	assert.Equal(t, "1", credentials[0].TokenID)
	assert.Nil(t, credentials[0].Metadata)
}

func TestResolveHTTPMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Job #9 Completed","image":"https://img"}`))
	}))
	defer server.Close()

	client, err := httppkg.NewHTTPClient(nil, logging.NewNoopLogger())
	require.NoError(t, err)
	resolver := NewMetadataResolver(client, nil, "", logging.NewNoopLogger())

	meta, err := resolver.Resolve(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Job #9 Completed", meta.Name)
}

func TestResolveIPFSViaGateway(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ipfs/QmTest", r.URL.Path)
		_, _ = w.Write([]byte(`{"name":"Gateway Credential"}`))
	}))
	defer server.Close()

	client, err := httppkg.NewHTTPClient(nil, logging.NewNoopLogger())
	require.NoError(t, err)
	resolver := NewMetadataResolver(client, nil, server.URL, logging.NewNoopLogger())

	meta, err := resolver.Resolve(context.Background(), "ipfs://QmTest")
	require.NoError(t, err)
	assert.Equal(t, "Gateway Credential", meta.Name)
}

func TestResolveRejectsUnknownScheme(t *testing.T) {
	client, err := httppkg.NewHTTPClient(nil, logging.NewNoopLogger())
	require.NoError(t, err)
	resolver := NewMetadataResolver(client, nil, "", logging.NewNoopLogger())

	_, err = resolver.Resolve(context.Background(), "ar://whatever")
	assert.Error(t, err)
}
