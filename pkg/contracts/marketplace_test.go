package contracts

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentdao/talentdao-backend/pkg/logging"
)

func parsedMarketplaceABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(marketplaceABI))
	require.NoError(t, err)
	return parsed
}

func TestABIsParse(t *testing.T) {
	for name, raw := range map[string]string{
		"marketplace": marketplaceABI,
		"erc20":       erc20ABI,
		"erc721":      erc721ABI,
	} {
		_, err := abi.JSON(strings.NewReader(raw))
		assert.NoError(t, err, "abi %s must parse", name)
	}
}

func TestDecodeJobBasicInfoRoundTrip(t *testing.T) {
	parsed := parsedMarketplaceABI(t)
	outputs := parsed.Methods["getJobBasicInfo"].Outputs

	requester := common.HexToAddress("0x1111111111111111111111111111111111111111")
	worker := common.HexToAddress("0x2222222222222222222222222222222222222222")
	reward := big.NewInt(1e18)

	packed, err := outputs.Pack(requester, worker, reward, big.NewInt(1764000000), "Landing Page Redesign", big.NewInt(1))
	require.NoError(t, err)

	values, err := outputs.Unpack(packed)
	require.NoError(t, err)

	info, err := decodeJobBasicInfo(7, values)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), info.ID)
	assert.Equal(t, requester, info.Requester)
	assert.Equal(t, worker, info.Worker)
	assert.Equal(t, 0, reward.Cmp(info.Reward))
	assert.Equal(t, "Landing Page Redesign", info.Title)
	assert.Equal(t, StatusSubmitted, info.Status)
}

func TestDecodeJobRecordRoundTrip(t *testing.T) {
	parsed := parsedMarketplaceABI(t)
	outputs := parsed.Methods["getJob"].Outputs

	packed, err := outputs.Pack(
		big.NewInt(3),
		common.HexToAddress("0x1111111111111111111111111111111111111111"),
		common.HexToAddress("0x2222222222222222222222222222222222222222"),
		big.NewInt(500),
		big.NewInt(1764000000),
		"React Component Library",
		"Build a component library with docs.",
		"https://github.com/example/components",
		big.NewInt(2),
	)
	require.NoError(t, err)

	values, err := outputs.Unpack(packed)
	require.NoError(t, err)

	record, err := decodeJobRecord(values)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), record.ID)
	assert.Equal(t, "React Component Library", record.Title)
	assert.Equal(t, "https://github.com/example/components", record.DeliveryURL)
	assert.Equal(t, StatusPaid, record.Status)
}

func TestJobIDFromReceipt(t *testing.T) {
	address := common.HexToAddress("0x88498F482EA125f326b03Df57e3F49e247426e2f")
	m := &Marketplace{
		address: address,
		abi:     parsedMarketplaceABI(t),
		logger:  logging.NewNoopLogger(),
	}

	jobCreatedTopic := m.abi.Events["JobCreated"].ID
	receipt := &gethtypes.Receipt{
		Logs: []*gethtypes.Log{
			{
				Address: address,
				Topics: []common.Hash{
					jobCreatedTopic,
					common.BigToHash(big.NewInt(42)),
					common.BytesToHash(common.HexToAddress("0x1111111111111111111111111111111111111111").Bytes()),
				},
			},
		},
	}

	jobID, err := m.jobIDFromReceipt(receipt)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), jobID)
}

func TestJobIDFromReceiptMissingEvent(t *testing.T) {
	m := &Marketplace{
		address: common.HexToAddress("0x88498F482EA125f326b03Df57e3F49e247426e2f"),
		abi:     parsedMarketplaceABI(t),
		logger:  logging.NewNoopLogger(),
	}
	_, err := m.jobIDFromReceipt(&gethtypes.Receipt{})
	assert.Error(t, err)
}
