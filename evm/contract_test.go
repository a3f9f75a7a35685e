package evm

import (
	"context"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testContractAddr = "0x4951992d46fa57c50Cb7FcC9137193BE639A9bEE"

func packCampaigns(t *testing.T, records []CampaignRecord) []byte {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(campaignABI))
	require.NoError(t, err)
	out, err := parsed.Methods["getAllCampaigns"].Outputs.Pack(records)
	require.NoError(t, err)
	return out
}

func TestGetAllCampaigns(t *testing.T) {
	client := new(MockClient)
	contract, err := NewCampaignContract(context.Background(), client, testContractAddr, "")
	require.NoError(t, err)

	records := []CampaignRecord{
		{
			Creator:     common.HexToAddress("0x1111111111111111111111111111111111111111"),
			Goal:        big.NewInt(5_000_000_000),
			Pledged:     big.NewInt(1_000_000_000),
			Deadline:    big.NewInt(1_900_000_000),
			Released:    false,
			Title:       "Solar kits",
			Description: "Off-grid solar kits",
			Category:    "environment",
			ImageUrl:    "https://img.example/solar.png",
			Tags:        []string{"solar", "energy"},
		},
	}

	client.On("CallContract", mock.Anything, mock.Anything, mock.Anything).
		Return(packCampaigns(t, records), nil).Once()

	got, err := contract.GetAllCampaigns(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Solar kits", got[0].Title)
	assert.Equal(t, records[0].Creator, got[0].Creator)
	assert.Equal(t, 0, got[0].Goal.Cmp(big.NewInt(5_000_000_000)))
	assert.Equal(t, []string{"solar", "energy"}, got[0].Tags)

	client.AssertExpectations(t)
}

func TestGetAllCampaignsReadFailure(t *testing.T) {
	client := new(MockClient)
	contract, err := NewCampaignContract(context.Background(), client, testContractAddr, "")
	require.NoError(t, err)

	client.On("CallContract", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, assert.AnError).Once()

	_, err = contract.GetAllCampaigns(context.Background())
	require.Error(t, err)
	client.AssertExpectations(t)
}

func TestCreateCampaign(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyHex := hex.EncodeToString(crypto.FromECDSA(key))

	client := new(MockClient)
	client.On("ChainID", mock.Anything).Return(big.NewInt(84532), nil).Once()

	contract, err := NewCampaignContract(context.Background(), client, testContractAddr, keyHex)
	require.NoError(t, err)

	client.On("PendingNonceAt", mock.Anything, crypto.PubkeyToAddress(key.PublicKey)).
		Return(uint64(7), nil).Once()
	client.On("SuggestGasPrice", mock.Anything).Return(big.NewInt(1_000_000_000), nil).Once()
	client.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(200_000), nil).Once()

	var sent *types.Transaction
	client.On("SendTransaction", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*types.Transaction) }).
		Return(nil).Once()
	client.On("TransactionReceipt", mock.Anything, mock.Anything).
		Return(&types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(42)}, nil).Once()
	client.On("BlockNumber", mock.Anything).Return(uint64(42), nil).Once()

	hash, err := contract.CreateCampaign(context.Background(), CreateCampaignParams{
		Goal:            big.NewInt(1_000_000_000),
		DurationSeconds: big.NewInt(86400),
		Title:           "Solar kits",
		Description:     "Off-grid solar kits",
		Category:        "environment",
		ImageURL:        "",
		Tags:            []string{"solar"},
	})
	require.NoError(t, err)
	require.NotNil(t, sent)
	assert.Equal(t, sent.Hash().Hex(), hash)
	assert.Equal(t, uint64(7), sent.Nonce())
	assert.Equal(t, testContractAddr, sent.To().Hex())

	client.AssertExpectations(t)
}

func TestCreateCampaignReverted(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyHex := hex.EncodeToString(crypto.FromECDSA(key))

	client := new(MockClient)
	client.On("ChainID", mock.Anything).Return(big.NewInt(84532), nil).Once()

	contract, err := NewCampaignContract(context.Background(), client, testContractAddr, keyHex)
	require.NoError(t, err)

	client.On("PendingNonceAt", mock.Anything, mock.Anything).Return(uint64(0), nil).Once()
	client.On("SuggestGasPrice", mock.Anything).Return(big.NewInt(1_000_000_000), nil).Once()
	client.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(200_000), nil).Once()
	client.On("SendTransaction", mock.Anything, mock.Anything).Return(nil).Once()
	client.On("TransactionReceipt", mock.Anything, mock.Anything).
		Return(&types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(42)}, nil).Once()

	_, err = contract.CreateCampaign(context.Background(), CreateCampaignParams{
		Goal:            big.NewInt(1_000_000_000),
		DurationSeconds: big.NewInt(86400),
		Title:           "Solar kits",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reverted")
	client.AssertExpectations(t)
}

func TestConfirmTransactionContextEnded(t *testing.T) {
	client := new(MockClient)
	client.On("TransactionReceipt", mock.Anything, mock.Anything).
		Return((*types.Receipt)(nil), assert.AnError)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ConfirmTransaction(ctx, client, common.Hash{}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCreateCampaignReadOnly(t *testing.T) {
	client := new(MockClient)
	contract, err := NewCampaignContract(context.Background(), client, testContractAddr, "")
	require.NoError(t, err)

	_, err = contract.CreateCampaign(context.Background(), CreateCampaignParams{
		Goal:            big.NewInt(1),
		DurationSeconds: big.NewInt(1),
	})
	require.Error(t, err)
}
