package fund

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/nexusfund/nexusfund/evm"
)

func TestBridgeAndExecuteActivity_LazyInit(t *testing.T) {
	bridger := new(MockBridger)
	bridger.On("Initialized").Return(false).Once()
	bridger.On("Initialize", mock.Anything).Return(nil).Once()
	bridger.On("BridgeAndExecute", mock.Anything, mock.MatchedBy(func(req BridgeRequest) bool {
		return req.Amount == "10500000" && req.ToChainID == evm.HomeChainID
	})).Return(&BridgeResult{ExecuteTransactionHash: "0xabc"}, nil).Once()

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	activities := NewActivities(bridger, &MockContractWriter{})
	env.RegisterActivity(activities.BridgeAndExecute)

	val, err := env.ExecuteActivity(activities.BridgeAndExecute, BridgeRequest{
		Token:     "USDC",
		Amount:    "10500000",
		ToChainID: evm.HomeChainID,
	})
	require.NoError(t, err)

	var result BridgeResult
	require.NoError(t, val.Get(&result))
	assert.Equal(t, "0xabc", result.TransactionID())
	bridger.AssertExpectations(t)
}

func TestBridgeAndExecuteActivity_InitFailure(t *testing.T) {
	bridger := new(MockBridger)
	bridger.On("Initialized").Return(false).Once()
	bridger.On("Initialize", mock.Anything).Return(assert.AnError).Once()

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	activities := NewActivities(bridger, &MockContractWriter{})
	env.RegisterActivity(activities.BridgeAndExecute)

	_, err := env.ExecuteActivity(activities.BridgeAndExecute, BridgeRequest{
		Token:     "USDC",
		Amount:    "1000000",
		ToChainID: evm.HomeChainID,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bridge client not ready")
	bridger.AssertExpectations(t)
}

func TestGetUnifiedBalancesActivity(t *testing.T) {
	bridger := new(MockBridger)
	bridger.On("Initialized").Return(true).Once()
	bridger.On("GetUnifiedBalances", mock.Anything, "0x1111111111111111111111111111111111111111").
		Return([]UnifiedBalance{
			{
				ChainID:  evm.HomeChainID,
				Balances: map[string]TokenBalance{"USDC": {Symbol: "USDC", Balance: "5000000", Decimals: 6}},
			},
		}, nil).Once()

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	activities := NewActivities(bridger, &MockContractWriter{})
	env.RegisterActivity(activities.GetUnifiedBalances)

	val, err := env.ExecuteActivity(activities.GetUnifiedBalances, "0x1111111111111111111111111111111111111111")
	require.NoError(t, err)

	var balances []UnifiedBalance
	require.NoError(t, val.Get(&balances))
	require.Len(t, balances, 1)
	assert.Equal(t, "USDC", balances[0].Balances["USDC"].Symbol)
	bridger.AssertExpectations(t)
}

func TestCreateCampaignActivity(t *testing.T) {
	t.Run("writes the scaled goal", func(t *testing.T) {
		writer := &MockContractWriter{}
		writer.On("CreateCampaign", mock.Anything, mock.MatchedBy(func(params evm.CreateCampaignParams) bool {
			return params.Goal.String() == "2500000000" && params.Title == "Clean water"
		})).Return("0xfeed", nil).Once()

		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestActivityEnvironment()

		activities := NewActivities(new(MockBridger), writer)
		env.RegisterActivity(activities.CreateCampaign)

		val, err := env.ExecuteActivity(activities.CreateCampaign, CreateCampaignActivityInput{
			Goal:            "2500000000",
			DurationSeconds: 86400,
			Title:           "Clean water",
		})
		require.NoError(t, err)

		var txHash string
		require.NoError(t, val.Get(&txHash))
		assert.Equal(t, "0xfeed", txHash)
		writer.AssertExpectations(t)
	})

	t.Run("rejects a malformed goal", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestActivityEnvironment()

		activities := NewActivities(new(MockBridger), &MockContractWriter{})
		env.RegisterActivity(activities.CreateCampaign)

		_, err := env.ExecuteActivity(activities.CreateCampaign, CreateCampaignActivityInput{
			Goal:            "not-a-number",
			DurationSeconds: 86400,
			Title:           "Clean water",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid goal amount")
	})
}
