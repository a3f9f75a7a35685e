package fund

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/nexusfund/nexusfund/evm"
)

// MockContractWriter is a mock implementation of ContractWriter for testing.
type MockContractWriter struct {
	mock.Mock
}

func (m *MockContractWriter) CreateCampaign(ctx context.Context, params evm.CreateCampaignParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}

// fakeBridger counts calls and can block until the activity context is
// cancelled, for exercising the cancel path with a real activity.
type fakeBridger struct {
	mu            sync.Mutex
	bridgeCalls   int
	blockOnBridge bool
	result        *BridgeResult
	err           error
}

func (f *fakeBridger) Initialize(ctx context.Context) error { return nil }
func (f *fakeBridger) Initialized() bool                    { return true }

func (f *fakeBridger) GetUnifiedBalances(ctx context.Context, address string) ([]UnifiedBalance, error) {
	return nil, nil
}

func (f *fakeBridger) BridgeAndExecute(ctx context.Context, req BridgeRequest) (*BridgeResult, error) {
	f.mu.Lock()
	f.bridgeCalls++
	block := f.blockOnBridge
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.result, f.err
}

func (f *fakeBridger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bridgeCalls
}

func pledgeInput() PledgeWorkflowInput {
	return PledgeWorkflowInput{
		CampaignID:      "3",
		Amount:          "10.5",
		Currency:        "USDC",
		PledgerAddress:  "0x1111111111111111111111111111111111111111",
		SourceChainID:   11155111,
		ContractAddress: "0x4951992d46fa57c50Cb7FcC9137193BE639A9bEE",
	}
}

func TestPledgeWorkflow_Success(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(PledgeWorkflow)

	a := NewActivities(&fakeBridger{}, nil)
	env.RegisterActivity(a)

	env.OnActivity(a.BridgeAndExecute, mock.Anything, mock.MatchedBy(func(req BridgeRequest) bool {
		return req.Token == "USDC" &&
			req.Amount == "10500000" &&
			req.ToChainID == evm.HomeChainID &&
			req.Execute.FunctionName == "deposit" &&
			req.Execute.TokenApproval.Amount == "10500000" &&
			req.WaitForReceipt
	})).Return(&BridgeResult{ExecuteTransactionHash: "0xabc123"}, nil).Once()

	env.ExecuteWorkflow(PledgeWorkflow, pledgeInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state *PledgeState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, StepSuccess, state.Step)
	assert.Equal(t, "0xabc123", state.TxID)
	assert.Equal(t, PledgeDeposited, state.Status)
	assert.Equal(t, "10.5", state.Amount)
	env.AssertExpectations(t)
}

func TestPledgeWorkflow_ExplorerURLFallback(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(PledgeWorkflow)

	a := NewActivities(&fakeBridger{}, nil)
	env.RegisterActivity(a)
	env.OnActivity(a.BridgeAndExecute, mock.Anything, mock.Anything).
		Return(&BridgeResult{ExecuteExplorerURL: "https://sepolia.basescan.org/tx/0xabc"}, nil).Once()

	env.ExecuteWorkflow(PledgeWorkflow, pledgeInput())

	var state *PledgeState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, StepSuccess, state.Step)
	assert.Equal(t, "https://sepolia.basescan.org/tx/0xabc", state.TxID)
	// no execute hash to point at, so the pledge is bridged, not deposited
	assert.Equal(t, PledgeBridged, state.Status)
}

func TestPledgeWorkflow_BridgeRejected(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(PledgeWorkflow)

	a := NewActivities(&fakeBridger{}, nil)
	env.RegisterActivity(a)
	env.OnActivity(a.BridgeAndExecute, mock.Anything, mock.Anything).
		Return(nil, temporal.NewApplicationError("insufficient liquidity", "bridge")).Once()

	env.ExecuteWorkflow(PledgeWorkflow, pledgeInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state *PledgeState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, StepError, state.Step)
	assert.Equal(t, "insufficient liquidity", state.Error)
	// the entered amount survives for retry
	assert.Equal(t, "10.5", state.Amount)
	assert.Equal(t, PledgePending, state.Status)
}

func TestPledgeWorkflow_InvalidInputNeverBridges(t *testing.T) {
	cases := []struct {
		name  string
		mutd  func(*PledgeWorkflowInput)
		error string
	}{
		{"empty amount", func(in *PledgeWorkflowInput) { in.Amount = "" }, "amount must be a positive number"},
		{"zero amount", func(in *PledgeWorkflowInput) { in.Amount = "0" }, "amount must be a positive number"},
		{"negative amount", func(in *PledgeWorkflowInput) { in.Amount = "-5" }, "amount must be a positive number"},
		{"garbage amount", func(in *PledgeWorkflowInput) { in.Amount = "ten" }, "amount must be a positive number"},
		{"unknown currency", func(in *PledgeWorkflowInput) { in.Currency = "DOGE" }, "unsupported currency"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := &testsuite.WorkflowTestSuite{}
			env := ts.NewTestWorkflowEnvironment()
			env.RegisterWorkflow(PledgeWorkflow)

			bridger := &fakeBridger{}
			env.RegisterActivity(NewActivities(bridger, nil))

			in := pledgeInput()
			tc.mutd(&in)
			env.ExecuteWorkflow(PledgeWorkflow, in)

			require.True(t, env.IsWorkflowCompleted())
			require.NoError(t, env.GetWorkflowError())

			var state *PledgeState
			require.NoError(t, env.GetWorkflowResult(&state))
			assert.Equal(t, StepError, state.Step)
			assert.Equal(t, tc.error, state.Error)
			assert.Zero(t, bridger.calls())
		})
	}
}

func TestPledgeWorkflow_CancelMidBridge(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(PledgeWorkflow)

	bridger := &fakeBridger{blockOnBridge: true}
	env.RegisterActivity(NewActivities(bridger, nil))

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(CancelPledgeSignal, CancelPledgeRequest{Requester: "pledger"})
	}, time.Second)

	env.ExecuteWorkflow(PledgeWorkflow, pledgeInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state *PledgeState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, StepError, state.Step)
	assert.Equal(t, "pledge cancelled", state.Error)
	assert.Equal(t, PledgeRefunded, state.Status)
	assert.Equal(t, 1, bridger.calls())
}

func TestPledgeWorkflow_StatusQuery(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(PledgeWorkflow)

	a := NewActivities(&fakeBridger{}, nil)
	env.RegisterActivity(a)
	env.OnActivity(a.BridgeAndExecute, mock.Anything, mock.Anything).
		Return(&BridgeResult{ExecuteTransactionHash: "0xfeed"}, nil).Once()

	env.ExecuteWorkflow(PledgeWorkflow, pledgeInput())
	require.True(t, env.IsWorkflowCompleted())

	val, err := env.QueryWorkflow(PledgeStatusQuery)
	require.NoError(t, err)
	var state PledgeState
	require.NoError(t, val.Get(&state))
	assert.Equal(t, StepSuccess, state.Step)
	assert.Equal(t, "0xfeed", state.TxID)
}

func TestCreateCampaignWorkflow_Success(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(CreateCampaignWorkflow)

	writer := &MockContractWriter{}
	a := NewActivities(&fakeBridger{}, writer)
	env.RegisterActivity(a)

	draft := validDraft(env.Now())
	env.OnActivity(a.CreateCampaign, mock.Anything, mock.MatchedBy(func(in CreateCampaignActivityInput) bool {
		return in.Goal == "2500000000" && // 2500 USDC in base units
			in.Title == draft.Title &&
			in.DurationSeconds > 0
	})).Return("0xdeadbeef", nil).Once()

	env.ExecuteWorkflow(CreateCampaignWorkflow, CreateCampaignWorkflowInput{Draft: draft})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result *CreateCampaignResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "0xdeadbeef", result.TxHash)
	env.AssertExpectations(t)
}

func TestCreateCampaignWorkflow_RejectsPastDeadline(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(CreateCampaignWorkflow)

	writer := &MockContractWriter{}
	env.RegisterActivity(NewActivities(&fakeBridger{}, writer))

	draft := validDraft(env.Now())
	draft.Deadline = env.Now().Add(-time.Hour)
	env.ExecuteWorkflow(CreateCampaignWorkflow, CreateCampaignWorkflowInput{Draft: draft})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadline must be in the future")
	writer.AssertNotCalled(t, "CreateCampaign", mock.Anything, mock.Anything)
}
