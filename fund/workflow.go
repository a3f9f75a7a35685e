package fund

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nexusfund/nexusfund/evm"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// TaskQueueName is the task queue for all workflows.
const TaskQueueName = "nexusfund"

// SuccessDisplayDelay is how long a completed pledge is held in the
// success step before the workflow finalizes, giving status pollers the
// window the dialog shows its confirmation in.
const SuccessDisplayDelay = 3 * time.Second

// Signal and query names for the pledge workflow.
const (
	CancelPledgeSignal = "cancel"
	PledgeStatusQuery  = "status"
)

// Defaults applied when the submission omits them.
const (
	defaultBridgeTimeout = 5 * time.Minute
	defaultConfirmations = 3
)

// PledgeStep is the workflow's user-visible state: form -> bridging ->
// success, or form -> bridging -> error with user-driven retry.
type PledgeStep string

const (
	StepForm     PledgeStep = "form"
	StepBridging PledgeStep = "bridging"
	StepSuccess  PledgeStep = "success"
	StepError    PledgeStep = "error"
)

// PledgeWorkflowInput is one pledge submission.
type PledgeWorkflowInput struct {
	CampaignID      string
	Amount          string // human-entered decimal string
	Currency        string
	PledgerAddress  string
	SourceChainID   int64
	TargetChainID   int64  // defaults to the campaign home chain
	ContractAddress string // campaign contract on the target chain
	Confirmations   uint64
	BridgeTimeout   time.Duration
}

// CancelPledgeRequest abandons an in-flight pledge.
type CancelPledgeRequest struct {
	Requester string
}

// PledgeState is both the status-query answer and the terminal result.
// The originally entered amount is preserved so a retry can resubmit
// it unchanged.
type PledgeState struct {
	Step       PledgeStep   `json:"step"`
	CampaignID string       `json:"campaign_id"`
	Amount     string       `json:"amount"`
	Currency   string       `json:"currency"`
	TxID       string       `json:"tx_id,omitempty"`
	Error      string       `json:"error,omitempty"`
	Status     PledgeStatus `json:"status"`
}

// PledgeWorkflow orchestrates one cross-chain pledge: validate the
// entered amount, issue exactly one bridge-and-execute request, and
// settle in a terminal success or error step. There is no automatic
// retry and no partial-success handling; the bridge collaborator owns
// atomicity. A cancel signal aborts the in-flight bridge call and
// marks the pledge refunded.
func PledgeWorkflow(ctx workflow.Context, input PledgeWorkflowInput) (*PledgeState, error) {
	logger := workflow.GetLogger(ctx)

	state := &PledgeState{
		Step:       StepForm,
		CampaignID: input.CampaignID,
		Amount:     input.Amount,
		Currency:   input.Currency,
		Status:     PledgePending,
	}
	if err := workflow.SetQueryHandler(ctx, PledgeStatusQuery, func() (*PledgeState, error) {
		return state, nil
	}); err != nil {
		return nil, err
	}

	// Validation failures terminate before any activity runs.
	coin, ok := evm.GetStablecoin(input.Currency)
	if !ok {
		state.Step = StepError
		state.Error = "unsupported currency"
		return state, nil
	}
	amount, err := evm.ParseAmount(input.Amount, coin.Decimals)
	if err != nil || !amount.IsPositive() {
		state.Step = StepError
		state.Error = "amount must be a positive number"
		return state, nil
	}

	targetChain := input.TargetChainID
	if targetChain == 0 {
		targetChain = evm.HomeChainID
	}
	confirmations := input.Confirmations
	if confirmations == 0 {
		confirmations = defaultConfirmations
	}
	timeout := input.BridgeTimeout
	if timeout == 0 {
		timeout = defaultBridgeTimeout
	}

	// A cancel signal detaches the user from the flow; cancelling the
	// activity context is what actually aborts the bridge call.
	cancelled := false
	bridgeCtx, cancelBridge := workflow.WithCancel(ctx)
	workflow.Go(ctx, func(gctx workflow.Context) {
		ch := workflow.GetSignalChannel(gctx, CancelPledgeSignal)
		var sig CancelPledgeRequest
		if ch.Receive(gctx, &sig) {
			logger.Info("pledge cancel requested", "requester", sig.Requester)
			cancelled = true
			cancelBridge()
		}
	})

	scaled := amount.BaseUnits()
	req := BridgeRequest{
		Token:     input.Currency,
		Amount:    scaled,
		ToChainID: targetChain,
		Execute: ExecuteDescriptor{
			ContractAddress: input.ContractAddress,
			ContractABI:     json.RawMessage(evm.DepositABIJSON),
			FunctionName:    "deposit",
			FunctionParams:  []any{input.CampaignID, scaled},
			TokenApproval:   TokenApproval{Token: input.Currency, Amount: scaled},
		},
		WaitForReceipt:        true,
		RequiredConfirmations: confirmations,
	}

	state.Step = StepBridging
	actCtx := workflow.WithActivityOptions(bridgeCtx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		HeartbeatTimeout:    time.Minute,
		WaitForCancellation: true,
		RetryPolicy: &temporal.RetryPolicy{
			// Every failure is terminal until explicit user action.
			MaximumAttempts: 1,
		},
	})

	var a *Activities
	var result *BridgeResult
	err = workflow.ExecuteActivity(actCtx, a.BridgeAndExecute, req).Get(actCtx, &result)
	if err != nil {
		if cancelled || temporal.IsCanceledError(err) {
			logger.Info("pledge cancelled mid-bridge", "campaign_id", input.CampaignID)
			state.Step = StepError
			state.Error = "pledge cancelled"
			state.Status = PledgeRefunded
			return state, nil
		}
		logger.Error("bridge-and-execute failed", "error", err)
		state.Step = StepError
		state.Error = bridgeErrorMessage(err)
		return state, nil
	}

	state.TxID = result.TransactionID()
	state.Step = StepSuccess
	// Without an execute hash the deposit ran but cannot be pointed
	// at directly; report the pledge as bridged rather than deposited.
	if result.ExecuteTransactionHash != "" {
		state.Status = PledgeDeposited
	} else {
		state.Status = PledgeBridged
	}
	logger.Info("pledge bridged and deposited",
		"campaign_id", input.CampaignID, "tx", state.TxID, "status", state.Status)

	// Hold the success state for the fixed display window, then
	// finalize exactly once.
	if err := workflow.Sleep(ctx, SuccessDisplayDelay); err != nil {
		return state, nil
	}
	return state, nil
}

// bridgeErrorMessage extracts the collaborator's failure reason, or
// falls back to a generic message.
func bridgeErrorMessage(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Message() != "" {
		return appErr.Message()
	}
	var timeoutErr *temporal.TimeoutError
	if errors.As(err, &timeoutErr) {
		return "bridge request timed out"
	}
	return "an error occurred while processing the pledge"
}

// CreateCampaignWorkflowInput wraps the wizard's validated draft.
type CreateCampaignWorkflowInput struct {
	Draft CampaignDraft
}

// CreateCampaignResult reports the creation transaction.
type CreateCampaignResult struct {
	TxHash string `json:"tx_hash"`
}

// CreateCampaignWorkflow validates the completed wizard draft and
// issues the single createCampaign contract write. Non-future
// deadlines are rejected before the write is attempted.
func CreateCampaignWorkflow(ctx workflow.Context, input CreateCampaignWorkflowInput) (*CreateCampaignResult, error) {
	now := workflow.Now(ctx).UTC()
	if err := ValidateDraft(input.Draft, now); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "validation", err)
	}

	coin, _ := evm.GetStablecoin(input.Draft.Currency)
	goal, err := evm.ParseAmount(input.Draft.TargetAmount, coin.Decimals)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "validation", err)
	}
	durationSeconds := int64(input.Draft.Deadline.Sub(now).Seconds())

	actCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			// One write; a retry could double-create the campaign.
			MaximumAttempts: 1,
		},
	})

	var a *Activities
	var txHash string
	err = workflow.ExecuteActivity(actCtx, a.CreateCampaign, CreateCampaignActivityInput{
		Goal:            goal.BaseUnits(),
		DurationSeconds: durationSeconds,
		Title:           input.Draft.Title,
		Description:     input.Draft.Description,
		Category:        input.Draft.Category,
		ImageURL:        input.Draft.ImageURL,
		Tags:            input.Draft.Tags,
	}).Get(actCtx, &txHash)
	if err != nil {
		return nil, err
	}

	workflow.GetLogger(ctx).Info("campaign creation submitted", "tx", txHash)
	return &CreateCampaignResult{TxHash: txHash}, nil
}
