package fund

import (
	"context"
	"fmt"
	"math/big"

	"github.com/nexusfund/nexusfund/evm"
	"go.temporal.io/sdk/activity"
)

// ContractWriter is the write side of the contract adapter.
type ContractWriter interface {
	CreateCampaign(ctx context.Context, params evm.CreateCampaignParams) (string, error)
}

// Activities holds the external collaborators the workflows delegate
// to. All protocol work (bridging, signing, execution) happens behind
// these interfaces.
type Activities struct {
	bridger  Bridger
	contract ContractWriter
}

// NewActivities creates the activities instance used by the worker.
func NewActivities(bridger Bridger, contract ContractWriter) *Activities {
	return &Activities{bridger: bridger, contract: contract}
}

// BridgeAndExecute issues the single bridge-and-execute request for a
// pledge. The bridge client initializes lazily on first use.
func (a *Activities) BridgeAndExecute(ctx context.Context, req BridgeRequest) (*BridgeResult, error) {
	logger := activity.GetLogger(ctx)

	if !a.bridger.Initialized() {
		if err := a.bridger.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("bridge client not ready: %w", err)
		}
	}

	logger.Info("submitting bridge-and-execute request",
		"token", req.Token,
		"amount", req.Amount,
		"to_chain_id", req.ToChainID,
		"confirmations", req.RequiredConfirmations)

	result, err := a.bridger.BridgeAndExecute(ctx, req)
	if err != nil {
		return nil, err
	}

	logger.Info("bridge-and-execute resolved", "tx", result.TransactionID())
	return result, nil
}

// CreateCampaignActivityInput carries the pre-validated, pre-scaled
// campaign fields for the contract write.
type CreateCampaignActivityInput struct {
	Goal            string // base units
	DurationSeconds int64
	Title           string
	Description     string
	Category        string
	ImageURL        string
	Tags            []string
}

// CreateCampaign issues the one direct contract write of the creation
// wizard and returns the transaction hash.
func (a *Activities) CreateCampaign(ctx context.Context, in CreateCampaignActivityInput) (string, error) {
	goal, ok := new(big.Int).SetString(in.Goal, 10)
	if !ok {
		return "", fmt.Errorf("invalid goal amount %q", in.Goal)
	}

	txHash, err := a.contract.CreateCampaign(ctx, evm.CreateCampaignParams{
		Goal:            goal,
		DurationSeconds: big.NewInt(in.DurationSeconds),
		Title:           in.Title,
		Description:     in.Description,
		Category:        in.Category,
		ImageURL:        in.ImageURL,
		Tags:            in.Tags,
	})
	if err != nil {
		return "", fmt.Errorf("createCampaign write failed: %w", err)
	}

	activity.GetLogger(ctx).Info("campaign created", "tx", txHash)
	return txHash, nil
}

// GetUnifiedBalances fetches an address's balances across every
// supported chain from the bridge collaborator.
func (a *Activities) GetUnifiedBalances(ctx context.Context, address string) ([]UnifiedBalance, error) {
	if !a.bridger.Initialized() {
		if err := a.bridger.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("bridge client not ready: %w", err)
		}
	}
	return a.bridger.GetUnifiedBalances(ctx, address)
}
