package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/nexusfund/nexusfund/evm"
	"github.com/nexusfund/nexusfund/fund"
	"github.com/nexusfund/nexusfund/http/api"
	"github.com/nexusfund/nexusfund/internal/stools"
)

// CreatePledgeRequest is one pledge submission. ClientRef, when set,
// pins the workflow ID so an accidental double-submit starts only one
// pledge.
type CreatePledgeRequest struct {
	CampaignID     string `json:"campaign_id"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	PledgerAddress string `json:"pledger_address"`
	SourceChainID  int64  `json:"source_chain_id"`
	TargetChainID  int64  `json:"target_chain_id,omitempty"`
	ClientRef      string `json:"client_ref,omitempty"`
}

func handleCreatePledge(logger *slog.Logger, tc client.Client, contractAddress string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePledgeRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, fmt.Errorf("invalid request: %w", err))
			return
		}

		if req.CampaignID == "" {
			writeBadRequestError(w, fmt.Errorf("campaign_id is required"))
			return
		}
		coin, ok := evm.GetStablecoin(req.Currency)
		if !ok {
			writeBadRequestError(w, fmt.Errorf("unsupported currency %q", req.Currency))
			return
		}
		amount, err := evm.ParseAmount(req.Amount, coin.Decimals)
		if err != nil || !amount.IsPositive() {
			writeBadRequestError(w, fmt.Errorf("amount must be a positive number"))
			return
		}
		if _, ok := evm.GetChainInfo(req.SourceChainID); !ok {
			writeBadRequestError(w, fmt.Errorf("unsupported source chain %d", req.SourceChainID))
			return
		}
		if _, ok := evm.StablecoinAddress(req.Currency, req.SourceChainID); !ok {
			writeBadRequestError(w, fmt.Errorf("%s is not available on chain %d", req.Currency, req.SourceChainID))
			return
		}
		if req.PledgerAddress == "" {
			writeBadRequestError(w, fmt.Errorf("pledger_address is required"))
			return
		}

		workflowID := fmt.Sprintf("pledge-%s", uuid.New().String())
		if req.ClientRef != "" {
			workflowID = fmt.Sprintf("pledge-%s", req.ClientRef)
		}

		workflowOptions := client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: taskQueue(),
			// Completed pledges (including error-step ones) may be
			// resubmitted under the same ID; a running one may not.
			WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		}
		input := fund.PledgeWorkflowInput{
			CampaignID:      req.CampaignID,
			Amount:          req.Amount,
			Currency:        req.Currency,
			PledgerAddress:  req.PledgerAddress,
			SourceChainID:   req.SourceChainID,
			TargetChainID:   req.TargetChainID,
			ContractAddress: contractAddress,
		}
		_, err = tc.ExecuteWorkflow(r.Context(), workflowOptions, fund.PledgeWorkflow, input)
		if err != nil {
			var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
			if errors.As(err, &alreadyStarted) {
				writeJSONResponse(w, api.CreatePledgeResponse{
					Message:  "Pledge already in flight.",
					PledgeID: workflowID,
				}, http.StatusConflict)
				return
			}
			writeInternalError(logger, w, fmt.Errorf("failed to start pledge workflow: %w", err))
			return
		}

		writeJSONResponse(w, api.CreatePledgeResponse{
			Message:  "Pledge submitted.",
			PledgeID: workflowID,
		}, http.StatusOK)
	}
}

func handleGetPledge(l *slog.Logger, tc client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workflowID := r.PathValue("id")
		if workflowID == "" {
			writeBadRequestError(w, fmt.Errorf("missing pledge ID in path"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		resp, err := tc.QueryWorkflow(ctx, workflowID, "", fund.PledgeStatusQuery)
		if err != nil {
			var notFoundErr *serviceerror.NotFound
			if errors.As(err, &notFoundErr) {
				writeNotFoundError(w)
			} else {
				writeInternalError(l, w, fmt.Errorf("failed to query pledge %s: %w", workflowID, err))
			}
			return
		}

		var state fund.PledgeState
		if err := resp.Get(&state); err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to decode pledge state for %s: %w", workflowID, err))
			return
		}
		writeJSONResponse(w, state, http.StatusOK)
	}
}

func handleCancelPledge(l *slog.Logger, tc client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workflowID := r.PathValue("id")
		if workflowID == "" {
			writeBadRequestError(w, fmt.Errorf("missing pledge ID in path"))
			return
		}

		requester := ""
		if claims, ok := r.Context().Value(ctxKeyJWT).(*authJWTClaims); ok && claims != nil {
			requester = claims.Email
		}

		err := tc.SignalWorkflow(r.Context(), workflowID, "", fund.CancelPledgeSignal, fund.CancelPledgeRequest{Requester: requester})
		if err != nil {
			var notFoundErr *serviceerror.NotFound
			if errors.As(err, &notFoundErr) {
				writeNotFoundError(w)
			} else {
				writeInternalError(l, w, fmt.Errorf("failed to signal pledge %s: %w", workflowID, err))
			}
			return
		}
		writeOK(w)
	}
}

func handleGetBalances(l *slog.Logger, bridger fund.Bridger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := r.URL.Query().Get("address")
		if address == "" {
			writeBadRequestError(w, fmt.Errorf("address query parameter is required"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		if !bridger.Initialized() {
			if err := bridger.Initialize(ctx); err != nil {
				writeInternalError(l, w, fmt.Errorf("bridge client not ready: %w", err))
				return
			}
		}
		balances, err := bridger.GetUnifiedBalances(ctx, address)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to fetch balances: %w", err))
			return
		}
		writeJSONResponse(w, balances, http.StatusOK)
	}
}
