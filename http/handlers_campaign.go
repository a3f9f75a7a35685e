package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"go.temporal.io/sdk/client"

	"github.com/nexusfund/nexusfund/fund"
	"github.com/nexusfund/nexusfund/http/api"
	"github.com/nexusfund/nexusfund/internal/stools"
)

const campaignCacheKey = "campaigns"

// CampaignReader is the read side the campaign handlers depend on.
type CampaignReader interface {
	List(ctx context.Context) ([]fund.Campaign, error)
	Get(ctx context.Context, id string) (*fund.Campaign, error)
}

// listCampaigns serves the full campaign set, read-through cached. A
// read failure is surfaced to the caller; it is never flattened into an
// empty result.
func listCampaigns(ctx context.Context, reader CampaignReader, cache *lru.LRU[string, []fund.Campaign]) ([]fund.Campaign, error) {
	if cached, ok := cache.Get(campaignCacheKey); ok {
		return cached, nil
	}
	campaigns, err := reader.List(ctx)
	if err != nil {
		return nil, err
	}
	cache.Add(campaignCacheKey, campaigns)
	return campaigns, nil
}

func handleListCampaigns(l *slog.Logger, reader CampaignReader, cache *lru.LRU[string, []fund.Campaign]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaigns, err := listCampaigns(r.Context(), reader, cache)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to list campaigns: %w", err))
			return
		}

		q := r.URL.Query()
		filter := fund.Filter{
			Search:   q.Get("q"),
			Category: q.Get("category"),
			Status:   q.Get("status"),
			Sort:     fund.SortKey(q.Get("sort")),
		}
		writeJSONResponse(w, filter.Apply(campaigns), http.StatusOK)
	}
}

func handleGetCampaign(l *slog.Logger, reader CampaignReader, cache *lru.LRU[string, []fund.Campaign]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			writeBadRequestError(w, fmt.Errorf("missing campaign ID in path"))
			return
		}

		campaigns, err := listCampaigns(r.Context(), reader, cache)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to read campaign %s: %w", id, err))
			return
		}
		for i := range campaigns {
			if campaigns[i].ID == id {
				writeJSONResponse(w, campaigns[i], http.StatusOK)
				return
			}
		}
		writeNotFoundError(w)
	}
}

// ValidateCampaignStepRequest checks a single wizard step.
type ValidateCampaignStepRequest struct {
	Step  int                `json:"step"`
	Draft fund.CampaignDraft `json:"draft"`
}

type validateCampaignStepResponse struct {
	Valid    bool   `json:"valid"`
	NextStep int    `json:"next_step"`
	Error    string `json:"error,omitempty"`
}

// handleValidateCampaignStep runs the wizard's per-step validation
// server-side so clients can gate forward navigation.
func handleValidateCampaignStep(l *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ValidateCampaignStepRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, fmt.Errorf("invalid request: %w", err))
			return
		}
		next, err := fund.NextStep(req.Step, req.Draft)
		resp := validateCampaignStepResponse{Valid: err == nil, NextStep: next}
		if err != nil {
			resp.Error = err.Error()
		}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}

// CreateCampaignRequest carries the completed wizard draft.
type CreateCampaignRequest struct {
	Draft fund.CampaignDraft `json:"draft"`
}

func handleCreateCampaign(logger *slog.Logger, tc client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateCampaignRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, fmt.Errorf("invalid request: %w", err))
			return
		}

		// Full draft validation runs here and again inside the
		// workflow; nothing reaches the chain on a bad draft.
		if err := fund.ValidateDraft(req.Draft, time.Now().UTC()); err != nil {
			writeBadRequestError(w, err)
			return
		}

		workflowID := fmt.Sprintf("campaign-create-%s", uuid.New().String())
		workflowOptions := client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: taskQueue(),
		}
		_, err := tc.ExecuteWorkflow(r.Context(), workflowOptions, fund.CreateCampaignWorkflow, fund.CreateCampaignWorkflowInput{Draft: req.Draft})
		if err != nil {
			writeInternalError(logger, w, fmt.Errorf("failed to start workflow: %w", err))
			return
		}

		writeJSONResponse(w, api.CreateCampaignResponse{
			Message:    "Campaign creation initiated.",
			WorkflowID: workflowID,
		}, http.StatusOK)
	}
}
