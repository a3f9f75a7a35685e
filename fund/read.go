package fund

import (
	"context"
	"fmt"
	"time"

	"github.com/nexusfund/nexusfund/evm"
)

// CampaignChain is the read side of the contract adapter.
type CampaignChain interface {
	GetAllCampaigns(ctx context.Context) ([]evm.CampaignRecord, error)
	Address() string
}

// ReadModel materializes campaign view models from the authoritative
// on-chain records. It holds no state; every List is a fresh read.
type ReadModel struct {
	chain   CampaignChain
	chainID int64
}

// NewReadModel builds a read model bound to a contract adapter.
func NewReadModel(chain CampaignChain, chainID int64) *ReadModel {
	return &ReadModel{chain: chain, chainID: chainID}
}

// List fetches and maps all campaigns. Read failures propagate; callers
// must not treat them as an empty result set.
func (m *ReadModel) List(ctx context.Context) ([]Campaign, error) {
	records, err := m.chain.GetAllCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read campaigns: %w", err)
	}

	now := time.Now().UTC()
	campaigns := make([]Campaign, 0, len(records))
	for i, rec := range records {
		campaigns = append(campaigns, CampaignFromRecord(i, rec, m.chain.Address(), m.chainID, now))
	}
	return campaigns, nil
}

// Get returns a single campaign by its index-derived ID.
func (m *ReadModel) Get(ctx context.Context, id string) (*Campaign, error) {
	campaigns, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range campaigns {
		if campaigns[i].ID == id {
			return &campaigns[i], nil
		}
	}
	return nil, nil
}
