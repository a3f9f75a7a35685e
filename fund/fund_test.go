package fund

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nexusfund/nexusfund/evm"
	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		released bool
		deadline time.Time
		want     CampaignStatus
	}{
		{"released_before_deadline", true, future, CampaignFunded},
		{"released_after_deadline", true, past, CampaignFunded},
		{"unreleased_past_deadline", false, past, CampaignExpired},
		{"unreleased_future_deadline", false, future, CampaignActive},
		{"deadline_exactly_now", false, now, CampaignActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.released, tt.deadline, now))
		})
	}
}

func TestCampaignFromRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	deadline := now.Add(14 * 24 * time.Hour)

	rec := evm.CampaignRecord{
		Creator:     common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Goal:        big.NewInt(5_000_000_000), // 5000 USDC
		Pledged:     big.NewInt(1_250_000_000), // 1250 USDC
		Deadline:    big.NewInt(deadline.Unix()),
		Released:    false,
		Title:       "Community garden",
		Description: "A garden for the block",
		Category:    "community",
		Tags:        []string{"garden"},
	}

	c := CampaignFromRecord(4, rec, "0xEscrow", 84532, now)

	assert.Equal(t, "4", c.ID)
	assert.Equal(t, "Community garden", c.Title)
	assert.InDelta(t, 5000.0, c.TargetAmount, 0.000001)
	assert.InDelta(t, 1250.0, c.CurrentAmount, 0.000001)
	assert.Equal(t, "USDC", c.Currency)
	assert.Equal(t, CampaignActive, c.Status)
	assert.Equal(t, deadline, c.Deadline)
	assert.Equal(t, int64(84532), c.ChainID)
	assert.Equal(t, "0xEscrow", c.EscrowAddress)
}
