package fund

import (
	"strconv"
	"time"

	"github.com/nexusfund/nexusfund/evm"
)

// CampaignStatus is derived, never stored: funded iff the released
// flag is set, else expired iff the deadline has passed, else active.
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignFunded    CampaignStatus = "funded"
	CampaignExpired   CampaignStatus = "expired"
	CampaignCancelled CampaignStatus = "cancelled"
)

// PledgeStatus tracks a pledge through the bridge-and-deposit flow.
type PledgeStatus string

const (
	PledgePending   PledgeStatus = "pending"
	PledgeBridged   PledgeStatus = "bridged"
	PledgeDeposited PledgeStatus = "deposited"
	PledgeRefunded  PledgeStatus = "refunded"
)

// Campaign is the view model materialized from the on-chain record on
// each read. It is never persisted; a page reload starts fresh.
type Campaign struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Creator       string         `json:"creator"`
	TargetAmount  float64        `json:"target_amount"`
	CurrentAmount float64        `json:"current_amount"`
	Currency      string         `json:"currency"`
	Deadline      time.Time      `json:"deadline"`
	Status        CampaignStatus `json:"status"`
	Category      string         `json:"category"`
	ImageURL      string         `json:"image_url,omitempty"`
	Tags          []string       `json:"tags"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Backers       int            `json:"backers"`
	EscrowAddress string         `json:"escrow_address"`
	ChainID       int64          `json:"chain_id"`
	Pledges       []Pledge       `json:"pledges"`
	Comments      []Comment      `json:"comments"`
}

// Pledge is the logical pledge record. Authoritative pledge state lives
// in the bridge result and the contract's pledged accumulator; this
// shape exists for API responses and the session-local echo.
type Pledge struct {
	ID             string       `json:"id"`
	CampaignID     string       `json:"campaign_id"`
	PledgerAddress string       `json:"pledger_address"`
	Amount         string       `json:"amount"`
	Currency       string       `json:"currency"`
	SourceChainID  int64        `json:"source_chain_id"`
	TargetChainID  int64        `json:"target_chain_id"`
	TxHash         string       `json:"tx_hash,omitempty"`
	Status         PledgeStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	BridgedAt      *time.Time   `json:"bridged_at,omitempty"`
}

// MaxCommentLength bounds comment and reply content.
const MaxCommentLength = 1000

// Comment is a session-local optimistic echo. Authoritative is always
// false until a backend of record exists; ClientRef is the correlation
// id that would reconcile the echo against a server-confirmed record.
type Comment struct {
	ID            string    `json:"id"`
	CampaignID    string    `json:"campaign_id"`
	Author        string    `json:"author"`
	AuthorAddress string    `json:"author_address"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	Likes         int       `json:"likes"`
	IsCreator     bool      `json:"is_creator"`
	Authoritative bool      `json:"authoritative"`
	ClientRef     string    `json:"client_ref,omitempty"`
	Replies       []Reply   `json:"replies"`
}

// Reply mirrors Comment without nesting.
type Reply struct {
	ID            string    `json:"id"`
	CommentID     string    `json:"comment_id"`
	Author        string    `json:"author"`
	AuthorAddress string    `json:"author_address"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	Likes         int       `json:"likes"`
	IsCreator     bool      `json:"is_creator"`
	Authoritative bool      `json:"authoritative"`
}

// DeriveStatus computes campaign status from the released flag and
// deadline. Released wins regardless of deadline.
func DeriveStatus(released bool, deadline, now time.Time) CampaignStatus {
	if released {
		return CampaignFunded
	}
	if deadline.Before(now) {
		return CampaignExpired
	}
	return CampaignActive
}

// CampaignFromRecord maps a raw on-chain tuple into the Campaign view
// model. Amounts are descaled by the currency's declared precision.
func CampaignFromRecord(index int, rec evm.CampaignRecord, escrowAddress string, chainID int64, now time.Time) Campaign {
	const currency = "USDC"
	coin, _ := evm.GetStablecoin(currency)

	goal := evm.Amount{Value: rec.Goal, Decimals: coin.Decimals}
	pledged := evm.Amount{Value: rec.Pledged, Decimals: coin.Decimals}
	deadline := time.Unix(rec.Deadline.Int64(), 0).UTC()

	return Campaign{
		ID:            strconv.Itoa(index),
		Title:         rec.Title,
		Description:   rec.Description,
		Creator:       rec.Creator.Hex(),
		TargetAmount:  goal.ToFloat(),
		CurrentAmount: pledged.ToFloat(),
		Currency:      currency,
		Deadline:      deadline,
		Status:        DeriveStatus(rec.Released, deadline, now),
		Category:      rec.Category,
		ImageURL:      rec.ImageUrl,
		Tags:          rec.Tags,
		// The contract does not store creation or update times.
		CreatedAt:     deadline.Add(-30 * 24 * time.Hour),
		UpdatedAt:     deadline,
		EscrowAddress: escrowAddress,
		ChainID:       chainID,
		Pledges:       []Pledge{},
		Comments:      []Comment{},
	}
}
