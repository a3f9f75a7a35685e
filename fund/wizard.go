package fund

import (
	"fmt"
	"time"

	"github.com/nexusfund/nexusfund/evm"
)

// CampaignDraft collects the creation wizard's fields across its four
// steps: basic info, funding terms, optional metadata, review.
type CampaignDraft struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	TargetAmount string    `json:"target_amount"`
	Currency     string    `json:"currency"`
	Deadline     time.Time `json:"deadline"`
	ImageURL     string    `json:"image_url"`
	Tags         []string  `json:"tags"`
}

// Wizard step numbers. The sequence is linear; forward navigation is
// gated by the current step's validator.
const (
	StepBasicInfo = 1
	StepFunding   = 2
	StepMetadata  = 3
	StepReview    = 4
)

// ValidateStep checks one wizard step's fields. It is total over step
// numbers: unknown steps are an error, optional steps validate to nil.
func ValidateStep(step int, d CampaignDraft) error {
	switch step {
	case StepBasicInfo:
		if d.Title == "" {
			return fmt.Errorf("title is required")
		}
		if d.Description == "" {
			return fmt.Errorf("description is required")
		}
		if d.Category == "" {
			return fmt.Errorf("category is required")
		}
		return nil
	case StepFunding:
		if d.TargetAmount == "" {
			return fmt.Errorf("target amount is required")
		}
		if d.Currency == "" {
			return fmt.Errorf("currency is required")
		}
		if d.Deadline.IsZero() {
			return fmt.Errorf("deadline is required")
		}
		return nil
	case StepMetadata, StepReview:
		return nil
	default:
		return fmt.Errorf("unknown wizard step %d", step)
	}
}

// NextStep advances the wizard. The transition is a total function of
// (current step, validation result): an invalid step stays put with the
// validation error, the last step stays terminal.
func NextStep(step int, d CampaignDraft) (int, error) {
	if err := ValidateStep(step, d); err != nil {
		return step, err
	}
	if step >= StepReview {
		return StepReview, nil
	}
	return step + 1, nil
}

// ValidateDraft runs every step validator plus the submission-time
// checks: the currency must be in the supported set, the target amount
// must parse to a positive value, and the deadline must be in the
// future. All violations are caught before any contract write.
func ValidateDraft(d CampaignDraft, now time.Time) error {
	for step := StepBasicInfo; step <= StepReview; step++ {
		if err := ValidateStep(step, d); err != nil {
			return err
		}
	}
	if err := validateFundingTerms(d); err != nil {
		return err
	}
	if !d.Deadline.After(now) {
		return fmt.Errorf("deadline must be in the future")
	}
	return nil
}

func validateFundingTerms(d CampaignDraft) error {
	coin, ok := evm.GetStablecoin(d.Currency)
	if !ok {
		return fmt.Errorf("unsupported currency %q", d.Currency)
	}
	amount, err := evm.ParseAmount(d.TargetAmount, coin.Decimals)
	if err != nil {
		return fmt.Errorf("invalid target amount: %w", err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("target amount must be positive")
	}
	return nil
}
