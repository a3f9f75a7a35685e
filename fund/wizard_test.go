package fund

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft(now time.Time) CampaignDraft {
	return CampaignDraft{
		Title:        "Community Garden",
		Description:  "Raised beds and tools for the neighborhood plot",
		Category:     "environment",
		TargetAmount: "2500",
		Currency:     "USDC",
		Deadline:     now.Add(30 * 24 * time.Hour),
		ImageURL:     "https://example.com/garden.png",
		Tags:         []string{"community", "green"},
	}
}

func TestValidateStepBasicInfo(t *testing.T) {
	now := time.Now()

	d := validDraft(now)
	assert.NoError(t, ValidateStep(StepBasicInfo, d))

	d.Title = ""
	assert.Error(t, ValidateStep(StepBasicInfo, d))

	d = validDraft(now)
	d.Description = ""
	assert.Error(t, ValidateStep(StepBasicInfo, d))

	d = validDraft(now)
	d.Category = ""
	assert.Error(t, ValidateStep(StepBasicInfo, d))
}

func TestValidateStepFunding(t *testing.T) {
	now := time.Now()

	d := validDraft(now)
	assert.NoError(t, ValidateStep(StepFunding, d))

	d.TargetAmount = ""
	assert.Error(t, ValidateStep(StepFunding, d))

	d = validDraft(now)
	d.Currency = ""
	assert.Error(t, ValidateStep(StepFunding, d))

	d = validDraft(now)
	d.Deadline = time.Time{}
	assert.Error(t, ValidateStep(StepFunding, d))
}

func TestValidateStepOptionalAndUnknown(t *testing.T) {
	assert.NoError(t, ValidateStep(StepMetadata, CampaignDraft{}))
	assert.NoError(t, ValidateStep(StepReview, CampaignDraft{}))
	assert.Error(t, ValidateStep(0, CampaignDraft{}))
	assert.Error(t, ValidateStep(5, CampaignDraft{}))
}

func TestNextStepGatesOnValidation(t *testing.T) {
	now := time.Now()

	// incomplete basic info stays on step 1
	step, err := NextStep(StepBasicInfo, CampaignDraft{})
	assert.Error(t, err)
	assert.Equal(t, StepBasicInfo, step)

	// valid draft walks 1 -> 2 -> 3 -> 4 and stays on 4
	d := validDraft(now)
	step = StepBasicInfo
	for _, want := range []int{StepFunding, StepMetadata, StepReview, StepReview} {
		step, err = NextStep(step, d)
		require.NoError(t, err)
		assert.Equal(t, want, step)
	}
}

func TestValidateDraft(t *testing.T) {
	now := time.Now()
	assert.NoError(t, ValidateDraft(validDraft(now), now))
}

func TestValidateDraftRejectsBadTerms(t *testing.T) {
	now := time.Now()

	d := validDraft(now)
	d.Currency = "DOGE"
	assert.ErrorContains(t, ValidateDraft(d, now), "unsupported currency")

	d = validDraft(now)
	d.TargetAmount = "not-a-number"
	assert.ErrorContains(t, ValidateDraft(d, now), "invalid target amount")

	d = validDraft(now)
	d.TargetAmount = "0"
	assert.ErrorContains(t, ValidateDraft(d, now), "must be positive")
}

func TestValidateDraftRejectsNonFutureDeadline(t *testing.T) {
	now := time.Now()

	d := validDraft(now)
	d.Deadline = now.Add(-time.Hour)
	assert.ErrorContains(t, ValidateDraft(d, now), "deadline must be in the future")

	d.Deadline = now
	assert.ErrorContains(t, ValidateDraft(d, now), "deadline must be in the future")
}
