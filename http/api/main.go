package api

import "time"

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type DefaultJSONResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type CreateCampaignResponse struct {
	Message    string `json:"message"`
	WorkflowID string `json:"workflow_id"`
}

type CreatePledgeResponse struct {
	Message  string `json:"message"`
	PledgeID string `json:"pledge_id"`
}

type CommentResponse struct {
	Message   string    `json:"message"`
	CommentID string    `json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`
}
