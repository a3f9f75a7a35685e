package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nexusfund/nexusfund/fund"
	"github.com/nexusfund/nexusfund/http/api"
	"github.com/nexusfund/nexusfund/internal/stools"
)

// CreateCommentRequest posts a comment or, when ParentID is set, a
// reply to an existing comment.
type CreateCommentRequest struct {
	Content       string `json:"content"`
	Author        string `json:"author"`
	AuthorAddress string `json:"author_address,omitempty"`
	ParentID      string `json:"parent_id,omitempty"`
	ClientRef     string `json:"client_ref,omitempty"`
}

func handleListComments(l *slog.Logger, cache *lru.LRU[string, []fund.Comment]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaignID := r.PathValue("id")
		if campaignID == "" {
			writeBadRequestError(w, fmt.Errorf("missing campaign ID in path"))
			return
		}
		comments, ok := cache.Get(campaignID)
		if !ok {
			comments = []fund.Comment{}
		}
		writeJSONResponse(w, comments, http.StatusOK)
	}
}

// handleCreateComment stores a session-local comment echo. Comments
// never reach the chain and are flagged non-authoritative so clients
// can render them as provisional.
func handleCreateComment(l *slog.Logger, cache *lru.LRU[string, []fund.Comment]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaignID := r.PathValue("id")
		if campaignID == "" {
			writeBadRequestError(w, fmt.Errorf("missing campaign ID in path"))
			return
		}

		var req CreateCommentRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, fmt.Errorf("invalid request: %w", err))
			return
		}

		content := strings.TrimSpace(req.Content)
		if content == "" {
			writeBadRequestError(w, fmt.Errorf("content is required"))
			return
		}
		if len(content) > fund.MaxCommentLength {
			writeBadRequestError(w, fmt.Errorf("content exceeds %d characters", fund.MaxCommentLength))
			return
		}
		author := req.Author
		if author == "" {
			if claims, ok := r.Context().Value(ctxKeyJWT).(*authJWTClaims); ok && claims != nil {
				author = claims.Email
			}
		}
		if author == "" {
			writeBadRequestError(w, fmt.Errorf("author is required"))
			return
		}

		now := time.Now().UTC()
		stored, _ := cache.Get(campaignID)
		// The cache returns the stored slice itself; clone before
		// mutating so a concurrent list encoding the same value
		// never observes the write.
		comments := cloneComments(stored)

		if req.ParentID != "" {
			idx := -1
			for i := range comments {
				if comments[i].ID == req.ParentID {
					idx = i
					break
				}
			}
			if idx < 0 {
				writeNotFoundError(w)
				return
			}
			reply := fund.Reply{
				ID:            uuid.New().String(),
				CommentID:     req.ParentID,
				Author:        author,
				AuthorAddress: req.AuthorAddress,
				Content:       content,
				CreatedAt:     now,
			}
			comments[idx].Replies = append(comments[idx].Replies, reply)
			cache.Add(campaignID, comments)
			writeJSONResponse(w, api.CommentResponse{
				Message:   "Reply posted.",
				CommentID: reply.ID,
				CreatedAt: now,
			}, http.StatusOK)
			return
		}

		comment := fund.Comment{
			ID:            uuid.New().String(),
			CampaignID:    campaignID,
			Author:        author,
			AuthorAddress: req.AuthorAddress,
			Content:       content,
			CreatedAt:     now,
			ClientRef:     req.ClientRef,
			Replies:       []fund.Reply{},
		}
		cache.Add(campaignID, append(comments, comment))
		writeJSONResponse(w, api.CommentResponse{
			Message:   "Comment posted.",
			CommentID: comment.ID,
			CreatedAt: now,
		}, http.StatusOK)
	}
}

// cloneComments copies a cached comment slice and its reply slices so
// mutations never touch a value another request may be reading.
func cloneComments(comments []fund.Comment) []fund.Comment {
	out := make([]fund.Comment, len(comments))
	copy(out, comments)
	for i := range out {
		if out[i].Replies == nil {
			continue
		}
		replies := make([]fund.Reply, len(out[i].Replies))
		copy(replies, out[i].Replies)
		out[i].Replies = replies
	}
	return out
}
