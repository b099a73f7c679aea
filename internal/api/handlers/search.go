package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coveway/textvec/internal/api"
	"github.com/coveway/textvec/internal/domain"
)

// Searcher defines the service interface for similarity search
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]domain.Match, error)
}

// SearchRequest is the request body for POST /search
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchMatchResponse is a single match in the response
type SearchMatchResponse struct {
	ID    string  `json:"id"`
	Score float32 `json:"score"`
	Text  string  `json:"text"`
}

// SearchResponse is the response body for POST /search
type SearchResponse struct {
	Matches []SearchMatchResponse `json:"matches"`
}

// SearchHandler serves similarity search requests
type SearchHandler struct {
	svc         Searcher
	defaultTopK int
}

func NewSearchHandler(svc Searcher, defaultTopK int) *SearchHandler {
	if defaultTopK <= 0 {
		defaultTopK = 4
	}
	return &SearchHandler{svc: svc, defaultTopK: defaultTopK}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = h.defaultTopK
	}

	matches, err := h.svc.Search(r.Context(), req.Query, topK)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := SearchResponse{Matches: make([]SearchMatchResponse, len(matches))}
	for i, m := range matches {
		resp.Matches[i] = SearchMatchResponse{
			ID:    m.ID,
			Score: m.Score,
			Text:  m.Text,
		}
	}

	api.Success(w, http.StatusOK, resp)
}
