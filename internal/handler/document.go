package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"github.com/jun/formdesk/internal/model"
	"github.com/jun/formdesk/internal/store"
)

// DocumentHandler persists finished documents and serves the save history.
type DocumentHandler struct {
	docs      store.Store
	jwtSecret string
	limit     int
	log       zerolog.Logger
	now       func() time.Time
}

// NewDocumentHandler creates a new DocumentHandler. docs may be nil when
// persistence is disabled; save and history then return 503.
func NewDocumentHandler(docs store.Store, jwtSecret string, historyLimit int, log zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docs:      docs,
		jwtSecret: jwtSecret,
		limit:     historyLimit,
		log:       log,
		now:       time.Now,
	}
}

// Save stores a document for the signed-in user. Anonymous sessions are
// refused before the store is contacted.
func (h *DocumentHandler) Save(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	p, err := GetPrincipal(req, h.jwtSecret)
	if err != nil {
		return errorResponse(http.StatusUnauthorized, "unauthorized"), nil
	}
	if p.Anonymous {
		return errorResponse(http.StatusForbidden, "sign in to save documents"), nil
	}
	if h.docs == nil {
		return errorResponse(http.StatusServiceUnavailable, "saving is not available"), nil
	}

	var body struct {
		TemplateID string `json:"template_id"`
		Title      string `json:"title"`
		Content    string `json:"content"`
	}
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return errorResponse(http.StatusBadRequest, "invalid request body"), nil
	}
	if strings.TrimSpace(body.Title) == "" || body.TemplateID == "" {
		return errorResponse(http.StatusBadRequest, "template_id and title are required"), nil
	}

	rec := model.SavedDocumentRecord{
		ID:        fmt.Sprintf("%s-%d", body.TemplateID, h.now().UnixMilli()),
		Title:     body.Title,
		Content:   body.Content,
		OwnerID:   p.UserID,
		CreatedAt: h.now().UTC(),
	}
	if err := h.docs.Put(ctx, store.DocPath(p.UserID, rec.ID), rec); err != nil {
		h.log.Error().Err(err).Str("user_id", p.UserID).Msg("document save failed")
		return errorResponse(http.StatusInternalServerError, "could not save document"), nil
	}

	out, _ := json.Marshal(rec)
	return jsonResponse(http.StatusOK, string(out)), nil
}

// History returns the user's saved documents, newest first, capped at the
// configured limit.
func (h *DocumentHandler) History(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	p, err := GetPrincipal(req, h.jwtSecret)
	if err != nil {
		return errorResponse(http.StatusUnauthorized, "unauthorized"), nil
	}
	if p.Anonymous {
		return errorResponse(http.StatusForbidden, "sign in to see saved documents"), nil
	}
	if h.docs == nil {
		return errorResponse(http.StatusServiceUnavailable, "saved documents are not available"), nil
	}

	records, err := h.docs.Query(ctx, store.OwnerPrefix(p.UserID), h.limit)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", p.UserID).Msg("history query failed")
		return errorResponse(http.StatusInternalServerError, "could not load saved documents"), nil
	}
	if records == nil {
		records = []model.SavedDocumentRecord{}
	}

	body, _ := json.Marshal(map[string]any{
		"documents": records,
	})
	return jsonResponse(http.StatusOK, string(body)), nil
}
