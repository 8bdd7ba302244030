package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jun/formdesk/internal/model"
	"github.com/jun/formdesk/internal/portal"
)

// TemplateHandler serves the template catalog.
type TemplateHandler struct {
	catalog *portal.Catalog
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(c *portal.Catalog) *TemplateHandler {
	return &TemplateHandler{catalog: c}
}

// List returns the catalog, optionally filtered by the q query parameter.
// The match is a case-insensitive title substring and catalog order is
// preserved.
func (h *TemplateHandler) List(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	query := req.QueryStringParameters["q"]

	templates := h.catalog.Filter(query)
	if templates == nil {
		templates = []model.Template{}
	}

	body, _ := json.Marshal(map[string]any{
		"templates": templates,
	})
	return jsonResponse(http.StatusOK, string(body)), nil
}

// Get returns a single template by ID.
func (h *TemplateHandler) Get(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id := req.PathParameters["id"]
	if id == "" {
		id = req.QueryStringParameters["id"]
	}

	tpl, err := h.catalog.Get(id)
	if err != nil {
		return errorResponse(http.StatusNotFound, "template not found"), nil
	}

	body, _ := json.Marshal(tpl)
	return jsonResponse(http.StatusOK, string(body)), nil
}
