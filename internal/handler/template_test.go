package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jun/formdesk/internal/handler"
	"github.com/jun/formdesk/internal/model"
	"github.com/jun/formdesk/internal/portal"
)

func listTemplates(t *testing.T, query string) []model.Template {
	t.Helper()
	h := handler.NewTemplateHandler(portal.NewCatalog())

	req := events.APIGatewayProxyRequest{HTTPMethod: "GET"}
	if query != "" {
		req.QueryStringParameters = map[string]string{"q": query}
	}

	resp, err := h.List(context.Background(), req)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var payload struct {
		Templates []model.Template `json:"templates"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &payload); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	return payload.Templates
}

func TestTemplateListReturnsCatalog(t *testing.T) {
	templates := listTemplates(t, "")
	if len(templates) != 3 {
		t.Fatalf("Expected 3 templates, got %d", len(templates))
	}
	if templates[0].Title != "Appointment Letter" {
		t.Errorf("Unexpected first template %q", templates[0].Title)
	}
}

func TestTemplateListFilters(t *testing.T) {
	templates := listTemplates(t, "leave")
	if len(templates) != 1 || templates[0].Title != "Leave Application Form" {
		t.Errorf("Unexpected filter result %+v", templates)
	}
}

func TestTemplateListNoMatchIsEmptyArray(t *testing.T) {
	h := handler.NewTemplateHandler(portal.NewCatalog())
	req := events.APIGatewayProxyRequest{
		HTTPMethod:            "GET",
		QueryStringParameters: map[string]string{"q": "invoice"},
	}

	resp, _ := h.List(context.Background(), req)
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(resp.Body), &payload); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if string(payload["templates"]) != "[]" {
		t.Errorf("Expected empty array, got %s", payload["templates"])
	}
}

func TestTemplateGet(t *testing.T) {
	h := handler.NewTemplateHandler(portal.NewCatalog())

	resp, _ := h.Get(context.Background(), events.APIGatewayProxyRequest{
		PathParameters: map[string]string{"id": "equipment-request"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var tpl model.Template
	if err := json.Unmarshal([]byte(resp.Body), &tpl); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if tpl.Title != "Equipment Request Form" {
		t.Errorf("Unexpected template %q", tpl.Title)
	}

	resp, _ = h.Get(context.Background(), events.APIGatewayProxyRequest{
		PathParameters: map[string]string{"id": "missing"},
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}
