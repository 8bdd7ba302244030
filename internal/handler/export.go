package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"github.com/jun/formdesk/internal/export"
)

// Realizer renders document source to the view the PDF export consumes.
type Realizer interface {
	Realize(source []byte) ([]byte, error)
}

// ExportHandler produces downloadable PDF and DOCX files from document
// content.
type ExportHandler struct {
	realizer Realizer
	adapter  *export.Adapter
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(r Realizer, a *export.Adapter, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{realizer: r, adapter: a, log: log}
}

type exportRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func parseExportRequest(req events.APIGatewayProxyRequest) (*exportRequest, error) {
	var body exportRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body.Title) == "" {
		body.Title = "Untitled Document"
	}
	return &body, nil
}

// PDF renders the content and returns it as a PDF attachment. Rendering
// happens here because the PDF layout works off the realized view, not the
// raw source.
func (h *ExportHandler) PDF(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body, err := parseExportRequest(req)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "invalid request body"), nil
	}

	view, err := h.realizer.Realize([]byte(body.Content))
	if err != nil {
		h.log.Error().Err(err).Msg("view rendering failed")
		return errorResponse(http.StatusInternalServerError, "could not render document"), nil
	}

	out, err := h.adapter.ToPDF(view, body.Title)
	if err != nil {
		h.log.Error().Err(err).Msg("pdf export failed")
		return errorResponse(http.StatusInternalServerError, "could not produce pdf"), nil
	}

	return fileResponse(out, body.Title, "pdf", "application/pdf"), nil
}

// DOCX renders the content, flattens the result to plain text, and returns
// it as a DOCX attachment. Flattening the rendered view rather than the raw
// source keeps structural markers out of the document.
func (h *ExportHandler) DOCX(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body, err := parseExportRequest(req)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "invalid request body"), nil
	}

	view, err := h.realizer.Realize([]byte(body.Content))
	if err != nil {
		h.log.Error().Err(err).Msg("view rendering failed")
		return errorResponse(http.StatusInternalServerError, "could not render document"), nil
	}

	plain := strings.Join(export.Flatten(string(view)), "\n")
	out, err := h.adapter.ToDOCX(plain, body.Title)
	if err != nil {
		h.log.Error().Err(err).Msg("docx export failed")
		return errorResponse(http.StatusInternalServerError, "could not produce docx"), nil
	}

	return fileResponse(out, body.Title, "docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document"), nil
}

func fileResponse(data []byte, title, ext, contentType string) events.APIGatewayProxyResponse {
	filename := safeFilename(title) + "." + ext
	return events.APIGatewayProxyResponse{
		StatusCode:      http.StatusOK,
		Body:            base64.StdEncoding.EncodeToString(data),
		IsBase64Encoded: true,
		Headers: map[string]string{
			"Content-Type":        contentType,
			"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, filename),
		},
	}
}

func safeFilename(title string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", `"`, "", "\n", " ", "\r", " ")
	name := strings.TrimSpace(replacer.Replace(title))
	if name == "" {
		return "document"
	}
	return name
}
