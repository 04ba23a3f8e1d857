package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/post-review/internal/application/port"
	"github.com/garyjia/post-review/internal/application/service"
	"github.com/garyjia/post-review/internal/domain/entity"
	"github.com/garyjia/post-review/internal/domain/workflow"
	"github.com/garyjia/post-review/pkg/utils"
)

// ActorHeader names the caller recorded in the audit trail
const ActorHeader = "X-Actor"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	documentService service.DocumentService
	exporter        port.HistoryExporter
	renderers       RendererFactory
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	documentService service.DocumentService,
	exporter port.HistoryExporter,
	renderers RendererFactory,
	logger Logger,
) *Handlers {
	return &Handlers{
		documentService: documentService,
		exporter:        exporter,
		renderers:       renderers,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// DocumentResponse represents a document in API responses.
// Content holds only what the current state lets a reader see.
type DocumentResponse struct {
	ID                int64              `json:"id"`
	Title             string             `json:"title"`
	State             workflow.State     `json:"state"`
	Content           string             `json:"content"`
	PermittedTriggers []workflow.Trigger `json:"permitted_triggers"`
	CreatedAt         string             `json:"created_at"`
	UpdatedAt         string             `json:"updated_at"`
}

// ContentResponse is returned by the content endpoint
type ContentResponse struct {
	DocumentID int64  `json:"document_id"`
	Content    string `json:"content"`
}

// CreateDocumentRequest is the body of POST /api/documents
type CreateDocumentRequest struct {
	Title string `json:"title"`
}

// AddTextRequest is the body of POST /api/documents/:id/text
type AddTextRequest struct {
	Text string `json:"text"`
}

// ListDocumentsRequest represents query parameters for listing documents
type ListDocumentsRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// GetWorkflow handles GET /api/workflow
func (h *Handlers) GetWorkflow(c *gin.Context) {
	renderer, err := h.renderers(c.DefaultQuery("format", "json"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, workflow.Describe()); err != nil {
		h.logger.Error("Failed to render workflow", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to render workflow"})
		return
	}

	c.Data(http.StatusOK, renderer.ContentType(), buf.Bytes())
}

// CreateDocument handles POST /api/documents
func (h *Handlers) CreateDocument(c *gin.Context) {
	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	doc, err := h.documentService.Create(c.Request.Context(), req.Title, c.GetHeader(ActorHeader))
	if err != nil {
		h.writeError(c, err, "failed to create document")
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: toDocumentResponse(doc)})
}

// ListDocuments handles GET /api/documents
func (h *Handlers) ListDocuments(c *gin.Context) {
	var req ListDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}

	limit, offset := utils.NormalizePage(req.Limit, req.Offset, defaultPageSize, maxPageSize)

	docs, err := h.documentService.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.writeError(c, err, "failed to retrieve documents")
		return
	}

	responses := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		responses = append(responses, toDocumentResponse(doc))
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: responses})
}

// GetDocument handles GET /api/documents/:id
func (h *Handlers) GetDocument(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	doc, err := h.documentService.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "failed to retrieve document")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toDocumentResponse(doc)})
}

// AddText handles POST /api/documents/:id/text
func (h *Handlers) AddText(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	var req AddTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	doc, err := h.documentService.AddText(c.Request.Context(), id, req.Text, c.GetHeader(ActorHeader))
	if err != nil {
		h.writeError(c, err, "failed to add text")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toDocumentResponse(doc)})
}

// RequestReview handles POST /api/documents/:id/request-review
func (h *Handlers) RequestReview(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	result, err := h.documentService.RequestReview(c.Request.Context(), id, c.GetHeader(ActorHeader))
	if err != nil {
		h.writeError(c, err, "failed to request review")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// Approve handles POST /api/documents/:id/approve
func (h *Handlers) Approve(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	result, err := h.documentService.Approve(c.Request.Context(), id, c.GetHeader(ActorHeader))
	if err != nil {
		h.writeError(c, err, "failed to approve document")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// GetContent handles GET /api/documents/:id/content
func (h *Handlers) GetContent(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	content, err := h.documentService.Content(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "failed to retrieve content")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    ContentResponse{DocumentID: id, Content: content},
	})
}

// GetHistory handles GET /api/documents/:id/history.
// format=xlsx returns a workbook download instead of JSON.
func (h *Handlers) GetHistory(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	format := c.Query("format")
	if format != "" && format != "json" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: fmt.Sprintf("unsupported format %q", format)})
		return
	}

	ctx := c.Request.Context()
	records, err := h.documentService.History(ctx, id)
	if err != nil {
		h.writeError(c, err, "failed to retrieve history")
		return
	}

	if format != "xlsx" {
		if records == nil {
			records = []*entity.DocumentHistory{}
		}
		c.JSON(http.StatusOK, Response{Success: true, Data: records})
		return
	}

	doc, err := h.documentService.Get(ctx, id)
	if err != nil {
		h.writeError(c, err, "failed to retrieve document")
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.Export(&buf, doc, records); err != nil {
		h.logger.Error("Failed to export history", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to export history"})
		return
	}

	filename := fmt.Sprintf("document-%d-history%s", id, h.exporter.Extension())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, h.exporter.ContentType(), buf.Bytes())
}

// documentID parses the :id path parameter, writing a 400 on failure
func (h *Handlers) documentID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid document ID"})
		return 0, false
	}
	return id, true
}

// writeError maps service errors onto HTTP status codes
func (h *Handlers) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, port.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "document not found"})
	case errors.Is(err, workflow.ErrInvalidTransition):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, workflow.ErrInvalidTrigger):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error(fallback, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: fallback})
	}
}

func toDocumentResponse(doc *entity.Document) DocumentResponse {
	return DocumentResponse{
		ID:                doc.ID,
		Title:             doc.Title,
		State:             doc.State(),
		Content:           doc.Content(),
		PermittedTriggers: doc.PermittedTriggers(),
		CreatedAt:         doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         doc.UpdatedAt.Format(time.RFC3339),
	}
}
