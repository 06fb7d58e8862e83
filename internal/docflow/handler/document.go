package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/service"
	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/filestore"
	"github.com/docflow/docflow-backend/pkg/httputil"
	"github.com/docflow/docflow-backend/pkg/logger"
)

// DocumentHandler handles document endpoints
type DocumentHandler struct {
	service *service.DocumentService
	store   *filestore.Store
	logger  *logger.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(svc *service.DocumentService, store *filestore.Store, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: svc,
		store:   store,
		logger:  log,
	}
}

// Create creates a new document. Accepts JSON with inline content, or
// multipart form data with a "file" part.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	input := service.CreateDocumentInput{}

	if isMultipart(r) {
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			httputil.Error(w, errors.BadRequest("invalid multipart form"))
			return
		}
		input.Title = r.FormValue("title")
		input.DocumentType = r.FormValue("document_type")
		if v := r.FormValue("description"); v != "" {
			input.Description = &v
		}
		input.Confidentiality = domain.ConfidentialityLevel(r.FormValue("confidentiality"))
		input.RequiresLegalReview = r.FormValue("requires_legal_review") == "true"

		digest, name, size, err := saveUpload(r, h.store)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		input.FileDigest = digest
		input.FileName = name
		input.FileSize = size
	} else {
		var req CreateDocumentRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if err := httputil.Validate(req); err != nil {
			httputil.Error(w, err)
			return
		}
		input.Title = req.Title
		input.Description = req.Description
		input.DocumentType = req.DocumentType
		input.Confidentiality = domain.ConfidentialityLevel(req.Confidentiality)
		input.RequiresLegalReview = req.RequiresLegalReview
		input.Content = req.Content
	}

	if input.Title == "" || input.DocumentType == "" {
		httputil.Error(w, errors.Validation(map[string]string{
			"title":         "this field is required",
			"document_type": "this field is required",
		}))
		return
	}

	doc, err := h.service.Create(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, doc)
}

// List lists documents visible to the caller
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.DocumentFilter{
		Page:    1,
		PerPage: 20,
	}

	if page, _ := strconv.Atoi(r.URL.Query().Get("page")); page > 0 {
		filter.Page = page
	}
	if perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page")); perPage > 0 && perPage <= 100 {
		filter.PerPage = perPage
	}
	filter.Search = r.URL.Query().Get("search")
	filter.DocumentType = r.URL.Query().Get("document_type")
	filter.Status = domain.DocumentStatus(r.URL.Query().Get("status"))
	filter.AuthorID = r.URL.Query().Get("author_id")
	if from := r.URL.Query().Get("created_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.CreatedFrom = &t
		}
	}
	if to := r.URL.Query().Get("created_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filter.CreatedTo = &t
		}
	}

	docs, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	totalPages := int(total) / filter.PerPage
	if int(total)%filter.PerPage > 0 {
		totalPages++
	}

	httputil.JSONWithMeta(w, http.StatusOK, docs, &httputil.Meta{
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// Get gets a document by ID
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, doc)
}

// Update updates a document's metadata
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateDocumentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	doc, err := h.service.Update(r.Context(), service.UpdateDocumentInput{
		ID:                  id,
		Title:               req.Title,
		Description:         req.Description,
		DocumentType:        req.DocumentType,
		Confidentiality:     domain.ConfidentialityLevel(req.Confidentiality),
		RequiresLegalReview: req.RequiresLegalReview,
		OwnerID:             req.OwnerID,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, doc)
}

// Delete deletes a draft document
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Archive archives an approved document
func (h *DocumentHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Archive(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"status": "archived"})
}

// Statistics returns document counts by state
func (h *DocumentHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context(), r.URL.Query().Get("author_id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, stats)
}

// ============================================================================
// REQUEST TYPES
// ============================================================================

// CreateDocumentRequest is the JSON body for document creation
type CreateDocumentRequest struct {
	Title               string  `json:"title" validate:"required,max=500"`
	Description         *string `json:"description,omitempty"`
	DocumentType        string  `json:"document_type" validate:"required,max=100"`
	Confidentiality     string  `json:"confidentiality,omitempty" validate:"omitempty,oneof=public internal confidential secret"`
	RequiresLegalReview bool    `json:"requires_legal_review"`
	Content             *string `json:"content,omitempty"`
}

// UpdateDocumentRequest is the JSON body for metadata updates
type UpdateDocumentRequest struct {
	Title               string  `json:"title" validate:"required,max=500"`
	Description         *string `json:"description,omitempty"`
	DocumentType        string  `json:"document_type" validate:"required,max=100"`
	Confidentiality     string  `json:"confidentiality,omitempty" validate:"omitempty,oneof=public internal confidential secret"`
	RequiresLegalReview bool    `json:"requires_legal_review"`
	OwnerID             *string `json:"owner_id,omitempty" validate:"omitempty,uuid"`
}
