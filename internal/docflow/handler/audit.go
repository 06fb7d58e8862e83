package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/service"
	"github.com/docflow/docflow-backend/pkg/httputil"
	"github.com/docflow/docflow-backend/pkg/logger"
)

// AuditHandler handles audit trail endpoints
type AuditHandler struct {
	service *service.AuditService
	logger  *logger.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(svc *service.AuditService, log *logger.Logger) *AuditHandler {
	return &AuditHandler{
		service: svc,
		logger:  log,
	}
}

// List lists audit entries with filters
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.AuditFilter{
		Page:    1,
		PerPage: 50,
	}

	if page, _ := strconv.Atoi(r.URL.Query().Get("page")); page > 0 {
		filter.Page = page
	}
	if perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page")); perPage > 0 && perPage <= 200 {
		filter.PerPage = perPage
	}
	filter.UserID = r.URL.Query().Get("user_id")
	filter.Action = r.URL.Query().Get("action")
	filter.DocumentID = r.URL.Query().Get("document_id")
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

	entries, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	totalPages := int(total) / filter.PerPage
	if int(total)%filter.PerPage > 0 {
		totalPages++
	}

	httputil.JSONWithMeta(w, http.StatusOK, entries, &httputil.Meta{
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		Total:      total,
		TotalPages: totalPages,
	})
}
