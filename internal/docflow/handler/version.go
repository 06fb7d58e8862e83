package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/docflow/docflow-backend/internal/docflow/service"
	"github.com/docflow/docflow-backend/pkg/filestore"
	"github.com/docflow/docflow-backend/pkg/httputil"
	"github.com/docflow/docflow-backend/pkg/logger"
)

// VersionHandler handles document version endpoints
type VersionHandler struct {
	service *service.VersionService
	store   *filestore.Store
	logger  *logger.Logger
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(svc *service.VersionService, store *filestore.Store, log *logger.Logger) *VersionHandler {
	return &VersionHandler{
		service: svc,
		store:   store,
		logger:  log,
	}
}

// List lists a document's versions
func (h *VersionHandler) List(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")

	versions, err := h.service.ListByDocument(r.Context(), documentID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, versions)
}

// GetCurrent gets the current version of a document
func (h *VersionHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")

	version, err := h.service.GetCurrent(r.Context(), documentID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, version)
}

// Upload creates the next version of a document. Accepts JSON with inline
// content, or multipart form data with a "file" part.
func (h *VersionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	input := service.UploadVersionInput{DocumentID: documentID}

	if isMultipart(r) {
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			httputil.Error(w, err)
			return
		}
		if v := r.FormValue("change_description"); v != "" {
			input.ChangeDescription = &v
		}

		digest, name, size, err := saveUpload(r, h.store)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		input.FileDigest = digest
		input.FileName = name
		input.FileSize = size
	} else {
		var req UploadVersionRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		input.Content = req.Content
		input.ChangeDescription = req.ChangeDescription
	}

	version, err := h.service.Upload(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, version)
}

// Restore copies an old version's content into a new current version
func (h *VersionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	versionID := chi.URLParam(r, "versionID")

	version, err := h.service.Restore(r.Context(), versionID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, version)
}

// Download streams a version's file content
func (h *VersionHandler) Download(w http.ResponseWriter, r *http.Request) {
	versionID := chi.URLParam(r, "versionID")

	version, content, err := h.service.Download(r.Context(), versionID)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if version.FileName != nil {
		w.Header().Set("Content-Disposition", `attachment; filename="`+*version.FileName+`"`)
	}
	if version.FileSize != nil {
		w.Header().Set("Content-Length", strconv.FormatInt(*version.FileSize, 10))
	}

	if _, err := io.Copy(w, content); err != nil {
		h.logger.Error().Err(err).Str("version_id", versionID).Msg("failed to stream version content")
	}
}

// ============================================================================
// REQUEST TYPES
// ============================================================================

// UploadVersionRequest is the JSON body for inline-content version uploads
type UploadVersionRequest struct {
	Content           *string `json:"content,omitempty"`
	ChangeDescription *string `json:"change_description,omitempty"`
}
