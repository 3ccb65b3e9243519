// Package api provides a chi-based HTTP surface for the asset ingestion
// service. Authentication and transport policy are the host application's
// concern; these handlers only translate requests to Service calls.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-asset/pkg/simpleasset"
)

// Handler handles HTTP requests for asset ingestion
type Handler struct {
	service simpleasset.Service
	logger  *slog.Logger
}

// NewHandler creates a new asset ingestion handler
func NewHandler(service simpleasset.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns the routes for asset ingestion
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/presigned-posts", h.CreatePresignedPost)
	r.Post("/assets", h.IngestAssets)

	return r
}

// CreatePresignedPostRequest is the request body for issuing an upload
// credential
type CreatePresignedPostRequest struct {
	Filename string `json:"filename"`
}

// CreatePresignedPost issues a direct-upload credential for one file
func (h *Handler) CreatePresignedPost(w http.ResponseWriter, r *http.Request) {
	var req CreatePresignedPostRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Filename == "" {
		writeError(w, r, http.StatusBadRequest, "filename is required")
		return
	}

	cred, err := h.service.IssueUploadCredential(r.Context(), simpleasset.IssueUploadCredentialRequest{
		Filename: req.Filename,
	})
	if err != nil {
		if errors.Is(err, simpleasset.ErrNoCredentialIssuer) {
			writeError(w, r, http.StatusNotImplemented, "direct uploads are not configured")
			return
		}
		h.logger.Error("failed to issue upload credential", "filename", req.Filename, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to issue upload credential")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, cred)
}

// IngestAssetsRequest is the request body for registering previously-uploaded
// objects as assets
type IngestAssetsRequest struct {
	ChannelID string           `json:"channel_id"`
	Inputs    []IngestionInput `json:"inputs"`
}

// IngestionInput is one previously-uploaded object to materialize
type IngestionInput struct {
	Filename     string                 `json:"filename"`
	Tags         []string               `json:"tags,omitempty"`
	CustomFields map[string]interface{} `json:"custom_fields,omitempty"`
}

// IngestAssetsResponse carries the index-aligned per-item results
type IngestAssetsResponse struct {
	Results []simpleasset.IngestionResult `json:"results"`
}

// IngestAssets materializes a batch of previously-uploaded objects. The
// response result list mirrors the input order; MIME-type rejections appear
// as per-item errors, any other fault fails the whole request.
func (h *Handler) IngestAssets(w http.ResponseWriter, r *http.Request) {
	var req IngestAssetsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Inputs) == 0 {
		writeError(w, r, http.StatusBadRequest, "inputs are required")
		return
	}

	channelID, err := uuid.Parse(req.ChannelID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid channel_id")
		return
	}

	inputs := make([]simpleasset.IngestionRequest, 0, len(req.Inputs))
	for _, in := range req.Inputs {
		if in.Filename == "" {
			writeError(w, r, http.StatusBadRequest, "filename is required for every input")
			return
		}
		inputs = append(inputs, simpleasset.IngestionRequest{
			ChannelID:    channelID,
			Filename:     in.Filename,
			Tags:         in.Tags,
			CustomFields: in.CustomFields,
		})
	}

	results, err := h.service.IngestBatch(r.Context(), simpleasset.IngestBatchRequest{Inputs: inputs})
	if err != nil {
		h.logger.Error("batch ingestion failed", "inputs", len(inputs), "error", err)
		writeError(w, r, http.StatusInternalServerError, "batch ingestion failed")
		return
	}

	render.JSON(w, r, IngestAssetsResponse{Results: results})
}

// ErrorResponse is the error body for failed requests
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}
