package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fieldops_backend/internal/storage"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/httpkit"
	"fieldops_backend/platform/validator"
)

// SetStorage injects the object storage used for evidence uploads.
// When storage is not configured the presign endpoint reports a
// configuration error instead of registering conditionally.
func (h *Handler) SetStorage(svc storage.StorageService, bucket string) {
	h.storage = svc
	h.evidenceBucket = bucket
}

// RegisterPresignRoutes registers the evidence presign endpoints.
func (h *Handler) RegisterPresignRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/evidence/presign", h.PresignEvidence)
	rg.GET("/:id/evidence/presign", h.PresignEvidenceDownload)
}

// PresignRequest asks for a presigned evidence upload URL.
type PresignRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Size        int64  `json:"size" binding:"required,gt=0"`
}

// PresignEvidence returns a presigned PUT URL for an evidence file.
// The caller uploads directly to object storage, then registers the
// resulting URL through the evidence endpoint.
func (h *Handler) PresignEvidence(c *gin.Context) {
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}
	id, ok := h.visitID(c)
	if !ok {
		return
	}

	if h.storage == nil {
		httpkit.HandleError(c, h.log, apperr.Configuration("object storage is not configured"))
		return
	}

	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, httpkit.ErrorResponse{
			Error:   "validation failed",
			Details: validator.Format(err),
		})
		return
	}

	// Scope check rides on the visit fetch inside the service.
	if _, err := h.svc.GetDetail(c.Request.Context(), actor, id); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	presigned, err := h.storage.GenerateUploadURL(
		c.Request.Context(), h.evidenceBucket, id.String(),
		req.FileName, req.ContentType, req.Size,
	)
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.Wrap(apperr.KindValidation, err.Error(), err))
		return
	}
	httpkit.OK(c, presigned)
}

// PresignEvidenceDownload returns a presigned GET URL for an evidence
// file previously uploaded under this visit.
func (h *Handler) PresignEvidenceDownload(c *gin.Context) {
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}
	id, ok := h.visitID(c)
	if !ok {
		return
	}

	if h.storage == nil {
		httpkit.HandleError(c, h.log, apperr.Configuration("object storage is not configured"))
		return
	}

	fileKey := c.Query("fileKey")
	if err := validateEvidenceKey(id, fileKey); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	// Scope check rides on the visit fetch inside the service.
	if _, err := h.svc.GetDetail(c.Request.Context(), actor, id); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	presigned, err := h.storage.GenerateDownloadURL(c.Request.Context(), h.evidenceBucket, fileKey)
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.Wrap(apperr.KindValidation, err.Error(), err))
		return
	}
	httpkit.OK(c, presigned)
}

// validateEvidenceKey ensures a file key points inside the visit's own
// evidence folder. Upload presigning keys everything under the visit id,
// so anything outside that prefix was never issued for this visit.
func validateEvidenceKey(visitID uuid.UUID, fileKey string) error {
	if fileKey == "" {
		return apperr.BadRequest("fileKey is required")
	}
	if strings.Contains(fileKey, "..") || strings.HasPrefix(fileKey, "/") {
		return apperr.BadRequest("invalid file key")
	}
	if !strings.HasPrefix(fileKey, visitID.String()+"/") {
		return apperr.BadRequest("file key does not belong to this visit")
	}
	return nil
}
