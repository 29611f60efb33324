package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userdocs-backend/metrics"
	"userdocs-backend/service"
	"userdocs-backend/storage"
)

// DocumentHandler serves stored documents
type DocumentHandler struct {
	documents *service.DocumentService
	logger    *zap.SugaredLogger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents *service.DocumentService, logger *zap.SugaredLogger) *DocumentHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &DocumentHandler{documents: documents, logger: logger}
}

// Download handles GET /download/:filename.
// Any stored document can be fetched by name; there is no ownership check.
func (h *DocumentHandler) Download(c *gin.Context) {
	ctx := c.Request.Context()

	name, err := h.documents.ResolveDownloadPath(ctx, c.Param("filename"))
	if err != nil {
		h.notFoundOrError(c, err)
		return
	}

	rc, err := h.documents.Open(ctx, name)
	if err != nil {
		h.notFoundOrError(c, err)
		return
	}
	defer rc.Close()

	metrics.DownloadsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	c.DataFromReader(http.StatusOK, -1, storage.ContentType(name), rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", name),
	})
}

func (h *DocumentHandler) notFoundOrError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrFileNotFound) {
		metrics.DownloadsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		respondError(c, http.StatusNotFound, CodeFileNotFound, MsgFileNotFound)
		return
	}
	metrics.DownloadsTotal.WithLabelValues(metrics.ResultError).Inc()
	h.logger.Errorw("download failed", "filename", c.Param("filename"), "err", err)
	respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to read file")
}
