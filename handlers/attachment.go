package handlers

import (
	"net/http"

	"jaryo/logger"
	"jaryo/metrics"
	"jaryo/services"
	"jaryo/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) ListAttachments(c *gin.Context) {
	attachments, err := h.services.Attachments.List(c.Request.Context(), c.Param("id"))
	if respondServiceError(c, err) {
		return
	}
	utils.SuccessWithCount(c, attachments, len(attachments))
}

func (h *Handler) DeleteAttachment(c *gin.Context) {
	attachmentID, ok := parseUintParam(c, "attachmentId")
	if !ok {
		utils.Error(c, http.StatusNotFound, "attachment not found")
		return
	}
	if respondServiceError(c, h.services.Attachments.Delete(c.Request.Context(), c.Param("id"), attachmentID)) {
		return
	}
	utils.SuccessMessage(c, "attachment deleted")
}

// DownloadAttachment streams one attachment. http.ServeContent answers Range, HEAD and
// conditional requests over the seekable blob.
func (h *Handler) DownloadAttachment(c *gin.Context) {
	attachmentID, ok := parseUintParam(c, "attachmentId")
	if !ok {
		metrics.Downloads.WithLabelValues("not_found").Inc()
		utils.Error(c, http.StatusNotFound, "attachment not found")
		return
	}

	stream, err := h.services.Attachments.Open(c.Request.Context(), c.Param("fileId"), attachmentID)
	if err != nil {
		if services.IsKind(err, services.KindNotFound) {
			metrics.Downloads.WithLabelValues("not_found").Inc()
		} else {
			metrics.Downloads.WithLabelValues("error").Inc()
		}
		respondServiceError(c, err)
		return
	}
	defer stream.Object.Close()

	result := "full"
	if c.GetHeader("Range") != "" {
		result = "partial"
	}
	metrics.Downloads.WithLabelValues(result).Inc()

	c.Header("Content-Disposition", utils.ContentDisposition("attachment", stream.DownloadName))
	c.Header("Content-Type", stream.ContentType)
	c.Header("Cache-Control", "public, max-age=0")
	c.Header("X-Content-Type-Options", "nosniff")
	http.ServeContent(c.Writer, c.Request, stream.DownloadName, stream.Info.ModTime, stream.Object)
}

// DownloadArchive streams every attachment of a record as one zip.
func (h *Handler) DownloadArchive(c *gin.Context) {
	ctx := c.Request.Context()
	fileID := c.Param("fileId")

	attachments, err := h.services.Attachments.List(ctx, fileID)
	if respondServiceError(c, err) {
		return
	}
	if len(attachments) == 0 {
		utils.Error(c, http.StatusNotFound, "no attachments")
		return
	}
	name, err := h.services.Attachments.ArchiveName(ctx, fileID)
	if respondServiceError(c, err) {
		return
	}

	c.Header("Content-Disposition", utils.ContentDisposition("attachment", name))
	c.Header("Content-Type", "application/zip")
	c.Status(http.StatusOK)
	if err := h.services.Attachments.WriteArchive(ctx, fileID, c.Writer); err != nil {
		logger.Warn("archive stream aborted", zap.String("file_id", fileID), zap.Error(err))
		return
	}
	metrics.Downloads.WithLabelValues("archive").Inc()
}

func (h *Handler) Thumbnail(c *gin.Context) {
	attachmentID, ok := parseUintParam(c, "attachmentId")
	if !ok {
		utils.Error(c, http.StatusNotFound, "thumbnail not found")
		return
	}
	stream, err := h.services.Attachments.OpenThumbnail(c.Request.Context(), c.Param("fileId"), attachmentID)
	if respondServiceError(c, err) {
		return
	}
	defer stream.Object.Close()

	c.Header("Content-Disposition", utils.ContentDisposition("inline", stream.DownloadName))
	c.Header("Content-Type", stream.ContentType)
	c.Header("Cache-Control", "public, max-age=86400")
	http.ServeContent(c.Writer, c.Request, stream.DownloadName, stream.Info.ModTime, stream.Object)
}
