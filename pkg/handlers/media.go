package handlers

import (
	"errors"
	"net/http"

	"blog-cms/pkg/services"

	"github.com/gin-gonic/gin"
)

// featureImageURL uploads the optional featureImage form file. Any failure is
// logged and yields "", so the article is still created without an image.
func (h *Handler) featureImageURL(c *gin.Context) string {
	file, err := c.FormFile("featureImage")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			h.log(c).Warn("Unreadable feature image", "error", err)
			h.metrics.UploadFailures.WithLabelValues("form").Inc()
		}
		return ""
	}
	if h.images == nil {
		h.metrics.UploadFailures.WithLabelValues("disabled").Inc()
		return ""
	}

	url, err := h.images.UploadFeatureImage(c.Request.Context(), file)
	if err != nil {
		reason := "host"
		var uerr *services.UploadError
		if errors.As(err, &uerr) {
			reason = uerr.Reason
		}
		h.log(c).Error("Image upload error", "filename", file.Filename, "reason", reason, "error", err)
		h.metrics.UploadFailures.WithLabelValues(reason).Inc()
		return ""
	}
	return url
}
