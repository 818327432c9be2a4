package handlers

import (
	"context"
	"html/template"
	"log/slog"
	"mime/multipart"
	"time"

	"blog-cms/pkg/metrics"
	"blog-cms/pkg/models"
	"blog-cms/pkg/services"

	"github.com/gin-gonic/gin"
)

// ContentStore is the subset of services.ContentStore the pages use.
type ContentStore interface {
	PublishedArticles() ([]models.ArticleView, error)
	ArticlesByCategory(category string) ([]models.ArticleView, error)
	ArticlesSince(minDate time.Time) ([]models.ArticleView, error)
	Categories() ([]models.Category, error)
	ArticleByID(id string) (models.ArticleView, error)
	AddArticle(in models.ArticleInput) (models.Article, error)
	Counts() (articles, categories int)
}

// ImageUploader turns an uploaded form file into a public image URL.
type ImageUploader interface {
	UploadFeatureImage(ctx context.Context, header *multipart.FileHeader) (string, error)
}

// Handler serves the blog pages. All state lives in the injected store.
type Handler struct {
	store     ContentStore
	images    ImageUploader
	sanitizer *services.ContentSanitizer
	site      models.SiteConfig
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewHandler(store ContentStore, images ImageUploader, site models.SiteConfig, m *metrics.Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Handler{
		store:     store,
		images:    images,
		sanitizer: services.NewContentSanitizer(),
		site:      site,
		metrics:   m,
		logger:    logger.With("component", "handlers"),
	}
}

// TemplateFuncs are the helpers available to every page.
func (h *Handler) TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"excerpt": h.sanitizer.Excerpt,
		"safeContent": func(content string) template.HTML {
			return template.HTML(h.sanitizer.Sanitize(content))
		},
		"formatDate": formatDate,
	}
}

func formatDate(postDate string) string {
	t, ok := models.ParseTimestamp(postDate)
	if !ok {
		return postDate
	}
	return t.Format("January 2, 2006")
}

// render executes a page with the shared layout data merged into data.
func (h *Handler) render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["site"] = h.site
	data["requestID"] = c.GetString(requestIDKey)
	if _, ok := data["flashes"]; !ok {
		data["flashes"] = nil
	}
	c.HTML(status, page, data)
}

func (h *Handler) log(c *gin.Context) *slog.Logger {
	return h.logger.With("request_id", c.GetString(requestIDKey))
}
