package handlers

import (
	"errors"
	"net/http"

	"blog-cms/pkg/models"
	"blog-cms/pkg/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) About(c *gin.Context) {
	h.render(c, http.StatusOK, "about.html", gin.H{"title": "About Us"})
}

func (h *Handler) Home(c *gin.Context) {
	articles, err := h.store.PublishedArticles()
	if err != nil {
		h.log(c).Warn("Error fetching published articles", "error", err)
		articles = []models.ArticleView{}
	}
	h.render(c, http.StatusOK, "home.html", gin.H{
		"title":    "Home",
		"articles": articles,
	})
}

func (h *Handler) ListArticles(c *gin.Context) {
	data := gin.H{
		"title":   "Articles",
		"flashes": h.popFlashes(c),
	}
	articles, err := h.store.PublishedArticles()
	if err != nil {
		h.log(c).Warn("Error fetching published articles", "error", err)
		data["articles"] = []models.ArticleView{}
		data["message"] = "No articles available or error fetching."
	} else {
		data["articles"] = articles
	}
	h.render(c, http.StatusOK, "articles.html", data)
}

func (h *Handler) ListCategories(c *gin.Context) {
	data := gin.H{"title": "Categories"}
	categories, err := h.store.Categories()
	if err != nil {
		h.log(c).Warn("Error fetching categories", "error", err)
		data["categories"] = []models.Category{}
		data["message"] = "No categories available or error fetching."
	} else {
		data["categories"] = categories
	}
	h.render(c, http.StatusOK, "categories.html", data)
}

// articleForm is the add-article submission. The feature image is read
// separately from the multipart body.
type articleForm struct {
	Title     string `form:"title" binding:"required"`
	Content   string `form:"content"`
	Category  string `form:"category"`
	Published string `form:"published"`
}

func (h *Handler) AddArticleForm(c *gin.Context) {
	h.renderArticleForm(c, http.StatusOK, articleForm{}, "")
}

func (h *Handler) renderArticleForm(c *gin.Context, status int, form articleForm, message string) {
	categories, err := h.store.Categories()
	if err != nil {
		h.log(c).Warn("Error fetching categories", "error", err)
		categories = []models.Category{}
	}
	h.render(c, status, "addArticle.html", gin.H{
		"title":      "Add Article",
		"categories": categories,
		"form":       form,
		"message":    message,
	})
}

func (h *Handler) AddArticle(c *gin.Context) {
	var form articleForm
	if err := c.ShouldBind(&form); err != nil {
		h.log(c).Info("Rejected article submission", "error", err)
		h.renderArticleForm(c, http.StatusBadRequest, form, "A title is required.")
		return
	}

	// Content is stored as submitted and sanitized when rendered.
	input := models.ArticleInput{
		Title:           form.Title,
		Content:         form.Content,
		Category:        models.StringID(form.Category),
		FeatureImageURL: h.featureImageURL(c),
		Published:       form.Published,
	}

	article, err := h.store.AddArticle(input)
	if err != nil {
		h.log(c).Error("Error adding article", "error", err)
		h.metrics.PersistFailures.Inc()
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.metrics.ArticlesCreated.Inc()
	h.log(c).Info("New article added", "id", article.ID, "title", article.Title, "published", article.Published)
	h.addFlash(c, "Article \""+article.Title+"\" added.")
	c.Redirect(http.StatusFound, "/articles")
}

// Posts lists published articles filtered by category or minimum post date,
// or all published articles when neither parameter is given.
func (h *Handler) Posts(c *gin.Context) {
	var (
		articles []models.ArticleView
		err      error
	)
	switch category, minDate := c.Query("category"), c.Query("minDate"); {
	case category != "":
		articles, err = h.store.ArticlesByCategory(category)
	case minDate != "":
		since, perr := services.ParseMinDate(minDate)
		if perr != nil {
			h.render(c, http.StatusBadRequest, "articles.html", gin.H{
				"title":    "Articles",
				"articles": []models.ArticleView{},
				"message":  perr.Error(),
			})
			return
		}
		articles, err = h.store.ArticlesSince(since)
	default:
		articles, err = h.store.PublishedArticles()
	}

	data := gin.H{"title": "Articles", "articles": articles}
	if err != nil {
		h.log(c).Info("No posts matched", "query", c.Request.URL.RawQuery, "error", err)
		data["articles"] = []models.ArticleView{}
		data["message"] = "No results returned"
	}
	h.render(c, http.StatusOK, "articles.html", data)
}

func (h *Handler) Post(c *gin.Context) {
	id := c.Param("id")
	h.log(c).Debug("Fetching post", "id", id)

	article, err := h.store.ArticleByID(id)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			h.log(c).Error("Error fetching post", "id", id, "error", err)
		}
		h.render(c, http.StatusNotFound, "404.html", gin.H{
			"title":   "Not Found",
			"message": "Post not found",
		})
		return
	}
	h.render(c, http.StatusOK, "article.html", gin.H{
		"title":   article.Title,
		"article": article,
	})
}

func (h *Handler) Favicon(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *Handler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "404.html", gin.H{
		"title":   "Not Found",
		"message": "Page not found",
	})
}

// Recovered renders the error page after a handler panic.
func (h *Handler) Recovered(c *gin.Context, recovered any) {
	h.log(c).Error("Handler panic", "panic", recovered, "path", c.Request.URL.Path)
	h.render(c, http.StatusInternalServerError, "500.html", gin.H{
		"title":   "Error",
		"message": "Something went wrong.",
	})
	c.Abort()
}
