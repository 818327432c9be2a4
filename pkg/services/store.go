package services

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"blog-cms/pkg/models"
)

// UnknownCategory is shown for articles whose category matches no loaded category.
const UnknownCategory = "Unknown"

// ContentStore owns the article and category collections. Categories are
// read-only after Initialize; articles grow through AddArticle, which
// rewrites the whole articles file on every call.
type ContentStore struct {
	articlesPath   string
	categoriesPath string
	logger         *slog.Logger
	now            func() time.Time

	mu         sync.RWMutex
	articles   []models.Article
	categories []models.Category
	loaded     bool
}

func NewContentStore(articlesPath, categoriesPath string, logger *slog.Logger) *ContentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentStore{
		articlesPath:   articlesPath,
		categoriesPath: categoriesPath,
		logger:         logger.With("component", "content_store"),
		now:            time.Now,
	}
}

// Initialize loads both data files. It must succeed before the store is used;
// until then reads report ErrNoResults/ErrNotFound and writes ErrNotInitialized.
func (s *ContentStore) Initialize() error {
	var articles []models.Article
	if err := readJSONFile(s.articlesPath, &articles); err != nil {
		s.logger.Error("Error reading articles file", "path", s.articlesPath, "error", err)
		return &LoadError{Path: s.articlesPath, Err: err}
	}

	var categories []models.Category
	if err := readJSONFile(s.categoriesPath, &categories); err != nil {
		s.logger.Error("Error reading categories file", "path", s.categoriesPath, "error", err)
		return &LoadError{Path: s.categoriesPath, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles = articles
	s.categories = categories
	s.loaded = true

	s.logger.Info("Content loaded", "articles", len(articles), "categories", len(categories))
	return nil
}

// Counts returns the current collection sizes.
func (s *ContentStore) Counts() (articles, categories int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles), len(s.categories)
}

// PublishedArticles returns every published article in file order.
func (s *ContentStore) PublishedArticles() ([]models.ArticleView, error) {
	return s.filterPublished(func(models.Article) bool { return true })
}

// ArticlesByCategory returns published articles whose category equals
// category when both are compared as strings.
func (s *ContentStore) ArticlesByCategory(category string) ([]models.ArticleView, error) {
	return s.filterPublished(func(a models.Article) bool {
		return a.Category.String() == category
	})
}

// ArticlesSince returns published articles posted at or after minDate.
// Articles with an unparsable postDate are skipped.
func (s *ContentStore) ArticlesSince(minDate time.Time) ([]models.ArticleView, error) {
	return s.filterPublished(func(a models.Article) bool {
		t, ok := a.PostTime()
		return ok && !t.Before(minDate)
	})
}

func (s *ContentStore) filterPublished(keep func(models.Article) bool) ([]models.ArticleView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var views []models.ArticleView
	for _, a := range s.articles {
		if !a.Published || !keep(a) {
			continue
		}
		views = append(views, s.view(a))
	}
	if len(views) == 0 {
		return nil, ErrNoResults
	}
	return views, nil
}

// Categories returns a copy of the loaded categories.
func (s *ContentStore) Categories() ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.categories) == 0 {
		return nil, ErrNoResults
	}
	out := make([]models.Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

// ArticleByID looks up an article by its decimal id, published or not.
func (s *ContentStore) ArticleByID(id string) (models.ArticleView, error) {
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil {
		return models.ArticleView{}, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.articles {
		if a.ID == n {
			return s.view(a), nil
		}
	}
	return models.ArticleView{}, ErrNotFound
}

// AddArticle assigns the next id, appends the article and rewrites the
// articles file. The collection lock is held across the whole sequence so
// concurrent adds never share an id or overwrite each other's writes.
//
// On a PersistError the article stays in memory; the file is left as it was.
func (s *ContentStore) AddArticle(in models.ArticleInput) (models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return models.Article{}, ErrNotInitialized
	}

	a := models.Article{
		ID:              nextID(s.articles),
		Title:           in.Title,
		Content:         in.Content,
		Category:        in.Category,
		FeatureImageURL: in.FeatureImageURL,
		Published:       models.Truthy(in.Published),
		PostDate:        in.PostDate,
	}
	if a.PostDate == "" {
		a.PostDate = s.now().UTC().Format(models.ISOTimestamp)
	}

	s.articles = append(s.articles, a)
	if err := writeJSONFile(s.articlesPath, s.articles); err != nil {
		s.logger.Error("Error writing to articles file", "path", s.articlesPath, "error", err)
		return a, &PersistError{Path: s.articlesPath, Err: err}
	}
	return a, nil
}

func nextID(articles []models.Article) int {
	if len(articles) == 0 {
		return 1
	}
	maxID := articles[0].ID
	for _, a := range articles[1:] {
		if a.ID > maxID {
			maxID = a.ID
		}
	}
	return maxID + 1
}

// view must be called with s.mu held.
func (s *ContentStore) view(a models.Article) models.ArticleView {
	return models.ArticleView{Article: a, CategoryName: s.categoryName(a.Category)}
}

func (s *ContentStore) categoryName(id models.LooseID) string {
	for _, c := range s.categories {
		if c.ID.Equal(id) {
			return c.Name
		}
	}
	return UnknownCategory
}

// ParseMinDate parses a minDate query value: a bare date or an RFC 3339 timestamp.
func ParseMinDate(s string) (time.Time, error) {
	t, ok := models.ParseTimestamp(strings.TrimSpace(s))
	if !ok {
		return time.Time{}, fmt.Errorf("invalid minDate %q: expected YYYY-MM-DD or an RFC 3339 timestamp", s)
	}
	return t, nil
}
