package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blog-cms/pkg/metrics"
	"blog-cms/pkg/models"
	"blog-cms/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCategories = `[{"id":1,"name":"Tech"},{"id":2,"name":"Life"}]`
	testArticles   = `[
		{"id":1,"title":"Hello Go","content":"<p>first <b>post</b></p>","category":1,"published":true,"postDate":"2024-02-01T10:00:00.000Z"},
		{"id":2,"title":"Draft","content":"wip","category":2,"published":false,"postDate":"2024-03-01T10:00:00.000Z"},
		{"id":3,"title":"Life Notes","content":"notes","category":"2","published":true,"postDate":"2023-05-01T10:00:00.000Z"}
	]`
)

var pngData = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUploader struct {
	url   string
	err   error
	calls int
}

func (f *fakeUploader) UploadFeatureImage(ctx context.Context, header *multipart.FileHeader) (string, error) {
	f.calls++
	return f.url, f.err
}

// failingStore accepts reads but fails every write like an unwritable disk.
type failingStore struct {
	*services.ContentStore
}

func (f failingStore) AddArticle(in models.ArticleInput) (models.Article, error) {
	return models.Article{}, &services.PersistError{Path: "articles.json", Err: os.ErrPermission}
}

type testEnv struct {
	router       *gin.Engine
	store        *services.ContentStore
	articlesPath string
	uploader     *fakeUploader
	metrics      *metrics.Metrics
}

func newTestEnv(t *testing.T, articles, categories string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	articlesPath := filepath.Join(dir, "articles.json")
	categoriesPath := filepath.Join(dir, "categories.json")
	require.NoError(t, os.WriteFile(articlesPath, []byte(articles), 0644))
	require.NoError(t, os.WriteFile(categoriesPath, []byte(categories), 0644))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := services.NewContentStore(articlesPath, categoriesPath, logger)
	require.NoError(t, store.Initialize())

	env := &testEnv{store: store, articlesPath: articlesPath, uploader: &fakeUploader{}, metrics: metrics.New()}
	env.router = env.build(t, store, logger)
	return env
}

func (e *testEnv) build(t *testing.T, store ContentStore, logger *slog.Logger) *gin.Engine {
	t.Helper()
	h := NewHandler(store, e.uploader, models.DefaultSiteConfig(), e.metrics, logger)
	r, err := NewRouter(h, logger, RouterOptions{
		SessionSecret:  []byte("0123456789abcdef0123456789abcdef"),
		MaxUploadBytes: 1 << 20,
	})
	require.NoError(t, err)
	return r
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func multipartRequest(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		fw, err := w.CreateFormFile("featureImage", "cover.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/articles/add", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestAboutPages(t *testing.T) {
	env := newTestEnv(t, testArticles, testCategories)

	for _, path := range []string{"/", "/about"} {
		w := env.get(path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), "About Us", path)
	}
}

func TestHome(t *testing.T) {
	env := newTestEnv(t, testArticles, testCategories)

	w := env.get("/home")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Hello Go")
	assert.Contains(t, body, "Tech")
	assert.Contains(t, body, "Life Notes")
	assert.NotContains(t, body, "Draft")

	empty := newTestEnv(t, `[]`, testCategories)
	w = empty.get("/home")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No articles yet.")
}

func TestListArticles(t *testing.T) {
	env := newTestEnv(t, testArticles, testCategories)
	w := env.get("/articles")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/post/1"`)
	assert.Contains(t, w.Body.String(), "first post")

	empty := newTestEnv(t, `[{"id":1,"title":"Hidden","published":false}]`, testCategories)
	w = empty.get("/articles")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No articles available or error fetching.")
	assert.NotContains(t, w.Body.String(), "Hidden")
}

func TestListCategories(t *testing.T) {
	env := newTestEnv(t, testArticles, testCategories)
	w := env.get("/categories")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/posts?category=1"`)
	assert.Contains(t, w.Body.String(), "Life")

	empty := newTestEnv(t, testArticles, `[]`)
	w = empty.get("/categories")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No categories available or error fetching.")
}

func TestAddArticleForm(t *testing.T) {
	env := newTestEnv(t, testArticles, testCategories)
	w := env.get("/articles/add")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<option value="2">Life</option>`)
	assert.Contains(t, w.Body.String(), `enctype="multipart/form-data"`)

	empty := newTestEnv(t, testArticles, `[]`)
	w = empty.get("/articles/add")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<option")
}

func TestAddArticle(t *testing.T) {
	env := newTestEnv(t, testArticles, testCategories)
	env.uploader.url = "https://img.example/cover.png"

	w := env.do(multipartRequest(t, map[string]string{
		"title":     "New <Post>",
		"content":   `<p>hi</p><script>alert(1)</script>`,
		"category":  "1",
		"published": "on",
	}, pngData))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/articles", w.Header().Get("Location"))
	assert.Equal(t, 1, env.uploader.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.ArticlesCreated))

	got, err := env.store.ArticleByID("4")
	require.NoError(t, err)
	assert.Equal(t, "New <Post>", got.Title)
	assert.Equal(t, `<p>hi</p><script>alert(1)</script>`, got.Content)
	assert.Equal(t, "https://img.example/cover.png", got.FeatureImageURL)
	assert.True(t, got.Published)
	assert.Equal(t, "Tech", got.CategoryName)
	assert.NotEmpty(t, got.PostDate)

	var persisted []map[string]any
	raw, err := os.ReadFile(env.articlesPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &persisted))
	require.Len(t, persisted, 4)
	assert.Equal(t, "1", persisted[3]["category"])

	// the flash set before the redirect shows once on the list page
	follow := httptest.NewRequest(http.MethodGet, "/articles", nil)
	for _, c := range w.Result().Cookies() {
		follow.AddCookie(c)
	}
	page := env.do(follow)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `Article &#34;New &lt;Post&gt;&#34; added.`)

	// stored markup is sanitized on the way out
	post := env.get("/post/4")
	require.Equal(t, http.StatusOK, post.Code)
	assert.Contains(t, post.Body.String(), "<p>hi</p>")
	assert.NotContains(t, post.Body.String(), "<script>alert(1)</script>")
}

func TestAddArticle_StoresFieldsAsSubmitted(t *testing.T) {
	env := newTestEnv(t, testArticles, testCategories)

	content := `It's "Tom & Jerry" 1 < 2`
	w := env.do(multipartRequest(t, map[string]string{"title": "Quotes", "content": content}, nil))
	require.Equal(t, http.StatusFound, w.Code)

	got, err := env.store.ArticleByID("4")
	require.NoError(t, err)
	assert.Equal(t, content, got.Content)
	assert.Equal(t, services.UnknownCategory, got.CategoryName)

	var persisted []map[string]any
	raw, err := os.ReadFile(env.articlesPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &persisted))
	require.Len(t, persisted, 4)
	assert.Equal(t, content, persisted[3]["content"])
	assert.Contains(t, persisted[3], "category")
	assert.Equal(t, "", persisted[3]["category"])
}

func TestAddArticle_UploadFailureStillCreates(t *testing.T) {
	env := newTestEnv(t, testArticles, testCategories)
	env.uploader.err = &services.UploadError{Reason: "host", Err: errors.New("timeout")}

	w := env.do(multipartRequest(t, map[string]string{"title": "No image"}, pngData))
	require.Equal(t, http.StatusFound, w.Code)

	got, err := env.store.ArticleByID("4")
	require.NoError(t, err)
	assert.Empty(t, got.FeatureImageURL)
	assert.False(t, got.Published)
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.UploadFailures.WithLabelValues("host")))
}

func TestAddArticle_URLEncodedWithoutImage(t *testing.T) {
	env := newTestEnv(t, testArticles, testCategories)

	form := url.Values{"title": {"Plain"}, "category": {"2"}, "published": {"on"}}
	req := httptest.NewRequest(http.MethodPost, "/articles/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := env.do(req)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, 0, env.uploader.calls)

	got, err := env.store.ArticleByID("4")
	require.NoError(t, err)
	assert.Equal(t, "Life", got.CategoryName)
}

func TestAddArticle_MissingTitle(t *testing.T) {
	env := newTestEnv(t, testArticles, testCategories)

	w := env.do(multipartRequest(t, map[string]string{"content": "body"}, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "A title is required.")

	n, _ := env.store.Counts()
	assert.Equal(t, 3, n)
}

func TestAddArticle_PersistFailure(t *testing.T) {
	env := newTestEnv(t, testArticles, testCategories)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.router = env.build(t, failingStore{env.store}, logger)

	w := env.do(multipartRequest(t, map[string]string{"title": "Doomed"}, nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", w.Body.String())
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.PersistFailures))
}

func TestPosts(t *testing.T) {
	env := newTestEnv(t, testArticles, testCategories)

	tests := []struct {
		name     string
		query    string
		status   int
		contains []string
		excludes []string
	}{
		{name: "all", query: "", status: http.StatusOK, contains: []string{"Hello Go", "Life Notes"}, excludes: []string{"Draft"}},
		{name: "by numeric category", query: "?category=1", status: http.StatusOK, contains: []string{"Hello Go"}, excludes: []string{"Life Notes"}},
		{name: "by string category", query: "?category=2", status: http.StatusOK, contains: []string{"Life Notes"}, excludes: []string{"Hello Go", "Draft"}},
		{name: "unknown category", query: "?category=9", status: http.StatusOK, contains: []string{"No results returned"}},
		{name: "min date", query: "?minDate=2024-01-01", status: http.StatusOK, contains: []string{"Hello Go"}, excludes: []string{"Life Notes"}},
		{name: "min date in future", query: "?minDate=2999-01-01", status: http.StatusOK, contains: []string{"No results returned"}},
		{name: "bad min date", query: "?minDate=soon", status: http.StatusBadRequest, contains: []string{"invalid minDate"}},
		{name: "category wins over minDate", query: "?category=2&minDate=2024-01-01", status: http.StatusOK, contains: []string{"Life Notes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.get("/posts" + tt.query)
			assert.Equal(t, tt.status, w.Code)
			for _, s := range tt.contains {
				assert.Contains(t, w.Body.String(), s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, w.Body.String(), s)
			}
		})
	}
}

func TestPost(t *testing.T) {
	env := newTestEnv(t, testArticles, testCategories)

	w := env.get("/post/1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Hello Go |")
	assert.Contains(t, w.Body.String(), "<b>post</b>")
	assert.Contains(t, w.Body.String(), "February 1, 2024")

	for _, id := range []string{"99", "abc"} {
		w := env.get("/post/" + id)
		assert.Equal(t, http.StatusNotFound, w.Code, id)
		assert.Contains(t, w.Body.String(), "Post not found", id)
	}
}

func TestScenario_AddThenLookup(t *testing.T) {
	env := newTestEnv(t, `[{"id":1,"title":"A","category":1,"published":true}]`, `[{"id":1,"name":"Tech"}]`)

	assert.Equal(t, http.StatusNotFound, env.get("/post/2").Code)

	w := env.do(multipartRequest(t, map[string]string{"title": "B", "category": "1", "published": "on"}, nil))
	require.Equal(t, http.StatusFound, w.Code)

	w = env.get("/post/2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>B</h1>")
	assert.Contains(t, w.Body.String(), "Tech")
}

func TestMiscRoutes(t *testing.T) {
	env := newTestEnv(t, testArticles, testCategories)

	w := env.get("/favicon.ico")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = env.get("/does/not/exist")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found")

	w = env.get("/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","articles":3,"categories":2}`, w.Body.String())

	w = env.get("/static/style.css")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.get("/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "blog_http_request_duration_seconds")
}

func TestMiddlewareHeaders(t *testing.T) {
	env := newTestEnv(t, testArticles, testCategories)

	w := env.get("/about")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = env.do(req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}
