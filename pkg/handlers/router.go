package handlers

import (
	"log/slog"
	"net/http"

	"blog-cms/web"

	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	SessionSecret  []byte
	MaxUploadBytes int64
	TrustedProxies []string
	SSLHeaders     bool
}

// NewRouter wires middleware, templates and every route onto a gin engine.
func NewRouter(h *Handler, logger *slog.Logger, opts RouterOptions) (*gin.Engine, error) {
	m := h.metrics
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}
	if opts.MaxUploadBytes > 0 {
		// headroom for the text fields of the form
		r.MaxMultipartMemory = opts.MaxUploadBytes + 1<<20
	}

	secureConfig := secure.Config{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' https: data:",
	}
	if opts.SSLHeaders {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}

	r.Use(
		gin.CustomRecovery(h.Recovered),
		RequestID(),
		RequestLogger(logger),
		m.Middleware(),
		secure.New(secureConfig),
		sessions.Sessions(sessionName, cookie.NewStore(opts.SessionSecret)),
	)

	tmpl, err := web.Templates(h.TemplateFuncs())
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(web.Static()))

	r.GET("/", h.About)
	r.GET("/about", h.About)
	r.GET("/home", h.Home)
	r.GET("/articles", h.ListArticles)
	r.GET("/categories", h.ListCategories)
	r.GET("/articles/add", h.AddArticleForm)
	r.POST("/articles/add", h.AddArticle)
	r.GET("/posts", h.Posts)
	r.GET("/post/:id", h.Post)
	r.GET("/favicon.ico", h.Favicon)

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.NoRoute(h.NotFound)

	return r, nil
}
