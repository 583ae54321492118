package v1

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/duynhne/user-console/config"
	"github.com/duynhne/user-console/internal/core/domain"
	"github.com/duynhne/user-console/internal/core/session"
	logicv1 "github.com/duynhne/user-console/internal/logic/v1"
	"github.com/duynhne/user-console/middleware"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Deps is what the router needs from main
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Sessions *session.Store[*logicv1.Workspace]
	Limiter  *middleware.RateLimiter
	// Ready reports whether the service accepts traffic. Nil means always.
	Ready func() bool
}

// parseTemplates loads every page template. ttl renders the remaining
// lifetime of a toast in milliseconds.
func parseTemplates(toastDuration time.Duration) *template.Template {
	funcs := template.FuncMap{
		"ttl": func(n domain.Notification) int64 {
			return remaining(n, toastDuration).Milliseconds()
		},
		"websiteHref": websiteHref,
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl"))
}

// NewRouter builds the gin engine with the middleware chain, the infra
// endpoints and the user console routes.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	h := NewUserHandler(d.Sessions, d.Logger)

	r := gin.New()
	r.SetHTMLTemplate(parseTemplates(cfg.UI.ToastDuration))

	// Tracing middleware (must be first for context propagation)
	r.Use(middleware.TracingMiddleware())
	r.Use(middleware.SessionMiddleware(middleware.SessionConfig{
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.Secure,
	}))
	// Logging middleware (must be before Prometheus middleware)
	r.Use(middleware.LoggingMiddleware(d.Logger))
	r.Use(gin.CustomRecovery(h.Recover))
	if cfg.Metrics.Enabled {
		r.Use(middleware.PrometheusMiddleware())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Returns 503 once shutdown has started, to drain traffic before HTTP shutdown.
	r.GET("/ready", func(c *gin.Context) {
		if d.Ready != nil && !d.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	ui := r.Group("/")
	if d.Limiter != nil {
		ui.Use(d.Limiter.Middleware(h.TooManyRequests))
	}
	{
		ui.GET("/", h.ListUsers)
		ui.POST("/refresh", h.Refresh)

		ui.GET("/users/new", h.NewUser)
		ui.POST("/users", h.CreateUser)
		ui.GET("/users/:id/edit", h.EditUser)
		ui.POST("/users/:id", h.UpdateUser)
		ui.GET("/users/:id/delete", h.ConfirmDelete)
		ui.POST("/users/:id/delete", h.DeleteUser)
		ui.POST("/modal/close", h.CloseModal)

		ui.GET("/user/:id", h.GetUser)

		ui.GET("/toasts", h.ListToasts)
		ui.POST("/toasts/:id/dismiss", h.DismissToast)
	}

	r.NoRoute(h.NotFound)

	return r
}
