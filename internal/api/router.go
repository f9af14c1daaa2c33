// Package api exposes the gym services over HTTP with gin.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gymdesk/internal/attendance"
	"gymdesk/internal/auth"
	"gymdesk/internal/checkin"
	"gymdesk/internal/httpmiddleware"
	"gymdesk/internal/media"
	"gymdesk/internal/member"
	"gymdesk/internal/payment"
	"gymdesk/internal/report"
)

// PhotoUploader stores member photos and returns their public URL.
type PhotoUploader interface {
	UploadBytes(ctx context.Context, publicID string, data []byte, filename string) (*media.UploadResult, error)
	UploadBase64(ctx context.Context, publicID, data string) (*media.UploadResult, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck = func(ctx context.Context) bool

// Deps are the services behind the handlers. Photos may be nil.
type Deps struct {
	Members    *member.Service
	Payments   *payment.Service
	Attendance *attendance.Service
	CheckIn    *checkin.Service
	Gate       *auth.Gate
	Reports    *report.Service
	Photos     PhotoUploader
	Health     map[string]HealthCheck
	Logger     *zap.Logger
}

// Options tune the router.
type Options struct {
	CORSOrigins       []string
	RateLimitPerMin   int
	RequireAdminToken bool
	JWTIssuer         string
	JWTSigningKey     string
	AccessTTL         time.Duration
	Location          *time.Location
}

type handler struct {
	Deps
	opts Options
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(d Deps, opts Options) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	h := &handler{Deps: d, opts: opts}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(d.Logger, "/healthz", "/metrics"))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	r.Use(httpmiddleware.SecurityHeaders())
	if opts.RateLimitPerMin > 0 {
		r.Use(httpmiddleware.NewIPRateLimiter(opts.RateLimitPerMin).GinMiddleware())
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.health)
	r.POST("/auth", h.login)
	r.POST("/checkin", h.checkIn)

	admin := r.Group("/")
	if opts.RequireAdminToken {
		admin.Use(auth.AdminAuth(opts.JWTSigningKey, opts.JWTIssuer))
	}

	admin.GET("/members", h.getMembers)
	admin.POST("/members", h.postMembers)
	admin.PUT("/members", h.updateMember)
	admin.PATCH("/members", h.renewMember)
	admin.DELETE("/members", h.deleteMember)
	admin.GET("/members/search", h.searchMembers)
	admin.POST("/members/photo", h.uploadPhoto)

	admin.GET("/payments", h.listPayments)
	admin.PUT("/payments", h.amendPayment)
	admin.DELETE("/payments", h.deletePayment)
	admin.GET("/payments/summary", h.paymentSummary)

	admin.GET("/attendance", h.listAttendance)
	admin.GET("/stats", h.stats)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (h *handler) health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.Health {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

func (h *handler) stats(c *gin.Context) {
	st, err := h.Reports.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
