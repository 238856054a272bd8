package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"absensi/internal/auth"
	"absensi/internal/httpmiddleware"
)

// NewRouter wires middleware and routes.
func NewRouter(d Deps) *gin.Engine {
	registerValidators()
	h := newHandler(d)

	r := gin.New()
	r.Use(httpmiddleware.Recovery(h.log))
	r.Use(httpmiddleware.AccessLog(h.log, "/healthz", "/health", "/metrics"))
	r.Use(cors.New(corsConfig(d.Config.CORSAllowedOrigins)))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.Metrics(h.m))
	if d.Config.RateLimitPerMin > 0 {
		r.Use(httpmiddleware.NewRateLimiter(d.Config.RateLimitPerMin).GinMiddleware())
	}

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.GET("/health", h.health)
	r.GET("/healthz", h.healthz)

	// Operator-only routes carry the session guard when it is enabled.
	operator := []gin.HandlerFunc{}
	if d.Config.RequireOperatorSession {
		operator = append(operator, auth.OperatorSession(d.Config.JWTSigningKey, d.Config.JWTIssuer))
	}
	guarded := func(hf gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, operator...), hf)
	}

	api := r.Group("/api")
	api.GET("/tunnel-url", h.tunnelURL)
	api.GET("/events", h.events)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.login)
	authGroup.GET("/token", guarded(h.currentToken)...)
	authGroup.POST("/validate-token", h.validateToken)

	students := api.Group("/students")
	students.GET("", h.listStudents)
	students.POST("", guarded(h.addStudent)...)
	students.DELETE("/:id", guarded(h.removeStudent)...)

	att := api.Group("/attendance")
	att.GET("", h.listAttendance)
	att.GET("/by-date", h.attendanceByDate)
	att.GET("/statistics", h.statistics)
	att.GET("/unmarked", h.unmarked)
	att.POST("", h.recordAttendance)
	att.PATCH("/:id", guarded(h.updateStatus)...)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
