// Package handler exposes the attendance services over HTTP.
package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"absensi/internal/apperr"
	"absensi/internal/attendance"
	"absensi/internal/auth"
	"absensi/internal/config"
	"absensi/internal/metrics"
	"absensi/internal/realtime"
	"absensi/internal/roster"
)

// HealthCheck reports whether a dependency answers.
type HealthCheck func(ctx context.Context) bool

// Deps is everything the router needs.
type Deps struct {
	Auth   *auth.Service
	Roster *roster.Service
	Ledger *attendance.Ledger
	Hub    *realtime.Hub

	Log      *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// Checks feed /healthz, keyed by dependency name.
	Checks map[string]HealthCheck

	Config config.App
	// Heartbeat is the SSE keep-alive interval; zero means 25s.
	Heartbeat time.Duration
}

// Handler holds the HTTP handlers.
type Handler struct {
	auth   *auth.Service
	roster *roster.Service
	ledger *attendance.Ledger
	hub    *realtime.Hub

	log       *zap.Logger
	m         *metrics.Metrics
	checks    map[string]HealthCheck
	cfg       config.App
	heartbeat time.Duration
}

func newHandler(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	hb := d.Heartbeat
	if hb <= 0 {
		hb = 25 * time.Second
	}
	return &Handler{
		auth:      d.Auth,
		roster:    d.Roster,
		ledger:    d.Ledger,
		hub:       d.Hub,
		log:       log,
		m:         d.Metrics,
		checks:    d.Checks,
		cfg:       d.Config,
		heartbeat: hb,
	}
}

// fail answers with the status of err's kind. Internal errors are logged and hidden.
func (h *Handler) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(kind.HTTPStatus(), gin.H{"error": apperr.Message(err)})
}

// bind decodes the JSON body into req, reporting binding failures as validation errors.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.fail(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("invalid JSON body")
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperr.Validation(field + " is required")
	case tagStudentNumber:
		return apperr.Validation(field + " must be numeric")
	case tagAttendanceStatus:
		return apperr.Validation("invalid status")
	default:
		return apperr.Validation(field + " is invalid")
	}
}
