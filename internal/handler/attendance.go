package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"absensi/internal/apperr"
	"absensi/internal/attendance"
)

type recordRequest struct {
	StudentNumber string `json:"student_number" binding:"required"`
	Token         string `json:"token" binding:"required"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required,attendance_status"`
}

func (h *Handler) listAttendance(c *gin.Context) {
	f, err := attendance.ParseFilter(c.Query("filter"), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.fail(c, err)
		return
	}
	records, err := h.ledger.Query(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) attendanceByDate(c *gin.Context) {
	day := c.Query("date")
	if day == "" {
		h.fail(c, apperr.Validation("date is required"))
		return
	}
	f, err := attendance.ExactDate(day)
	if err != nil {
		h.fail(c, err)
		return
	}
	records, err := h.ledger.Query(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) recordAttendance(c *gin.Context) {
	var req recordRequest
	if !h.bind(c, &req) {
		h.m.SubmissionResult(apperr.KindValidation.String())
		return
	}
	rec, err := h.ledger.Record(c.Request.Context(), req.StudentNumber, req.Token)
	if err != nil {
		h.m.SubmissionResult(apperr.KindOf(err).String())
		h.fail(c, err)
		return
	}
	h.m.SubmissionResult("ok")
	c.JSON(http.StatusCreated, gin.H{
		"success":        true,
		"id":             rec.ID,
		"student_number": rec.StudentNumber,
		"date":           rec.Date,
		"status":         rec.Status,
	})
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req statusRequest
	if !h.bind(c, &req) {
		return
	}
	if _, err := h.ledger.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		h.fail(c, err)
		return
	}
	h.m.StatusUpdated()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) statistics(c *gin.Context) {
	var days []string
	if raw := c.Query("dates"); raw != "" {
		for _, d := range strings.Split(raw, ",") {
			if d = strings.TrimSpace(d); d != "" {
				days = append(days, d)
			}
		}
	}
	stats, err := h.ledger.Statistics(c.Request.Context(), days...)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) unmarked(c *gin.Context) {
	students, err := h.ledger.ListUnmarked(c.Request.Context(), c.Query("date"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}
