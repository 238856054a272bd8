package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addStudentRequest struct {
	Name          string `json:"name" binding:"required"`
	StudentNumber string `json:"student_number" binding:"required,student_number"`
}

func (h *Handler) listStudents(c *gin.Context) {
	students, err := h.roster.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) addStudent(c *gin.Context) {
	var req addStudentRequest
	if !h.bind(c, &req) {
		return
	}
	s, err := h.roster.Add(c.Request.Context(), req.Name, req.StudentNumber)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":        true,
		"id":             s.ID,
		"name":           s.Name,
		"student_number": s.StudentNumber,
	})
}

func (h *Handler) removeStudent(c *gin.Context) {
	if err := h.roster.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
