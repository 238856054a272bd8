package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"absensi/internal/apperr"
	"absensi/internal/auth"
)

type loginRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type validateTokenRequest struct {
	Token string `json:"token"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}

	op, err := h.auth.Login(c.Request.Context(), req.Nickname, req.Password)
	if err != nil {
		if apperr.Is(err, apperr.KindAuth) {
			h.m.LoginResult("failed")
		}
		h.fail(c, err)
		return
	}

	session, err := auth.IssueSession(op, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.SessionTTL)
	if err != nil {
		h.fail(c, apperr.Internal("issue session", err))
		return
	}
	h.m.LoginResult("ok")

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"operator":     op,
		"access_token": session.AccessToken,
		"expires_at":   session.ExpiresAt.Unix(),
	})
}

func (h *Handler) currentToken(c *gin.Context) {
	token, day, err := h.auth.CurrentToken(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "date": day})
}

func (h *Handler) validateToken(c *gin.Context) {
	var req validateTokenRequest
	// An empty body checks the empty token.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(c, bindError(err))
		return
	}
	ok, err := h.auth.ValidateToken(c.Request.Context(), req.Token)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": ok})
}
